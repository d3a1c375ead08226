// Package entity は employee 機能のドメインエンティティを定義します。
package entity

import (
	"strings"
	"time"
)

// 従業員に指定できる性別の値。
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// 給与の範囲（境界値を含む）。
const (
	MinSalary = 1000
	MaxSalary = 1000000
)

// Employee は従業員名簿の1件のレコードです。
// validate タグはすべての書き込みが満たすべき項目の形式ルールです。
type Employee struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"first_name" validate:"required,max=25,alpha"`
	LastName      string    `json:"last_name" validate:"required,max=25,alpha"`
	Email         string    `json:"email" validate:"required,email"`
	Gender        string    `json:"gender" validate:"required,oneof=Male Female Other"`
	Designation   string    `json:"designation" validate:"required,max=50"`
	Salary        float64   `json:"salary" validate:"required,min=1000,max=1000000"`
	DateOfJoining time.Time `json:"date_of_joining" validate:"required,notfuture"`
	Department    string    `json:"department" validate:"required,max=50"`
	EmployeePhoto string    `json:"employee_photo,omitempty" validate:"omitempty,imagepath"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Normalize はテキスト項目を trim し、メールアドレスを小文字にします。
func (e *Employee) Normalize() {
	e.FirstName = strings.TrimSpace(e.FirstName)
	e.LastName = strings.TrimSpace(e.LastName)
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	e.Gender = strings.TrimSpace(e.Gender)
	e.Designation = strings.TrimSpace(e.Designation)
	e.Department = strings.TrimSpace(e.Department)
}

// Patch は部分更新です。nil の項目は変更しません。
type Patch struct {
	FirstName     *string
	LastName      *string
	Email         *string
	Gender        *string
	Designation   *string
	Salary        *float64
	DateOfJoining *time.Time
	Department    *string
	EmployeePhoto *string
}

// IsEmpty はパッチが何も変更しないかを返します。
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// Normalize は指定されたテキスト項目を trim し、指定されたメールアドレスを小文字にします。
func (p *Patch) Normalize() {
	for _, s := range []*string{p.FirstName, p.LastName, p.Gender, p.Designation, p.Department} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	if p.Email != nil {
		*p.Email = strings.ToLower(strings.TrimSpace(*p.Email))
	}
}

// Apply はパッチを適用した e のコピーを返します。
func (p Patch) Apply(e Employee) Employee {
	if p.FirstName != nil {
		e.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		e.LastName = *p.LastName
	}
	if p.Email != nil {
		e.Email = *p.Email
	}
	if p.Gender != nil {
		e.Gender = *p.Gender
	}
	if p.Designation != nil {
		e.Designation = *p.Designation
	}
	if p.Salary != nil {
		e.Salary = *p.Salary
	}
	if p.DateOfJoining != nil {
		e.DateOfJoining = *p.DateOfJoining
	}
	if p.Department != nil {
		e.Department = *p.Department
	}
	if p.EmployeePhoto != nil {
		e.EmployeePhoto = *p.EmployeePhoto
	}
	return e
}

// Filter は検索の絞り込み条件です。空の項目は条件にしません。
type Filter struct {
	Designation string
	Department  string
}
