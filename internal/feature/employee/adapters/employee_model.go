package adapters

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"employee_backend/internal/feature/employee/domain/entity"
)

// EmployeeModel は employees テーブルの GORM モデルです。
type EmployeeModel struct {
	ID            string    `gorm:"primaryKey;size:36"`
	FirstName     string    `gorm:"size:25;not null"`
	LastName      string    `gorm:"size:25;not null"`
	Email         string    `gorm:"uniqueIndex;size:255;not null"`
	Gender        string    `gorm:"size:10;not null"`
	Designation   string    `gorm:"size:50;not null;index"`
	Salary        float64   `gorm:"not null"`
	DateOfJoining time.Time `gorm:"not null"`
	Department    string    `gorm:"size:50;not null;index"`
	EmployeePhoto string    `gorm:"size:255"`
	CreatedAt     time.Time `gorm:"index"`
	UpdatedAt     time.Time
}

// TableName は GORM 用のテーブル名を返します。
func (EmployeeModel) TableName() string {
	return "employees"
}

// BeforeCreate は UUIDv4 の主キーを割り当てます。
func (m *EmployeeModel) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// ToEntity は GORM モデルをドメインエンティティに変換します。
func (m *EmployeeModel) ToEntity() *entity.Employee {
	return &entity.Employee{
		ID:            m.ID,
		FirstName:     m.FirstName,
		LastName:      m.LastName,
		Email:         m.Email,
		Gender:        m.Gender,
		Designation:   m.Designation,
		Salary:        m.Salary,
		DateOfJoining: m.DateOfJoining.UTC(),
		Department:    m.Department,
		EmployeePhoto: m.EmployeePhoto,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

// EmployeeModelFromEntity はドメインエンティティを GORM モデルに変換します。
func EmployeeModelFromEntity(e *entity.Employee) *EmployeeModel {
	return &EmployeeModel{
		ID:            e.ID,
		FirstName:     e.FirstName,
		LastName:      e.LastName,
		Email:         e.Email,
		Gender:        e.Gender,
		Designation:   e.Designation,
		Salary:        e.Salary,
		DateOfJoining: e.DateOfJoining.UTC(),
		Department:    e.Department,
		EmployeePhoto: e.EmployeePhoto,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// patchFields は p の設定済みフィールドをカラム名に対応付けます。名前は
// SQL のカラムと MongoDB のドキュメントフィールドで共通です。
func patchFields(p entity.Patch) map[string]any {
	fields := map[string]any{}
	if p.FirstName != nil {
		fields["first_name"] = *p.FirstName
	}
	if p.LastName != nil {
		fields["last_name"] = *p.LastName
	}
	if p.Email != nil {
		fields["email"] = *p.Email
	}
	if p.Gender != nil {
		fields["gender"] = *p.Gender
	}
	if p.Designation != nil {
		fields["designation"] = *p.Designation
	}
	if p.Salary != nil {
		fields["salary"] = *p.Salary
	}
	if p.DateOfJoining != nil {
		fields["date_of_joining"] = p.DateOfJoining.UTC()
	}
	if p.Department != nil {
		fields["department"] = *p.Department
	}
	if p.EmployeePhoto != nil {
		fields["employee_photo"] = *p.EmployeePhoto
	}
	return fields
}

// Models は AutoMigrate 対象の employee テーブルの一覧です。
func Models() []any {
	return []any{&EmployeeModel{}}
}
