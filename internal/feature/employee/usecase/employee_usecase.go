package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"employee_backend/internal/feature/employee/domain/entity"
	"employee_backend/internal/shared/apperr"
	"employee_backend/internal/shared/validation"
)

// EmployeeRepository は従業員の永続化層を抽象化します。
// Goの慣習に従い、インターフェースは提供側(adapters)ではなく利用側(usecase)で定義する。
type EmployeeRepository interface {
	// ValidID は id がこのストアの識別子として構文上正しいかを返します。
	ValidID(id string) bool

	// Create は e を追加し、IDとタイムスタンプを設定します。
	// 一意制約違反なら ErrEmailAlreadyExists を返します。
	Create(ctx context.Context, e *entity.Employee) error

	// FindByID は存在しなければ ErrEmployeeNotFound を返します。
	FindByID(ctx context.Context, id string) (*entity.Employee, error)

	// FindByEmail は存在しなければ ErrEmployeeNotFound を返します。
	FindByEmail(ctx context.Context, email string) (*entity.Employee, error)

	// List は全従業員を古い順に返します。
	List(ctx context.Context) ([]*entity.Employee, error)

	// Search は空でないフィルタ項目すべてに一致する従業員を古い順に返します。
	Search(ctx context.Context, filter entity.Filter) ([]*entity.Employee, error)

	// Update は patch を適用し、更新後のレコードを返します。
	// 一致しなければ ErrEmployeeNotFound、一意制約違反なら ErrEmailAlreadyExists を返します。
	Update(ctx context.Context, id string, patch entity.Patch) (*entity.Employee, error)

	// Delete は一致しなければ ErrEmployeeNotFound を返します。
	Delete(ctx context.Context, id string) error
}

// AddInput はクライアントから受け取った新規従業員の項目です。
type AddInput struct {
	FirstName     string
	LastName      string
	Email         string
	Gender        string
	Designation   string
	Salary        float64
	DateOfJoining string
	Department    string
}

// UpdateInput は部分更新です。nil の項目は変更しません。
type UpdateInput struct {
	FirstName     *string
	LastName      *string
	Email         *string
	Gender        *string
	Designation   *string
	Salary        *float64
	DateOfJoining *string
	Department    *string
}

// EmployeeUsecase は従業員名簿の操作を実装します。
type EmployeeUsecase struct {
	employees EmployeeRepository
	photos    PhotoStorage
}

// NewEmployeeUsecase は EmployeeUsecase の新しいインスタンスを返します。
func NewEmployeeUsecase(employees EmployeeRepository, photos PhotoStorage) *EmployeeUsecase {
	return &EmployeeUsecase{employees: employees, photos: photos}
}

// dateLayouts は date_of_joining で受け付ける書式です。
var dateLayouts = []string{time.DateOnly, time.RFC3339Nano}

// ParseDate は date_of_joining の値を解析します。
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperr.InvalidInput("date_of_joining must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
}

// missingField はクライアントに見える順で最初の未入力項目を返します。
func (in AddInput) missingField() string {
	switch {
	case strings.TrimSpace(in.FirstName) == "":
		return "first_name"
	case strings.TrimSpace(in.LastName) == "":
		return "last_name"
	case strings.TrimSpace(in.Email) == "":
		return "email"
	case strings.TrimSpace(in.Gender) == "":
		return "gender"
	case strings.TrimSpace(in.Designation) == "":
		return "designation"
	case in.Salary == 0:
		return "salary"
	case strings.TrimSpace(in.DateOfJoining) == "":
		return "date_of_joining"
	case strings.TrimSpace(in.Department) == "":
		return "department"
	}
	return ""
}

// Add は任意の写真を先に保存してから従業員を作成します。
// 従業員を作成できなければ保存した写真は削除します。
func (u *EmployeeUsecase) Add(ctx context.Context, in AddInput, photo *PhotoUpload) (*entity.Employee, error) {
	var upload *PhotoUpload
	if photo != nil {
		var err error
		if upload, err = preparePhoto(photo); err != nil {
			return nil, err
		}
	}

	if field := in.missingField(); field != "" {
		return nil, apperr.InvalidInput("%s is required", field)
	}
	joined, err := ParseDate(in.DateOfJoining)
	if err != nil {
		return nil, err
	}

	e := &entity.Employee{
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Email:         in.Email,
		Gender:        in.Gender,
		Designation:   in.Designation,
		Salary:        in.Salary,
		DateOfJoining: joined,
		Department:    in.Department,
	}
	e.Normalize()

	if err := u.ensureEmailFree(ctx, e.Email, ""); err != nil {
		return nil, err
	}
	if msg := validation.Struct(e); msg != "" {
		return nil, apperr.InvalidInput("%s", msg)
	}

	if e.EmployeePhoto, err = u.storePhoto(ctx, upload); err != nil {
		return nil, err
	}

	if err := u.employees.Create(ctx, e); err != nil {
		u.discardPhoto(ctx, e.EmployeePhoto, "create failed")
		if errors.Is(err, ErrEmailAlreadyExists) {
			return nil, emailTaken(e.Email).WithCause(err)
		}
		return nil, apperr.Internal(err, "failed to create employee")
	}
	return e, nil
}

// Update は部分更新を適用し、必要に応じて写真を差し替えます。
// 以前の写真は更新が成功してから削除します。
func (u *EmployeeUsecase) Update(ctx context.Context, id string, in UpdateInput, photo *PhotoUpload) (*entity.Employee, error) {
	current, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := entity.Patch{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		Gender:      in.Gender,
		Designation: in.Designation,
		Salary:      in.Salary,
		Department:  in.Department,
	}
	if in.DateOfJoining != nil {
		joined, err := ParseDate(*in.DateOfJoining)
		if err != nil {
			return nil, err
		}
		patch.DateOfJoining = &joined
	}
	patch.Normalize()
	if patch.IsEmpty() && photo == nil {
		return current, nil
	}

	var upload *PhotoUpload
	if photo != nil {
		if upload, err = preparePhoto(photo); err != nil {
			return nil, err
		}
	}

	merged := patch.Apply(*current)
	if msg := validation.Struct(&merged); msg != "" {
		return nil, apperr.InvalidInput("%s", msg)
	}
	if patch.Email != nil && *patch.Email != current.Email {
		if err := u.ensureEmailFree(ctx, *patch.Email, current.ID); err != nil {
			return nil, err
		}
	}

	newPhoto, err := u.storePhoto(ctx, upload)
	if err != nil {
		return nil, err
	}
	if newPhoto != "" {
		patch.EmployeePhoto = &newPhoto
	}

	updated, err := u.employees.Update(ctx, current.ID, patch)
	if err != nil {
		u.discardPhoto(ctx, newPhoto, "update failed")
		switch {
		case errors.Is(err, ErrEmployeeNotFound):
			return nil, notFound(id).WithCause(err)
		case errors.Is(err, ErrEmailAlreadyExists):
			return nil, emailTaken(merged.Email).WithCause(err)
		}
		return nil, apperr.Internal(err, "failed to update employee")
	}

	if newPhoto != "" && current.EmployeePhoto != "" && current.EmployeePhoto != newPhoto {
		u.discardPhoto(ctx, current.EmployeePhoto, "replaced")
	}
	return updated, nil
}

// Delete は従業員とその写真を削除します。不正なIDはストアに触れる前に失敗します。
func (u *EmployeeUsecase) Delete(ctx context.Context, id string) (string, error) {
	if !u.employees.ValidID(id) {
		return "", ErrInvalidID.WithCause(fmt.Errorf("id %q", id))
	}
	current, err := u.find(ctx, id)
	if err != nil {
		return "", err
	}
	if err := u.employees.Delete(ctx, current.ID); err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			return "", notFound(id).WithCause(err)
		}
		return "", apperr.Internal(err, "failed to delete employee")
	}
	u.discardPhoto(ctx, current.EmployeePhoto, "employee deleted")
	return fmt.Sprintf("Employee with ID %s has been deleted successfully.", id), nil
}

// Get は従業員を1件返します。
func (u *EmployeeUsecase) Get(ctx context.Context, id string) (*entity.Employee, error) {
	return u.find(ctx, id)
}

// List は全従業員を返します。
func (u *EmployeeUsecase) List(ctx context.Context) ([]*entity.Employee, error) {
	list, err := u.employees.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list employees")
	}
	return nonNil(list), nil
}

// Search は役職と部署で絞り込みます。一致しなければ空のリストです。
func (u *EmployeeUsecase) Search(ctx context.Context, designation, department string) ([]*entity.Employee, error) {
	filter := entity.Filter{
		Designation: strings.TrimSpace(designation),
		Department:  strings.TrimSpace(department),
	}
	list, err := u.employees.Search(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err, "failed to search employees")
	}
	return nonNil(list), nil
}

func (u *EmployeeUsecase) find(ctx context.Context, id string) (*entity.Employee, error) {
	if !u.employees.ValidID(id) {
		return nil, notFound(id)
	}
	e, err := u.employees.FindByID(ctx, id)
	if errors.Is(err, ErrEmployeeNotFound) {
		return nil, notFound(id).WithCause(err)
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load employee")
	}
	return e, nil
}

// ensureEmailFree は email が selfID 以外の従業員のものなら Conflict で失敗します。
func (u *EmployeeUsecase) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := u.employees.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrEmployeeNotFound):
		return nil
	case err != nil:
		return apperr.Internal(err, "failed to check employee email")
	case existing.ID != selfID:
		return emailTaken(email)
	}
	return nil
}

func nonNil(list []*entity.Employee) []*entity.Employee {
	if list == nil {
		return []*entity.Employee{}
	}
	return list
}
