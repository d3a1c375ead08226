// Package adapters は employee 機能のリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"employee_backend/internal/feature/employee/domain/entity"
	"employee_backend/internal/feature/employee/usecase"
)

// employeeGorm は EmployeeRepository の GORM 実装です。
// 一意制約違反が gorm.ErrDuplicatedKey になるよう、TranslateError 付きで開いた *gorm.DB を前提とします。
type employeeGorm struct {
	db  *gorm.DB
	now func() time.Time
}

// コンパイル時に employeeGorm が EmployeeRepository を実装していることを確認する。
var _ usecase.EmployeeRepository = (*employeeGorm)(nil)

// NewEmployeeGorm は employeeGorm の新しいインスタンスを返します。
func NewEmployeeGorm(db *gorm.DB) *employeeGorm {
	return &employeeGorm{db: db, now: time.Now}
}

// ValidID は UUID 文字列を受け付けます。
func (r *employeeGorm) ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Create は e を追加し、採番されたIDとタイムスタンプを書き戻します。
func (r *employeeGorm) Create(ctx context.Context, e *entity.Employee) error {
	if e == nil {
		return errors.New("employee is nil")
	}
	model := EmployeeModelFromEntity(e)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translate(err)
	}
	*e = *model.ToEntity()
	return nil
}

// FindByID はIDをキーに従業員を検索します。
func (r *employeeGorm) FindByID(ctx context.Context, id string) (*entity.Employee, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByEmail はメールアドレスをキーに従業員を検索します。
func (r *employeeGorm) FindByEmail(ctx context.Context, email string) (*entity.Employee, error) {
	return r.first(ctx, "email = ?", email)
}

// List は全従業員を古い順に返します。
func (r *employeeGorm) List(ctx context.Context) ([]*entity.Employee, error) {
	return r.Search(ctx, entity.Filter{})
}

// Search は空でないフィルタ項目すべてに一致する従業員を返します。
func (r *employeeGorm) Search(ctx context.Context, f entity.Filter) ([]*entity.Employee, error) {
	q := r.db.WithContext(ctx).Model(&EmployeeModel{})
	if f.Designation != "" {
		q = q.Where("designation = ?", f.Designation)
	}
	if f.Department != "" {
		q = q.Where("department = ?", f.Department)
	}

	var models []EmployeeModel
	if err := q.Order("created_at ASC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.Employee, len(models))
	for i := range models {
		out[i] = models[i].ToEntity()
	}
	return out, nil
}

// Update はパッチを適用し、保存後のレコードを返します。
func (r *employeeGorm) Update(ctx context.Context, id string, p entity.Patch) (*entity.Employee, error) {
	fields := patchFields(p)
	fields["updated_at"] = r.now().UTC()

	result := r.db.WithContext(ctx).
		Model(&EmployeeModel{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, usecase.ErrEmployeeNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete はIDをキーに従業員を削除します。
func (r *employeeGorm) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&EmployeeModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrEmployeeNotFound
	}
	return nil
}

func (r *employeeGorm) first(ctx context.Context, query string, args ...any) (*entity.Employee, error) {
	var m EmployeeModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrEmployeeNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return usecase.ErrEmailAlreadyExists
	}
	return err
}
