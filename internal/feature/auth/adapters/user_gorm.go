// Package adapters は auth 機能のリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"employee_backend/internal/feature/auth/domain/entity"
	"employee_backend/internal/feature/auth/usecase"
)

// userGorm は UserRepository インターフェースの GORM 実装です。
// 一意制約違反が gorm.ErrDuplicatedKey になるよう、TranslateError 付きで開いた *gorm.DB を前提とします。
type userGorm struct {
	db *gorm.DB
}

// コンパイル時に userGorm が UserRepository を実装していることを確認する。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm は userGorm の新しいインスタンスを返します（DI用のコンストラクタ）。
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// Create はユーザを追加し、採番されたIDとタイムスタンプを書き戻します。
// ユーザ名またはメールアドレスが使用済みなら usecase.ErrUserAlreadyExists を返します。
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	model := UserModelFromEntity(u)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return usecase.ErrUserAlreadyExists
		}
		return err
	}
	*u = *model.ToEntity()
	return nil
}

// FindByUsernameOrEmail はどちらかの識別子を持つ最初のユーザを返します。
func (r *userGorm) FindByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error) {
	return r.first(ctx, "username = ? OR email = ?", username, email)
}

// FindByUsername はユーザ名をキーにユーザを検索します。
func (r *userGorm) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.first(ctx, "username = ?", username)
}

// FindByID はIDをキーにユーザを検索します。
func (r *userGorm) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userGorm) first(ctx context.Context, query string, args ...any) (*entity.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where(query, args...).Order("created_at ASC").First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}
