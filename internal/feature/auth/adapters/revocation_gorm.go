package adapters

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"employee_backend/internal/feature/auth/usecase"
)

// revocationGorm は TokenRevoker の GORM 実装です。Redis 未設定のときに使います。
type revocationGorm struct {
	db  *gorm.DB
	now func() time.Time
}

// コンパイル時に revocationGorm が TokenRevoker を実装していることを確認する。
var _ usecase.TokenRevoker = (*revocationGorm)(nil)

// NewRevocationGorm は revocationGorm の新しいインスタンスを返します。
func NewRevocationGorm(db *gorm.DB) *revocationGorm {
	return &revocationGorm{db: db, now: time.Now}
}

// Revoke は tokenID を expiresAt まで記録します。二重の失効は何もせず、期限切れのトークンは保存しません。
func (r *revocationGorm) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	now := r.now()
	if !expiresAt.After(now) {
		return nil
	}
	model := &RevokedTokenModel{ID: tokenID, ExpiresAt: expiresAt.UTC(), CreatedAt: now.UTC()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(model).Error
}

// IsRevoked は tokenID が記録済みかつ期限内かを返します。
func (r *revocationGorm) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&RevokedTokenModel{}).
		Where("id = ? AND expires_at > ?", tokenID, r.now().UTC()).
		Count(&count).Error
	return count > 0, err
}

// DeleteExpired は期限切れのトークンの行を削除し、削除件数を返します。
func (r *revocationGorm) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", r.now().UTC()).
		Delete(&RevokedTokenModel{})
	return result.RowsAffected, result.Error
}
