package adapters

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"employee_backend/internal/feature/auth/domain/entity"
)

// UserModel は users テーブルの GORM モデルです。
type UserModel struct {
	ID           string `gorm:"primaryKey;size:36"`
	Username     string `gorm:"uniqueIndex;size:25;not null"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName は GORM 用のテーブル名を返します。
func (UserModel) TableName() string {
	return "users"
}

// BeforeCreate は UUIDv4 の主キーを割り当てます。
func (m *UserModel) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// ToEntity は GORM モデルをドメインエンティティに変換します。
func (m *UserModel) ToEntity() *entity.User {
	return &entity.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// UserModelFromEntity はドメインエンティティを GORM モデルに変換します。
func UserModelFromEntity(u *entity.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// RevokedTokenModel は Redis が使えないときの revoked_tokens テーブルの GORM モデルです。
type RevokedTokenModel struct {
	ID        string    `gorm:"primaryKey;size:64"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName は GORM 用のテーブル名を返します。
func (RevokedTokenModel) TableName() string {
	return "revoked_tokens"
}

// Models は AutoMigrate 対象の auth テーブルの一覧です。
func Models() []any {
	return []any{&UserModel{}, &RevokedTokenModel{}}
}
