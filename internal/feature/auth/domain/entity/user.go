// Package entity は auth 機能のドメインエンティティを定義します。
package entity

import "time"

// User はシステムに登録されたユーザを表します。
type User struct {
	// ID はストアが割り当てる識別子で、変更されません。
	ID string

	// Username は一意な英数字で、小文字で保存されます。
	Username string

	// Email は一意で、小文字で保存されます。
	Email string

	// PasswordHash はパスワードの bcrypt ハッシュです。平文は保存しません。
	PasswordHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}
