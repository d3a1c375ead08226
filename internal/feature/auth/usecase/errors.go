// Package usecase は auth 機能のビジネスロジックを実装します。
package usecase

import (
	"errors"

	"employee_backend/internal/shared/apperr"
)

// UserRepository の実装が返すストアのセンチネルエラー。
var (
	// ErrUserNotFound はユーザ名、メールアドレス、IDでユーザが見つからないときに返されます。
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists は追加がユーザ名かメールアドレスの一意インデックスに違反したときに返されます。
	ErrUserAlreadyExists = errors.New("user already exists")
)

// 呼び出し元に返すドメインエラー。
var (
	// ErrIdentityTaken はユーザ名かメールアドレスが登録済みのとき Signup が返します。
	ErrIdentityTaken = apperr.Conflict("username or email already in use")

	// ErrInvalidCredentials は未登録ユーザでも誤ったパスワードでも Login が返します。
	ErrInvalidCredentials = apperr.Unauthorized("invalid username or password")

	// ErrNoActiveSession はリクエストにセッショントークンがないとき Logout が返します。
	ErrNoActiveSession = apperr.InvalidState("no active session")
)
