// Package usecase は employee 機能のビジネスロジックを実装します。
package usecase

import (
	"errors"

	"employee_backend/internal/shared/apperr"
)

// EmployeeRepository の実装が返すストアのセンチネルエラー。
var (
	// ErrEmployeeNotFound はIDに一致する従業員がいないときに返されます。
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrEmailAlreadyExists は書き込みがメールアドレスの一意インデックスに違反したときに返されます。
	ErrEmailAlreadyExists = errors.New("employee email already exists")
)

// 呼び出し元に返すドメインエラー。
var (
	// ErrInvalidID はストアが表現できない識別子に対して Delete が返します。
	ErrInvalidID = apperr.InvalidInput("invalid employee ID")

	// ErrNotAnImage はアップロードされたファイルが画像でないときに返されます。
	ErrNotAnImage = apperr.InvalidInput("only image files are allowed")
)

func notFound(id string) *apperr.Error {
	return apperr.NotFound("employee with ID %s not found", id)
}

func emailTaken(email string) *apperr.Error {
	return apperr.Conflict("employee with email %s already exists", email)
}
