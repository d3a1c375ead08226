// Package apperr はすべての機能で共有するドメインエラーの分類を定義します。
// usecase は *Error を返し、トランスポートが Kind をクライアント向けのコードに変換します。
package apperr

import (
	"errors"
	"fmt"
)

// Kind はドメインの失敗の種類です。
type Kind int

const (
	// KindInternal は想定外の失敗です（ストアに到達できない、ハッシュ化の失敗など）。
	KindInternal Kind = iota
	// KindInvalidInput は未入力、不正な形式、範囲外の項目です。
	KindInvalidInput
	// KindConflict は一意性の違反です。
	KindConflict
	// KindUnauthorized は資格情報の失敗です。メッセージは汎用的なものにします。
	KindUnauthorized
	// KindNotFound はレコードや識別子が存在しないことです。
	KindNotFound
	// KindInvalidState は現在のセッション状態では行えない操作です。
	KindInvalidState
)

// String はログに使う種類名を返します。
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindConflict:
		return "Conflict"
	case KindUnauthorized:
		return "Unauthorized"
	case KindNotFound:
		return "NotFound"
	case KindInvalidState:
		return "InvalidState"
	default:
		return "Internal"
	}
}

// Error はクライアントに見せてよいメッセージと任意の原因を持つドメインエラーです。
// 原因はサーバ側のログ専用です。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap は errors.Is / errors.As 用に原因を返します。
func (e *Error) Unwrap() error {
	return e.Err
}

// Is は target が同じ種類とメッセージの *Error かを返し、
// errors.Is(err, ErrInvalidCredentials) のようなセンチネル比較を可能にします。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InvalidInput は KindInvalidInput のエラーを返します。
func InvalidInput(format string, args ...any) *Error {
	return newf(KindInvalidInput, format, args...)
}

// Conflict は KindConflict のエラーを返します。
func Conflict(format string, args ...any) *Error {
	return newf(KindConflict, format, args...)
}

// Unauthorized は KindUnauthorized のエラーを返します。
func Unauthorized(format string, args ...any) *Error {
	return newf(KindUnauthorized, format, args...)
}

// NotFound は KindNotFound のエラーを返します。
func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

// InvalidState は KindInvalidState のエラーを返します。
func InvalidState(format string, args ...any) *Error {
	return newf(KindInvalidState, format, args...)
}

// Internal は想定外の失敗をラップします。メッセージはログ用で、
// トランスポートがクライアントに見せることはありません。
func Internal(err error, format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithCause は cause をログ用に記録した e のコピーを返します。
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// KindOf は err のチェーンで最初の *Error の Kind を返します。なければ KindInternal です。
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is は err が指定の種類を持つかを返します。
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
