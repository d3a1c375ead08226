package gql

import (
	"context"
	"errors"
	"log/slog"

	"employee_backend/internal/shared/apperr"
)

// extensions.code に入るエラーコード。
const (
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeConflict        = "CONFLICT"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidState    = "INVALID_STATE"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
	CodeBadRequest      = "BAD_REQUEST"
	CodeTooLarge        = "PAYLOAD_TOO_LARGE"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
)

// internalMessage は想定外の失敗のメッセージを置き換える文言です。
const internalMessage = "internal server error"

// Error はクライアント向けの GraphQL エラーです。gqlerrors.ExtendedError を実装します。
type Error struct {
	Message string
	Code    string
}

func (e *Error) Error() string {
	return e.Message
}

// Extensions はエラーの "extensions" に出力されます。
func (e *Error) Extensions() map[string]any {
	return map[string]any{"code": e.Code}
}

// Code はドメインエラーの種類に対応する extensions のコードを返します。
func Code(kind apperr.Kind) string {
	switch kind {
	case apperr.KindInvalidInput:
		return CodeBadUserInput
	case apperr.KindConflict:
		return CodeConflict
	case apperr.KindUnauthorized:
		return CodeUnauthenticated
	case apperr.KindNotFound:
		return CodeNotFound
	case apperr.KindInvalidState:
		return CodeInvalidState
	default:
		return CodeInternal
	}
}

// ResolverError は err を原因ごとログに残し、クライアント向けのエラーを返します。
// 内部エラーはマスクします。
func ResolverError(ctx context.Context, op string, err error) error {
	rc := FromContext(ctx)
	kind := apperr.KindOf(err)

	if kind == apperr.KindInternal {
		slog.ErrorContext(ctx, op+" failed", "error", err, "cause", errors.Unwrap(err), "remote_addr", rc.RemoteAddr)
		return &Error{Message: internalMessage, Code: CodeInternal}
	}

	slog.WarnContext(ctx, op+" failed", "kind", kind.String(), "error", err, "cause", errors.Unwrap(err), "remote_addr", rc.RemoteAddr)
	return &Error{Message: err.Error(), Code: Code(kind)}
}
