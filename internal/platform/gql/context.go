// Package gql は GraphQL のトランスポートを扱います。スキーマの組み立て、
// リゾルバに渡すリクエストごとのコンテキスト、multipart アップロードの取り込み、エラー整形です。
package gql

import (
	"context"
	"io"
	"net/http"
)

// CookieWriter は HTTP レスポンスに cookie を設定します。
type CookieWriter interface {
	SetCookie(cookie *http.Cookie)
}

// Upload は multipart の GraphQL リクエストで受け取ったファイルです。
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	File        io.ReadCloser
}

// RequestContext はハンドラがリクエストごとに一度だけ作ります。リゾルバは
// HTTP リクエストを直接触らず、FromContext で読みます。
type RequestContext struct {
	// Token はリクエスト cookie のセッショントークンです。なければ "" です。
	Token string
	// Cookies はレスポンス cookie を書き込みます。
	Cookies CookieWriter
	// RemoteAddr はログ用のクライアントアドレスです。
	RemoteAddr string
}

type requestContextKey struct{}

// WithRequestContext は rc を持つ ctx のコピーを返します。
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// FromContext はリクエストコンテキストを返します。未設定なら空のものを返します。
func FromContext(ctx context.Context) *RequestContext {
	if rc, ok := ctx.Value(requestContextKey{}).(*RequestContext); ok && rc != nil {
		return rc
	}
	return &RequestContext{Cookies: discardCookies{}}
}

// ResponseCookies は http.ResponseWriter を CookieWriter に適合させます。
type ResponseCookies struct {
	W http.ResponseWriter
}

// SetCookie は Set-Cookie ヘッダを追加します。
func (c ResponseCookies) SetCookie(cookie *http.Cookie) {
	http.SetCookie(c.W, cookie)
}

type discardCookies struct{}

func (discardCookies) SetCookie(*http.Cookie) {}
