// Package http はプラットフォームのクライアントとエンドポイントで共有する HTTP の部品です。
package http

import (
	"net"
	"net/http"
	"time"
)

// NewTransport はオブジェクトストレージへの外向き通信に使う Transport を生成します。
//
// http.DefaultTransport は接続タイムアウトがないので、ストレージが応答しないと
// リクエストのコンテキストが切れるまでアップロードが止まってしまう。
func NewTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}
