package router

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"employee_backend/internal/platform/gql"
	"employee_backend/internal/platform/http/handler"
)

// NewRouter は HTTP のエンドポイントを組み立てます。corsOrigins が空なら CORS は無効です。
// 転送ヘッダは trustedProxies からのものだけを信頼し、空の場合は
// ソケットの接続元をクライアントアドレスとします。
func NewRouter(graphql *gql.Handler, health *handler.Health, photos *handler.Photos, corsOrigins, trustedProxies []string) (*gin.Engine, error) {
	r := gin.Default()
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	// ブラウザはクロスオリジンでセッション cookie を送るので、オリジンは明示する
	if len(corsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Apollo-Require-Preflight"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", health.Serve)
	r.HEAD("/healthz", health.Serve)

	r.GET("/graphql", graphql.Serve)
	r.POST("/graphql", graphql.Serve)

	r.GET("/uploads/*filepath", photos.Serve)

	return r, nil
}
