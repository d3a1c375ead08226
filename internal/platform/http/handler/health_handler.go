// Package handler はプラットフォーム共通のエンドポイントの HTTP ハンドラを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check は依存先1つの疎通を確認します。
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Health は /healthz を提供します。HEAD と OPTIONS は生存のみ応答し、それ以外の
// メソッドは依存先も確認して、到達できないものがあれば 503 を返します。
type Health struct {
	checks  []Check
	timeout time.Duration
}

// NewHealth は Health ハンドラを生成します。各チェックは timeout 以内に応答する必要があります。
func NewHealth(timeout time.Duration, checks ...Check) *Health {
	return &Health{checks: checks, timeout: timeout}
}

// Serve は gin のハンドラです。
func (h *Health) Serve(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
		return
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
		return
	}

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, chk := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		err := chk.Ping(ctx)
		cancel()
		if err != nil {
			slog.Warn("health check failed", "dependency", chk.Name, "error", err)
			results[chk.Name] = "unreachable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[chk.Name] = "ok"
	}

	body := gin.H{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(results) > 0 {
		body["checks"] = results
	}
	c.JSON(status, body)
}
