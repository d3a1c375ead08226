package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"employee_backend/internal/platform/storage"
)

// PhotoOpener は保存済みの写真を読み出します。
type PhotoOpener interface {
	Open(ctx context.Context, stored string) (*storage.Object, error)
}

// Photos は写真ストレージから GET /uploads/*filepath を提供します。ドライバは問いません。
type Photos struct {
	store PhotoOpener
}

// NewPhotos は Photos ハンドラを生成します。
func NewPhotos(store PhotoOpener) *Photos {
	return &Photos{store: store}
}

// Serve は filepath ルートパラメータが指す写真を返します。
func (h *Photos) Serve(c *gin.Context) {
	stored := storage.PublicPrefix + "/" + strings.TrimPrefix(c.Param("filepath"), "/")

	obj, err := h.store.Open(c.Request.Context(), stored)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidPath) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("failed to open photo", "path", stored, "error", err, "remote_addr", c.ClientIP())
		c.Status(http.StatusInternalServerError)
		return
	}
	defer func() {
		if cerr := obj.Body.Close(); cerr != nil {
			slog.Warn("failed to close photo", "path", stored, "error", cerr)
		}
	}()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	headers := map[string]string{
		"Cache-Control":          "public, max-age=86400",
		"X-Content-Type-Options": "nosniff",
	}
	if !obj.ModTime.IsZero() {
		headers["Last-Modified"] = obj.ModTime.UTC().Format(http.TimeFormat)
	}
	c.DataFromReader(http.StatusOK, obj.Size, contentType, obj.Body, headers)
}
