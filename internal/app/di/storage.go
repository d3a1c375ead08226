package di

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	employeeusecase "employee_backend/internal/feature/employee/usecase"
	"employee_backend/internal/platform/config"
	"employee_backend/internal/platform/http/handler"
	"employee_backend/internal/platform/storage"
)

// PhotoStore はアプリケーションが写真ストレージに求める操作です。
type PhotoStore interface {
	employeeusecase.PhotoStorage
	handler.PhotoOpener
	Ping(ctx context.Context) error
}

// NewPhotoStore は cfg.Driver で選ばれたストレージを返します。
func NewPhotoStore(ctx context.Context, cfg config.StorageConfig) (PhotoStore, error) {
	switch cfg.Driver {
	case config.StorageMinio:
		s, err := storage.NewMinIO(cfg.Minio)
		if err != nil {
			return nil, err
		}
		bucketCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := s.EnsureBucket(bucketCtx); err != nil {
			return nil, fmt.Errorf("ensure bucket %s: %w", cfg.Minio.Bucket, err)
		}
		slog.Info("using minio photo storage", "endpoint", cfg.Minio.Endpoint, "bucket", cfg.Minio.Bucket)
		return s, nil
	default:
		s, err := storage.NewLocal(cfg.UploadDir)
		if err != nil {
			return nil, err
		}
		slog.Info("using local photo storage", "dir", cfg.UploadDir)
		return s, nil
	}
}
