package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"employee_backend/internal/platform/config"
	infrahttp "employee_backend/internal/platform/http"
)

var (
	// ErrUploadFailed は写真の保存中に起きたオブジェクトストレージのエラーをラップします。
	ErrUploadFailed = errors.New("upload failed")
	// ErrDeleteFailed は写真の削除中に起きたオブジェクトストレージのエラーをラップします。
	ErrDeleteFailed = errors.New("delete failed")
)

// MinIO は写真を S3 互換バケットのオブジェクトとして保存します。
type MinIO struct {
	client *minio.Client
	bucket string
	namer  *namer
}

// NewMinIO は cfg のクライアントを生成します。サーバには接続しません。
func NewMinIO(cfg config.MinioConfig) (*MinIO, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Transport: infrahttp.NewTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIO{client: client, bucket: cfg.Bucket, namer: newNamer()}, nil
}

// EnsureBucket はバケットがなければ作成します。
func (s *MinIO) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// Save は r を新しく生成したキーでアップロードします。サイズ不明なら size は -1 です。
func (s *MinIO) Save(ctx context.Context, originalName, contentType string, size int64, r io.Reader) (string, error) {
	name := s.namer.name(originalName)
	stored := storedPath(name)
	key, err := objectKey(stored)
	if err != nil {
		return "", err
	}
	if size <= 0 {
		size = -1
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return stored, nil
}

// Delete は保存済みの写真を削除します。S3 では存在しないキーの削除も成功します。
func (s *MinIO) Delete(ctx context.Context, stored string) error {
	key, err := objectKey(stored)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

// Exists は保存済みの写真があるかを返します。
func (s *MinIO) Exists(ctx context.Context, stored string) (bool, error) {
	key, err := objectKey(stored)
	if err != nil {
		return false, err
	}
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Open はバケットから写真を読み出します。呼び出し元が本文を閉じます。
func (s *MinIO) Open(ctx context.Context, stored string) (*Object, error) {
	key, err := objectKey(stored)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if isNoSuchKey(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Object{
		Body:        obj,
		ContentType: info.ContentType,
		Size:        info.Size,
		ModTime:     info.LastModified,
	}, nil
}

// Ping はバケットに到達できるかを確認します。
func (s *MinIO) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
