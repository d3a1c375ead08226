package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"employee_backend/internal/shared/apperr"
	"employee_backend/internal/shared/validation"
)

// sniffLen は実際の形式を判定するために読むアップロードの先頭バイト数です。
const sniffLen = 3072

// PhotoUpload は受け取った写真ファイルです。
type PhotoUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// PhotoStorage は写真ファイルを保存し、ストレージ相対パスを返します。
type PhotoStorage interface {
	Save(ctx context.Context, originalName, contentType string, size int64, r io.Reader) (string, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}

// preparePhoto はアップロードを検証し、判定に読んだバイトを再生する内容と
// 判定された Content-Type を持つコピーを返します。
func preparePhoto(p *PhotoUpload) (*PhotoUpload, error) {
	if p.Content == nil {
		return nil, apperr.InvalidInput("employee_photo is empty")
	}
	if !strings.HasPrefix(strings.ToLower(p.ContentType), "image/") {
		return nil, ErrNotAnImage.WithCause(fmt.Errorf("declared content type %q", p.ContentType))
	}
	if !validation.IsImagePath(p.Filename) {
		return nil, apperr.InvalidInput("invalid image file format. Only JPG, JPEG, PNG, and GIF are allowed")
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(p.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, apperr.Internal(err, "failed to read upload")
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, ErrNotAnImage.WithCause(fmt.Errorf("detected content type %q", detected.String()))
	}
	return &PhotoUpload{
		Filename:    p.Filename,
		ContentType: detected.String(),
		Size:        p.Size,
		Content:     io.MultiReader(bytes.NewReader(head), p.Content),
	}, nil
}

// storePhoto は検証済みのアップロードを保存し、保存先パスを返します。
func (u *EmployeeUsecase) storePhoto(ctx context.Context, p *PhotoUpload) (string, error) {
	if p == nil {
		return "", nil
	}
	stored, err := u.photos.Save(ctx, p.Filename, p.ContentType, p.Size, p.Content)
	if err != nil {
		return "", apperr.Internal(err, "failed to store photo")
	}
	return stored, nil
}

// discardPhoto は保存済みの写真を削除します。失敗してもエラーにせずログに残します。
func (u *EmployeeUsecase) discardPhoto(ctx context.Context, path, reason string) {
	if path == "" {
		return
	}
	if ok, err := u.photos.Exists(ctx, path); err == nil && !ok {
		slog.DebugContext(ctx, "photo already gone", "path", path, "reason", reason)
		return
	}
	if err := u.photos.Delete(ctx, path); err != nil {
		slog.WarnContext(ctx, "failed to delete photo", "path", path, "reason", reason, "error", err)
	}
}
