package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"
)

// Object は開いた保存済みの写真です。
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
	ModTime     time.Time
}

// Local はディスク上のディレクトリ配下に写真を保存します。
type Local struct {
	root  string
	namer *namer
}

// NewLocal は dir をルートとするディスクストアを返します。写真は dir/employees に置かれます。
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, errors.New("upload directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, EmployeeDir), 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Local{root: dir, namer: newNamer()}, nil
}

// Save は r を新しく命名したファイルに書き込み、保存先パスを返します。
func (s *Local) Save(ctx context.Context, originalName, _ string, _ int64, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := s.namer.name(originalName)
	full := filepath.Join(s.root, EmployeeDir, name)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create photo file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("write photo file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("close photo file: %w", err)
	}
	return storedPath(name), nil
}

// Delete は保存済みの写真を削除します。ファイルがなくてもエラーにしません。
func (s *Local) Delete(_ context.Context, stored string) error {
	full, err := s.resolve(stored)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete photo file: %w", err)
	}
	return nil
}

// Exists は保存済みの写真があるかを返します。
func (s *Local) Exists(_ context.Context, stored string) (bool, error) {
	full, err := s.resolve(stored)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Open は写真の内容を返します。呼び出し元が閉じます。
func (s *Local) Open(_ context.Context, stored string) (*Object, error) {
	full, err := s.resolve(stored)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, ErrNotFound
	}
	return &Object{
		Body:        f,
		ContentType: mime.TypeByExtension(filepath.Ext(full)),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
	}, nil
}

func (s *Local) resolve(stored string) (string, error) {
	key, err := objectKey(stored)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

// Ping は写真のディレクトリがまだ存在するかを返します。
func (s *Local) Ping(_ context.Context) error {
	info, err := os.Stat(filepath.Join(s.root, EmployeeDir))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Join(s.root, EmployeeDir))
	}
	return nil
}
