// Package storage はアップロードされた従業員の写真をローカルディスクか S3 互換バケットに保存します。
//
// どちらのドライバも同じストレージ相対パス "uploads/employees/<name>" を返し、
// 従業員レコードにはこのパスを保存し、/uploads ルートはこのパスで配信します。
package storage

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const (
	// PublicPrefix は保存先パスの先頭のセグメントです。
	PublicPrefix = "uploads"
	// EmployeeDir はプレフィックス配下で従業員の写真をまとめるディレクトリです。
	EmployeeDir = "employees"
	// fieldName は生成するファイル名の元になるアップロード項目名です。
	fieldName = "employee_photo"
)

var (
	// ErrNotFound は保存先パスに対応するファイルやオブジェクトがないときに返されます。
	ErrNotFound = errors.New("photo not found")
	// ErrInvalidPath は管理対象の外を指すパスに返されます。
	ErrInvalidPath = errors.New("invalid photo path")
)

// namer は衝突しにくいファイル名 employee_photo-<unix ms>-<0..1e9><ext> を生成します。
type namer struct {
	now  func() time.Time
	rand func() int64
}

func newNamer() *namer {
	return &namer{
		now:  time.Now,
		rand: func() int64 { return rand.Int64N(1e9) },
	}
}

func (n *namer) name(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%s-%d-%d%s", fieldName, n.now().UnixMilli(), n.rand(), ext)
}

// storedPath は生成した名前の公開用ストレージ相対パスを返します。
func storedPath(name string) string {
	return path.Join(PublicPrefix, EmployeeDir, name)
}

// objectKey は保存先パスをストレージルートからのキー ("employees/<name>") に変換し、
// 管理対象の外を指すものは拒否します。
func objectKey(stored string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(stored))
	rel, ok := strings.CutPrefix(clean, "/"+PublicPrefix+"/")
	if !ok || !strings.HasPrefix(rel, EmployeeDir+"/") || rel == EmployeeDir+"/" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, stored)
	}
	return rel, nil
}
