// Package hash は bcrypt による一方向のソルト付きパスワードハッシュを提供します。
package hash

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost は保存するパスワードに使う固定の bcrypt コストです。
const DefaultCost = 10

// ErrFailedToHashPassword は bcrypt の失敗（72バイトを超えるパスワードなど）をラップします。
var ErrFailedToHashPassword = errors.New("failed to hash password")

// Bcrypt はパスワードのハッシュ化と照合を行います。Hash のたびに新しいソルトを使います。
type Bcrypt struct {
	cost int
}

// NewBcrypt は指定コストのハッシャーを返します。範囲外のコストは DefaultCost になります。
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash は password の bcrypt ハッシュを返します。
func (b *Bcrypt) Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToHashPassword, err)
	}
	return string(h), nil
}

// Compare は password が hash と一致するかを返します。
func (b *Bcrypt) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
