// Package session はサーバ側のセッション状態（ログアウトで失効したトークンの集合）を保持します。
package session

import (
	"context"
	"fmt"
	"time"

	"employee_backend/internal/feature/auth/usecase"

	"github.com/redis/go-redis/v9"
)

// RevocationRedis は usecase.TokenRevoker の Redis 実装です。キーは失効させた
// トークンと同時に期限切れになります。
type RevocationRedis struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

var _ usecase.TokenRevoker = (*RevocationRedis)(nil)

// NewRevocationRedis は RevocationRedis の新しいインスタンスを返します。
func NewRevocationRedis(client *redis.Client, prefix string) *RevocationRedis {
	if prefix == "" {
		prefix = "revoked"
	}
	return &RevocationRedis{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// revokedKey はトークンIDの Redis キーを返します。
func (r *RevocationRedis) revokedKey(tokenID string) string {
	return fmt.Sprintf("%s:%s", r.prefix, tokenID)
}

// Revoke は tokenID を expiresAt まで失効として記録します。期限切れのトークンは保存しません。
func (r *RevocationRedis) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.revokedKey(tokenID), expiresAt.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked は tokenID が失効済みかつ期限内かを返します。
func (r *RevocationRedis) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}
