package di

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"employee_backend/internal/feature/auth/usecase"
	"employee_backend/internal/platform/config"
	"employee_backend/internal/platform/session"
)

// NewTokenRevoker はログアウトで使う失効リストを返します。
// Redis が利用可能なら Redis 実装を返します。
// そうでなければストア実装にフォールバックします。
func NewTokenRevoker(rdb *redis.Client, fallback usecase.TokenRevoker) usecase.TokenRevoker {
	if rdb != nil {
		return session.NewRevocationRedis(rdb, "revoked")
	}
	return fallback
}

// jwtSecret は設定済みのシークレットを返します。開発環境で未設定の場合は
// プロセスごとのランダムな値を使うため、再起動するとセッションは無効になります。
func jwtSecret(cfg config.Config) string {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret
	}
	slog.Warn("JWT_SECRET is not set; using a random secret. Set a strong secret in production.")
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
