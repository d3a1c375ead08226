package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis はテスト用の miniredis を起動します。
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	return client, mr
}

func TestNewRevocationRedis(t *testing.T) {
	client, _ := setupTestRedis(t)

	repo := NewRevocationRedis(client, "")
	assert.NotNil(t, repo.client, "client is nil")
	assert.Equal(t, "revoked", repo.prefix)

	repo = NewRevocationRedis(client, "logout")
	assert.Equal(t, "logout", repo.prefix)
	assert.Equal(t, "logout:abc", repo.revokedKey("abc"))
}

func TestRevocationRedis_RevokeAndCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		expiresIn   time.Duration
		wantRevoked bool
	}{
		{"success: active token is revoked", 24 * time.Hour, true},
		{"success: expired token is skipped", -time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, _ := setupTestRedis(t)
			repo := NewRevocationRedis(client, "revoked")
			ctx := context.Background()

			err := repo.Revoke(ctx, "jti-1", time.Now().Add(tt.expiresIn))
			require.NoError(t, err)

			revoked, err := repo.IsRevoked(ctx, "jti-1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantRevoked, revoked)

			other, err := repo.IsRevoked(ctx, "jti-2")
			require.NoError(t, err)
			assert.False(t, other, "unrelated token must not be revoked")
		})
	}
}

func TestRevocationRedis_EntryExpiresWithToken(t *testing.T) {
	t.Parallel()

	client, mr := setupTestRedis(t)
	repo := NewRevocationRedis(client, "revoked")
	ctx := context.Background()

	require.NoError(t, repo.Revoke(ctx, "jti-ttl", time.Now().Add(time.Hour)))

	ttl := mr.TTL(repo.revokedKey("jti-ttl"))
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	mr.FastForward(time.Hour + time.Second)

	revoked, err := repo.IsRevoked(ctx, "jti-ttl")
	require.NoError(t, err)
	assert.False(t, revoked, "revocation entry should expire with the token")
}

func TestRevocationRedis_Errors(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	repo := NewRevocationRedis(rdb, "revoked")
	fixed := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }
	ctx := context.Background()

	mock.ExpectSet("revoked:jti-err", fixed.Add(time.Hour).Unix(), time.Hour).SetErr(errors.New("redis down"))
	err := repo.Revoke(ctx, "jti-err", fixed.Add(time.Hour))
	assert.Error(t, err)

	mock.ExpectExists("revoked:jti-err").SetErr(errors.New("redis down"))
	revoked, err := repo.IsRevoked(ctx, "jti-err")
	assert.Error(t, err)
	assert.False(t, revoked)

	assert.NoError(t, mock.ExpectationsWereMet())
}
