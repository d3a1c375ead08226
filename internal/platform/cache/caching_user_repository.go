// Package cache はリポジトリインターフェースのキャッシュ実装を提供します。
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"employee_backend/internal/feature/auth/domain/entity"
	"employee_backend/internal/feature/auth/usecase"
)

// CachingUserRepository は UserRepository の FindByID を Redis でキャッシュする
// デコレータです。FindByID は `me` クエリのたびに呼ばれます。ユーザは更新されないので、
// エントリは期限切れでのみ消えます。
//
// キャッシュにはパスワードハッシュを含めません。ログインで使う FindByUsername は
// 常に本体のリポジトリを読みます。
type CachingUserRepository struct {
	inner     usecase.UserRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.UserRepository = (*CachingUserRepository)(nil)

// cachedUser は Redis に保存する JSON の形です。
type cachedUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCachingUserRepository は UserRepository を Redis キャッシュでデコレートします。
// ttl=0 の場合は 5分にフォールバックします。namespace が空なら "users" を使います。
func NewCachingUserRepository(rdb *redis.Client, ttl time.Duration, inner usecase.UserRepository, namespace string) *CachingUserRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "users"
	}
	return &CachingUserRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Create は本体のリポジトリにそのまま渡します。
func (c *CachingUserRepository) Create(ctx context.Context, u *entity.User) error {
	return c.inner.Create(ctx, u)
}

// FindByUsernameOrEmail は素通しです。サインアップの重複確認に古いデータを見せないため。
func (c *CachingUserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error) {
	return c.inner.FindByUsernameOrEmail(ctx, username, email)
}

// FindByUsername は素通しで、ログインは常にパスワードハッシュを得られます。
func (c *CachingUserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return c.inner.FindByUsername(ctx, username)
}

// FindByID はまずキャッシュを確認し、なければ本体のリポジトリを読みます。
// 未検出の結果はキャッシュしません。
func (c *CachingUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	// Redis 未設定なら素通し
	if c.rdb == nil {
		return c.inner.FindByID(ctx, id)
	}

	key := c.cacheKey(id)

	// 1) キャッシュヒット確認
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var cu cachedUser
		if err := json.Unmarshal(b, &cu); err == nil {
			return &entity.User{
				ID:        cu.ID,
				Username:  cu.Username,
				Email:     cu.Email,
				CreatedAt: cu.CreatedAt,
				UpdatedAt: cu.UpdatedAt,
			}, nil
		}
		// 壊れていたら落とす
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) ストアへフォールバック
	u, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 3) キャッシュ保存（ベストエフォート）
	if b, err := json.Marshal(toCached(u)); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return u, nil
}

func toCached(u *entity.User) cachedUser {
	return cachedUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// cacheKey はユーザIDのキャッシュキーを生成します。
func (c *CachingUserRepository) cacheKey(id string) string {
	return fmt.Sprintf("%s:id:%s", c.namespace, id)
}
