// Package di は設定から起動可能なアプリケーションを組み立てます。
package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"employee_backend/internal/app/router"
	authresolver "employee_backend/internal/feature/auth/transport/resolver"
	authusecase "employee_backend/internal/feature/auth/usecase"
	employeeresolver "employee_backend/internal/feature/employee/transport/resolver"
	employeeusecase "employee_backend/internal/feature/employee/usecase"
	"employee_backend/internal/platform/cache"
	"employee_backend/internal/platform/config"
	"employee_backend/internal/platform/gql"
	"employee_backend/internal/platform/hash"
	"employee_backend/internal/platform/http/handler"
	jwtauth "employee_backend/internal/platform/jwt"
	infraredis "employee_backend/internal/platform/redis"
	"employee_backend/internal/shared/ratelimiter"
)

const (
	// healthTimeout は /healthz の依存先チェック1件あたりの上限時間です。
	healthTimeout = 2 * time.Second
	userCacheTTL  = 5 * time.Minute
)

// App は依存関係を組み立て済みのアプリケーションです。
type App struct {
	Router *gin.Engine

	closers []func(context.Context) error
}

// NewApp は cfg が指定する依存先にすべて接続し、ルーターを構築します。
// エラー時は、それまでに開いたものを閉じます。
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{}
	if err := app.wire(ctx, cfg); err != nil {
		app.Close(context.Background())
		return nil, err
	}
	return app, nil
}

func (app *App) wire(ctx context.Context, cfg config.Config) error {
	stores, err := OpenStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	app.closers = append(app.closers, stores.Close)
	checks := []handler.Check{{Name: "store", Ping: stores.Ping}}

	var rdb *redis.Client
	if tmp, rerr := infraredis.NewRedisClient(ctx, cfg.Redis); rerr != nil {
		if !errors.Is(rerr, infraredis.ErrRedisDisabled) {
			slog.Warn("Redis unavailable. Revocations go to the primary store.", "error", rerr)
		}
	} else {
		rdb = tmp
		app.closers = append(app.closers, func(context.Context) error { return rdb.Close() })
		checks = append(checks, handler.Check{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }})
	}

	photos, err := NewPhotoStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open photo storage: %w", err)
	}
	checks = append(checks, handler.Check{Name: "storage", Ping: photos.Ping})

	// Usecase
	tokens := jwtauth.NewManager(jwtSecret(cfg), cfg.TokenTTL)
	users := stores.Users
	if rdb != nil {
		users = cache.NewCachingUserRepository(rdb, userCacheTTL, stores.Users, "users")
	}
	authUC := authusecase.NewAuthUsecase(users, hash.NewBcrypt(hash.DefaultCost), tokens, NewTokenRevoker(rdb, stores.Revoked))
	employeeUC := employeeusecase.NewEmployeeUsecase(stores.Employees, photos)

	// Resolver
	schema, err := gql.NewSchema(
		authresolver.NewAuthResolver(authUC, authresolver.CookieConfig{
			Name:     cfg.Cookie.Name,
			Secure:   cfg.Cookie.Secure,
			SameSite: cfg.Cookie.SameSite,
			MaxAge:   cfg.TokenTTL,
		}, ratelimiter.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)),
		employeeresolver.NewEmployeeResolver(employeeUC),
	)
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}

	app.Router, err = router.NewRouter(
		gql.NewHandler(schema, gql.HandlerConfig{CookieName: cfg.Cookie.Name, MaxUploadBytes: cfg.Storage.MaxUploadBytes}),
		handler.NewHealth(healthTimeout, checks...),
		handler.NewPhotos(photos),
		cfg.CORSOrigins,
		cfg.TrustedProxies,
	)
	return err
}

// Close は開いた順とは逆順に接続を解放します。
func (app *App) Close(ctx context.Context) {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](ctx); err != nil {
			slog.Error("failed to close dependency", "error", err)
		}
	}
	app.closers = nil
}
