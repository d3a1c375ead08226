package di

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	authadapters "employee_backend/internal/feature/auth/adapters"
	authusecase "employee_backend/internal/feature/auth/usecase"
	employeeadapters "employee_backend/internal/feature/employee/adapters"
	employeeusecase "employee_backend/internal/feature/employee/usecase"
	"employee_backend/internal/platform/config"
	infradb "employee_backend/internal/platform/db"
	"employee_backend/internal/platform/mongodb"
)

// Stores は設定されたストアドライバのリポジトリをまとめたものです。
type Stores struct {
	Users     authusecase.UserRepository
	Employees employeeusecase.EmployeeRepository
	// Revoked はストア側の失効リストです。Redis 未設定のときに使います。
	Revoked authusecase.TokenRevoker

	Ping  func(ctx context.Context) error
	Close func(ctx context.Context) error
}

// OpenStores は cfg.StoreDriver で選ばれたストアに接続します。
func OpenStores(ctx context.Context, cfg config.Config) (*Stores, error) {
	if cfg.StoreDriver == config.StoreMongo {
		return openMongo(ctx, cfg)
	}
	return openSQL(ctx, cfg)
}

func openSQL(ctx context.Context, cfg config.Config) (*Stores, error) {
	models := append(authadapters.Models(), employeeadapters.Models()...)
	db, err := infradb.OpenDB(cfg, models...)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	revoked := authadapters.NewRevocationGorm(db)
	if n, err := revoked.DeleteExpired(ctx); err != nil {
		slog.Warn("failed to purge expired revocations", "error", err)
	} else if n > 0 {
		slog.Info("purged expired revocations", "count", n)
	}

	return &Stores{
		Users:     authadapters.NewUserGorm(db),
		Employees: employeeadapters.NewEmployeeGorm(db),
		Revoked:   revoked,
		Ping:      sqlDB.PingContext,
		Close:     func(context.Context) error { return sqlDB.Close() },
	}, nil
}

func openMongo(ctx context.Context, cfg config.Config) (*Stores, error) {
	client, err := mongodb.Connect(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.Mongo.Database)

	users := authadapters.NewUserMongo(db)
	employees := employeeadapters.NewEmployeeMongo(db)
	revoked := authadapters.NewRevocationMongo(db)
	for _, ensure := range []func(context.Context) error{users.EnsureIndexes, employees.EnsureIndexes, revoked.EnsureIndexes} {
		if err := ensure(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
	}

	return &Stores{
		Users:     users,
		Employees: employees,
		Revoked:   revoked,
		Ping:      func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
		Close:     client.Disconnect,
	}, nil
}
