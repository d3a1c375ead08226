// Package db は gorm で SQL ストアを開きます（本番は PostgreSQL、ローカル実行とテストは SQLite）。
package db

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"employee_backend/internal/platform/config"
)

// retryInterval は接続失敗から次の試行までの待ち時間です。
const retryInterval = 3 * time.Second

// Opener は DSN から gorm の接続を開きます。
type Opener func(dsn string) (*gorm.DB, error)

// gormConfig はドライバのエラー変換を有効にし、一意制約違反を gorm.ErrDuplicatedKey にします。
func gormConfig() *gorm.Config {
	return &gorm.Config{TranslateError: true}
}

// PostgresOpener は PostgreSQL の接続を開きます。
func PostgresOpener(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), gormConfig())
}

// SQLiteOpener は SQLite データベースを開きます。dsn はファイルパスか ":memory:" です。
func SQLiteOpener(dsn string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(dsn), gormConfig())
}

// BuildDSN は PostgreSQL の key/value 形式の DSN を組み立てます。
func BuildDSN(cfg config.DBConfig) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode)
}

// ConnectWithRetry は成功するか timeout を過ぎるまで open を呼び続けます。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err)
		time.Sleep(min(retryInterval, remaining))
	}
}

// OpenDB は設定された SQL ストアに接続し、有効ならモデルをマイグレーションします。
func OpenDB(cfg config.Config, models ...any) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err = ConnectWithRetry(BuildDSN(cfg.DB), 60*time.Second, PostgresOpener)
	case config.StoreSQLite:
		db, err = SQLiteOpener(cfg.SQLitePath)
		slog.Info("using sqlite", "path", cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("store driver %q is not a SQL driver", cfg.StoreDriver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations && len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return db, nil
}
