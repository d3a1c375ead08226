// Package config は起動時に一度だけプロセス全体の設定を読み込みます。
// 値は config.env / .env (あれば) と環境変数から取得します。
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ストアドライバ。
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMongo    = "mongo"
)

// ストレージドライバ。
const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// ErrMissingJWTSecret は開発環境以外で JWT_SECRET が空のときに返されます。
var ErrMissingJWTSecret = errors.New("JWT_SECRET is not set")

// Config は変更されないアプリケーション設定です。
type Config struct {
	Env  string // development | production
	Port string

	LogLevel  slog.Level
	LogFormat string // text | json

	JWTSecret string
	TokenTTL  time.Duration

	Cookie CookieConfig

	// LoginRateLimit は LoginRateWindow ごとにクライアントが試行できるログイン回数です。0 で無効になります。
	LoginRateLimit  int
	LoginRateWindow time.Duration

	CORSOrigins    []string
	// TrustedProxies は転送ヘッダを信頼するプロキシのアドレスまたは CIDR の一覧です。
	// 空ならソケットの接続元をクライアントとみなします。
	TrustedProxies []string

	StoreDriver   string
	DB            DBConfig
	SQLitePath    string
	Mongo         MongoConfig
	Redis         RedisConfig
	RunMigrations bool

	Storage StorageConfig
}

// CookieConfig はログインとログアウトで共通のセッション cookie の属性です。
type CookieConfig struct {
	Name     string
	Secure   bool
	SameSite http.SameSite
}

// DBConfig は PostgreSQL の接続設定です。
type DBConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     string
	SSLMode  string
}

// MongoConfig は MongoDB の接続設定です。
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig は Redis の接続設定です。Host が空なら Redis は無効です。
type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// Addr は host:port を返します。
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// StorageConfig は写真ストレージの選択と設定です。
type StorageConfig struct {
	Driver         string
	UploadDir      string
	MaxUploadBytes int64
	Minio          MinioConfig
}

// MinioConfig は S3 互換オブジェクトストレージの設定です。
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load は config.env と .env があれば読み込み、環境変数から Config を組み立てます。
func Load() (Config, error) {
	for _, f := range []string{"config.env", ".env"} {
		if err := godotenv.Load(f); err == nil {
			slog.Info("loaded env file", "file", f)
		}
	}
	return FromEnv()
}

// FromEnv は環境変数だけから Config を組み立てます。
func FromEnv() (Config, error) {
	cfg := Config{
		Env:       getEnv("APP_ENV", "development"),
		Port:      getEnv("PORT", "4000"),
		LogLevel:  parseLevel(os.Getenv("LOG_LEVEL")),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  getDuration("TOKEN_TTL", 24*time.Hour),
		Cookie: CookieConfig{
			Name:     getEnv("COOKIE_NAME", "token"),
			Secure:   getBool("COOKIE_SECURE", false),
			SameSite: parseSameSite(os.Getenv("COOKIE_SAMESITE")),
		},
		LoginRateLimit:  getNonNegativeInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: getDuration("LOGIN_RATE_WINDOW", time.Minute),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:4200")),
		TrustedProxies:  splitList(os.Getenv("TRUSTED_PROXIES")),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreSQLite)),
		DB: DBConfig{
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		SQLitePath: getEnv("SQLITE_PATH", "./employees.db"),
		Mongo: MongoConfig{
			URI:      os.Getenv("MONGO_URI"),
			Database: getEnv("MONGO_DB", "employee_management"),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		RunMigrations: getBool("RUN_MIGRATIONS", true),
		Storage: StorageConfig{
			Driver:         strings.ToLower(getEnv("STORAGE_DRIVER", StorageLocal)),
			UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
			MaxUploadBytes: getInt64("MAX_UPLOAD_BYTES", 5*1024*1024),
			Minio: MinioConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
				AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
				SecretKey: os.Getenv("MINIO_SECRET_KEY"),
				Bucket:    getEnv("MINIO_BUCKET", "employee-photos"),
				UseSSL:    getBool("MINIO_USE_SSL", false),
			},
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.JWTSecret == "" && c.Env != "development" {
		return ErrMissingJWTSecret
	}
	switch c.StoreDriver {
	case StorePostgres, StoreSQLite, StoreMongo:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.StoreDriver == StoreMongo && c.Mongo.URI == "" {
		return errors.New("MONGO_URI is required when STORE_DRIVER=mongo")
	}
	switch c.Storage.Driver {
	case StorageLocal, StorageMinio:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	return nil
}

// IsDevelopment は開発モードで動いているかを返します。
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getInt64(key string, fallback int64) int64 {
	v, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getNonNegativeInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
