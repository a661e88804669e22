package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL   string
	DBAutoMigrate bool

	// MatchStore выбирает хранилище live-матчей: postgres или redis.
	MatchStore string
	RedisURL   string

	// Пустой ключ отключает проверку токена счётчика (scorer) на мутациях.
	JWTSecretKey string

	ServerPort         int
	CORSAllowedOrigins []string
	LogLevel           slog.Level
	WSSendBuffer       int

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// ArchiveEnabled сообщает, заданы ли параметры Cloudflare R2.
func (c *Config) ArchiveEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBAutoMigrate:      true,
		MatchStore:         StorePostgres,
		ServerPort:         8080,
		CORSAllowedOrigins: []string{"*"},
		LogLevel:           slog.LevelInfo,
		WSSendBuffer:       256,
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	if v := strings.TrimSpace(os.Getenv("DB_AUTO_MIGRATE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_AUTO_MIGRATE environment variable: %w", err)
		}
		cfg.DBAutoMigrate = b
	}

	if v := strings.ToLower(strings.TrimSpace(os.Getenv("MATCH_STORE"))); v != "" {
		cfg.MatchStore = v
	}
	switch cfg.MatchStore {
	case StorePostgres:
	case StoreRedis:
		cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL environment variable is required when MATCH_STORE=redis")
		}
	default:
		return nil, fmt.Errorf("unsupported MATCH_STORE %q (expected %q or %q)", cfg.MatchStore, StorePostgres, StoreRedis)
	}

	cfg.JWTSecretKey = os.Getenv("JWT_SECRET_KEY")

	if portStr := strings.TrimSpace(os.Getenv("SERVER_PORT")); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
		}
		cfg.ServerPort = port
	}
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}

	if v := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); v != "" {
		var origins []string
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				origins = append(origins, s)
			}
		}
		if len(origins) > 0 {
			cfg.CORSAllowedOrigins = origins
		}
	}

	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("WS_SEND_BUFFER")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("WS_SEND_BUFFER must be a positive integer, got %q", v)
		}
		cfg.WSSendBuffer = n
	}

	cfg.R2AccountID = strings.TrimSpace(os.Getenv("R2_ACCOUNT_ID"))
	cfg.R2AccessKeyID = strings.TrimSpace(os.Getenv("R2_ACCESS_KEY_ID"))
	cfg.R2SecretAccessKey = strings.TrimSpace(os.Getenv("R2_SECRET_ACCESS_KEY"))
	cfg.R2BucketName = strings.TrimSpace(os.Getenv("R2_BUCKET_NAME"))
	cfg.R2PublicBaseURL = strings.TrimSpace(os.Getenv("R2_PUBLIC_BASE_URL"))

	anyR2 := cfg.R2AccountID != "" || cfg.R2AccessKeyID != "" || cfg.R2SecretAccessKey != "" ||
		cfg.R2BucketName != "" || cfg.R2PublicBaseURL != ""
	if anyR2 && !cfg.ArchiveEnabled() {
		return nil, fmt.Errorf("incomplete Cloudflare R2 configuration: set all R2_* variables or none")
	}

	return cfg, nil
}
