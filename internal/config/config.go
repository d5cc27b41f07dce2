// SPDX-License-Identifier: AGPL-3.0-only
package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fluffyriot/socialpulse/internal/database"
	"github.com/fluffyriot/socialpulse/internal/helpers"
	"github.com/fluffyriot/socialpulse/internal/logger"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
)

type PlatformCredentials struct {
	ClientID     string
	ClientSecret string
}

func (p PlatformCredentials) Configured() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

type AppConfig struct {
	Environment string
	Port        string
	BaseURL     string
	FrontendURL string

	DatabaseURL string
	RedisURL    string

	Platforms map[helpers.Platform]PlatformCredentials

	TokenEncryptionKey string
	SessionSecret      string
	JWTSecret          string

	HTTPTimeout   time.Duration
	SyncPostLimit int
	AutoSyncTick  time.Duration

	LogLevel     string
	LogFile      string
	CORSOrigins  []string
	OTLPEndpoint string

	UpdateCheckURL string
}

// Load reads the process environment. The caller is expected to have loaded
// any .env file beforehand.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Environment:        getEnv("GIN_MODE", "debug"),
		Port:               getEnv("PORT", "8080"),
		BaseURL:            strings.TrimRight(os.Getenv("BASE_URL"), "/"),
		FrontendURL:        strings.TrimRight(os.Getenv("FRONTEND_URL"), "/"),
		RedisURL:           os.Getenv("REDIS_URL"),
		TokenEncryptionKey: os.Getenv("TOKEN_ENCRYPTION_KEY"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFile:            os.Getenv("LOG_FILE"),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		UpdateCheckURL:     os.Getenv("UPDATE_CHECK_URL"),
		Platforms:          make(map[helpers.Platform]PlatformCredentials),
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BASE_URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("BASE_URL is not a valid URL: %w", err)
	}
	if cfg.TokenEncryptionKey == "" {
		return nil, fmt.Errorf("TOKEN_ENCRYPTION_KEY is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	dsn, err := databaseURL()
	if err != nil {
		return nil, err
	}
	cfg.DatabaseURL = dsn

	for _, info := range helpers.AvailablePlatforms {
		prefix := info.Platform.EnvPrefix()
		cfg.Platforms[info.Platform] = PlatformCredentials{
			ClientID:     os.Getenv(prefix + "_CLIENT_ID"),
			ClientSecret: os.Getenv(prefix + "_CLIENT_SECRET"),
		}
	}

	if cfg.HTTPTimeout, err = getDuration("HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.AutoSyncTick, err = getDuration("AUTO_SYNC_TICK", 0); err != nil {
		return nil, err
	}
	if cfg.SyncPostLimit, err = getInt("SYNC_POST_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.SyncPostLimit <= 0 {
		return nil, fmt.Errorf("SYNC_POST_LIMIT must be positive")
	}

	for _, origin := range strings.Split(os.Getenv("CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}
	if len(cfg.CORSOrigins) == 0 && cfg.FrontendURL != "" {
		cfg.CORSOrigins = []string{cfg.FrontendURL}
	}

	return cfg, nil
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "release"
}

// RedirectURL is the OAuth callback registered with each provider.
func (c *AppConfig) RedirectURL(platform helpers.Platform) string {
	return fmt.Sprintf("%s/oauth/%s/callback", c.BaseURL, platform)
}

func databaseURL() (string, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn, nil
	}

	dbName := os.Getenv("POSTGRES_DB")
	dbUserName := os.Getenv("POSTGRES_USER")
	dbPassword := os.Getenv("POSTGRES_PASSWORD")
	if dbName == "" || dbUserName == "" || dbPassword == "" {
		return "", fmt.Errorf("database is not configured: set DATABASE_URL or POSTGRES_DB, POSTGRES_USER and POSTGRES_PASSWORD")
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(dbUserName, dbPassword),
		Host:     fmt.Sprintf("%s:%s", getEnv("POSTGRES_HOST", "db"), getEnv("POSTGRES_PORT", "5432")),
		Path:     dbName,
		RawQuery: "sslmode=" + getEnv("POSTGRES_SSLMODE", "disable"),
	}
	return u.String(), nil
}

// LoadDatabase connects to Postgres and applies pending migrations.
func LoadDatabase(ctx context.Context, cfg *AppConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the DB: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	version, err := database.Migrate(db.DB)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Log.Info("Migrations applied", zap.Int64("version", version))

	return db, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
