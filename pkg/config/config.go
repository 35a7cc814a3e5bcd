package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	ListenAddr  string
	DatabaseURL string
	JWTSecret   string
	BcryptCost  int
	LogLevel    string

	// CookieSecure marks token cookies Secure (HTTPS only).
	CookieSecure bool

	// TokenStore selects the refresh-token backend: postgres or redis.
	TokenStore    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// SweepInterval is how often expired refresh-token records are purged.
	// Zero disables the sweeper.
	SweepInterval time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:    getString("LISTEN_ADDR", ":8080"),
		DatabaseURL:   getString("DATABASE_URL", ""),
		JWTSecret:     getString("JWT_SECRET", ""),
		LogLevel:      getString("LOG_LEVEL", "info"),
		TokenStore:    getString("TOKEN_STORE", StorePostgres),
		RedisAddr:     getString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getString("REDIS_PASSWORD", ""),
	}

	var err error
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 10); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.CookieSecure, err = getBool("COOKIE_SECURE", false); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getDuration("TOKEN_SWEEP_INTERVAL", time.Hour); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("missing required environment variable: DATABASE_URL")
	}
	if c.JWTSecret == "" {
		return errors.New("missing required environment variable: JWT_SECRET")
	}
	switch c.TokenStore {
	case StorePostgres, StoreRedis:
	default:
		return fmt.Errorf("invalid TOKEN_STORE %q: want %s or %s", c.TokenStore, StorePostgres, StoreRedis)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("invalid BCRYPT_COST %d: want %d..%d", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("invalid TOKEN_SWEEP_INTERVAL: %s", c.SweepInterval)
	}
	return nil
}

func getString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	valueStr := getString(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %s", key, valueStr)
	}
	return value, nil
}

func getBool(key string, fallback bool) (bool, error) {
	valueStr := getString(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %s", key, valueStr)
	}
	return value, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	valueStr := getString(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %s", key, valueStr)
	}
	return value, nil
}
