// Package config loads service configuration from the environment.
// A .env file in the working directory is applied first when present.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type HTTPConfig struct {
	Addr string
}

type AppConfig struct {
	ServiceName string
	AppEnv      string // "production" enables fail-fast on missing backends
	LogLevel    string
	HTTP        HTTPConfig
	DatabaseURL string
	NATSURL     string
	RedisAddr   string
	JWTSecret   string
}

// IsProduction reports whether the service runs with production guarantees.
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads configuration from the environment. service is the default
// service name; SERVICE_NAME overrides it.
func Load(service string) (AppConfig, error) {
	// Best effort; absence of a .env file is the normal case in production.
	_ = godotenv.Load()

	cfg := AppConfig{
		ServiceName: env("SERVICE_NAME"),
		AppEnv:      env("APP_ENV"),
		LogLevel:    env("LOG_LEVEL"),
		HTTP:        HTTPConfig{Addr: env("HTTP_ADDR")},
		DatabaseURL: env("DATABASE_URL"),
		NATSURL:     env("NATS_URL"),
		RedisAddr:   env("REDIS_ADDR"),
		JWTSecret:   env("JWT_SECRET"),
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = service
	}
	if cfg.ServiceName == "" {
		return AppConfig{}, errors.New("SERVICE_NAME is required")
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.IsProduction() && cfg.JWTSecret == "" {
		return AppConfig{}, errors.New("JWT_SECRET is required in production")
	}
	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
