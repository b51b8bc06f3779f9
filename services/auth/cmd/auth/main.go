package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Amulyajoshtalks/true-tales/internal/platform/auth"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/config"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/db"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/events"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/httpserver"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/logging"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/metrics"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/natsconn"
	"github.com/Amulyajoshtalks/true-tales/internal/platform/run"
	"github.com/Amulyajoshtalks/true-tales/services/auth/internal/handlers"
	"github.com/Amulyajoshtalks/true-tales/services/auth/internal/store"
	"github.com/Amulyajoshtalks/true-tales/services/auth/internal/tokens"
)

func main() {
	cfg, err := config.Load("auth")
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	users, closeStore := initStore(cfg, log)
	if closeStore != nil {
		defer closeStore()
	}

	svc := tokens.Service{
		Secret:          []byte(cfg.JWTSecret),
		AccessTokenTTL:  envDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: envDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
	}

	pub := events.New(nil, log)
	nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL, Name: cfg.ServiceName})
	if err != nil {
		log.Warn("nats unavailable, registration events are not published", zap.Error(err))
	} else {
		defer nc.Close()
		if js, err := nc.JetStream(); err != nil {
			log.Warn("jetstream unavailable", zap.Error(err))
		} else {
			pub = events.New(js, log)
		}
	}

	verifier := auth.JWTVerifier{Secret: []byte(cfg.JWTSecret)}
	mc := metrics.NewCollector(cfg.ServiceName)

	r := chi.NewRouter()
	httpserver.SetupRouter(r, cfg.ServiceName, mc)
	r.Post("/v1/auth/register", handlers.Register(users, svc, pub))
	r.Post("/v1/auth/login", handlers.Login(users, svc))
	r.Post("/v1/auth/refresh", handlers.Refresh(users, svc))
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Get("/v1/auth/me", handlers.Me(users))
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// initStore selects the UserStore backend. In production a working
// Postgres connection is required and the process terminates otherwise.
func initStore(cfg config.AppConfig, log *zap.Logger) (store.UserStore, func()) {
	if cfg.DatabaseURL == "" {
		if cfg.IsProduction() {
			log.Error("DATABASE_URL is required in production")
			_ = log.Sync()
			run.Exit(1)
		}
		log.Warn("DATABASE_URL not set, using in-memory user store (development only)")
		return store.NewInMemoryUserStore(), nil
	}

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Error("migrate", zap.Error(err))
		_ = log.Sync()
		run.Exit(1)
	}

	pool, err := db.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		if cfg.IsProduction() {
			log.Error("postgres is required in production but unavailable", zap.Error(err))
			_ = log.Sync()
			run.Exit(1)
		}
		log.Warn("postgres unavailable, falling back to in-memory store", zap.Error(err))
		return store.NewInMemoryUserStore(), nil
	}

	log.Info("user store: postgres")
	return store.NewPostgresUserStore(pool), pool.Close
}
