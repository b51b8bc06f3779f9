package main

import (
	"context"
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
	"github.com/Amulyajoshtalks/true-tales/services/social/internal/handlers"
	"github.com/Amulyajoshtalks/true-tales/services/social/internal/store"
)

func main() {
	cfg, err := config.Load("social")
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	engagement, closeStore := initStore(cfg, log)
	if closeStore != nil {
		defer closeStore()
	}

	pub := events.New(nil, log)
	nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL, Name: cfg.ServiceName})
	if err != nil {
		log.Warn("nats unavailable, engagement events are not published", zap.Error(err))
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
	r.Get("/v1/episodes/{episodeID}/comments", handlers.ListComments(engagement))
	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalUser(verifier))
		r.Get("/v1/episodes/{episodeID}/flags", handlers.GetFlags(engagement))
		r.Get("/v1/users/{userID}/follow", handlers.GetFollowing(engagement))
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Post("/v1/episodes/{episodeID}/like", handlers.Like(engagement, pub))
		r.Delete("/v1/episodes/{episodeID}/like", handlers.Unlike(engagement, pub))
		r.Post("/v1/episodes/{episodeID}/bookmark", handlers.Bookmark(engagement))
		r.Delete("/v1/episodes/{episodeID}/bookmark", handlers.Unbookmark(engagement))
		r.Post("/v1/episodes/{episodeID}/comments", handlers.CreateComment(engagement))
		r.Post("/v1/users/{userID}/follow", handlers.Follow(engagement))
		r.Delete("/v1/users/{userID}/follow", handlers.Unfollow(engagement))
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

// initStore selects the EngagementStore backend. In production a working
// Postgres connection is required and the process terminates otherwise.
func initStore(cfg config.AppConfig, log *zap.Logger) (store.EngagementStore, func()) {
	if cfg.DatabaseURL == "" {
		if cfg.IsProduction() {
			log.Error("DATABASE_URL is required in production")
			_ = log.Sync()
			run.Exit(1)
		}
		log.Warn("DATABASE_URL not set, using in-memory engagement store (development only)")
		return store.NewInMemoryEngagementStore(), nil
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
		return store.NewInMemoryEngagementStore(), nil
	}

	log.Info("engagement store: postgres")
	return store.NewPostgresEngagementStore(pool), pool.Close
}
