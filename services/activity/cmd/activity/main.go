package main

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
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
	"github.com/Amulyajoshtalks/true-tales/services/activity/internal/handlers"
	"github.com/Amulyajoshtalks/true-tales/services/activity/internal/store"
	"github.com/Amulyajoshtalks/true-tales/services/activity/internal/worker"
)

func main() {
	cfg, err := config.Load("activity")
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	interactions, pool := initStore(cfg, log)
	if pool != nil {
		defer pool.Close()
	}

	pub := events.New(nil, log)
	nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL, Name: cfg.ServiceName})
	if err != nil {
		log.Warn("nats unavailable, play events are not published", zap.Error(err))
		nc = nil
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
	r.Get("/v1/episodes/{episodeID}/interactions", handlers.GetInteraction(interactions))
	r.Post("/v1/episodes/{episodeID}/interactions", handlers.CreateInteraction(interactions, pub))
	r.Patch("/v1/interactions/{interactionID}", handlers.PatchInteraction(interactions, pub))
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Get("/v1/continue-listening", handlers.ContinueListening(interactions))
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		if nc != nil && pool != nil {
			worker.StartPlayConsumer(ctx, nc, pool, log)
		}
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

// initStore selects the InteractionStore backend. The returned pool is nil
// in memory mode; the play consumer needs it and is skipped without one.
func initStore(cfg config.AppConfig, log *zap.Logger) (store.InteractionStore, *pgxpool.Pool) {
	if cfg.DatabaseURL == "" {
		if cfg.IsProduction() {
			log.Error("DATABASE_URL is required in production")
			_ = log.Sync()
			run.Exit(1)
		}
		log.Warn("DATABASE_URL not set, using in-memory interaction store (development only)")
		return store.NewInMemoryInteractionStore(), nil
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
		return store.NewInMemoryInteractionStore(), nil
	}

	log.Info("interaction store: postgres")
	return store.NewPostgresInteractionStore(pool), pool
}
