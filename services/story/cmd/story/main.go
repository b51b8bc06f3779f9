package main

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
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
	"github.com/Amulyajoshtalks/true-tales/services/story/internal/cache"
	"github.com/Amulyajoshtalks/true-tales/services/story/internal/handlers"
	"github.com/Amulyajoshtalks/true-tales/services/story/internal/store"
)

const feedCacheTTL = 30 * time.Second

func main() {
	cfg, err := config.Load("story")
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	storyStore, closeStore := initStore(cfg, log)
	if closeStore != nil {
		defer closeStore()
	}

	// NATS carries published-episode events and feed cache invalidation.
	// The service degrades to local-only caching without it.
	nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL, Name: cfg.ServiceName})
	if err != nil {
		log.Warn("nats unavailable, cache invalidation is instance-local", zap.Error(err))
		nc = nil
	} else {
		defer nc.Close()
	}

	pub := events.New(nil, log)
	if nc != nil {
		if js, err := nc.JetStream(); err != nil {
			log.Warn("jetstream unavailable", zap.Error(err))
		} else {
			pub = events.New(js, log)
		}
	}

	feedCache, inv := initCache(cfg, log, nc)

	verifier := auth.JWTVerifier{Secret: []byte(cfg.JWTSecret)}
	mc := metrics.NewCollector(cfg.ServiceName)

	r := chi.NewRouter()
	httpserver.SetupRouter(r, cfg.ServiceName, mc)
	r.Get("/v1/feed", handlers.GetFeed(storyStore, feedCache))
	r.Get("/v1/stories/{storyID}", handlers.GetStory(storyStore))
	r.Get("/v1/categories", handlers.ListCategories(storyStore))
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Post("/v1/stories", handlers.CreateStory(storyStore))
		r.Post("/v1/stories/{storyID}/episodes", handlers.CreateEpisode(storyStore, pub, inv))
		r.Get("/v1/payouts", handlers.ListPayouts(storyStore))
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

// initStore selects the StoryStore backend. In production a working
// Postgres connection is required and the process terminates otherwise.
func initStore(cfg config.AppConfig, log *zap.Logger) (store.StoryStore, func()) {
	if cfg.DatabaseURL == "" {
		if cfg.IsProduction() {
			log.Error("DATABASE_URL is required in production")
			_ = log.Sync()
			run.Exit(1)
		}
		log.Warn("DATABASE_URL not set, using in-memory story store (development only)")
		return store.NewInMemoryStoryStore(), nil
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
		return store.NewInMemoryStoryStore(), nil
	}

	log.Info("story store: postgres")
	return store.NewPostgresStoryStore(pool), pool.Close
}

// initCache selects the feed cache backend: Redis when REDIS_ADDR is set,
// an in-process TTL cache otherwise. Both flush on the invalidation subject.
func initCache(cfg config.AppConfig, log *zap.Logger, nc *nats.Conn) (cache.Cache, *cache.Invalidator) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		rc := cache.NewRedisCache(client, feedCacheTTL, log)
		cache.SubscribeInvalidation(nc, events.SubjectFeedInvalidate, rc)
		log.Info("feed cache: redis", zap.String("addr", cfg.RedisAddr))
		return rc, cache.NewInvalidator(nc, events.SubjectFeedInvalidate, rc)
	}
	tc := cache.NewTTLCache(feedCacheTTL, nc, events.SubjectFeedInvalidate)
	return tc, cache.NewInvalidator(nc, events.SubjectFeedInvalidate, tc)
}
