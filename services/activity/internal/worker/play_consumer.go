package worker

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Amulyajoshtalks/true-tales/internal/platform/events"
)

// StartPlayConsumer subscribes to play events and folds them into the
// episode play_count aggregate. processed_events keeps redelivered
// messages from double counting.
func StartPlayConsumer(ctx context.Context, nc *nats.Conn, pool *pgxpool.Pool, log *zap.Logger) {
	js, err := nc.JetStream()
	if err != nil {
		log.Error("play_consumer: jetstream", zap.Error(err))
		return
	}

	sub, err := js.PullSubscribe(events.SubjectPlayRecorded, "activity_play")
	if err != nil {
		log.Error("play_consumer: subscribe", zap.Error(err))
		return
	}

	go func() {
		batchSize := envInt("WORKER_BATCH_SIZE", 100)
		batchInterval := envInt("WORKER_BATCH_INTERVAL_MS", 2000)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			msgs, err := sub.Fetch(batchSize, nats.MaxWait(time.Duration(batchInterval)*time.Millisecond))
			if err != nil {
				if err == nats.ErrTimeout {
					continue
				}
				log.Warn("play_consumer: fetch", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}
			if len(msgs) == 0 {
				continue
			}

			if err := applyBatch(ctx, pool, msgs, log); err != nil {
				log.Warn("play_consumer: batch failed", zap.Error(err))
				nakAll(msgs, log)
				continue
			}
			for _, m := range msgs {
				if err := m.Ack(); err != nil {
					log.Warn("play_consumer: ack", zap.Error(err))
				}
			}
		}
	}()
}

// applyBatch applies one fetched batch in a single transaction.
func applyBatch(ctx context.Context, pool *pgxpool.Pool, msgs []*nats.Msg, log *zap.Logger) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, m := range msgs {
			var ev events.Event
			if err := json.Unmarshal(m.Data, &ev); err != nil {
				// Malformed payloads are dropped, not retried.
				log.Warn("play_consumer: invalid payload", zap.Error(err))
				continue
			}
			episodeID, _ := ev.Properties["episode_id"].(string)
			if episodeID == "" {
				log.Warn("play_consumer: event without episode_id", zap.String("event_id", ev.EventID))
				continue
			}

			tag, err := tx.Exec(ctx,
				`INSERT INTO processed_events (event_id, subject) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING`,
				ev.EventID, events.SubjectPlayRecorded)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				continue
			}

			if _, err := tx.Exec(ctx,
				`UPDATE episodes SET play_count = play_count + 1 WHERE id = $1`, episodeID); err != nil {
				return err
			}
		}
		return nil
	})
}

func nakAll(msgs []*nats.Msg, log *zap.Logger) {
	for _, m := range msgs {
		if err := m.Nak(); err != nil {
			log.Warn("play_consumer: nak", zap.Error(err))
		}
	}
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
