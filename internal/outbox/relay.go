package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storefront/internal/db"
	"storefront/internal/events"
)

const DefaultBatch = 100

// Relay publishes pending outbox rows in id order. A row is marked sent only
// after Kafka acknowledged it, so delivery is at-least-once.
type Relay struct {
	db       db.Querier
	writer   events.MessageWriter
	logger   *zap.Logger
	interval time.Duration
	batch    int
}

func NewRelay(q db.Querier, w events.MessageWriter, logger *zap.Logger, interval time.Duration) *Relay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Relay{db: q, writer: w, logger: logger, interval: interval, batch: DefaultBatch}
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		if _, err := r.Once(ctx); err != nil && ctx.Err() == nil {
			r.logger.Warn("outbox relay", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Once relays one batch and reports how many rows were sent. It stops at the
// first failed publish so later events never overtake an earlier one.
func (r *Relay) Once(ctx context.Context) (int, error) {
	recs, err := FetchPending(ctx, r.db, r.batch)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, rec := range recs {
		if err := r.writer.WriteMessages(ctx, events.Message(rec.Key, rec.Payload)); err != nil {
			return sent, err
		}
		if err := MarkSent(ctx, r.db, rec.ID); err != nil {
			return sent, err
		}
		sent++
	}
	if sent > 0 {
		r.logger.Debug("outbox relayed", zap.Int("count", sent))
	}
	return sent, nil
}
