// internal/worker/outbox_worker.go
package worker

import (
	"context"
	"fmt"
	"time"

	"vehicle-booking-service/internal/domain/booking"

	"go.uber.org/zap"
)

// Publisher delivers one committed booking event.
type Publisher interface {
	Publish(ctx context.Context, event *booking.OutboxEvent) error
}

// OutboxWorker relays booking events written by the booking service to the
// configured publishers. Delivery is at least once: an event is marked sent
// only after every publisher accepted it.
type OutboxWorker struct {
	store      booking.Store
	publishers []Publisher
	logger     *zap.Logger
	interval   time.Duration
	batchSize  int
}

func NewOutboxWorker(
	store booking.Store,
	publishers []Publisher,
	logger *zap.Logger,
	interval time.Duration,
	batchSize int,
) *OutboxWorker {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxWorker{
		store:      store,
		publishers: publishers,
		logger:     logger,
		interval:   interval,
		batchSize:  batchSize,
	}
}

// Start polls until ctx is cancelled
func (w *OutboxWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("outbox worker started",
		zap.Duration("interval", w.interval),
		zap.Int("batch_size", w.batchSize),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("outbox worker stopped")
			return
		case <-ticker.C:
			if _, err := w.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error("failed to process outbox events", zap.Error(err))
			}
		}
	}
}

// ProcessBatch publishes up to one batch of pending events and returns how
// many were marked sent. The batch stops at the first publish failure so
// events keep their order; the failed event is retried on the next tick.
func (w *OutboxWorker) ProcessBatch(ctx context.Context) (int, error) {
	sent := 0
	err := w.store.WithinTx(ctx, func(tx booking.Store) error {
		events, err := tx.Outbox().FetchPending(ctx, w.batchSize)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		ids := make([]string, 0, len(events))
		var publishErr error
		for _, event := range events {
			if err := w.publish(ctx, event); err != nil {
				publishErr = fmt.Errorf("failed to publish event %s: %w", event.ID, err)
				break
			}
			ids = append(ids, event.ID)
		}

		if err := tx.Outbox().MarkSent(ctx, ids); err != nil {
			return err
		}
		sent = len(ids)

		if publishErr != nil {
			w.logger.Warn("outbox batch interrupted",
				zap.Int("sent", sent),
				zap.Int("pending", len(events)-sent),
				zap.Error(publishErr),
			)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sent, nil
}

func (w *OutboxWorker) publish(ctx context.Context, event *booking.OutboxEvent) error {
	for _, p := range w.publishers {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}

	w.logger.Debug("event published",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.EventType)),
		zap.Int64("aggregate_id", event.AggregateID),
	)
	return nil
}
