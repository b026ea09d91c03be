// internal/websocket/redis_relay.go
package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"vehicle-booking-service/internal/domain/booking"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RelayFrom subscribes the hub to the booking events channel so events
// committed by any instance reach the clients connected to this one. It
// returns once the subscription is confirmed; the relay runs until ctx is
// cancelled or the hub shuts down.
func (h *Hub) RelayFrom(ctx context.Context, client redis.UniversalClient, channel string) error {
	sub := client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	go func() {
		defer sub.Close()
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case m, ok := <-messages:
				if !ok {
					return
				}
				h.relay(ctx, m.Payload)
			}
		}
	}()

	h.logger.Info("relaying booking events", zap.String("channel", channel))
	return nil
}

func (h *Hub) relay(ctx context.Context, data string) {
	var event booking.OutboxEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		h.logger.Warn("dropping malformed booking event", zap.Error(err))
		return
	}

	if err := h.Publish(ctx, &event); err != nil {
		h.logger.Warn("failed to relay booking event",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	}
}
