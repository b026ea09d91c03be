// internal/repository/cache/availability_cache.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vehicle-booking-service/internal/domain/booking"
	"vehicle-booking-service/internal/service/availability"

	"github.com/redis/go-redis/v9"
)

const (
	versionKeyPrefix = "availability:version"
	entryKeyPrefix   = "availability:entry"
)

// AvailabilityCache stores public availability answers keyed by the vehicle's
// current version. Invalidate bumps the version, so entries written before a
// booking change are never read again and simply expire.
type AvailabilityCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewAvailabilityCache(client redis.UniversalClient, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{client: client, ttl: ttl}
}

func versionKey(vehicleID int64) string {
	return fmt.Sprintf("%s:%d", versionKeyPrefix, vehicleID)
}

func entryKey(key availability.Key, version int64) string {
	exclude := "-"
	if key.ExcludeID != nil {
		exclude = fmt.Sprintf("%d", *key.ExcludeID)
	}
	return fmt.Sprintf("%s:%d:%d:%s:%s:%s",
		entryKeyPrefix,
		key.VehicleID,
		version,
		key.Start.Format(booking.DateLayout),
		key.End.Format(booking.DateLayout),
		exclude,
	)
}

// Get returns the cached answer for key, or nil on a miss, together with the
// version the lookup was made under.
func (c *AvailabilityCache) Get(ctx context.Context, key availability.Key) (*booking.Availability, int64, error) {
	version, err := c.client.Get(ctx, versionKey(key.VehicleID)).Int64()
	if errors.Is(err, redis.Nil) {
		version = 0
	} else if err != nil {
		return nil, 0, fmt.Errorf("failed to read availability version: %w", err)
	}

	data, err := c.client.Get(ctx, entryKey(key, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, version, nil
	}
	if err != nil {
		return nil, version, fmt.Errorf("failed to read availability entry: %w", err)
	}

	var a booking.Availability
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, version, fmt.Errorf("failed to decode availability entry: %w", err)
	}
	return &a, version, nil
}

// Set stores the answer under the version returned by Get.
func (c *AvailabilityCache) Set(ctx context.Context, key availability.Key, version int64, a *booking.Availability) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode availability entry: %w", err)
	}

	if err := c.client.Set(ctx, entryKey(key, version), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write availability entry: %w", err)
	}
	return nil
}

// Invalidate makes every cached answer for the vehicle unreachable.
func (c *AvailabilityCache) Invalidate(ctx context.Context, vehicleID int64) error {
	if err := c.client.Incr(ctx, versionKey(vehicleID)).Err(); err != nil {
		return fmt.Errorf("failed to bump availability version: %w", err)
	}
	return nil
}
