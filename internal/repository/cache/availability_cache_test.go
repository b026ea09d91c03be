package cache

import (
	"context"
	"testing"
	"time"

	"vehicle-booking-service/internal/domain/booking"
	"vehicle-booking-service/internal/service/availability"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*AvailabilityCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewAvailabilityCache(client, ttl), mr
}

func day(s string) time.Time {
	d, err := time.Parse(booking.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAvailabilityCache_MissThenHit(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	key := availability.Key{VehicleID: 7, Start: day("2025-03-01"), End: day("2025-03-05")}

	got, version, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, int64(0), version)

	want := &booking.Availability{
		VehicleID: 7,
		StartDate: key.Start,
		EndDate:   key.End,
		Reason:    "date_conflict",
		Conflicts: []booking.Conflict{{RentalID: 3, StartDate: day("2025-03-02"), EndDate: day("2025-03-04"), Status: booking.RentalStatusConfirmed}},
	}
	require.NoError(t, c.Set(ctx, key, version, want))

	got, _, err = c.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Available)
	assert.Equal(t, "date_conflict", got.Reason)
	require.Len(t, got.Conflicts, 1)
	assert.Equal(t, int64(3), got.Conflicts[0].RentalID)
	assert.True(t, got.StartDate.Equal(key.Start))
}

func TestAvailabilityCache_InvalidateHidesOldEntries(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	key := availability.Key{VehicleID: 7, Start: day("2025-03-01"), End: day("2025-03-05")}

	_, version, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, key, version, &booking.Availability{VehicleID: 7, Available: true}))

	require.NoError(t, c.Invalidate(ctx, 7))

	got, newVersion, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, version+1, newVersion)
}

func TestAvailabilityCache_StaleWriteUnreachable(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	key := availability.Key{VehicleID: 9, Start: day("2025-03-01"), End: day("2025-03-05")}

	// A reader computes under version 0, a booking commits, then the reader stores.
	_, version, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, 9))
	require.NoError(t, c.Set(ctx, key, version, &booking.Availability{VehicleID: 9, Available: true}))

	got, _, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAvailabilityCache_KeysSeparateExclusionAndVehicle(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	exclude := int64(4)
	plain := availability.Key{VehicleID: 1, Start: day("2025-03-01"), End: day("2025-03-05")}
	excluded := plain
	excluded.ExcludeID = &exclude
	other := plain
	other.VehicleID = 2

	require.NoError(t, c.Set(ctx, plain, 0, &booking.Availability{VehicleID: 1, Available: false, Reason: "date_conflict"}))

	got, _, err := c.Get(ctx, excluded)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, _, err = c.Get(ctx, other)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Invalidate(ctx, 2))
	got, _, err = c.Get(ctx, plain)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestAvailabilityCache_EntriesExpire(t *testing.T) {
	c, mr := newTestCache(t, 30*time.Second)
	ctx := context.Background()
	key := availability.Key{VehicleID: 5, Start: day("2025-03-01"), End: day("2025-03-02")}

	require.NoError(t, c.Set(ctx, key, 0, &booking.Availability{VehicleID: 5, Available: true}))
	mr.FastForward(31 * time.Second)

	got, _, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAvailabilityCache_RedisDown(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	mr.Close()

	_, _, err := c.Get(context.Background(), availability.Key{VehicleID: 1})
	assert.Error(t, err)
}
