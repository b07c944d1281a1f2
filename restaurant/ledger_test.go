package restaurant

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLedger(t *testing.T) (*RedisLedger, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLedger(client), mr
}

func TestLedgers(t *testing.T) {
	redisLedger, _ := newRedisLedger(t)

	for name, ledger := range map[string]Ledger{
		"memory": NewMemoryLedger(),
		"redis":  redisLedger,
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			covers, err := ledger.Covers(ctx, "Friday")
			require.NoError(t, err)
			assert.Empty(t, covers)

			require.NoError(t, ledger.Add(ctx, "Friday", "7:00 PM", 4, 0))
			require.NoError(t, ledger.Add(ctx, "Friday", "7:00 PM", 2, 0))
			require.NoError(t, ledger.Add(ctx, "Friday", "8:00 PM", 3, 0))

			covers, err = ledger.Covers(ctx, "Friday")
			require.NoError(t, err)
			assert.Equal(t, map[string]int{"7:00 PM": 6, "8:00 PM": 3}, covers)

			require.NoError(t, ledger.Release(ctx, "Friday", "8:00 PM", 3))
			require.NoError(t, ledger.Release(ctx, "Sunday", "8:00 PM", 3))

			covers, err = ledger.Covers(ctx, "Friday")
			require.NoError(t, err)
			assert.Equal(t, map[string]int{"7:00 PM": 6}, covers)

			err = ledger.Add(ctx, "Friday", "7:00 PM", 5, 10)
			assert.ErrorIs(t, err, ErrSeatingFull)
			require.NoError(t, ledger.Add(ctx, "Friday", "7:00 PM", 4, 10))

			covers, err = ledger.Covers(ctx, "Friday")
			require.NoError(t, err)
			assert.Equal(t, map[string]int{"7:00 PM": 10}, covers)
		})
	}
}

func TestRedisLedgerKeys(t *testing.T) {
	ledger, mr := newRedisLedger(t)
	require.NoError(t, ledger.Add(context.Background(), "Friday", "7:00 PM", 4, 0))

	assert.Equal(t, "4", mr.HGet("covers:friday", "7:00 PM"))
}

func TestRedisLedgerUnavailable(t *testing.T) {
	ledger, mr := newRedisLedger(t)
	mr.Close()

	_, err := ledger.Covers(context.Background(), "Friday")
	assert.Error(t, err)
}

// 2026-10-16 is a Friday.
var fridayNoon = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

func TestDayEnd(t *testing.T) {
	tests := []struct {
		day  string
		want time.Time
	}{
		{"Friday", time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC)},
		{"Saturday", time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)},
		{"Thursday", time.Date(2026, time.October, 23, 0, 0, 0, 0, time.UTC)},
		{"Someday", time.Date(2026, time.October, 23, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, dayEnd(tt.day, fridayNoon), tt.day)
	}
}

func TestRedisLedgerExpiresAfterTheDay(t *testing.T) {
	ctx := context.Background()
	ledger, mr := newRedisLedger(t)
	ledger.now = func() time.Time { return fridayNoon }

	require.NoError(t, ledger.Add(ctx, "Friday", "7:00 PM", 4, 4))
	require.NoError(t, ledger.Add(ctx, "Saturday", "7:00 PM", 2, 4))
	assert.Equal(t, 12*time.Hour, mr.TTL("covers:friday"))
	assert.Equal(t, 36*time.Hour, mr.TTL("covers:saturday"))

	// later bookings keep the first expiry
	ledger.now = func() time.Time { return fridayNoon.Add(time.Hour) }
	require.NoError(t, ledger.Release(ctx, "Saturday", "7:00 PM", 2))
	require.NoError(t, ledger.Add(ctx, "Friday", "12:00 PM", 2, 4))
	assert.Equal(t, 12*time.Hour, mr.TTL("covers:friday"))

	mr.FastForward(12 * time.Hour)
	assert.False(t, mr.Exists("covers:friday"))

	// next Friday starts with a clean seating
	ledger.now = func() time.Time { return fridayNoon.AddDate(0, 0, 7) }
	require.NoError(t, ledger.Add(ctx, "Friday", "7:00 PM", 4, 4))
	covers, err := ledger.Covers(ctx, "Friday")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"7:00 PM": 4}, covers)
}

func TestMemoryLedgerExpiresAfterTheDay(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	now := fridayNoon
	ledger.now = func() time.Time { return now }

	require.NoError(t, ledger.Add(ctx, "Friday", "7:00 PM", 4, 4))
	assert.ErrorIs(t, ledger.Add(ctx, "Friday", "7:00 PM", 1, 4), ErrSeatingFull)

	now = fridayNoon.Add(12 * time.Hour)
	covers, err := ledger.Covers(ctx, "Friday")
	require.NoError(t, err)
	assert.Empty(t, covers)

	require.NoError(t, ledger.Add(ctx, "Friday", "7:00 PM", 4, 4))
	covers, err = ledger.Covers(ctx, "Friday")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"7:00 PM": 4}, covers)
}
