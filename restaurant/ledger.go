package restaurant

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ledger tracks booked covers per day and seating. Counts for a day lapse
// at the end of that day's next occurrence, so a booking for "Friday" never
// counts against the Friday after.
type Ledger interface {
	// Covers returns booked covers for the day keyed by seating label
	Covers(ctx context.Context, day string) (map[string]int, error)
	// Add books guests at a seating. With limit > 0 it fails with
	// ErrSeatingFull instead of taking the seating past limit covers.
	Add(ctx context.Context, day, at string, guests, limit int) error
	Release(ctx context.Context, day, at string, guests int) error
}

// MemoryLedger keeps covers in process memory
type MemoryLedger struct {
	mu      sync.RWMutex
	covers  map[string]map[string]int
	expires map[string]time.Time
	now     func() time.Time
}

// NewMemoryLedger creates an empty in-memory ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		covers:  make(map[string]map[string]int),
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (l *MemoryLedger) Covers(ctx context.Context, day string) (map[string]int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.expired(day) {
		return map[string]int{}, nil
	}
	out := make(map[string]int, len(l.covers[day]))
	for at, n := range l.covers[day] {
		out[at] = n
	}
	return out, nil
}

func (l *MemoryLedger) Add(ctx context.Context, day, at string, guests, limit int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.purge(day)
	if limit > 0 && l.covers[day][at]+guests > limit {
		return fmt.Errorf("%s %s: %w", day, at, ErrSeatingFull)
	}
	if l.covers[day] == nil {
		l.covers[day] = make(map[string]int)
		l.expires[day] = dayEnd(day, l.now())
	}
	l.covers[day][at] += guests
	return nil
}

func (l *MemoryLedger) Release(ctx context.Context, day, at string, guests int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.purge(day)
	slots := l.covers[day]
	if slots == nil {
		return nil
	}
	slots[at] -= guests
	if slots[at] <= 0 {
		delete(slots, at)
	}
	return nil
}

func (l *MemoryLedger) expired(day string) bool {
	end, ok := l.expires[day]
	return ok && !l.now().Before(end)
}

// purge drops a lapsed day; callers hold the write lock
func (l *MemoryLedger) purge(day string) {
	if l.expired(day) {
		delete(l.covers, day)
		delete(l.expires, day)
	}
}

const coversKeyPrefix = "covers:"

// addCovers increments one seating unless that would pass the limit
// (ARGV[3], 0 for none), and arms the day's expiry on first write.
// Returns -1 when the seating is full.
var addCovers = redis.NewScript(`
local current = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0')
local guests = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
if limit > 0 and current + guests > limit then
	return -1
end
local total = redis.call('HINCRBY', KEYS[1], ARGV[1], guests)
if redis.call('TTL', KEYS[1]) < 0 then
	redis.call('EXPIRE', KEYS[1], ARGV[4])
end
return total
`)

// RedisLedger stores covers in one hash per day: covers:<day> -> {seating: covers}
type RedisLedger struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisLedger creates a ledger backed by the given client
func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client, now: time.Now}
}

func coversKey(day string) string {
	return coversKeyPrefix + strings.ToLower(day)
}

func (l *RedisLedger) Covers(ctx context.Context, day string) (map[string]int, error) {
	raw, err := l.client.HGetAll(ctx, coversKey(day)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load covers: %w", err)
	}

	out := make(map[string]int, len(raw))
	for at, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid covers for %s %s: %w", day, at, err)
		}
		out[at] = n
	}
	return out, nil
}

func (l *RedisLedger) Add(ctx context.Context, day, at string, guests, limit int) error {
	now := l.now()
	ttl := int64(dayEnd(day, now).Sub(now).Seconds())
	if ttl < 1 {
		ttl = 1
	}

	total, err := addCovers.Run(ctx, l.client, []string{coversKey(day)}, at, guests, limit, ttl).Int64()
	if err != nil {
		return fmt.Errorf("failed to add covers: %w", err)
	}
	if total < 0 {
		return fmt.Errorf("%s %s: %w", day, at, ErrSeatingFull)
	}
	return nil
}

func (l *RedisLedger) Release(ctx context.Context, day, at string, guests int) error {
	left, err := l.client.HIncrBy(ctx, coversKey(day), at, -int64(guests)).Result()
	if err != nil {
		return fmt.Errorf("failed to release covers: %w", err)
	}
	if left <= 0 {
		if err := l.client.HDel(ctx, coversKey(day), at).Err(); err != nil {
			return fmt.Errorf("failed to clear covers: %w", err)
		}
	}
	return nil
}

// dayEnd returns midnight after the next occurrence of day, today included.
// Unknown day names lapse a week from now.
func dayEnd(day string, now time.Time) time.Time {
	ahead := 6
	if wd, ok := weekday(day); ok {
		ahead = (int(wd) - int(now.Weekday()) + 7) % 7
	}
	y, m, d := now.Date()
	return time.Date(y, m, d+ahead+1, 0, 0, 0, 0, now.Location())
}
