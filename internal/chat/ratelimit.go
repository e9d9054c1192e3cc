package chat

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter bounds how many messages one sender may submit to one room
// within a fixed window. The window is fixed, not sliding: the counter and
// its expiry are created together on the first call and reset only by natural
// expiry, so bursty traffic at a window boundary can briefly reach twice the
// nominal rate. That is a known property of this scheme, kept as-is.
type RateLimiter interface {
	// Admit counts the call (rejected calls count too, and never extend the
	// window) and reports whether the sender is within the limit.
	Admit(ctx context.Context, room, sender string) (bool, error)
}

func rateKey(room, sender string) string {
	return "chat:" + room + ":rate:" + sender
}

// ─────────────────────────── in-process variant ─────────────────────────────

type rateWindow struct {
	count   int
	expires time.Time
}

type memoryRateLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	now     func() time.Time
	windows map[string]*rateWindow
}

func NewMemoryRateLimiter(max int, window time.Duration) RateLimiter {
	return &memoryRateLimiter{
		max:     max,
		window:  window,
		now:     time.Now,
		windows: make(map[string]*rateWindow),
	}
}

func (l *memoryRateLimiter) Admit(_ context.Context, room, sender string) (bool, error) {
	key := rateKey(room, sender)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.expires) {
		// Expired windows are replaced lazily on the next call.
		l.windows[key] = &rateWindow{count: 1, expires: now.Add(l.window)}
		return 1 <= l.max, nil
	}
	w.count++
	return w.count <= l.max, nil
}

// ───────────────────────────── Redis variant ────────────────────────────────

type redisRateLimiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
}

func NewRedisRateLimiter(rdb *redis.Client, max int, window time.Duration) RateLimiter {
	return &redisRateLimiter{rdb: rdb, max: max, window: window}
}

func (l *redisRateLimiter) Admit(ctx context.Context, room, sender string) (bool, error) {
	key := rateKey(room, sender)
	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	// The expiry is attached once, when the window opens.
	if n == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return false, err
		}
	}
	return n <= int64(l.max), nil
}
