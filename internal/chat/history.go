package chat

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// HistoryStore is the bounded recent-message cache per room. Newest-first,
// trimmed to the configured size on every append, not durable: it answers
// "last N messages" on connect without touching the durable store.
type HistoryStore interface {
	Append(ctx context.Context, msg Message) error

	// Recent returns at most limit messages, newest-first.
	Recent(ctx context.Context, room string, limit int) ([]Message, error)
}

func recentKey(room string) string {
	return "chat:" + room + ":recent"
}

// ─────────────────────────── in-process variant ─────────────────────────────

type memoryHistory struct {
	mu    sync.Mutex
	size  int
	rooms map[string][]Message
}

func NewMemoryHistory(size int) HistoryStore {
	return &memoryHistory{size: size, rooms: make(map[string][]Message)}
}

func (h *memoryHistory) Append(_ context.Context, msg Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	window := append([]Message{msg}, h.rooms[msg.Room]...)
	if len(window) > h.size {
		window = window[:h.size]
	}
	h.rooms[msg.Room] = window
	return nil
}

func (h *memoryHistory) Recent(_ context.Context, room string, limit int) ([]Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	window := h.rooms[room]
	if limit > len(window) {
		limit = len(window)
	}
	out := make([]Message, limit)
	copy(out, window[:limit])
	return out, nil
}

// ───────────────────────────── Redis variant ────────────────────────────────

type redisHistory struct {
	rdb  *redis.Client
	size int
}

func NewRedisHistory(rdb *redis.Client, size int) HistoryStore {
	return &redisHistory{rdb: rdb, size: size}
}

func (h *redisHistory) Append(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := recentKey(msg.Room)
	pipe := h.rdb.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(h.size-1))
	_, err = pipe.Exec(ctx)
	return err
}

func (h *redisHistory) Recent(ctx context.Context, room string, limit int) ([]Message, error) {
	if limit > h.size {
		limit = h.size
	}
	vals, err := h.rdb.LRange(ctx, recentKey(room), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(vals))
	for _, v := range vals {
		var msg Message
		if err := json.Unmarshal([]byte(v), &msg); err != nil {
			zap.L().Warn("history.decode", zap.String("room", room), zap.Error(err))
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}
