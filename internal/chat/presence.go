package chat

import (
	"context"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PresenceTracker records which peer identities are online in a room.
// Best-effort: presence failures never interfere with message flow.
type PresenceTracker interface {
	Connect(ctx context.Context, room, identity string)
	Disconnect(ctx context.Context, room, identity string)
	Online(ctx context.Context, room string) ([]string, error)
}

const presenceTTL = 60 * time.Second

func onlineKey(room string) string {
	return "chat:" + room + ":online"
}

// ───────────────────────────── Redis variant ────────────────────────────────

type redisPresence struct {
	rdb *redis.Client
}

func NewRedisPresence(rdb *redis.Client) PresenceTracker {
	return &redisPresence{rdb: rdb}
}

func (p *redisPresence) Connect(ctx context.Context, room, identity string) {
	key := onlineKey(room)
	pipe := p.rdb.Pipeline()
	pipe.SAdd(ctx, key, identity)
	pipe.Expire(ctx, key, presenceTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		zap.L().Warn("presence.connect", zap.String("room", room), zap.Error(err))
	}
}

func (p *redisPresence) Disconnect(ctx context.Context, room, identity string) {
	if err := p.rdb.SRem(ctx, onlineKey(room), identity).Err(); err != nil {
		zap.L().Warn("presence.disconnect", zap.String("room", room), zap.Error(err))
	}
}

func (p *redisPresence) Online(ctx context.Context, room string) ([]string, error) {
	ids, err := p.rdb.SMembers(ctx, onlineKey(room)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// ─────────────────────────── in-process variant ─────────────────────────────

// registryPresence derives presence from live registry membership, so it
// needs no bookkeeping of its own.
type registryPresence struct {
	registry *RoomRegistry
}

func NewRegistryPresence(registry *RoomRegistry) PresenceTracker {
	return &registryPresence{registry: registry}
}

func (p *registryPresence) Connect(context.Context, string, string) {}

func (p *registryPresence) Disconnect(context.Context, string, string) {}

func (p *registryPresence) Online(_ context.Context, room string) ([]string, error) {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, m := range p.registry.Members(room) {
		if _, dup := seen[m.Identity()]; dup {
			continue
		}
		seen[m.Identity()] = struct{}{}
		ids = append(ids, m.Identity())
	}
	sort.Strings(ids)
	return ids, nil
}
