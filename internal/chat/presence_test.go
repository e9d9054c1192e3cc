package chat

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryPresenceDeduplicatesIdentities(t *testing.T) {
	reg := NewRoomRegistry()
	p := NewRegistryPresence(reg)

	// Two tabs, same identity: identity is not the membership key.
	reg.Join("lobby", &fakeMember{id: "alice"})
	reg.Join("lobby", &fakeMember{id: "alice"})
	reg.Join("lobby", &fakeMember{id: "bob"})

	online, err := p.Online(context.Background(), "lobby")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, online)
}

func TestRedisPresence(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	p := NewRedisPresence(rdb)
	ctx := context.Background()

	mock.ExpectSAdd("chat:lobby:online", "alice").SetVal(1)
	mock.ExpectExpire("chat:lobby:online", 60*time.Second).SetVal(true)
	p.Connect(ctx, "lobby", "alice")

	mock.ExpectSMembers("chat:lobby:online").SetVal([]string{"bob", "alice"})
	online, err := p.Online(ctx, "lobby")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, online, "sorted for stable output")

	mock.ExpectSRem("chat:lobby:online", "alice").SetVal(1)
	p.Disconnect(ctx, "lobby", "alice")

	require.NoError(t, mock.ExpectationsWereMet())
}
