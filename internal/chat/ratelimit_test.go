package chat

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func admit(t *testing.T, l RateLimiter, room, sender string) bool {
	t.Helper()
	ok, err := l.Admit(context.Background(), room, sender)
	require.NoError(t, err)
	return ok
}

func TestMemoryRateLimiterFixedWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryRateLimiter(5, 10*time.Second).(*memoryRateLimiter)
	l.now = func() time.Time { return now }

	for i := 1; i <= 5; i++ {
		assert.True(t, admit(t, l, "lobby", "alice"), "call %d should be admitted", i)
	}
	// The call that brings the count to 6 is the first rejected one, and
	// rejections keep counting without extending the window.
	assert.False(t, admit(t, l, "lobby", "alice"))
	assert.False(t, admit(t, l, "lobby", "alice"))

	// Other (room, sender) pairs are independent windows.
	assert.True(t, admit(t, l, "lobby", "bob"))
	assert.True(t, admit(t, l, "other", "alice"))

	// Still inside the window: rejected.
	now = now.Add(9 * time.Second)
	assert.False(t, admit(t, l, "lobby", "alice"))

	// Natural expiry resets the counter to a fresh window at count 1.
	now = now.Add(2 * time.Second)
	for i := 1; i <= 5; i++ {
		assert.True(t, admit(t, l, "lobby", "alice"), "call %d after expiry should be admitted", i)
	}
	assert.False(t, admit(t, l, "lobby", "alice"))
}

func TestRedisRateLimiter(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	l := NewRedisRateLimiter(rdb, 5, 10*time.Second)

	key := "chat:lobby:rate:alice"

	// First call opens the window and attaches the expiry.
	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, 10*time.Second).SetVal(true)
	assert.True(t, admit(t, l, "lobby", "alice"))

	// Subsequent calls only increment.
	mock.ExpectIncr(key).SetVal(5)
	assert.True(t, admit(t, l, "lobby", "alice"))

	mock.ExpectIncr(key).SetVal(6)
	assert.False(t, admit(t, l, "lobby", "alice"))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisRateLimiterBackendError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	l := NewRedisRateLimiter(rdb, 5, 10*time.Second)

	mock.ExpectIncr("chat:lobby:rate:alice").SetErr(assert.AnError)
	_, err := l.Admit(context.Background(), "lobby", "alice")
	assert.Error(t, err)
}
