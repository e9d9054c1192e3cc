package ws

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomchatgo/internal/chat"
	"roomchatgo/internal/store"
)

// stubStore is a tiny in-memory durable store for end-to-end tests.
type stubStore struct {
	mu     sync.Mutex
	nextID int64
	recs   []store.Record
}

func (s *stubStore) Insert(_ context.Context, room, username, content string, avatar *string, createdAt time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := strconv.FormatInt(s.nextID, 10)
	s.recs = append(s.recs, store.Record{
		ID: id, Room: room, Username: username, Content: content,
		Avatar: avatar, CreatedAt: createdAt,
	})
	return id, nil
}

func (s *stubStore) ListBefore(_ context.Context, room string, limit int, _ string) ([]store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.Record
	for i := len(s.recs) - 1; i >= 0 && len(out) < limit; i-- {
		if s.recs[i].Room == room {
			out = append(out, s.recs[i])
		}
	}
	return out, nil
}

// frame decodes any of the three outbound shapes.
type frame struct {
	Type   string             `json:"type"`
	Items  []chat.MessageView `json:"items"`
	Item   chat.MessageView   `json:"item"`
	Detail string             `json:"detail"`
}

func newChatServer(t *testing.T, rateMax int) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := chat.NewRoomRegistry()
	engine := chat.NewBroadcastEngine(registry)
	presence := chat.NewRegistryPresence(registry)
	svc := chat.NewChatService(
		chat.NewMemoryRateLimiter(rateMax, 10*time.Second),
		chat.NewMemoryHistory(50),
		&stubStore{},
		engine,
		presence,
	)

	r := gin.New()
	r.GET("/ws/:room", NewWsServer(registry, svc, presence, 20).Handle)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server, room, username string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/" + room
	if username != "" {
		url += "?username=" + username
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestConnectSendReceive(t *testing.T) {
	ts := newChatServer(t, 5)

	// A joins an empty room: the first frame is empty history.
	connA := dial(t, ts, "lobby", "a")
	hist := readFrame(t, connA)
	assert.Equal(t, "history", hist.Type)
	assert.Empty(t, hist.Items)

	// A sends and gets its own echo back.
	require.NoError(t, connA.WriteJSON(chat.Inbound{Username: "a", Content: "hi"}))
	echo := readFrame(t, connA)
	require.Equal(t, "message", echo.Type)
	assert.Equal(t, "a", echo.Item.Username)
	assert.Equal(t, "hi", echo.Item.Content)
	assert.NotEmpty(t, echo.Item.ID)

	// B joins afterward: its first frame is the history containing A's message.
	connB := dial(t, ts, "lobby", "b")
	histB := readFrame(t, connB)
	require.Equal(t, "history", histB.Type)
	require.Len(t, histB.Items, 1)
	assert.Equal(t, "hi", histB.Items[0].Content)

	// A live message from A reaches both members.
	require.NoError(t, connA.WriteJSON(chat.Inbound{Username: "a", Content: "again"}))
	assert.Equal(t, "again", readFrame(t, connA).Item.Content)
	assert.Equal(t, "again", readFrame(t, connB).Item.Content)
}

func TestHistoryIsOldestFirst(t *testing.T) {
	ts := newChatServer(t, 100)

	connA := dial(t, ts, "lobby", "a")
	readFrame(t, connA) // empty history

	for i := 1; i <= 3; i++ {
		require.NoError(t, connA.WriteJSON(chat.Inbound{Content: fmt.Sprintf("m%d", i)}))
		readFrame(t, connA) // drain echoes so ordering is settled
	}

	connB := dial(t, ts, "lobby", "b")
	hist := readFrame(t, connB)
	require.Len(t, hist.Items, 3)
	assert.Equal(t, "m1", hist.Items[0].Content)
	assert.Equal(t, "m3", hist.Items[2].Content)
}

func TestRateLimitNoticeOnlyToSender(t *testing.T) {
	ts := newChatServer(t, 5)

	connA := dial(t, ts, "lobby", "a")
	readFrame(t, connA)
	connB := dial(t, ts, "lobby", "b")
	readFrame(t, connB)

	for i := 1; i <= 6; i++ {
		require.NoError(t, connA.WriteJSON(chat.Inbound{Username: "a", Content: fmt.Sprintf("m%d", i)}))
	}

	// A sees five echoes then the notice.
	for i := 1; i <= 5; i++ {
		f := readFrame(t, connA)
		require.Equal(t, "message", f.Type)
		assert.Equal(t, fmt.Sprintf("m%d", i), f.Item.Content)
	}
	notice := readFrame(t, connA)
	assert.Equal(t, "error", notice.Type)
	assert.Equal(t, "Rate limit exceeded", notice.Detail)

	// B sees exactly the five accepted messages and nothing else.
	for i := 1; i <= 5; i++ {
		f := readFrame(t, connB)
		require.Equal(t, "message", f.Type)
		assert.Equal(t, fmt.Sprintf("m%d", i), f.Item.Content)
	}
}

func TestMalformedFramesAreDropped(t *testing.T) {
	ts := newChatServer(t, 5)

	connA := dial(t, ts, "lobby", "a")
	readFrame(t, connA)

	// Not JSON, and empty-after-trim: both ignored, no response, no close.
	require.NoError(t, connA.WriteMessage(websocket.TextMessage, []byte("not json at all")))
	require.NoError(t, connA.WriteJSON(chat.Inbound{Content: "   "}))

	// The connection is still healthy afterwards.
	require.NoError(t, connA.WriteJSON(chat.Inbound{Content: "still alive"}))
	f := readFrame(t, connA)
	assert.Equal(t, "still alive", f.Item.Content)
}

func TestDisconnectLeavesRoom(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := chat.NewRoomRegistry()
	engine := chat.NewBroadcastEngine(registry)
	presence := chat.NewRegistryPresence(registry)
	svc := chat.NewChatService(
		chat.NewMemoryRateLimiter(5, 10*time.Second),
		chat.NewMemoryHistory(50),
		&stubStore{},
		engine,
		presence,
	)
	r := gin.New()
	r.GET("/ws/:room", NewWsServer(registry, svc, presence, 20).Handle)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)

	conn := dial(t, ts, "abc", "a")
	readFrame(t, conn)
	require.False(t, registry.IsEmpty("abc"))

	require.NoError(t, conn.Close())

	// The reader notices the close and runs teardown; the emptied room is
	// reclaimed from the registry.
	require.Eventually(t, func() bool { return registry.IsEmpty("abc") },
		2*time.Second, 10*time.Millisecond)
}
