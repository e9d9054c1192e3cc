// Package ws drives the lifecycle of one chat connection: upgrade, room
// join, initial history push, the inbound reader loop and teardown.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"roomchatgo/internal/chat"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second // must be < pongWait

	maxFrameSize = 4096

	handleTimeout = 5 * time.Second
)

type WsServer struct {
	registry    *chat.RoomRegistry
	service     chat.IChatService
	presence    chat.PresenceTracker
	historyPage int
}

func NewWsServer(registry *chat.RoomRegistry, service chat.IChatService, presence chat.PresenceTracker, historyPage int) *WsServer {
	return &WsServer{
		registry:    registry,
		service:     service,
		presence:    presence,
		historyPage: historyPage,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true }, // dev-only
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

// Handle upgrades GET /ws/:room. The room id lives in the path; an optional
// ?username= both labels the sender and becomes its peer identity (falling
// back to the client address).
func (s *WsServer) Handle(ginCtx *gin.Context) {
	roomID := ginCtx.Param("room")
	if roomID == "" {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"detail": "room is required"})
		return
	}

	identity := peerIdentity(ginCtx)

	rawConn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.upgrade", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(maxFrameSize)

	// ─────────────────── Client joined ────────────────────────
	conn := &clientConn{rawConn: rawConn, identity: identity}
	rawConn.SetPongHandler(func(string) error {
		return rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})
	_ = rawConn.SetReadDeadline(time.Now().Add(pongWait))

	s.registry.Join(roomID, conn)
	s.presence.Connect(ginCtx.Request.Context(), roomID, identity)

	if err := s.pushHistory(ginCtx.Request.Context(), roomID, conn); err != nil {
		zap.L().Warn("ws.history", zap.String("room", roomID), zap.Error(err))
	}

	go s.reader(roomID, conn)
	go s.pinger(conn)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func peerIdentity(ginCtx *gin.Context) string {
	if u := chat.CleanUsername(ginCtx.Query("username")); u != chat.DefaultUsername {
		return u
	}
	host, _, err := net.SplitHostPort(ginCtx.Request.RemoteAddr)
	if err != nil {
		return ginCtx.Request.RemoteAddr
	}
	return host
}

// pushHistory sends the one-off history frame, oldest-of-the-batch first.
// The cache stores newest-first, so the page is reversed before sending.
func (s *WsServer) pushHistory(ctx context.Context, roomID string, conn *clientConn) error {
	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	items, err := s.service.Recent(ctx, roomID, s.historyPage)
	if err != nil {
		return err
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return conn.Send(chat.NewHistoryFrame(items))
}

// reader is the single inbound goroutine of one connection; because it alone
// feeds this sender's messages into the pipeline, one sender's stream is
// persisted and broadcast in submission order.
func (s *WsServer) reader(roomID string, conn *clientConn) {
	defer s.teardown(roomID, conn)

	for {
		mt, data, err := conn.rawConn.ReadMessage()
		if err != nil {
			return // client closed, errored or timed out
		}
		if mt != websocket.TextMessage {
			continue
		}

		// Malformed frames are dropped silently, by policy.
		var in chat.Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
		_, err = s.service.HandleMessage(ctx, roomID, conn.identity, in)
		cancel()

		switch {
		case err == nil:
			// The echo arrives through the broadcast, nothing more to send.
		case errors.Is(err, chat.ErrRateLimited):
			_ = conn.Send(chat.NewRateLimitNotice())
		case errors.Is(err, chat.ErrEmptyContent):
			// Empty after trim: frame ignored, no response.
		default:
			// Persistence failure: this message is gone, the connection stays.
			zap.L().Error("ws.handle_message",
				zap.String("room", roomID),
				zap.String("peer", conn.identity),
				zap.Error(err))
		}
	}
}

// teardown is the single close path. Leave and Close are idempotent, so a
// transport error racing an explicit disconnect still results in exactly one
// removal.
func (s *WsServer) teardown(roomID string, conn *clientConn) {
	s.registry.Leave(roomID, conn)
	s.presence.Disconnect(context.Background(), roomID, conn.identity)
	conn.Close()
}

func (s *WsServer) pinger(conn *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		err := conn.rawConn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		if err != nil {
			conn.Close() // unblocks the reader, which runs teardown
			return
		}
	}
}
