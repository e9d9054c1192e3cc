package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// clientConn wraps one websocket connection. It is the chat.Member handle:
// the write mutex serializes frames from the broadcast path and the history
// push, and the write deadline bounds slow consumers.
type clientConn struct {
	rawConn  *websocket.Conn
	identity string

	mu        sync.Mutex
	closeOnce sync.Once
}

func (c *clientConn) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.rawConn.WriteJSON(v)
}

func (c *clientConn) Identity() string { return c.identity }

// Close is safe to call from every teardown path (reader exit, ping timeout,
// broadcast reap); only the first call touches the transport.
func (c *clientConn) Close() {
	c.closeOnce.Do(func() {
		_ = c.rawConn.Close()
	})
}
