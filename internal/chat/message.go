// Package chat is the room connection manager and fan-out pipeline: it tracks
// which connections belong to which room, rate-limits inbound messages,
// persists and caches them, and broadcasts them to every member of the room.
package chat

import (
	"strings"
	"time"
)

const (
	MaxUsernameLen  = 50
	MaxContentLen   = 1000
	DefaultUsername = "anon"
)

// Message is one accepted chat message. Immutable once created; ID is the
// store-assigned pagination cursor.
type Message struct {
	ID        string    `json:"id"`
	Room      string    `json:"room"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	Avatar    *string   `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageView is the wire shape of a message, with an ISO-8601 UTC timestamp.
type MessageView struct {
	ID        string  `json:"id"`
	Room      string  `json:"room"`
	Username  string  `json:"username"`
	Content   string  `json:"content"`
	Avatar    *string `json:"avatar"`
	CreatedAt string  `json:"created_at"`
}

func (m Message) View() MessageView {
	return MessageView{
		ID:        m.ID,
		Room:      m.Room,
		Username:  m.Username,
		Content:   m.Content,
		Avatar:    m.Avatar,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// Inbound is the single client→server frame shape. Anything that does not
// parse as this is dropped at the boundary.
type Inbound struct {
	Username string  `json:"username"`
	Content  string  `json:"content"`
	Avatar   *string `json:"avatar,omitempty"`
}

// CleanUsername trims, defaults to "anon" and truncates to MaxUsernameLen.
func CleanUsername(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultUsername
	}
	return truncate(s, MaxUsernameLen)
}

// CleanContent trims and truncates to MaxContentLen. May return "".
func CleanContent(s string) string {
	return truncate(strings.TrimSpace(s), MaxContentLen)
}

// truncate counts characters, not bytes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ─────────────────────────── Outbound frames ────────────────────────────────

// HistoryFrame is sent once right after connect, items oldest-first.
type HistoryFrame struct {
	Type  string        `json:"type"`
	Items []MessageView `json:"items"`
}

// MessageFrame carries one accepted message, echoed to the sender too.
type MessageFrame struct {
	Type string      `json:"type"`
	Item MessageView `json:"item"`
}

// NoticeFrame carries an informational error, e.g. the rate-limit notice.
type NoticeFrame struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

func NewHistoryFrame(items []MessageView) HistoryFrame {
	if items == nil {
		items = []MessageView{}
	}
	return HistoryFrame{Type: "history", Items: items}
}

func NewMessageFrame(item MessageView) MessageFrame {
	return MessageFrame{Type: "message", Item: item}
}

func NewRateLimitNotice() NoticeFrame {
	return NoticeFrame{Type: "error", Detail: "Rate limit exceeded"}
}
