// Package store is the durable side of the chat pipeline: every accepted
// message is inserted here before it is broadcast, and the REST pagination
// endpoint reads from here. Two interchangeable backends exist (Postgres,
// Mongo); both assign an opaque cursor id that is strictly monotonic with
// insertion order within a room, so paginating with before_id never skips or
// repeats a message under concurrent inserts.
package store

import (
	"context"
	"errors"
	"time"
)

// Record is one persisted message row/document.
type Record struct {
	ID        string
	Room      string
	Username  string
	Content   string
	Avatar    *string
	CreatedAt time.Time
}

// ErrInsertFailed wraps backend failures so callers can treat persistence as
// one error class without knowing the backend.
var ErrInsertFailed = errors.New("message insert failed")

type IMessageStore interface {
	// Insert persists one message and returns its cursor id.
	Insert(ctx context.Context, room, username, content string, avatar *string, createdAt time.Time) (string, error)

	// ListBefore returns up to limit messages of the room strictly older than
	// beforeID, newest-first. An empty or unparseable beforeID means "from the
	// latest".
	ListBefore(ctx context.Context, room string, limit int, beforeID string) ([]Record, error)
}
