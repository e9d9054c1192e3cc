package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

type pgStore struct {
	db *sql.DB
}

// NewPgStore returns the Postgres-backed message store. The messages table
// schema is documented in db_client.Open.
func NewPgStore(db *sql.DB) IMessageStore { return &pgStore{db: db} }

func (s *pgStore) Insert(ctx context.Context, room, username, content string, avatar *string, createdAt time.Time) (string, error) {
	const ins = `
	  INSERT INTO messages (room, username, content, avatar, created_at)
	       VALUES ($1, $2, $3, $4, $5)
	    RETURNING id`

	var id int64
	err := s.db.QueryRowContext(ctx, ins,
		room, username, content, avatar, createdAt.UTC(),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}
	return strconv.FormatInt(id, 10), nil
}

func (s *pgStore) ListBefore(ctx context.Context, room string, limit int, beforeID string) ([]Record, error) {
	base := `SELECT id, room, username, content, avatar, created_at
	           FROM messages WHERE room = $1`

	var (
		rows *sql.Rows
		err  error
	)
	// An unparseable cursor is ignored, same as the document-store backend.
	if before, perr := strconv.ParseInt(beforeID, 10, 64); perr == nil && beforeID != "" {
		rows, err = s.db.QueryContext(ctx,
			base+" AND id < $2 ORDER BY id DESC LIMIT $3", room, before, limit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			base+" ORDER BY id DESC LIMIT $2", room, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]Record, 0, limit)
	for rows.Next() {
		var (
			r      Record
			id     int64
			avatar sql.NullString
		)
		if err := rows.Scan(&id, &r.Room, &r.Username, &r.Content, &avatar, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.ID = strconv.FormatInt(id, 10)
		if avatar.Valid {
			r.Avatar = &avatar.String
		}
		r.CreatedAt = r.CreatedAt.UTC()
		list = append(list, r)
	}
	return list, rows.Err()
}
