package db_client

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// Open connects to Postgres and verifies the connection. The messages table
// it expects:
//
//	CREATE TABLE IF NOT EXISTS messages (
//	    id         BIGSERIAL PRIMARY KEY,
//	    room       TEXT        NOT NULL,
//	    username   TEXT        NOT NULL,
//	    content    TEXT        NOT NULL,
//	    avatar     TEXT,
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE INDEX IF NOT EXISTS messages_room_id_idx ON messages (room, id DESC);
//
// The BIGSERIAL id doubles as the pagination cursor: it is strictly monotonic
// with insertion order within a room.
func Open(host, port, user, pass, database string) (*sql.DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		user, pass, host, port, database,
	)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetConnMaxIdleTime(time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		zap.L().Error("pg_connect", zap.Error(err))
		db.Close()
		return nil, err
	}
	return db, nil
}
