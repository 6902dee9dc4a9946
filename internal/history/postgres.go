package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const postgresDriver = "pgx"

var sqlOpen = sql.Open

// PostgresStore keeps history in a shared Postgres database.
type PostgresStore struct {
	*sqlStore
}

// NewPostgresStore connects to dsn, verifies the connection and creates the
// formulations table when missing.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("history: postgres dsn is required")
	}
	db, err := sqlOpen(postgresDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PostgresStore{sqlStore: &sqlStore{
		db:       db,
		numbered: true,
		seq:      "seq",
		upgrades: []string{`ALTER TABLE formulations ADD COLUMN IF NOT EXISTS seq BIGSERIAL`},
	}}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: migration: %w", err)
	}
	return s, nil
}
