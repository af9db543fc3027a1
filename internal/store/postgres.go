package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps usernames in a PostgreSQL table. Registration relies
// on ON CONFLICT DO NOTHING, so the Exists/Register race between two logins
// of the same fresh name resolves without an error.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Exists reports whether name has a row in the usernames table.
func (s *PostgresStore) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM usernames WHERE name = $1)`, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("querying username %q: %w", name, err)
	}
	return exists, nil
}

// Register inserts name, ignoring it if already present.
func (s *PostgresStore) Register(ctx context.Context, name string) error {
	if !ValidName(name) {
		return fmt.Errorf("registering %q: invalid username", name)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO usernames (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name,
	)
	if err != nil {
		return fmt.Errorf("inserting username %q: %w", name, err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
