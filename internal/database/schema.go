package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrSchema wraps failures while ensuring the schema.
var ErrSchema = errors.New("database: ensure schema")

// Execer is the slice of a pool or connection that EnsureSchema needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS contacts (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		company VARCHAR(255) NOT NULL DEFAULT '',
		service VARCHAR(50) NOT NULL
			CHECK (service IN ('basic-scan', 'pentest', 'training', 'audit', 'wordpress', 'other')),
		message TEXT NOT NULL,
		status VARCHAR(50) NOT NULL DEFAULT 'new'
			CHECK (status IN ('new', 'contacted', 'converted', 'archived')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT contacts_updated_after_created CHECK (created_at <= updated_at)
	)`,
	`CREATE INDEX IF NOT EXISTS contacts_created_at_idx ON contacts (created_at DESC)`,
}

// EnsureSchema creates the contacts table and its index when absent. Safe to
// run any number of times.
func EnsureSchema(ctx context.Context, exec Execer) error {
	for _, stmt := range schemaStatements {
		if _, err := exec.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: %w", ErrSchema, Classify(err))
		}
	}
	return nil
}
