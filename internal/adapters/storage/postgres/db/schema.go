package db

import (
	"context"
	_ "embed"
)

//go:embed schema.sql
var Schema string

// EnsureSchema creates missing tables and indexes. Every statement is
// idempotent, so it runs on each startup.
func (q *Queries) EnsureSchema(ctx context.Context) error {
	_, err := q.db.Exec(ctx, Schema)
	return err
}
