// Package storage is the Postgres implementation of the tenant, user,
// service and appointment stores. Every query is scoped by tenant id.
package storage

import (
	"context"
	_ "embed"

	"github.com/md-rashed-zaman/apptbook/libs/db"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/outbox"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db     db.Querier
	outbox *outbox.Repository
}

func New(q db.Querier) *Store {
	return &Store{db: q, outbox: outbox.NewRepository()}
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, q db.Querier) error {
	_, err := q.Exec(ctx, schemaSQL)
	return err
}
