// Package docstore is a small collection/document abstraction over the
// databases thumbflow can index into. Documents are addressed by a collection
// name and a key, written whole and never patched.
package docstore

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrUnsupportedDriver = errors.New("unsupported docstore driver")
)

// Store persists JSON-shaped documents.
type Store interface {
	// Set creates or replaces the document at collection/key.
	Set(ctx context.Context, collection, key string, doc any) error
	// Get decodes the document at collection/key into dst. Returns ErrNotFound
	// when nothing is stored there.
	Get(ctx context.Context, collection, key string, dst any) error
	// Delete removes the document at collection/key. Deleting a missing
	// document is not an error.
	Delete(ctx context.Context, collection, key string) error
	Close() error
}

// Config selects and configures a Store backend.
type Config struct {
	// Driver is one of sqlite, postgres or dynamodb.
	Driver string
	// DSN is the database connection string; for dynamodb it is an optional
	// endpoint override.
	DSN    string
	Region string
}

// Open builds the Store named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return openSQL(ctx, sqliteDialect, cfg.DSN)
	case "postgres":
		return openSQL(ctx, postgresDialect, cfg.DSN)
	case "dynamodb":
		return openDynamo(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}
