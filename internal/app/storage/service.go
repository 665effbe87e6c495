/*
Package storage provides durable backends for the chat history snapshot.

The history is a single record: a JSON document that is fully replaced on every
write. A SnapshotStore only moves those bytes; encoding belongs to the caller.
*/
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Load when no snapshot has been written yet.
var ErrNotFound = errors.New("storage: snapshot not found")

// SnapshotStore defines the public interface for a history snapshot backend.
type SnapshotStore interface {
	// Load returns the most recently saved snapshot, or ErrNotFound.
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the stored snapshot with data.
	Save(ctx context.Context, data []byte) error

	// Close releases any resources held by the backend.
	Close() error
}

// ServiceConfig holds the configuration required to build a SnapshotStore.
type ServiceConfig struct {
	// Driver selects the backend: "file", "postgres", "sqlite", "s3", or "memory".
	Driver string

	FilePath    string
	DatabaseDSN string
	SQLitePath  string

	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	S3ObjectKey       string
}

// NewSnapshotStore is the factory function for SnapshotStore.
// The "memory" driver returns a nil store, meaning history is not persisted.
func NewSnapshotStore(ctx context.Context, cfg ServiceConfig) (SnapshotStore, error) {
	var (
		store SnapshotStore
		err   error
	)

	switch cfg.Driver {
	case "file":
		return NewFileStore(cfg.FilePath)
	case "postgres":
		var pg *postgresStore
		if pg, err = newPostgresStore(ctx, cfg.DatabaseDSN); err == nil {
			store = pg
		}
	case "sqlite":
		var lite *sqliteStore
		if lite, err = newSQLiteStore(ctx, cfg.SQLitePath); err == nil {
			store = lite
		}
	case "s3":
		var obj *s3Store
		if obj, err = newS3Store(ctx, cfg); err == nil {
			store = obj
		}
	case "memory", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", cfg.Driver)
	}

	if err != nil {
		return nil, err
	}
	return store, nil
}
