// Package store provides the opaque key→value save/load boundary the
// rest of the service persists through. Keys are slash-separated paths;
// values are JSON documents. Callers never see the on-disk layout.
package store

import (
	"context"
	"errors"
)

// ErrInvalidKey is returned for empty keys or keys escaping the data dir.
var ErrInvalidKey = errors.New("store: invalid key")

// Store is the persistence boundary. Load reports (false, nil) for a
// missing key so absence is not an error.
type Store interface {
	Load(ctx context.Context, key string, v any) (bool, error)
	Save(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
}
