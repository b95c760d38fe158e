// Package kvstore abstracts the external key-value store used for
// credentials and thread context.
package kvstore

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = eris.New("kvstore: key not found")

// ErrUnavailable is returned when the backing store cannot be reached.
// Callers that have a static fallback (e.g. an env-provided credential)
// branch on this; everything else propagates it.
var ErrUnavailable = eris.New("kvstore: store unavailable")

// Store is a string key-value store with TTL-on-write semantics.
// A ttl of zero means the key does not expire.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Close() error
}
