package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IdempotencyStore remembers which resource a client-supplied idempotency key produced,
// so a network-retried create can be answered without opening a new transaction.
// The database unique index on the key stays authoritative; the store is a fast path.
type IdempotencyStore interface {
	// Lookup returns the resource ID recorded for key, if any
	Lookup(ctx context.Context, key string) (uuid.UUID, bool, error)

	// Remember records key -> resourceID for ttl. An existing entry is left untouched.
	Remember(ctx context.Context, key string, resourceID uuid.UUID, ttl time.Duration) error

	// Forget drops key, used when the resource it points to is deleted
	Forget(ctx context.Context, key string) error

	// Close releases resources held by the store
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a key is remembered by the fast path. Default: 24 hours
	TTL time.Duration
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL: 24 * time.Hour,
	}
}
