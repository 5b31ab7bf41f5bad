package ports

import (
	"context"

	"github.com/takepile/pilekeeper/internal/domain"
)

// AttemptStore is the durable order-key → failure-count mapping that bounds
// trigger retries. Increment must hit stable storage before returning: a
// crash right after a failed submission must not lose the failure record.
// Counts never decrease.
type AttemptStore interface {
	// Get returns the attempt count for a key, 0 if the key was never seen.
	Get(ctx context.Context, key string) (int, error)

	// Increment adds one to the key's count and persists it synchronously.
	Increment(ctx context.Context, key string) error
}

// PassStore records one summary row per reconciliation pass.
type PassStore interface {
	SavePass(ctx context.Context, rec domain.PassRecord) error
}
