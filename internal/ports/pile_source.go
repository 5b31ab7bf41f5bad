package ports

import (
	"context"

	"github.com/takepile/pilekeeper/internal/domain"
)

// PileSource enumerates the piles the keeper watches. Implemented both by the
// driver-contract registry (creation events) and by a static configured list.
type PileSource interface {
	Piles(ctx context.Context) ([]domain.Pile, error)
}
