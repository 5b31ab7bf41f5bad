package ports

import (
	"context"

	"github.com/takepile/pilekeeper/internal/domain"
)

// Notifier reports what a pass found on each pile.
type Notifier interface {
	// LiquidationReport presents the open positions of a pile and the subset
	// flagged liquidatable.
	LiquidationReport(ctx context.Context, pile domain.Pile, positions []domain.Position, refs []domain.LiquidationRef) error

	// OrderReport presents the pending limit orders of a pile after trigger
	// evaluation.
	OrderReport(ctx context.Context, pile domain.Pile, orders []domain.LimitOrder) error
}
