package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/takepile/pilekeeper/internal/domain"
	"github.com/takepile/pilekeeper/internal/ports"
)

// Config controls one limit-order pipeline instance.
type Config struct {
	// FromBlock is where event replay starts every pass.
	FromBlock uint64

	// MaxAttempts bounds retries per order: once the stored failure count
	// exceeds it, the order is skipped until it leaves the book.
	MaxAttempts int

	// AlwaysTrigger bypasses price and deadline checks, trusting the
	// contract to reject invalid triggers.
	AlwaysTrigger bool
}

// Engine runs the limit-order side of the keeper: replay the order book per
// pile, resolve prices once per symbol, and trigger what qualifies with the
// primary signer, recording failures in the attempt store.
type Engine struct {
	cfg      Config
	logs     ports.LogSource
	piles    ports.PileSource
	prices   ports.PriceOracle
	trigger  ports.OrderTrigger
	attempts ports.AttemptStore
	balances ports.BalanceReader
	passes   ports.PassStore
	notifier ports.Notifier
	signers  ports.Liquidator
}

// New creates a trigger engine with all dependencies injected. balances,
// passes, notifier, and signers (used only for the balance report) may be
// nil; attempts may not.
func New(
	cfg Config,
	logs ports.LogSource,
	piles ports.PileSource,
	prices ports.PriceOracle,
	orderTrigger ports.OrderTrigger,
	attempts ports.AttemptStore,
	balances ports.BalanceReader,
	passes ports.PassStore,
	notifier ports.Notifier,
	signers ports.Liquidator,
) *Engine {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Engine{
		cfg:      cfg,
		logs:     logs,
		piles:    piles,
		prices:   prices,
		trigger:  orderTrigger,
		attempts: attempts,
		balances: balances,
		passes:   passes,
		notifier: notifier,
		signers:  signers,
	}
}

// RunPass executes one full limit-order reconciliation. A pile that fails to
// fetch or price is skipped for this pass; only pile enumeration failure
// aborts the pass itself.
func (e *Engine) RunPass(ctx context.Context) error {
	start := time.Now()
	rec := domain.PassRecord{
		ID:        uuid.New().String(),
		Kind:      domain.PassTrigger,
		StartedAt: start,
	}
	slog.Info("trigger: pass start", "pass", rec.ID)

	e.reportSignerBalances(ctx)

	piles, err := e.piles.Piles(ctx)
	if err != nil {
		return fmt.Errorf("trigger.RunPass: enumerate piles: %w", err)
	}
	rec.Piles = len(piles)

	for _, pile := range piles {
		actionable, submitted, failed, err := e.processPile(ctx, pile)
		if err != nil {
			slog.Error("trigger: pile skipped",
				"pile", pile.Name, "address", pile.Address.Hex(), "err", err)
			continue
		}
		rec.Actionable += actionable
		rec.Submitted += submitted
		rec.Failed += failed
	}

	rec.Duration = time.Since(start)
	if e.passes != nil {
		if err := e.passes.SavePass(ctx, rec); err != nil {
			slog.Warn("trigger: save pass record", "err", err)
		}
	}

	slog.Info("trigger: pass complete",
		"pass", rec.ID,
		"piles", rec.Piles,
		"triggerable", rec.Actionable,
		"submitted", rec.Submitted,
		"failed", rec.Failed,
		"duration", rec.Duration.Round(time.Millisecond),
	)
	return nil
}

// processPile replays one pile's order book, prices each distinct symbol
// once, and submits the triggerable orders.
func (e *Engine) processPile(ctx context.Context, pile domain.Pile) (actionable, submitted, failed int, err error) {
	events, err := e.logs.PileEvents(ctx, pile, e.cfg.FromBlock, 0)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("fetch events: %w", err)
	}

	orders := domain.FoldOrders(pile.Address, events).Flatten()
	if len(orders) == 0 {
		if e.notifier != nil {
			if nerr := e.notifier.OrderReport(ctx, pile, nil); nerr != nil {
				slog.Warn("trigger: notifier error", "err", nerr)
			}
		}
		return 0, 0, 0, nil
	}

	prices := make(map[string]*big.Int)
	for _, symbol := range domain.DistinctSymbols(orders) {
		price, perr := e.prices.LatestPrice(ctx, pile.Address, symbol)
		if perr != nil {
			return 0, 0, 0, fmt.Errorf("price %s: %w", symbol, perr)
		}
		prices[symbol] = price
	}

	orders = domain.EvaluateTriggers(orders, prices, time.Now(), e.cfg.AlwaysTrigger)

	if e.notifier != nil {
		if nerr := e.notifier.OrderReport(ctx, pile, orders); nerr != nil {
			slog.Warn("trigger: notifier error", "err", nerr)
		}
	}

	for _, order := range orders {
		if !order.Triggerable {
			continue
		}
		actionable++

		switch e.submit(ctx, pile, order) {
		case submitOK:
			submitted++
		case submitFailed:
			failed++
		}
	}
	return actionable, submitted, failed, nil
}

type submitOutcome int

const (
	submitOK submitOutcome = iota
	submitFailed
	submitSkipped
)

// submit triggers one order unless its failure count already exceeds the
// bound. A failed submission increments the durable count before moving on;
// a successful one leaves the count alone — the order disappears from the
// book by itself.
func (e *Engine) submit(ctx context.Context, pile domain.Pile, order domain.LimitOrder) submitOutcome {
	key := order.Key()

	count, err := e.attempts.Get(ctx, key)
	if err != nil {
		// Can't prove the bound holds, so don't submit.
		slog.Error("trigger: attempt lookup failed", "order", key, "err", err)
		return submitSkipped
	}
	if count > e.cfg.MaxAttempts {
		slog.Info("trigger: attempt limit exceeded, skipping",
			"order", key, "attempts", count, "max", e.cfg.MaxAttempts)
		return submitSkipped
	}

	slog.Info("trigger: submitting",
		"pile", pile.Name, "account", order.Account.Hex(),
		"symbol", order.Symbol, "slot", order.Slot)

	if err := e.trigger.TriggerOrder(ctx, order); err != nil {
		slog.Warn("trigger: submission failed", "order", key, "err", err)
		if ierr := e.attempts.Increment(ctx, key); ierr != nil {
			slog.Error("trigger: persist attempt count", "order", key, "err", ierr)
		}
		return submitFailed
	}

	slog.Info("trigger: confirmed", "order", key)
	return submitOK
}

// reportSignerBalances logs each signer's native balance at the start of the
// pass. Informational only.
func (e *Engine) reportSignerBalances(ctx context.Context) {
	if e.balances == nil || e.signers == nil {
		return
	}

	for i := 0; i < e.signers.SignerCount(); i++ {
		addr := e.signers.SignerAddress(i)
		native, err := e.balances.NativeBalance(ctx, addr)
		if err != nil {
			slog.Warn("trigger: balance check", "signer", addr.Hex(), "err", err)
			continue
		}
		f := new(big.Float).Quo(new(big.Float).SetInt(native), big.NewFloat(1e18))
		slog.Info("trigger: signer", "address", addr.Hex(), "native", f.Text('f', 4))
	}
}
