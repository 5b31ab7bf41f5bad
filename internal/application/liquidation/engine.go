package liquidation

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

// Config controls one liquidation pipeline instance.
type Config struct {
	// FromBlock is where event replay starts every pass, at or before the
	// oldest pile's deployment.
	FromBlock uint64

	// Workers bounds concurrent health-factor reads. <= 0 picks a default.
	Workers int
}

// Engine runs the liquidation side of the keeper: replay positions per pile,
// read health factors, liquidate what's above water, trying each signer in
// priority order.
type Engine struct {
	cfg        Config
	logs       ports.LogSource
	piles      ports.PileSource
	health     ports.HealthOracle
	liquidator ports.Liquidator
	balances   ports.BalanceReader
	passes     ports.PassStore
	notifier   ports.Notifier
}

// New creates a liquidation engine with all dependencies injected.
// balances, passes, and notifier may be nil.
func New(
	cfg Config,
	logs ports.LogSource,
	piles ports.PileSource,
	health ports.HealthOracle,
	liquidator ports.Liquidator,
	balances ports.BalanceReader,
	passes ports.PassStore,
	notifier ports.Notifier,
) *Engine {
	return &Engine{
		cfg:        cfg,
		logs:       logs,
		piles:      piles,
		health:     health,
		liquidator: liquidator,
		balances:   balances,
		passes:     passes,
		notifier:   notifier,
	}
}

// RunPass executes one full liquidation reconciliation. A pile that fails to
// fetch or evaluate is skipped for this pass and retried on the next; only
// pile enumeration failure aborts the pass itself.
func (e *Engine) RunPass(ctx context.Context) error {
	start := time.Now()
	rec := domain.PassRecord{
		ID:        uuid.New().String(),
		Kind:      domain.PassLiquidation,
		StartedAt: start,
	}
	slog.Info("liquidation: pass start", "pass", rec.ID)

	e.reportSignerBalances(ctx)

	piles, err := e.piles.Piles(ctx)
	if err != nil {
		return fmt.Errorf("liquidation.RunPass: enumerate piles: %w", err)
	}
	rec.Piles = len(piles)

	for _, pile := range piles {
		actionable, submitted, failed, err := e.processPile(ctx, pile)
		if err != nil {
			slog.Error("liquidation: pile skipped",
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
			slog.Warn("liquidation: save pass record", "err", err)
		}
	}

	slog.Info("liquidation: pass complete",
		"pass", rec.ID,
		"piles", rec.Piles,
		"liquidatable", rec.Actionable,
		"submitted", rec.Submitted,
		"failed", rec.Failed,
		"duration", rec.Duration.Round(time.Millisecond),
	)
	return nil
}

// processPile replays one pile's positions, evaluates health factors, and
// submits liquidations. Fails closed: any fetch or oracle error means no
// decision is made on this pile this pass.
func (e *Engine) processPile(ctx context.Context, pile domain.Pile) (actionable, submitted, failed int, err error) {
	events, err := e.logs.PileEvents(ctx, pile, e.cfg.FromBlock, 0)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("fetch events: %w", err)
	}

	table := domain.FoldPositions(pile.Address, events, nil)

	positions, refs, err := e.evaluate(ctx, pile, table)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("evaluate health: %w", err)
	}

	if e.notifier != nil {
		if nerr := e.notifier.LiquidationReport(ctx, pile, positions, refs); nerr != nil {
			slog.Warn("liquidation: notifier error", "err", nerr)
		}
	}

	for _, ref := range refs {
		slog.Info("liquidation: liquidatable position",
			"pile", pile.Name, "account", ref.Account.Hex(), "symbol", ref.Symbol)
		if e.submit(ctx, ref) {
			submitted++
		} else {
			failed++
		}
	}
	return len(refs), submitted, failed, nil
}

// submit tries each signer in priority order until one confirms. All signers
// failing is not an error: the position is re-evaluated from fresh state
// next pass.
func (e *Engine) submit(ctx context.Context, ref domain.LiquidationRef) bool {
	for i := 0; i < e.liquidator.SignerCount(); i++ {
		signer := e.liquidator.SignerAddress(i)
		slog.Info("liquidation: attempting",
			"account", ref.Account.Hex(), "symbol", ref.Symbol, "signer", signer.Hex())

		if err := e.liquidator.Liquidate(ctx, ref, i); err != nil {
			slog.Warn("liquidation: signer failed",
				"signer", signer.Hex(), "account", ref.Account.Hex(), "symbol", ref.Symbol, "err", err)
			continue
		}

		slog.Info("liquidation: confirmed",
			"account", ref.Account.Hex(), "symbol", ref.Symbol, "signer", signer.Hex())
		return true
	}
	return false
}

// reportSignerBalances logs each signer's native and liquidation-pass
// balances at the start of the pass. Informational only; failures do not
// affect the pass.
func (e *Engine) reportSignerBalances(ctx context.Context) {
	if e.balances == nil {
		return
	}

	for i := 0; i < e.liquidator.SignerCount(); i++ {
		addr := e.liquidator.SignerAddress(i)

		native, err := e.balances.NativeBalance(ctx, addr)
		if err != nil {
			slog.Warn("liquidation: balance check", "signer", addr.Hex(), "err", err)
			continue
		}
		passes, err := e.balances.PassBalance(ctx, addr)
		if err != nil {
			slog.Warn("liquidation: pass balance check", "signer", addr.Hex(), "err", err)
			continue
		}

		slog.Info("liquidation: signer",
			"address", addr.Hex(),
			"native", formatEther(native),
			"passes", passes,
		)
	}
}

func formatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	f := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e18))
	return f.Text('f', 4)
}
