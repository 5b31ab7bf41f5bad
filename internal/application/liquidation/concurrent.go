package liquidation

// concurrent.go — worker pool for health-factor reads.
//
// One read per open position; on a busy pile that dominates the pass, so the
// reads fan out. Evaluation fails closed: any oracle error invalidates the
// whole pile for this pass rather than guessing a health factor.

import (
	"context"
	"runtime"
	"sync"

	"github.com/takepile/pilekeeper/internal/domain"
)

type evalResult struct {
	pos domain.Position
	err error
}

// evaluate reads every position's health factor and flags the liquidatable
// ones. Returns the annotated positions and one reference per liquidatable
// entry. Iteration order is not stable across runs; callers must not depend
// on it.
func (e *Engine) evaluate(ctx context.Context, pile domain.Pile, table domain.PositionTable) ([]domain.Position, []domain.LiquidationRef, error) {
	var pending []domain.Position
	for _, accounts := range table {
		for _, pos := range accounts {
			pending = append(pending, pos)
		}
	}
	if len(pending) == 0 {
		return nil, nil, nil
	}

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(pending) {
		workers = len(pending)
	}

	evalCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workCh := make(chan domain.Position, len(pending))
	resultCh := make(chan evalResult, len(pending))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range workCh {
				hf, err := e.health.HealthFactor(evalCtx, pile.Address, pos.Account, pos.Symbol)
				if err != nil {
					resultCh <- evalResult{err: err}
					cancel() // no point finishing the pile, it fails closed anyway
					continue
				}
				pos.HealthFactor = hf
				pos.Liquidatable = domain.Liquidatable(hf)
				resultCh <- evalResult{pos: pos}
			}
		}()
	}

	for _, pos := range pending {
		workCh <- pos
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var (
		positions []domain.Position
		refs      []domain.LiquidationRef
		firstErr  error
	)
	for res := range resultCh {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		positions = append(positions, res.pos)
		if res.pos.Liquidatable {
			refs = append(refs, domain.LiquidationRef{
				Pile:    pile.Address,
				Account: res.pos.Account,
				Symbol:  res.pos.Symbol,
			})
		}
	}
	if firstErr != nil {
		return nil, nil, firstErr
	}
	return positions, refs, nil
}
