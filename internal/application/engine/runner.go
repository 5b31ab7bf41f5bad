package engine

import (
	"context"
	"log/slog"
	"time"
)

// Pass is one full reconciliation: reconstruct, evaluate, submit.
type Pass func(ctx context.Context) error

// Runner drives a pass on a fixed schedule: once immediately at startup,
// then on every tick until the context is cancelled. Passes never overlap —
// a tick fires only after the previous pass returned. A failed pass is
// logged and the schedule keeps going.
type Runner struct {
	name     string
	interval time.Duration
	pass     Pass
}

// NewRunner wraps a pass with a schedule.
func NewRunner(name string, interval time.Duration, pass Pass) *Runner {
	return &Runner{name: name, interval: interval, pass: pass}
}

// RunOnce executes exactly one pass and returns its error.
func (r *Runner) RunOnce(ctx context.Context) error {
	return r.pass(ctx)
}

// Run executes the schedule until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	slog.Info("runner starting", "name", r.name, "interval", r.interval)

	if err := r.pass(ctx); err != nil {
		slog.Error("pass failed", "name", r.name, "err", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("runner stopped", "name", r.name)
			return nil
		case <-ticker.C:
			if err := r.pass(ctx); err != nil {
				slog.Error("pass failed", "name", r.name, "err", err)
			}
		}
	}
}
