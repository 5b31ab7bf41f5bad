package domain

import "time"

// Pass kinds, one per pipeline.
const (
	PassLiquidation = "liquidation"
	PassTrigger     = "trigger"
)

// PassRecord summarizes one reconciliation pass for the history table.
type PassRecord struct {
	ID         string
	Kind       string
	StartedAt  time.Time
	Duration   time.Duration
	Piles      int
	Actionable int
	Submitted  int
	Failed     int
}
