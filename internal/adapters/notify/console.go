package notify

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/takepile/pilekeeper/internal/domain"
)

// Console implements ports.Notifier on stdout. Compact one-liners by
// default; table mode prints the full per-pile state.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole creates a notifier that writes to stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// LiquidationReport prints a pile's open positions and how many are
// liquidatable.
func (c *Console) LiquidationReport(_ context.Context, pile domain.Pile, positions []domain.Position, refs []domain.LiquidationRef) error {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "[%s] %s: %d open position(s), %d liquidatable\n",
		now, pile.Name, len(positions), len(refs))

	if !c.table || len(positions) == 0 {
		return nil
	}

	sorted := make([]domain.Position, len(positions))
	copy(sorted, positions)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Symbol != sorted[j].Symbol {
			return sorted[i].Symbol < sorted[j].Symbol
		}
		return sorted[i].Account.Hex() < sorted[j].Account.Hex()
	})

	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Symbol", "Account", "Amount", "Entry", "Side", "Health", "Liq")
	for _, pos := range sorted {
		tbl.Append(
			pos.Symbol,
			shortAddr(pos.Account.Hex()),
			bigStr(pos.Amount),
			bigStr(pos.EntryPrice),
			side(pos.IsLong),
			units18(pos.HealthFactor),
			mark(pos.Liquidatable),
		)
	}
	tbl.Render()
	return nil
}

// OrderReport prints a pile's pending limit orders after trigger evaluation.
func (c *Console) OrderReport(_ context.Context, pile domain.Pile, orders []domain.LimitOrder) error {
	now := time.Now().Format("15:04:05")
	triggerable := 0
	for _, o := range orders {
		if o.Triggerable {
			triggerable++
		}
	}
	fmt.Fprintf(c.out, "[%s] %s: %d pending order(s), %d triggerable\n",
		now, pile.Name, len(orders), triggerable)

	if !c.table || len(orders) == 0 {
		return nil
	}

	sorted := make([]domain.LimitOrder, len(orders))
	copy(sorted, orders)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key() < sorted[j].Key() })

	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Symbol", "Account", "Slot", "Side", "Limit", "Market", "Deadline", "Trig")
	for _, o := range sorted {
		tbl.Append(
			o.Symbol,
			shortAddr(o.Account.Hex()),
			fmt.Sprintf("%d", o.Slot),
			side(o.IsLong),
			bigStr(o.LimitPrice),
			bigStr(o.MarketPrice),
			o.Deadline.Format("01-02 15:04"),
			mark(o.Triggerable),
		)
	}
	tbl.Render()
	return nil
}

func shortAddr(hex string) string {
	if len(hex) <= 12 {
		return hex
	}
	return hex[:6] + "…" + hex[len(hex)-4:]
}

func bigStr(x *big.Int) string {
	if x == nil {
		return "-"
	}
	return x.String()
}

// units18 renders an 18-decimal fixed-point value as a short ratio.
func units18(x *big.Int) string {
	if x == nil {
		return "-"
	}
	f := new(big.Float).Quo(new(big.Float).SetInt(x), big.NewFloat(1e18))
	return f.Text('f', 4)
}

func side(isLong bool) string {
	if isLong {
		return "LONG"
	}
	return "SHORT"
}

func mark(b bool) string {
	if b {
		return "YES"
	}
	return "-"
}
