package domain

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// LimitOrder is a pending conditional instruction on a pile. MarketPrice and
// Triggerable are zero until the trigger evaluator annotates them.
type LimitOrder struct {
	Pile        common.Address
	Symbol      string
	Account     common.Address
	Slot        uint64
	Amount      *big.Int
	Collateral  *big.Int
	IsLong      bool
	LimitPrice  *big.Int
	StopLoss    *big.Int
	Deadline    time.Time
	MarketPrice *big.Int
	Triggerable bool
}

// Key returns the order's stable identity, used to bound trigger retries.
// Built from the slot coordinates rather than the deadline: two orders can
// share a deadline, but never a (pile, symbol, account, slot).
func (o LimitOrder) Key() string {
	return fmt.Sprintf("%s:%s:%s:%d",
		strings.ToLower(o.Pile.Hex()), o.Symbol, strings.ToLower(o.Account.Hex()), o.Slot)
}

// Expired reports whether the order's deadline has passed.
func (o LimitOrder) Expired(now time.Time) bool {
	return now.After(o.Deadline)
}

// OrderTable holds the pending limit orders of one pile, keyed by symbol,
// account, then slot index.
type OrderTable map[string]map[common.Address]map[uint64]LimitOrder

// FoldOrders replays pile events in the order given into an order table.
// A submission at an occupied slot replaces it; cancellation and trigger
// events delete the slot. Position events are ignored.
func FoldOrders(pile common.Address, events []PileEvent) OrderTable {
	table := make(OrderTable)

	for _, ev := range events {
		switch e := ev.(type) {
		case OrderSubmitted:
			table.put(LimitOrder{
				Pile:       pile,
				Symbol:     e.Symbol,
				Account:    e.Account,
				Slot:       e.Slot,
				Amount:     e.Amount,
				Collateral: e.Collateral,
				IsLong:     e.IsLong,
				LimitPrice: e.LimitPrice,
				StopLoss:   e.StopLoss,
				Deadline:   e.Deadline,
			})
		case OrderCancelled:
			table.delete(e.Symbol, e.Account, e.Slot)
		case OrderTriggered:
			table.delete(e.Symbol, e.Account, e.Slot)
		}
	}

	return table
}

// Flatten returns every live order in the table as a single slice. Deleted
// and never-populated slots do not appear.
func (t OrderTable) Flatten() []LimitOrder {
	var orders []LimitOrder
	for _, accounts := range t {
		for _, slots := range accounts {
			for _, o := range slots {
				orders = append(orders, o)
			}
		}
	}
	return orders
}

func (t OrderTable) put(o LimitOrder) {
	accounts, ok := t[o.Symbol]
	if !ok {
		accounts = make(map[common.Address]map[uint64]LimitOrder)
		t[o.Symbol] = accounts
	}
	slots, ok := accounts[o.Account]
	if !ok {
		slots = make(map[uint64]LimitOrder)
		accounts[o.Account] = slots
	}
	slots[o.Slot] = o
}

func (t OrderTable) delete(symbol string, account common.Address, slot uint64) {
	if accounts, ok := t[symbol]; ok {
		if slots, ok := accounts[account]; ok {
			delete(slots, slot)
		}
	}
}

// DistinctSymbols returns the market symbols present among the given orders,
// each exactly once. Price oracles are consulted once per symbol, not once
// per order.
func DistinctSymbols(orders []LimitOrder) []string {
	seen := make(map[string]bool, len(orders))
	var symbols []string
	for _, o := range orders {
		if !seen[o.Symbol] {
			seen[o.Symbol] = true
			symbols = append(symbols, o.Symbol)
		}
	}
	return symbols
}

// EvaluateTriggers annotates each order with its market price and whether it
// can be triggered now. A long order triggers at or below its limit price, a
// short at or above; an expired order never triggers. With alwaysTrigger set,
// every order is marked triggerable and the on-chain checks are trusted to
// reject invalid ones.
func EvaluateTriggers(orders []LimitOrder, prices map[string]*big.Int, now time.Time, alwaysTrigger bool) []LimitOrder {
	out := make([]LimitOrder, 0, len(orders))
	for _, o := range orders {
		price := prices[o.Symbol]
		o.MarketPrice = price

		if alwaysTrigger {
			o.Triggerable = true
			out = append(out, o)
			continue
		}

		if price == nil {
			o.Triggerable = false
			out = append(out, o)
			continue
		}

		if o.IsLong {
			o.Triggerable = price.Cmp(o.LimitPrice) <= 0
		} else {
			o.Triggerable = price.Cmp(o.LimitPrice) >= 0
		}
		if o.Expired(now) {
			o.Triggerable = false
		}
		out = append(out, o)
	}
	return out
}
