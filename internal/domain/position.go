package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// liquidationThreshold is 1.0 in 18-decimal fixed point. The health factor is
// a risk score: strictly above 1.0 means liquidatable.
var liquidationThreshold = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Position is one open leveraged exposure on a pile. HealthFactor and
// Liquidatable are zero until the liquidation evaluator annotates them.
type Position struct {
	Pile         common.Address
	Symbol       string
	Account      common.Address
	Amount       *big.Int
	EntryPrice   *big.Int
	IsLong       bool
	HealthFactor *big.Int
	Liquidatable bool
}

// LiquidationRef identifies a position eligible for liquidation.
type LiquidationRef struct {
	Pile    common.Address
	Account common.Address
	Symbol  string
}

// PositionTable holds the open positions of one pile, keyed by symbol then
// account. At most one live position per key.
type PositionTable map[string]map[common.Address]Position

// FoldPositions replays pile events in the order given into a position table.
// Later events overwrite earlier ones for the same (symbol, account); a
// decrease to zero removes the entry entirely. Order events are ignored.
// If seed is nil a fresh table is built; otherwise the fold continues on top
// of seed (incremental replay from a later block).
func FoldPositions(pile common.Address, events []PileEvent, seed PositionTable) PositionTable {
	table := seed
	if table == nil {
		table = make(PositionTable)
	}

	for _, ev := range events {
		switch e := ev.(type) {
		case PositionIncreased:
			table.put(Position{
				Pile:       pile,
				Symbol:     e.Symbol,
				Account:    e.Account,
				Amount:     e.NewAmount,
				EntryPrice: e.Price,
				IsLong:     e.IsLong,
			})
		case PositionDecreased:
			if e.NewAmount == nil || e.NewAmount.Sign() == 0 {
				table.delete(e.Symbol, e.Account)
				continue
			}
			table.put(Position{
				Pile:       pile,
				Symbol:     e.Symbol,
				Account:    e.Account,
				Amount:     e.NewAmount,
				EntryPrice: e.Price,
				IsLong:     e.IsLong,
			})
		}
	}

	return table
}

// Liquidatable reports whether a position with the given health factor is
// eligible for liquidation. The threshold is strict: exactly 1.0 is healthy.
func Liquidatable(healthFactor *big.Int) bool {
	return healthFactor != nil && healthFactor.Cmp(liquidationThreshold) > 0
}

// Count returns the number of open positions across all symbols.
func (t PositionTable) Count() int {
	n := 0
	for _, accounts := range t {
		n += len(accounts)
	}
	return n
}

// Get looks up the position for (symbol, account).
func (t PositionTable) Get(symbol string, account common.Address) (Position, bool) {
	p, ok := t[symbol][account]
	return p, ok
}

func (t PositionTable) put(p Position) {
	accounts, ok := t[p.Symbol]
	if !ok {
		accounts = make(map[common.Address]Position)
		t[p.Symbol] = accounts
	}
	accounts[p.Account] = p
}

func (t PositionTable) delete(symbol string, account common.Address) {
	if accounts, ok := t[symbol]; ok {
		delete(accounts, account)
	}
}
