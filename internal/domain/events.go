package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PileEvent is the closed set of pile token events the keeper folds into
// state. Decoding happens at the chain boundary; everything past that point
// switches exhaustively over these five kinds.
type PileEvent interface {
	pileEvent()
}

// PositionIncreased is emitted when an account opens or adds to a position.
type PositionIncreased struct {
	Account   common.Address
	Symbol    string
	Amount    *big.Int
	NewAmount *big.Int
	IsLong    bool
	Price     *big.Int
	Fees      *big.Int
}

// PositionDecreased is emitted when an account reduces or closes a position.
// NewAmount == 0 means the position is gone.
type PositionDecreased struct {
	Account   common.Address
	Symbol    string
	Amount    *big.Int
	NewAmount *big.Int
	IsLong    bool
	Price     *big.Int
	Reward    *big.Int
	Fees      *big.Int
}

// OrderSubmitted is emitted when an account places a limit order in a slot.
// Slots are reused by the contract: a submission at an occupied slot replaces
// whatever was there.
type OrderSubmitted struct {
	Account    common.Address
	Symbol     string
	Amount     *big.Int
	Collateral *big.Int
	IsLong     bool
	LimitPrice *big.Int
	StopLoss   *big.Int
	Slot       uint64
	Deadline   time.Time
}

// OrderCancelled is emitted when an account withdraws a limit order.
type OrderCancelled struct {
	Account common.Address
	Symbol  string
	Slot    uint64
}

// OrderTriggered is emitted when a limit order executes on-chain.
type OrderTriggered struct {
	Account common.Address
	Symbol  string
	Slot    uint64
}

func (PositionIncreased) pileEvent() {}
func (PositionDecreased) pileEvent() {}
func (OrderSubmitted) pileEvent()    {}
func (OrderCancelled) pileEvent()    {}
func (OrderTriggered) pileEvent()    {}
