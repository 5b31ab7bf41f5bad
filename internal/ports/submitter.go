package ports

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/takepile/pilekeeper/internal/domain"
)

// Liquidator submits liquidation transactions. Signers are indexed in
// priority order; the pipeline walks them until one confirms.
type Liquidator interface {
	// SignerCount returns how many signers are available.
	SignerCount() int

	// SignerAddress returns the address of the signer at the given index.
	SignerAddress(i int) common.Address

	// Liquidate submits liquidate(account, symbol) to the pile signed by
	// signer i and waits for confirmation.
	Liquidate(ctx context.Context, ref domain.LiquidationRef, signer int) error
}

// OrderTrigger submits triggerLimitOrder transactions with the primary
// signer and fixed gas parameters, waiting for confirmation.
type OrderTrigger interface {
	TriggerOrder(ctx context.Context, order domain.LimitOrder) error
}

// BalanceReader reads on-chain balances for the start-of-pass signer report.
type BalanceReader interface {
	// NativeBalance returns the chain-native balance of an address in wei.
	NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error)

	// PassBalance returns how many liquidation pass tokens an address holds.
	PassBalance(ctx context.Context, addr common.Address) (int64, error)
}
