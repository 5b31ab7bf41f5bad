package ports

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// HealthOracle reads an account's health factor for a symbol from the pile
// contract. 18-decimal fixed point; higher is worse.
type HealthOracle interface {
	HealthFactor(ctx context.Context, pile, account common.Address, symbol string) (*big.Int, error)
}

// PriceOracle reads the latest market price for a symbol from the pile
// contract.
type PriceOracle interface {
	LatestPrice(ctx context.Context, pile common.Address, symbol string) (*big.Int, error)
}
