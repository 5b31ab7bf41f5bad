package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// HealthFactor implements ports.HealthOracle with an eth_call against the
// pile contract. 18-decimal fixed point; strictly above 1.0 is liquidatable.
func (c *Client) HealthFactor(ctx context.Context, pile, account common.Address, symbol string) (*big.Int, error) {
	out, err := c.callUint(ctx, pile, pileABI, "getHealthFactor", account, symbol)
	if err != nil {
		return nil, fmt.Errorf("chain.HealthFactor: %s %s: %w", account.Hex(), symbol, err)
	}
	return out, nil
}

// LatestPrice implements ports.PriceOracle.
func (c *Client) LatestPrice(ctx context.Context, pile common.Address, symbol string) (*big.Int, error) {
	out, err := c.callUint(ctx, pile, pileABI, "getLatestPrice", symbol)
	if err != nil {
		return nil, fmt.Errorf("chain.LatestPrice: %s: %w", symbol, err)
	}
	return out, nil
}

func (c *Client) callUint(ctx context.Context, addr common.Address, contractABI abi.ABI, method string, args ...any) (*big.Int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	contract := bind.NewBoundContract(addr, contractABI, c.eth, c.eth, c.eth)
	var out []any
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// PassReader reads the balances reported at the start of each pass: native
// token plus the driver's LiquidationPass NFT. Implements ports.BalanceReader
// together with Client.NativeBalance.
type PassReader struct {
	*Client
	driver common.Address

	mu       sync.Mutex
	passAddr common.Address
}

// NewPassReader wraps a client with LiquidationPass lookups. A zero driver
// address disables pass balances (static pile deployments).
func NewPassReader(client *Client, driver common.Address) *PassReader {
	return &PassReader{Client: client, driver: driver}
}

// PassBalance returns how many liquidation passes the address holds. The
// pass contract address is resolved from the driver on first use and cached.
func (r *PassReader) PassBalance(ctx context.Context, addr common.Address) (int64, error) {
	if r.driver == (common.Address{}) {
		return 0, nil
	}

	passAddr, err := r.passContract(ctx)
	if err != nil {
		return 0, err
	}

	balance, err := r.callUint(ctx, passAddr, passABI, "balanceOf", addr)
	if err != nil {
		return 0, fmt.Errorf("chain.PassBalance: %s: %w", addr.Hex(), err)
	}
	return balance.Int64(), nil
}

func (r *PassReader) passContract(ctx context.Context) (common.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.passAddr != (common.Address{}) {
		return r.passAddr, nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return common.Address{}, err
	}
	contract := bind.NewBoundContract(r.driver, driverABI, r.eth, r.eth, r.eth)
	var out []any
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "liquidationPass"); err != nil {
		return common.Address{}, fmt.Errorf("chain.PassBalance: resolve pass contract: %w", err)
	}
	r.passAddr = *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	return r.passAddr, nil
}
