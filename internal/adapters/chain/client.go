package chain

// client.go — thin wrapper over go-ethereum's RPC client.
//
// Every RPC hits the shared rate limiter so a pass replaying many piles
// cannot hammer a public endpoint into 429s.

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"

	"github.com/takepile/pilekeeper/internal/domain"
)

const (
	rpcRatePerSec = 20
	rpcBurst      = 10
)

// Client talks to the chain over a single RPC endpoint.
type Client struct {
	eth     *ethclient.Client
	limiter *rate.Limiter
	chainID *big.Int
}

// Dial connects to the RPC endpoint and resolves its chain ID.
func Dial(ctx context.Context, rpcURL string) (*Client, error) {
	trimmed := strings.TrimSpace(rpcURL)
	if trimmed == "" {
		return nil, fmt.Errorf("chain.Dial: rpc url required")
	}

	eth, err := ethclient.DialContext(ctx, trimmed)
	if err != nil {
		return nil, fmt.Errorf("chain.Dial: %w", err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("chain.Dial: chain id: %w", err)
	}

	return &Client{
		eth:     eth,
		limiter: rate.NewLimiter(rpcRatePerSec, rpcBurst),
		chainID: chainID,
	}, nil
}

// ChainID returns the connected chain's ID, needed to build signers.
func (c *Client) ChainID() *big.Int {
	return c.chainID
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// PileEvents implements ports.LogSource. Logs that do not decode against the
// pile ABI are dropped; the fold downstream never sees them.
func (c *Client) PileEvents(ctx context.Context, pile domain.Pile, fromBlock, toBlock uint64) ([]domain.PileEvent, error) {
	logs, err := c.filterLogs(ctx, pile.Address, fromBlock, toBlock)
	if err != nil {
		return nil, fmt.Errorf("chain.PileEvents: %s: %w", pile.Symbol, err)
	}

	events := make([]domain.PileEvent, 0, len(logs))
	for _, lg := range logs {
		ev, ok := decodePileLog(lg)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// NativeBalance implements half of ports.BalanceReader.
func (c *Client) NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	balance, err := c.eth.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("chain.NativeBalance: %s: %w", addr.Hex(), err)
	}
	return balance, nil
}

// filterLogs fetches raw logs for one contract and returns them ascending by
// (block, log index). The fold relies on that ordering: later events must
// overwrite earlier ones.
func (c *Client) filterLogs(ctx context.Context, addr common.Address, fromBlock, toBlock uint64) ([]types.Log, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := ethereum.FilterQuery{
		Addresses: []common.Address{addr},
		FromBlock: new(big.Int).SetUint64(fromBlock),
	}
	if toBlock > 0 {
		query.ToBlock = new(big.Int).SetUint64(toBlock)
	}

	logs, err := c.eth.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("filter logs: %w", err)
	}

	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})
	return logs, nil
}
