package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/takepile/pilekeeper/internal/domain"
)

// DriverRegistry enumerates piles from the driver contract's creation events.
// Fresh query every pass, so piles deployed after the keeper started are
// picked up without a restart.
type DriverRegistry struct {
	client    *Client
	driver    common.Address
	fromBlock uint64
}

// NewDriverRegistry builds a registry over the driver contract. fromBlock
// should be at or before the driver's deployment block.
func NewDriverRegistry(client *Client, driver common.Address, fromBlock uint64) *DriverRegistry {
	return &DriverRegistry{client: client, driver: driver, fromBlock: fromBlock}
}

// Piles implements ports.PileSource.
func (r *DriverRegistry) Piles(ctx context.Context) ([]domain.Pile, error) {
	logs, err := r.client.filterLogs(ctx, r.driver, r.fromBlock, 0)
	if err != nil {
		return nil, fmt.Errorf("chain.DriverRegistry: %w", err)
	}

	var piles []domain.Pile
	for _, lg := range logs {
		pile, ok := decodePileCreated(lg)
		if !ok {
			continue
		}
		piles = append(piles, pile)
	}
	return piles, nil
}

func decodePileCreated(lg types.Log) (domain.Pile, bool) {
	if lg.Removed || len(lg.Topics) == 0 || lg.Topics[0] != driverABI.Events["TakepileCreated"].ID {
		return domain.Pile{}, false
	}
	var raw struct {
		Pile   common.Address `abi:"pile"`
		Name   string         `abi:"name"`
		Symbol string         `abi:"symbol"`
	}
	if err := driverABI.UnpackIntoInterface(&raw, "TakepileCreated", lg.Data); err != nil {
		return domain.Pile{}, false
	}
	return domain.Pile{Address: raw.Pile, Name: raw.Name, Symbol: raw.Symbol}, true
}

// StaticRegistry serves a fixed, configured pile list. Used on deployments
// where the driver address is unknown or the operator only wants to keep a
// subset of markets.
type StaticRegistry struct {
	piles []domain.Pile
}

// NewStaticRegistry copies the given list.
func NewStaticRegistry(piles []domain.Pile) *StaticRegistry {
	out := make([]domain.Pile, len(piles))
	copy(out, piles)
	return &StaticRegistry{piles: out}
}

// Piles implements ports.PileSource.
func (r *StaticRegistry) Piles(_ context.Context) ([]domain.Pile, error) {
	out := make([]domain.Pile, len(r.piles))
	copy(out, r.piles)
	return out, nil
}
