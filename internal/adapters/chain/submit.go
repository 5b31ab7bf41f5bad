package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/takepile/pilekeeper/internal/domain"
)

// SubmitterConfig carries the fixed gas parameters used for trigger
// transactions and the upper bound on any confirmation wait. Liquidations
// leave gas to the node's estimator, matching how the contracts were run
// historically.
type SubmitterConfig struct {
	GasPrice       *big.Int
	GasLimit       uint64
	ConfirmTimeout time.Duration
}

// Submitter implements ports.Liquidator and ports.OrderTrigger on top of the
// chain client.
type Submitter struct {
	client  *Client
	signers []Signer
	cfg     SubmitterConfig
}

// NewSubmitter wires signers to the client. At least one signer is required;
// signers[0] is the primary used for trigger submissions.
func NewSubmitter(client *Client, signers []Signer, cfg SubmitterConfig) (*Submitter, error) {
	if len(signers) == 0 {
		return nil, fmt.Errorf("chain.NewSubmitter: at least one signer required")
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 2 * time.Minute
	}
	return &Submitter{client: client, signers: signers, cfg: cfg}, nil
}

// SignerCount implements ports.Liquidator.
func (s *Submitter) SignerCount() int {
	return len(s.signers)
}

// SignerAddress implements ports.Liquidator.
func (s *Submitter) SignerAddress(i int) common.Address {
	return s.signers[i].Address
}

// SignerAddresses returns every signer address in priority order.
func (s *Submitter) SignerAddresses() []common.Address {
	addrs := make([]common.Address, len(s.signers))
	for i, sg := range s.signers {
		addrs[i] = sg.Address
	}
	return addrs
}

// Liquidate submits liquidate(account, symbol) signed by signer i and waits
// for the receipt. A revert is an error: the caller falls through to the
// next signer.
func (s *Submitter) Liquidate(ctx context.Context, ref domain.LiquidationRef, signer int) error {
	if signer < 0 || signer >= len(s.signers) {
		return fmt.Errorf("chain.Liquidate: signer %d out of range", signer)
	}

	if err := s.client.limiter.Wait(ctx); err != nil {
		return err
	}

	opts := *s.signers[signer].opts
	opts.Context = ctx

	contract := bind.NewBoundContract(ref.Pile, pileABI, s.client.eth, s.client.eth, s.client.eth)
	tx, err := contract.Transact(&opts, "liquidate", ref.Account, ref.Symbol)
	if err != nil {
		return fmt.Errorf("chain.Liquidate: %s %s: %w", ref.Account.Hex(), ref.Symbol, err)
	}
	return s.waitConfirmed(ctx, tx)
}

// TriggerOrder submits triggerLimitOrder(account, symbol, slot) with the
// primary signer and the configured fixed gas parameters.
func (s *Submitter) TriggerOrder(ctx context.Context, order domain.LimitOrder) error {
	if err := s.client.limiter.Wait(ctx); err != nil {
		return err
	}

	opts := *s.signers[0].opts
	opts.Context = ctx
	opts.GasPrice = s.cfg.GasPrice
	opts.GasLimit = s.cfg.GasLimit

	contract := bind.NewBoundContract(order.Pile, pileABI, s.client.eth, s.client.eth, s.client.eth)
	tx, err := contract.Transact(&opts, "triggerLimitOrder",
		order.Account, order.Symbol, new(big.Int).SetUint64(order.Slot))
	if err != nil {
		return fmt.Errorf("chain.TriggerOrder: %s: %w", order.Key(), err)
	}
	return s.waitConfirmed(ctx, tx)
}

// waitConfirmed blocks until the transaction is mined or the confirmation
// timeout fires. A stuck transaction must not stall the whole schedule.
func (s *Submitter) waitConfirmed(ctx context.Context, tx *types.Transaction) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.ConfirmTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, s.client.eth, tx)
	if err != nil {
		return fmt.Errorf("wait mined %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted", tx.Hash().Hex())
	}
	return nil
}
