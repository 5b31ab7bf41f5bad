package chain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/takepile/pilekeeper/internal/domain"
)

// decodePileLog turns a raw log into one of the five pile event kinds.
// Returns false for anything that does not match: foreign event signatures,
// malformed data, removed (reorged) logs. Decoding is best-effort by design —
// the pile contract emits more event types than the keeper cares about.
func decodePileLog(lg types.Log) (domain.PileEvent, bool) {
	if lg.Removed || len(lg.Topics) == 0 {
		return nil, false
	}

	switch lg.Topics[0] {
	case pileABI.Events["IncreasePosition"].ID:
		var raw struct {
			Who       common.Address `abi:"who"`
			Symbol    string         `abi:"symbol"`
			Amount    *big.Int       `abi:"amount"`
			NewAmount *big.Int       `abi:"newAmount"`
			IsLong    bool           `abi:"isLong"`
			Price     *big.Int       `abi:"price"`
			Fees      *big.Int       `abi:"fees"`
		}
		if err := pileABI.UnpackIntoInterface(&raw, "IncreasePosition", lg.Data); err != nil {
			return nil, false
		}
		return domain.PositionIncreased{
			Account:   raw.Who,
			Symbol:    raw.Symbol,
			Amount:    raw.Amount,
			NewAmount: raw.NewAmount,
			IsLong:    raw.IsLong,
			Price:     raw.Price,
			Fees:      raw.Fees,
		}, true

	case pileABI.Events["DecreasePosition"].ID:
		var raw struct {
			Who       common.Address `abi:"who"`
			Symbol    string         `abi:"symbol"`
			Amount    *big.Int       `abi:"amount"`
			NewAmount *big.Int       `abi:"newAmount"`
			IsLong    bool           `abi:"isLong"`
			Price     *big.Int       `abi:"price"`
			Reward    *big.Int       `abi:"reward"`
			Fees      *big.Int       `abi:"fees"`
		}
		if err := pileABI.UnpackIntoInterface(&raw, "DecreasePosition", lg.Data); err != nil {
			return nil, false
		}
		return domain.PositionDecreased{
			Account:   raw.Who,
			Symbol:    raw.Symbol,
			Amount:    raw.Amount,
			NewAmount: raw.NewAmount,
			IsLong:    raw.IsLong,
			Price:     raw.Price,
			Reward:    raw.Reward,
			Fees:      raw.Fees,
		}, true

	case pileABI.Events["LimitOrderSubmitted"].ID:
		var raw struct {
			Who        common.Address `abi:"who"`
			Symbol     string         `abi:"symbol"`
			Amount     *big.Int       `abi:"amount"`
			Collateral *big.Int       `abi:"collateral"`
			IsLong     bool           `abi:"isLong"`
			LimitPrice *big.Int       `abi:"limitPrice"`
			StopLoss   *big.Int       `abi:"stopLoss"`
			Index      *big.Int       `abi:"index"`
			Deadline   *big.Int       `abi:"deadline"`
		}
		if err := pileABI.UnpackIntoInterface(&raw, "LimitOrderSubmitted", lg.Data); err != nil {
			return nil, false
		}
		return domain.OrderSubmitted{
			Account:    raw.Who,
			Symbol:     raw.Symbol,
			Amount:     raw.Amount,
			Collateral: raw.Collateral,
			IsLong:     raw.IsLong,
			LimitPrice: raw.LimitPrice,
			StopLoss:   raw.StopLoss,
			Slot:       raw.Index.Uint64(),
			Deadline:   time.UnixMilli(raw.Deadline.Int64() * 1000).UTC(),
		}, true

	case pileABI.Events["LimitOrderCancelled"].ID:
		raw, ok := decodeSlotEvent(lg, "LimitOrderCancelled")
		if !ok {
			return nil, false
		}
		return domain.OrderCancelled{Account: raw.Who, Symbol: raw.Symbol, Slot: raw.Index.Uint64()}, true

	case pileABI.Events["LimitOrderTriggered"].ID:
		raw, ok := decodeSlotEvent(lg, "LimitOrderTriggered")
		if !ok {
			return nil, false
		}
		return domain.OrderTriggered{Account: raw.Who, Symbol: raw.Symbol, Slot: raw.Index.Uint64()}, true
	}

	return nil, false
}

type slotEvent struct {
	Who    common.Address `abi:"who"`
	Symbol string         `abi:"symbol"`
	Index  *big.Int       `abi:"index"`
}

func decodeSlotEvent(lg types.Log, name string) (slotEvent, bool) {
	var raw slotEvent
	if err := pileABI.UnpackIntoInterface(&raw, name, lg.Data); err != nil {
		return slotEvent{}, false
	}
	return raw, true
}
