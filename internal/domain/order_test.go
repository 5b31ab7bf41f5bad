package domain_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takepile/pilekeeper/internal/domain"
)

var orderDeadline = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func submitted(slot uint64, limitPrice int64, isLong bool) domain.OrderSubmitted {
	return domain.OrderSubmitted{
		Account:    alice,
		Symbol:     "FTM",
		Amount:     big.NewInt(10),
		Collateral: big.NewInt(5),
		IsLong:     isLong,
		LimitPrice: big.NewInt(limitPrice),
		StopLoss:   big.NewInt(0),
		Slot:       slot,
		Deadline:   orderDeadline,
	}
}

func TestFoldOrders_SlotReuse(t *testing.T) {
	first := submitted(3, 100, true)
	replacement := submitted(3, 250, false)

	events := []domain.PileEvent{
		first,
		domain.OrderCancelled{Account: alice, Symbol: "FTM", Slot: 3},
		replacement,
	}

	orders := domain.FoldOrders(pileAddr, events).Flatten()

	require.Len(t, orders, 1, "slot 3 must hold exactly one live order")
	assert.Equal(t, uint64(3), orders[0].Slot)
	assert.Equal(t, int64(250), orders[0].LimitPrice.Int64(), "last submission wins")
	assert.False(t, orders[0].IsLong)
}

func TestFoldOrders_TriggeredRemovesSlot(t *testing.T) {
	events := []domain.PileEvent{
		submitted(0, 100, true),
		submitted(1, 110, true),
		domain.OrderTriggered{Account: alice, Symbol: "FTM", Slot: 0},
	}

	orders := domain.FoldOrders(pileAddr, events).Flatten()

	require.Len(t, orders, 1)
	assert.Equal(t, uint64(1), orders[0].Slot)
}

func TestFoldOrders_FlattenSkipsEmptySlots(t *testing.T) {
	// Slot 5 populated, slots 0-4 never touched: only one order comes out.
	events := []domain.PileEvent{submitted(5, 100, true)}

	orders := domain.FoldOrders(pileAddr, events).Flatten()

	require.Len(t, orders, 1)
	assert.Equal(t, uint64(5), orders[0].Slot)
}

func TestFoldOrders_IdempotentReplay(t *testing.T) {
	events := []domain.PileEvent{
		submitted(0, 100, true),
		submitted(1, 110, false),
		domain.OrderCancelled{Account: alice, Symbol: "FTM", Slot: 1},
	}

	first := domain.FoldOrders(pileAddr, events)
	second := domain.FoldOrders(pileAddr, events)

	assert.Equal(t, first, second)
}

func TestOrderKey_UsesSlotCoordinates(t *testing.T) {
	a := domain.FoldOrders(pileAddr, []domain.PileEvent{submitted(0, 100, true)}).Flatten()[0]
	b := domain.FoldOrders(pileAddr, []domain.PileEvent{submitted(1, 100, true)}).Flatten()[0]

	// Same deadline, different slots: keys must differ.
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, a.Key(), a.Key())
}

func TestDistinctSymbols(t *testing.T) {
	orders := []domain.LimitOrder{
		{Symbol: "FTM"}, {Symbol: "BTC"}, {Symbol: "FTM"}, {Symbol: "ETH"},
	}

	symbols := domain.DistinctSymbols(orders)
	assert.ElementsMatch(t, []string{"FTM", "BTC", "ETH"}, symbols)
	assert.Len(t, symbols, 3)
}

func TestEvaluateTriggers_LongDirection(t *testing.T) {
	now := orderDeadline.Add(-time.Hour)
	order := domain.LimitOrder{
		Symbol: "FTM", IsLong: true,
		LimitPrice: big.NewInt(100), Deadline: orderDeadline,
	}

	at := func(market int64) bool {
		out := domain.EvaluateTriggers([]domain.LimitOrder{order},
			map[string]*big.Int{"FTM": big.NewInt(market)}, now, false)
		return out[0].Triggerable
	}

	assert.True(t, at(99))
	assert.True(t, at(100), "long triggers at market == limit")
	assert.False(t, at(101))
}

func TestEvaluateTriggers_ShortDirection(t *testing.T) {
	now := orderDeadline.Add(-time.Hour)
	order := domain.LimitOrder{
		Symbol: "FTM", IsLong: false,
		LimitPrice: big.NewInt(100), Deadline: orderDeadline,
	}

	at := func(market int64) bool {
		out := domain.EvaluateTriggers([]domain.LimitOrder{order},
			map[string]*big.Int{"FTM": big.NewInt(market)}, now, false)
		return out[0].Triggerable
	}

	assert.False(t, at(99))
	assert.True(t, at(100), "short triggers at market == limit")
	assert.True(t, at(101))
}

func TestEvaluateTriggers_ExpiredNeverTriggers(t *testing.T) {
	now := orderDeadline.Add(time.Second)
	order := domain.LimitOrder{
		Symbol: "FTM", IsLong: true,
		LimitPrice: big.NewInt(100), Deadline: orderDeadline,
	}

	out := domain.EvaluateTriggers([]domain.LimitOrder{order},
		map[string]*big.Int{"FTM": big.NewInt(50)}, now, false)

	assert.False(t, out[0].Triggerable, "deadline passed, price is irrelevant")
}

func TestEvaluateTriggers_AlwaysTriggerOverride(t *testing.T) {
	now := orderDeadline.Add(time.Hour) // already expired
	order := domain.LimitOrder{
		Symbol: "FTM", IsLong: true,
		LimitPrice: big.NewInt(100), Deadline: orderDeadline,
	}

	out := domain.EvaluateTriggers([]domain.LimitOrder{order},
		map[string]*big.Int{"FTM": big.NewInt(500)}, now, true)

	assert.True(t, out[0].Triggerable, "override bypasses price and deadline checks")
}

func TestEvaluateTriggers_AnnotatesMarketPrice(t *testing.T) {
	now := orderDeadline.Add(-time.Hour)
	order := domain.LimitOrder{
		Symbol: "FTM", IsLong: true,
		LimitPrice: big.NewInt(100), Deadline: orderDeadline,
	}

	out := domain.EvaluateTriggers([]domain.LimitOrder{order},
		map[string]*big.Int{"FTM": big.NewInt(42)}, now, false)

	require.NotNil(t, out[0].MarketPrice)
	assert.Equal(t, int64(42), out[0].MarketPrice.Int64())
}
