package domain_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takepile/pilekeeper/internal/domain"
)

var (
	pileAddr = common.HexToAddress("0x852f6355e54de53E67f351472B650e1043A3d4cf")
	alice    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob      = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func increase(who common.Address, symbol string, newAmount, price int64) domain.PositionIncreased {
	return domain.PositionIncreased{
		Account:   who,
		Symbol:    symbol,
		Amount:    big.NewInt(newAmount),
		NewAmount: big.NewInt(newAmount),
		IsLong:    true,
		Price:     big.NewInt(price),
		Fees:      big.NewInt(0),
	}
}

func decrease(who common.Address, symbol string, newAmount, price int64) domain.PositionDecreased {
	return domain.PositionDecreased{
		Account:   who,
		Symbol:    symbol,
		Amount:    big.NewInt(1),
		NewAmount: big.NewInt(newAmount),
		IsLong:    true,
		Price:     big.NewInt(price),
		Reward:    big.NewInt(0),
		Fees:      big.NewInt(0),
	}
}

func TestFoldPositions_Upsert(t *testing.T) {
	events := []domain.PileEvent{
		increase(alice, "FTM", 10, 100),
		increase(bob, "FTM", 5, 101),
		increase(alice, "BTC", 3, 20000),
	}

	table := domain.FoldPositions(pileAddr, events, nil)

	require.Equal(t, 3, table.Count())
	pos, ok := table.Get("FTM", alice)
	require.True(t, ok)
	assert.Equal(t, int64(10), pos.Amount.Int64())
	assert.Equal(t, int64(100), pos.EntryPrice.Int64())
	assert.Equal(t, pileAddr, pos.Pile)
}

func TestFoldPositions_ZeroAmountEvicts(t *testing.T) {
	events := []domain.PileEvent{
		increase(alice, "FTM", 10, 100),
		decrease(alice, "FTM", 0, 110),
	}

	table := domain.FoldPositions(pileAddr, events, nil)

	_, ok := table.Get("FTM", alice)
	assert.False(t, ok, "zero-amount position must be removed, not kept as zero")
	assert.Equal(t, 0, table.Count())
}

func TestFoldPositions_DecreaseKeepsRemainder(t *testing.T) {
	events := []domain.PileEvent{
		increase(alice, "FTM", 10, 100),
		decrease(alice, "FTM", 4, 110),
	}

	table := domain.FoldPositions(pileAddr, events, nil)

	pos, ok := table.Get("FTM", alice)
	require.True(t, ok)
	assert.Equal(t, int64(4), pos.Amount.Int64())
	assert.Equal(t, int64(110), pos.EntryPrice.Int64())
}

func TestFoldPositions_OrderSensitive(t *testing.T) {
	a := increase(alice, "FTM", 10, 100)
	b := increase(alice, "FTM", 20, 200)

	ab := domain.FoldPositions(pileAddr, []domain.PileEvent{a, b}, nil)
	ba := domain.FoldPositions(pileAddr, []domain.PileEvent{b, a}, nil)

	posAB, _ := ab.Get("FTM", alice)
	posBA, _ := ba.Get("FTM", alice)
	assert.Equal(t, int64(20), posAB.Amount.Int64(), "[A, B] must end with B's state")
	assert.Equal(t, int64(10), posBA.Amount.Int64(), "[B, A] must end with A's state")
}

func TestFoldPositions_IdempotentReplay(t *testing.T) {
	events := []domain.PileEvent{
		increase(alice, "FTM", 10, 100),
		increase(bob, "FTM", 5, 101),
		decrease(bob, "FTM", 0, 102),
		increase(alice, "BTC", 3, 20000),
	}

	first := domain.FoldPositions(pileAddr, events, nil)
	second := domain.FoldPositions(pileAddr, events, nil)

	assert.Equal(t, first, second)
}

func TestFoldPositions_SeedContinues(t *testing.T) {
	seed := domain.FoldPositions(pileAddr, []domain.PileEvent{increase(alice, "FTM", 10, 100)}, nil)
	table := domain.FoldPositions(pileAddr, []domain.PileEvent{decrease(alice, "FTM", 0, 105)}, seed)

	_, ok := table.Get("FTM", alice)
	assert.False(t, ok)
}

func TestFoldPositions_IgnoresOrderEvents(t *testing.T) {
	events := []domain.PileEvent{
		increase(alice, "FTM", 10, 100),
		domain.OrderCancelled{Account: alice, Symbol: "FTM", Slot: 0},
	}

	table := domain.FoldPositions(pileAddr, events, nil)
	assert.Equal(t, 1, table.Count())
}

func TestLiquidatable_StrictThreshold(t *testing.T) {
	one := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	assert.False(t, domain.Liquidatable(one), "exactly 1.0 is healthy")
	assert.False(t, domain.Liquidatable(new(big.Int).Sub(one, big.NewInt(1))))
	assert.True(t, domain.Liquidatable(new(big.Int).Add(one, big.NewInt(1))), "any amount above 1.0 is liquidatable")
	assert.False(t, domain.Liquidatable(nil))
}
