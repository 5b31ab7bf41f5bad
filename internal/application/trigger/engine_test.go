package trigger_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takepile/pilekeeper/internal/application/trigger"
	"github.com/takepile/pilekeeper/internal/domain"
)

var (
	pileFTM = domain.Pile{
		Address: common.HexToAddress("0x852f6355e54de53E67f351472B650e1043A3d4cf"),
		Name:    "Fantom Pile",
		Symbol:  "FTM-PILE",
	}
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

type fakeLogs struct {
	events map[common.Address][]domain.PileEvent
	err    error
}

func (f *fakeLogs) PileEvents(_ context.Context, pile domain.Pile, _, _ uint64) ([]domain.PileEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events[pile.Address], nil
}

type fakePiles struct {
	piles []domain.Pile
}

func (f *fakePiles) Piles(context.Context) ([]domain.Pile, error) {
	return f.piles, nil
}

type fakePrices struct {
	prices map[string]*big.Int
	err    error
	calls  map[string]int
}

func (f *fakePrices) LatestPrice(_ context.Context, _ common.Address, symbol string) (*big.Int, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[symbol]++
	if f.err != nil {
		return nil, f.err
	}
	return f.prices[symbol], nil
}

type fakeTrigger struct {
	fail  bool
	calls []string // order keys, in submission order
}

func (f *fakeTrigger) TriggerOrder(_ context.Context, order domain.LimitOrder) error {
	f.calls = append(f.calls, order.Key())
	if f.fail {
		return errors.New("execution reverted")
	}
	return nil
}

// memAttempts is an in-memory stand-in for the SQLite store.
type memAttempts struct {
	counts map[string]int
}

func (m *memAttempts) Get(_ context.Context, key string) (int, error) {
	return m.counts[key], nil
}

func (m *memAttempts) Increment(_ context.Context, key string) error {
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[key]++
	return nil
}

func submittedOrder(symbol string, slot uint64, limitPrice int64, isLong bool, deadline time.Time) domain.OrderSubmitted {
	return domain.OrderSubmitted{
		Account:    alice,
		Symbol:     symbol,
		Amount:     big.NewInt(10),
		Collateral: big.NewInt(5),
		IsLong:     isLong,
		LimitPrice: big.NewInt(limitPrice),
		StopLoss:   big.NewInt(0),
		Slot:       slot,
		Deadline:   deadline,
	}
}

func newEngine(cfg trigger.Config, logs *fakeLogs, prices *fakePrices, tr *fakeTrigger, attempts *memAttempts) *trigger.Engine {
	return trigger.New(cfg, logs, &fakePiles{piles: []domain.Pile{pileFTM}},
		prices, tr, attempts, nil, nil, nil, nil)
}

func TestRunPass_TriggersQualifyingOrder(t *testing.T) {
	deadline := time.Now().Add(time.Hour)
	logs := &fakeLogs{events: map[common.Address][]domain.PileEvent{
		pileFTM.Address: {submittedOrder("FTM", 0, 100, true, deadline)},
	}}
	prices := &fakePrices{prices: map[string]*big.Int{"FTM": big.NewInt(90)}}
	tr := &fakeTrigger{}
	attempts := &memAttempts{}

	e := newEngine(trigger.Config{MaxAttempts: 1}, logs, prices, tr, attempts)
	require.NoError(t, e.RunPass(context.Background()))

	require.Len(t, tr.calls, 1)
	assert.Empty(t, attempts.counts, "a successful trigger never touches the attempt store")
}

func TestRunPass_OnePriceReadPerSymbol(t *testing.T) {
	deadline := time.Now().Add(time.Hour)
	logs := &fakeLogs{events: map[common.Address][]domain.PileEvent{
		pileFTM.Address: {
			submittedOrder("FTM", 0, 100, true, deadline),
			submittedOrder("FTM", 1, 110, true, deadline),
			submittedOrder("FTM", 2, 120, true, deadline),
			submittedOrder("BTC", 0, 20000, true, deadline),
		},
	}}
	prices := &fakePrices{prices: map[string]*big.Int{
		"FTM": big.NewInt(90),
		"BTC": big.NewInt(19000),
	}}

	e := newEngine(trigger.Config{MaxAttempts: 1}, logs, prices, &fakeTrigger{}, &memAttempts{})
	require.NoError(t, e.RunPass(context.Background()))

	assert.Equal(t, 1, prices.calls["FTM"], "price resolved once per distinct symbol, not per order")
	assert.Equal(t, 1, prices.calls["BTC"])
}

func TestRunPass_ExpiredOrderNotSubmitted(t *testing.T) {
	logs := &fakeLogs{events: map[common.Address][]domain.PileEvent{
		pileFTM.Address: {submittedOrder("FTM", 0, 100, true, time.Now().Add(-time.Minute))},
	}}
	prices := &fakePrices{prices: map[string]*big.Int{"FTM": big.NewInt(50)}}
	tr := &fakeTrigger{}

	e := newEngine(trigger.Config{MaxAttempts: 1}, logs, prices, tr, &memAttempts{})
	require.NoError(t, e.RunPass(context.Background()))

	assert.Empty(t, tr.calls)
}

func TestRunPass_AlwaysTriggerOverride(t *testing.T) {
	// Expired and priced out, but the override trusts the contract's checks.
	logs := &fakeLogs{events: map[common.Address][]domain.PileEvent{
		pileFTM.Address: {submittedOrder("FTM", 0, 100, true, time.Now().Add(-time.Minute))},
	}}
	prices := &fakePrices{prices: map[string]*big.Int{"FTM": big.NewInt(500)}}
	tr := &fakeTrigger{}

	e := newEngine(trigger.Config{MaxAttempts: 1, AlwaysTrigger: true}, logs, prices, tr, &memAttempts{})
	require.NoError(t, e.RunPass(context.Background()))

	require.Len(t, tr.calls, 1)
}

func TestRunPass_AttemptBound(t *testing.T) {
	deadline := time.Now().Add(24 * time.Hour)
	logs := &fakeLogs{events: map[common.Address][]domain.PileEvent{
		pileFTM.Address: {submittedOrder("FTM", 0, 100, true, deadline)},
	}}
	prices := &fakePrices{prices: map[string]*big.Int{"FTM": big.NewInt(90)}}
	tr := &fakeTrigger{fail: true}
	attempts := &memAttempts{}

	e := newEngine(trigger.Config{MaxAttempts: 1}, logs, prices, tr, attempts)
	ctx := context.Background()

	// Pass 1: count 0 → submit, fail, count becomes 1.
	require.NoError(t, e.RunPass(ctx))
	assert.Len(t, tr.calls, 1)

	// Pass 2: count 1, 1 > 1 is false → retried, fails again, count 2.
	require.NoError(t, e.RunPass(ctx))
	assert.Len(t, tr.calls, 2)

	// Pass 3: count 2 > 1 → permanently skipped.
	require.NoError(t, e.RunPass(ctx))
	assert.Len(t, tr.calls, 2, "third evaluation must skip the order")
}

func TestRunPass_PriceErrorSkipsPile(t *testing.T) {
	logs := &fakeLogs{events: map[common.Address][]domain.PileEvent{
		pileFTM.Address: {submittedOrder("FTM", 0, 100, true, time.Now().Add(time.Hour))},
	}}
	prices := &fakePrices{err: errors.New("oracle unavailable")}
	tr := &fakeTrigger{}

	e := newEngine(trigger.Config{MaxAttempts: 1}, logs, prices, tr, &memAttempts{})
	require.NoError(t, e.RunPass(context.Background()), "a failing pile must not fail the pass")

	assert.Empty(t, tr.calls, "never trigger on a guessed price")
}

func TestRunPass_CancelledOrderGone(t *testing.T) {
	deadline := time.Now().Add(time.Hour)
	logs := &fakeLogs{events: map[common.Address][]domain.PileEvent{
		pileFTM.Address: {
			submittedOrder("FTM", 3, 100, true, deadline),
			domain.OrderCancelled{Account: alice, Symbol: "FTM", Slot: 3},
		},
	}}
	prices := &fakePrices{prices: map[string]*big.Int{"FTM": big.NewInt(90)}}
	tr := &fakeTrigger{}

	e := newEngine(trigger.Config{MaxAttempts: 1}, logs, prices, tr, &memAttempts{})
	require.NoError(t, e.RunPass(context.Background()))

	assert.Empty(t, tr.calls)
	assert.Empty(t, prices.calls, "an empty book needs no prices")
}
