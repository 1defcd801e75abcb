package agent_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/openmkt/simex/internal/agent"
	"github.com/openmkt/simex/internal/exchange"
)

func runAll(ex *exchange.Exchange, now int64) []exchange.Trade {
	var trades []exchange.Trade
	for t := range ex.Execute(now) {
		t.Owner.Record(t)
		trades = append(trades, t)
	}
	return trades
}

func TestAgentRecordMovesCashAndAssets(t *testing.T) {
	ex := exchange.NewExchange("test")
	a := agent.NewAgent("a", 1000, nil)
	b := agent.NewAgent("b", 0, nil)

	require.NoError(t, ex.Sell("grain", b, 100, exchange.LimitPrice(10.00), 1, true))
	require.NoError(t, ex.Buy("grain", a, 90, exchange.LimitPrice(11.00), 1, true))

	trades := runAll(ex, 1)
	require.Len(t, trades, 2)

	// Simultaneous entry: the seller counts as first, so the buyer's limit
	// sets the price.
	assert.InDelta(t, 10.0, a.Balance, 1e-9)
	assert.Equal(t, int64(90), a.Position("grain"))
	assert.InDelta(t, 990.0, b.Balance, 1e-9)
	assert.Equal(t, int64(-90), b.Position("grain"))
	assert.Len(t, a.Trades, 1)
	assert.Len(t, b.Trades, 1)
}

func TestAgentBuyerFirstPaysSellerPrice(t *testing.T) {
	ex := exchange.NewExchange("test")
	a := agent.NewAgent("a", 1000, nil)
	b := agent.NewAgent("b", 0, nil)

	require.NoError(t, ex.Buy("grain", a, 90, exchange.LimitPrice(11.00), 0, true))
	require.NoError(t, ex.Sell("grain", b, 100, exchange.LimitPrice(10.00), 1, true))

	trades := runAll(ex, 1)
	require.Len(t, trades, 2)

	assert.InDelta(t, 100.0, a.Balance, 1e-9)
	assert.InDelta(t, 900.0, b.Balance, 1e-9)
}

func TestAgentNeedBidsWithUrgency(t *testing.T) {
	ex := exchange.NewExchange("test")
	quoter := agent.NewAgent("quoter", 0, nil)
	require.NoError(t, ex.Sell("grain", quoter, 1000, exchange.LimitPrice(4.00), 1, true))

	// Deadline a full cycle away: bid about 10% under the ask.
	relaxed := agent.NewAgent("relaxed", 1000, nil)
	relaxed.Needs = []agent.Need{{Security: "grain", Amount: 50, Deadline: 110, Cycle: 100}}
	relaxed.Run(ex, 10)
	open := ex.Open(relaxed)
	require.Len(t, open, 1)
	assert.InDelta(t, 3.60, open[0].Price.Value(), 1e-9)
	assert.Equal(t, int64(50), open[0].Quantity)

	// Deadline passed: bid 5% over.
	urgent := agent.NewAgent("urgent", 1000, nil)
	urgent.Needs = []agent.Need{{Security: "grain", Amount: 50, Deadline: 10, Cycle: 100}}
	urgent.Run(ex, 10)
	open = ex.Open(urgent)
	require.Len(t, open, 1)
	assert.InDelta(t, 4.20, open[0].Price.Value(), 1e-9)

	// A satisfied need places no order.
	sated := agent.NewAgent("sated", 1000, nil)
	sated.Assets["grain"] = 50
	sated.Needs = []agent.Need{{Security: "grain", Amount: 50, Deadline: 110, Cycle: 100}}
	sated.Run(ex, 10)
	assert.Empty(t, ex.Open(sated))
}

func TestAgentNeedOpensEmptyMarket(t *testing.T) {
	ex := exchange.NewExchange("test")
	a := agent.NewAgent("a", 1000, nil)
	a.Needs = []agent.Need{{Security: "grain", Amount: 10, Deadline: 100, Cycle: 100}}
	a.Run(ex, 1)

	// No market price to anchor on: a token bid opens the market.
	open := ex.Open(a)
	require.Len(t, open, 1)
	assert.InDelta(t, 0.01, open[0].Price.Value(), 1e-9)
}

func TestAgentRejectedBidIsLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ex := exchange.NewExchange("test")
	quoter := agent.NewAgent("quoter", 0, nil)
	require.NoError(t, ex.Sell("grain", quoter, 100, exchange.LimitPrice(4.00), 1, true))

	// A deadline many cycles out drives the urgency factor negative, so the
	// computed offer drops below zero and the engine refuses the order.
	a := agent.NewAgent("keen", 1000, zap.New(core))
	a.Needs = []agent.Need{{Security: "grain", Amount: 10, Deadline: 1000, Cycle: 10}}
	a.Run(ex, 1)

	assert.Empty(t, ex.Open(a))
	assert.Equal(t, 1, logs.FilterMessage("bid rejected").Len())
}

func TestProducerHarvestsAndSells(t *testing.T) {
	ex := exchange.NewExchange("test")
	rng := rand.New(rand.NewSource(1))
	p := agent.NewProducer("farm", "grain", 10, [2]int64{5, 5}, 0, rng, nil)

	// Two full cycles elapsed: two harvests of 5 each.
	p.Run(ex, 25)
	assert.Equal(t, int64(10), p.Position("grain"))
	assert.Len(t, p.Trades, 2)
	assert.InDelta(t, 0.0, p.Balance, 1e-9)

	open := ex.Open(p)
	require.Len(t, open, 1)
	assert.Equal(t, int64(-10), open[0].Quantity)
	assert.True(t, open[0].Price.IsMarket())

	// A buyer lifts the offer; the producer banks the proceeds.
	buyer := agent.NewAgent("buyer", 100, nil)
	require.NoError(t, ex.Buy("grain", buyer, 10, exchange.LimitPrice(2.00), 26, true))
	trades := runAll(ex, 26)
	require.Len(t, trades, 2)
	assert.InDelta(t, 20.0, p.Balance, 1e-9)
	assert.Equal(t, int64(0), p.Position("grain"))
}

func TestSpreadTraderQuotesBothSides(t *testing.T) {
	ex := exchange.NewExchange("test")
	mm := agent.NewSpreadTrader("mm", "grain", 1000, 10, 0.05)
	mm.Reference = func() float64 { return 4.00 }

	mm.Run(ex, 1)
	open := ex.Open(mm)
	require.Len(t, open, 2)
	assert.Equal(t, int64(10), open[0].Quantity)
	assert.InDelta(t, 3.95, open[0].Price.Value(), 1e-9)
	assert.Equal(t, int64(-10), open[1].Quantity)
	assert.InDelta(t, 4.05, open[1].Price.Value(), 1e-9)

	// Re-centering replaces the pair rather than stacking quotes.
	mm.Reference = func() float64 { return 4.10 }
	mm.Run(ex, 2)
	open = ex.Open(mm)
	require.Len(t, open, 2)
	assert.InDelta(t, 4.05, open[0].Price.Value(), 1e-9)
	assert.InDelta(t, 4.15, open[1].Price.Value(), 1e-9)
}

func TestRandomTraderStaysInBounds(t *testing.T) {
	ex := exchange.NewExchange("test")
	rng := rand.New(rand.NewSource(7))
	rt := agent.NewRandomTrader("rt", "grain", 1000, 5, 0.10, rng)
	rt.Reference = func() float64 { return 4.00 }

	for now := int64(1); now <= 50; now++ {
		rt.Run(ex, now)
		open := ex.Open(rt)
		require.Len(t, open, 1)
		price := open[0].Price.Value()
		assert.GreaterOrEqual(t, price, 3.90-1e-9)
		assert.LessOrEqual(t, price, 4.10+1e-9)
		qty := open[0].Quantity
		if qty < 0 {
			qty = -qty
		}
		assert.GreaterOrEqual(t, qty, int64(1))
		assert.LessOrEqual(t, qty, int64(5))
	}
}
