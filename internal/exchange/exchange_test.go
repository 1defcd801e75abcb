package exchange_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmkt/simex/internal/exchange"
)

func TestExchangeLazyMarkets(t *testing.T) {
	e := exchange.NewExchange("test")
	assert.Empty(t, e.Securities())

	// A price query never creates a market.
	_, ok := e.Price("grain")
	assert.False(t, ok)
	assert.Empty(t, e.Securities())

	a := &testOwner{name: "a"}
	require.NoError(t, e.Buy("grain", a, 10, exchange.LimitPrice(4.00), 1, true))
	require.NoError(t, e.Sell("oil", a, 5, exchange.LimitPrice(70.00), 2, false))

	assert.Equal(t, []string{"grain", "oil"}, e.Securities())

	q, ok := e.Price("grain")
	require.True(t, ok)
	assert.Equal(t, 4.00, q.Bid)
}

func TestExchangeOpenAndClose(t *testing.T) {
	e := exchange.NewExchange("test")
	a, b := &testOwner{name: "a"}, &testOwner{name: "b"}

	require.NoError(t, e.Buy("oil", a, 5, exchange.LimitPrice(70.00), 1, true))
	require.NoError(t, e.Buy("grain", a, 10, exchange.LimitPrice(4.00), 2, false))
	require.NoError(t, e.Sell("grain", b, 10, exchange.LimitPrice(9.00), 3, true))

	// Sorted by security, so grain before oil.
	open := e.Open(a)
	require.Len(t, open, 2)
	assert.Equal(t, "grain", open[0].Security)
	assert.Equal(t, "oil", open[1].Security)

	// Replace across the exchange is per market: the grain buy survives an
	// oil replacement.
	require.NoError(t, e.Buy("oil", a, 7, exchange.LimitPrice(71.00), 4, true))
	open = e.Open(a)
	require.Len(t, open, 2)
	assert.Equal(t, int64(7), open[1].Quantity)

	e.Close(a)
	assert.Empty(t, e.Open(a))
	assert.Len(t, e.Open(b), 1)
}

func TestExchangeExecuteAcrossMarkets(t *testing.T) {
	e := exchange.NewExchange("test")
	o := owners("a", "b", "c", "d")

	require.NoError(t, e.Sell("oil", o["a"], 5, exchange.LimitPrice(70.00), 1, true))
	require.NoError(t, e.Buy("oil", o["b"], 5, exchange.LimitPrice(70.00), 2, true))
	require.NoError(t, e.Sell("grain", o["c"], 10, exchange.LimitPrice(4.00), 3, true))
	require.NoError(t, e.Buy("grain", o["d"], 10, exchange.LimitPrice(4.00), 4, true))

	trades := collect(e.Execute(5))
	require.Len(t, trades, 4)

	// Markets execute in sorted security order.
	assert.Equal(t, "grain", trades[0].Security)
	assert.Equal(t, "grain", trades[1].Security)
	assert.Equal(t, "oil", trades[2].Security)
	assert.Equal(t, "oil", trades[3].Security)
	assert.Equal(t, 4.00, trades[0].Price)
	assert.Equal(t, 70.00, trades[2].Price)

	// Early stop leaves the untouched market crossed for the next round.
	require.NoError(t, e.Sell("grain", o["c"], 10, exchange.LimitPrice(4.00), 6, true))
	require.NoError(t, e.Buy("grain", o["d"], 10, exchange.LimitPrice(4.00), 7, true))
	require.NoError(t, e.Sell("oil", o["a"], 5, exchange.LimitPrice(70.00), 8, true))
	require.NoError(t, e.Buy("oil", o["b"], 5, exchange.LimitPrice(70.00), 9, true))

	var taken int
	for range e.Execute(10) {
		taken++
		if taken == 2 {
			break
		}
	}
	q, ok := e.Price("oil")
	require.True(t, ok)
	assert.Equal(t, 70.00, q.Bid)
	assert.Equal(t, 70.00, q.Ask)

	trades = collect(e.Execute(11))
	require.Len(t, trades, 2)
	assert.Equal(t, "oil", trades[0].Security)
}
