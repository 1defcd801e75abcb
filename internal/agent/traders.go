package agent

import (
	"math/rand"

	"github.com/openmkt/simex/internal/exchange"
)

// Trader is anything the simulation can tick once per round.
type Trader interface {
	Run(ex *exchange.Exchange, now int64)
}

// RandomTrader takes a random side each tick with a limit order placed a
// random distance off the reference price. It supplies the order flow that
// keeps a simulated market moving.
type RandomTrader struct {
	Agent

	Security string
	Quantity int64   // maximum size per order
	Jitter   float64 // maximum distance off the reference price

	// Reference supplies the price to lean on; when nil the trader uses
	// the market's own quote.
	Reference func() float64

	rng *rand.Rand
}

// NewRandomTrader creates the trader with the given starting cash.
func NewRandomTrader(name, security string, balance float64, quantity int64, jitter float64, rng *rand.Rand) *RandomTrader {
	t := &RandomTrader{
		Agent:    *NewAgent(name, balance, nil),
		Security: security,
		Quantity: quantity,
		Jitter:   jitter,
		rng:      rng,
	}
	t.self = t
	return t
}

func (t *RandomTrader) reference(ex *exchange.Exchange) float64 {
	if t.Reference != nil {
		return t.Reference()
	}
	q, ok := ex.Price(t.Security)
	if !ok {
		return 0
	}
	return mid(q)
}

// Run replaces the trader's resting order with a fresh one on a random side.
func (t *RandomTrader) Run(ex *exchange.Exchange, now int64) {
	ref := t.reference(ex)
	if ref <= 0 {
		return
	}
	amount := 1 + t.rng.Int63n(t.Quantity)
	offset := (t.rng.Float64()*2 - 1) * t.Jitter
	price := exchange.LimitPrice(max(ref+offset, 0.01))
	if t.rng.Intn(2) == 0 {
		_ = ex.Buy(t.Security, t, amount, price, now, true)
	} else {
		_ = ex.Sell(t.Security, t, amount, price, now, true)
	}
}

// SpreadTrader quotes both sides of the book around the reference price,
// re-centering its pair of orders each tick. Unlike the one-sided traders it
// keeps two orders resting at once, so it manages them explicitly instead of
// using cancel-replace.
type SpreadTrader struct {
	Agent

	Security string
	Quantity int64
	Spread   float64 // half-width between bid and ask

	Reference func() float64
}

// NewSpreadTrader creates the quoting trader with the given starting cash.
func NewSpreadTrader(name, security string, balance float64, quantity int64, spread float64) *SpreadTrader {
	t := &SpreadTrader{
		Agent:    *NewAgent(name, balance, nil),
		Security: security,
		Quantity: quantity,
		Spread:   spread,
	}
	t.self = t
	return t
}

// Run cancels the previous quote pair and posts a new one straddling the
// reference price.
func (t *SpreadTrader) Run(ex *exchange.Exchange, now int64) {
	var ref float64
	if t.Reference != nil {
		ref = t.Reference()
	} else if q, ok := ex.Price(t.Security); ok {
		ref = mid(q)
	}
	if ref <= t.Spread {
		return
	}
	ex.Market(t.Security).Close(t)
	_ = ex.Buy(t.Security, t, t.Quantity, exchange.LimitPrice(ref-t.Spread), now, false)
	_ = ex.Sell(t.Security, t, t.Quantity, exchange.LimitPrice(ref+t.Spread), now, false)
}

// mid returns the midpoint of a quote, falling back across bid, ask and
// last when one side is missing.
func mid(q exchange.Quote) float64 {
	switch {
	case q.Bid > 0 && q.Ask > 0:
		return (q.Bid + q.Ask) / 2
	case q.Bid > 0:
		return q.Bid
	case q.Ask > 0:
		return q.Ask
	default:
		return q.Last
	}
}
