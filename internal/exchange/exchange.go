package exchange

import (
	"iter"
	"maps"
	"slices"
)

// Exchange trades any number of securities simultaneously. Markets are
// created on demand the first time an order references a new security.
//
// Much the same surface as a Market, but most methods take a security name.
type Exchange struct {
	// Name labels the exchange in logs and presentation output.
	Name string

	markets map[string]*Market
}

// NewExchange creates an exchange with no markets.
func NewExchange(name string) *Exchange {
	return &Exchange{
		Name:    name,
		markets: make(map[string]*Market),
	}
}

// Market returns the market for the security, creating it if needed.
func (e *Exchange) Market(security string) *Market {
	m, ok := e.markets[security]
	if !ok {
		m = NewMarket(security)
		e.markets[security] = m
	}
	return m
}

// Securities returns the names of all markets seen so far, sorted.
func (e *Exchange) Securities() []string {
	return slices.Sorted(maps.Keys(e.markets))
}

// Enter routes the order to its security's market.
func (e *Exchange) Enter(order Order, replace bool) error {
	return e.Market(order.Security).Enter(order, replace)
}

// Buy enters a buy on the named security's market.
func (e *Exchange) Buy(security string, owner Owner, amount int64, price Price, now int64, replace bool) error {
	return e.Market(security).Buy(owner, amount, price, now, replace)
}

// Sell enters a sell on the named security's market.
func (e *Exchange) Sell(security string, owner Owner, amount int64, price Price, now int64, replace bool) error {
	return e.Market(security).Sell(owner, amount, price, now, replace)
}

// Open returns the owner's resting orders across every market.
func (e *Exchange) Open(owner Owner) []Order {
	var open []Order
	for _, security := range e.Securities() {
		open = append(open, e.markets[security].Open(owner)...)
	}
	return open
}

// Close cancels the owner's resting orders in every market.
func (e *Exchange) Close(owner Owner) {
	for _, m := range e.markets {
		m.Close(owner)
	}
}

// Price returns the named market's spread. The second result is false when
// the security has never been referenced; no market is created for a query.
func (e *Exchange) Price(security string) (Quote, bool) {
	m, ok := e.markets[security]
	if !ok {
		return Quote{}, false
	}
	return m.Price(), true
}

// Execute matches every market and yields all the resulting trades, one
// market at a time. Markets run in sorted security order so a replayed
// session yields an identical sequence; within a market the order is the
// matching order documented on Market.Execute. Stopping early is safe on
// the same terms as for a single market.
func (e *Exchange) Execute(now int64) iter.Seq[Trade] {
	return func(yield func(Trade) bool) {
		for _, security := range e.Securities() {
			for trade := range e.markets[security].Execute(now) {
				if !yield(trade) {
					return
				}
			}
		}
	}
}
