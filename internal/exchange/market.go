// Package exchange implements a continuous price-time-priority double
// auction: a Market matches buy and sell orders for one security, and an
// Exchange multiplexes any number of Markets by security name.
//
// The engine is a pure, synchronous library. It performs no I/O, reads no
// clocks (all timestamps are supplied by the caller), and is not thread-safe:
// a single driver must own all mutating calls, serializing them itself if it
// lives in a multi-goroutine host.
package exchange

import (
	"iter"
	"slices"
)

// Market is an order book for a single security. It supports fixed-price
// (limit) and market-price orders on both sides.
//
// Both books order equal-priced entries oldest first, so time priority breaks
// price ties in favor of the earlier arrival.
type Market struct {
	// Name is the security traded in this market.
	Name string

	// Now is the last timestamp this market has seen, advisory only.
	Now int64

	buying  []Order // all Quantity > 0; most aggressive at the tail
	selling []Order // all Quantity < 0; most aggressive at the head

	lastPrice    float64
	transactions uint64
}

// NewMarket creates an empty market for the named security.
func NewMarket(name string) *Market {
	return &Market{Name: name}
}

// Enter places an order on the appropriate book. With replace true, any
// resting orders by the same owner (on either side) are closed first, giving
// cancel-replace semantics: one resting order per owner per security. With
// replace false the new order coexists with the owner's earlier ones.
func (m *Market) Enter(order Order, replace bool) error {
	if err := order.validate(); err != nil {
		return err
	}
	if replace {
		m.Close(order.Owner)
	}
	if order.Time > m.Now {
		m.Now = order.Time
	}
	if order.Quantity > 0 {
		m.buying = append(m.buying, order)
		slices.SortStableFunc(m.buying, buyBookCompare)
	} else {
		m.selling = append(m.selling, order)
		slices.SortStableFunc(m.selling, sellBookCompare)
	}
	return nil
}

// Buy enters a buy for amount units. A market-price buy passes MarketPrice().
func (m *Market) Buy(owner Owner, amount int64, price Price, now int64, replace bool) error {
	if amount <= 0 {
		return ErrInvalidOrder
	}
	return m.Enter(Order{Security: m.Name, Price: price, Time: now, Quantity: amount, Owner: owner}, replace)
}

// Sell enters a sell for amount units; the book stores it with a negative
// quantity.
func (m *Market) Sell(owner Owner, amount int64, price Price, now int64, replace bool) error {
	if amount <= 0 {
		return ErrInvalidOrder
	}
	return m.Enter(Order{Security: m.Name, Price: price, Time: now, Quantity: -amount, Owner: owner}, replace)
}

// Open returns every order currently resting for this owner, buys (positive
// quantity) and sells (negative) together.
func (m *Market) Open(owner Owner) []Order {
	var open []Order
	for _, o := range m.buying {
		if o.Owner == owner {
			open = append(open, o)
		}
	}
	for _, o := range m.selling {
		if o.Owner == owner {
			open = append(open, o)
		}
	}
	return open
}

// Close removes every order resting for this owner from both books.
func (m *Market) Close(owner Owner) {
	m.buying = slices.DeleteFunc(m.buying, func(o Order) bool { return o.Owner == owner })
	m.selling = slices.DeleteFunc(m.selling, func(o Order) bool { return o.Owner == owner })
}

// Price returns the current spread. Market-price orders never quote: the bid
// and ask are taken from the best resting limit orders only, and are zero
// when no limit order rests on that side.
func (m *Market) Price() Quote {
	q := Quote{Last: m.lastPrice}
	for i := len(m.buying) - 1; i >= 0; i-- {
		if !m.buying[i].Price.IsMarket() {
			q.Bid = m.buying[i].Price.Value()
			break
		}
	}
	for _, o := range m.selling {
		if !o.Price.IsMarket() {
			q.Ask = o.Price.Value()
			break
		}
	}
	return q
}

// Bids returns a copy of the buy book, best (most aggressive, then oldest)
// first.
func (m *Market) Bids() []Order {
	bids := slices.Clone(m.buying)
	slices.Reverse(bids)
	return bids
}

// Asks returns a copy of the sell book, best first.
func (m *Market) Asks() []Order {
	return slices.Clone(m.selling)
}

// LastPrice returns the price of the most recent match, zero before any.
func (m *Market) LastPrice() float64 {
	return m.lastPrice
}

// Transactions returns the number of matches completed so far.
func (m *Market) Transactions() uint64 {
	return m.transactions
}

// crossed reports whether the two tops of book can trade: best sell at or
// below best buy, where a market-price order on either side always crosses.
func (m *Market) crossed() bool {
	sell, buy := m.selling[0].Price, m.buying[len(m.buying)-1].Price
	return sell.IsMarket() || buy.IsMarket() || sell.Value() <= buy.Value()
}

// Execute matches the books and yields the resulting trades lazily. Each
// match yields two trades, buyer first, then seller, sharing price and the
// supplied time. The books are adjusted as each match is produced, so
// stopping iteration early is always safe: the books then reflect exactly
// the trades already yielded, and a later Execute picks up from there.
//
// When a buyer and a seller match, the more recently entered order fixes the
// trade price at its own stated limit; the earlier order executes at that
// price (it never does worse than its limit). If the price-setting order is
// a market-price order, the other side's limit is used instead. If both tops
// are market-price orders, the nearest resting limit price decides, searching
// the earlier arrival's own side of the book first. If no limit price exists
// anywhere in either book, no price can be discovered and matching stops;
// the crossed market-price orders stay resting until a limit order arrives.
//
// Not thread-safe, like every other Market method.
func (m *Market) Execute(now int64) iter.Seq[Trade] {
	if now > m.Now {
		m.Now = now
	}
	return func(yield func(Trade) bool) {
		for len(m.buying) > 0 && len(m.selling) > 0 && m.crossed() {
			buy := &m.buying[len(m.buying)-1]
			sell := &m.selling[0]

			price, ok := m.discoverPrice(buy, sell)
			if !ok {
				return
			}
			amount := min(buy.Quantity, -sell.Quantity)

			m.lastPrice = price
			m.transactions++

			buyer, seller := buy.Owner, sell.Owner

			// Quantity-only edits keep an order's book position, so the
			// residual side is reduced in place rather than re-entered.
			if buy.Quantity == amount {
				m.buying = m.buying[:len(m.buying)-1]
			} else {
				buy.Quantity -= amount
			}
			if -sell.Quantity == amount {
				m.selling = m.selling[1:]
			} else {
				sell.Quantity += amount
			}

			if !yield(Trade{Security: m.Name, Price: price, Time: now, Quantity: amount, Owner: buyer}) {
				return
			}
			if !yield(Trade{Security: m.Name, Price: price, Time: now, Quantity: -amount, Owner: seller}) {
				return
			}
		}
	}
}

// discoverPrice resolves the trade price for the two top-of-book orders,
// or reports failure when both are market-price and no limit order rests
// anywhere in either book.
func (m *Market) discoverPrice(buy, sell *Order) (float64, bool) {
	var price Price
	var buyerFirst bool
	if buy.Time < sell.Time {
		// The buyer was in the market first; the seller's limit sets the
		// price, giving the buyer the better end of the spread.
		price = sell.Price
		if price.IsMarket() {
			price = buy.Price
			buyerFirst = true
		}
	} else {
		// The seller was first (or simultaneous); the buyer's limit sets
		// the price.
		price = buy.Price
		if price.IsMarket() {
			price = sell.Price
		}
	}
	if !price.IsMarket() {
		return price.Value(), true
	}

	// Both tops are market-price orders. Search outward for the nearest
	// limit price, starting on the earlier arrival's own side so the older
	// order keeps the advantage.
	if buyerFirst {
		if p, ok := bestLimit(backward(m.buying), forward(m.selling)); ok {
			return p, true
		}
	} else {
		if p, ok := bestLimit(forward(m.selling), backward(m.buying)); ok {
			return p, true
		}
	}
	return 0, false
}

func bestLimit(books ...iter.Seq[Order]) (float64, bool) {
	for _, book := range books {
		for o := range book {
			if !o.Price.IsMarket() {
				return o.Price.Value(), true
			}
		}
	}
	return 0, false
}

func forward(orders []Order) iter.Seq[Order] {
	return func(yield func(Order) bool) {
		for _, o := range orders {
			if !yield(o) {
				return
			}
		}
	}
}

func backward(orders []Order) iter.Seq[Order] {
	return func(yield func(Order) bool) {
		for i := len(orders) - 1; i >= 0; i-- {
			if !yield(orders[i]) {
				return
			}
		}
	}
}
