package exchange

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidOrder is returned when an order is rejected at submission:
// zero quantity, or a negative (or NaN) limit price.
var ErrInvalidOrder = errors.New("invalid order")

// Owner identifies the participant behind an order. The engine treats it as
// an opaque token and only ever compares it for equality, so implementations
// must be comparable; a pointer to the participant's own state is typical.
//
// The engine never calls Record itself. The driver consuming Execute is
// expected to forward every Trade to its owner:
//
//	for trade := range mkt.Execute(now) {
//		trade.Owner.Record(trade)
//	}
type Owner interface {
	Record(Trade)
}

// Price is an optional limit price. The zero value is a market price:
// no limit, willing to trade at whatever price the match discovers.
// A market price sorts as maximally aggressive on either side of the book.
type Price struct {
	value float64
	limit bool
}

// LimitPrice returns a fixed limit price.
func LimitPrice(v float64) Price {
	return Price{value: v, limit: true}
}

// MarketPrice returns the "any price" sentinel.
func MarketPrice() Price {
	return Price{}
}

// IsMarket reports whether p carries no limit.
func (p Price) IsMarket() bool {
	return !p.limit
}

// Value returns the limit price; only meaningful when !IsMarket().
func (p Price) Value() float64 {
	return p.value
}

func (p Price) String() string {
	if p.IsMarket() {
		return "market"
	}
	return fmt.Sprintf("%.2f", p.value)
}

// buyRank is the sort rank of p on the buy book: higher is more aggressive,
// and the book is kept ascending so the most aggressive buy sits at the tail.
func (p Price) buyRank() float64 {
	if p.IsMarket() {
		return math.Inf(1)
	}
	return p.value
}

// sellRank is the sort rank of p on the sell book: lower is more aggressive,
// and the book is kept ascending so the most aggressive sell sits at the head.
func (p Price) sellRank() float64 {
	if p.IsMarket() {
		return math.Inf(-1)
	}
	return p.value
}

// Order is a resting buy or sell. The sign of Quantity encodes the side:
// positive buys, negative sells. An order never rests with zero quantity;
// it is removed from its book instead.
type Order struct {
	Security string
	Price    Price
	Time     int64
	Quantity int64
	Owner    Owner
}

// validate rejects orders that must never enter a book.
func (o Order) validate() error {
	if o.Quantity == 0 {
		return fmt.Errorf("%w: zero quantity", ErrInvalidOrder)
	}
	if !o.Price.IsMarket() {
		if v := o.Price.Value(); v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: limit price %v", ErrInvalidOrder, v)
		}
	}
	return nil
}

// Trade is one side of a completed match. Every match produces exactly two
// trades sharing price and time: a positive quantity delivered to the buyer's
// owner and its negation to the seller's.
type Trade struct {
	Security string
	Price    float64
	Time     int64
	Quantity int64
	Owner    Owner
}

// Quote is a market's current spread. A zero Bid or Ask means no resting
// limit order on that side (market orders never quote); a zero Last means
// nothing has traded yet.
type Quote struct {
	Bid  float64
	Ask  float64
	Last float64
}

// Book ordering. Both books are ascending by price rank with market orders
// ranked most aggressive. Among equal prices the older order wins: the sell
// book carries the oldest first (head is consumed first), the buy book
// carries the oldest last (tail is consumed first).

func buyBookCompare(a, b Order) int {
	ra, rb := a.Price.buyRank(), b.Price.buyRank()
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	case a.Time > b.Time:
		return -1
	case a.Time < b.Time:
		return 1
	}
	return 0
}

func sellBookCompare(a, b Order) int {
	ra, rb := a.Price.sellRank(), b.Price.sellRank()
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	case a.Time < b.Time:
		return -1
	case a.Time > b.Time:
		return 1
	}
	return 0
}
