// Package agent implements market participants: an Agent holding cash and
// assets, needs that drive increasingly urgent bidding as their deadlines
// approach, and a Producer that harvests a commodity on a cycle and sells it.
package agent

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/openmkt/simex/internal/exchange"
	"github.com/openmkt/simex/internal/num"
)

// Need is a recurring requirement for a quantity of a security by a
// deadline. As the deadline nears, the agent bids more aggressively; a need
// a full cycle away bids under the market, a missed deadline bids over it.
type Need struct {
	Priority int
	Deadline int64
	Security string
	Cycle    int64
	Amount   int64
}

// Agent is a market participant. It implements exchange.Owner: every trade
// the matching loop delivers through Record moves assets and cash. Selling
// short and buying on margin are allowed.
type Agent struct {
	Name    string
	Balance float64
	Assets  map[string]int64
	Needs   []Need
	Trades  []exchange.Trade

	now int64
	log *zap.Logger

	// self is the Owner identity used on entered orders. It lets a type
	// embedding Agent trade under its own identity rather than the
	// embedded value's.
	self exchange.Owner
}

func (a *Agent) owner() exchange.Owner {
	if a.self != nil {
		return a.self
	}
	return a
}

// NewAgent creates an agent with the given starting cash. A nil logger
// silences it.
func NewAgent(name string, balance float64, log *zap.Logger) *Agent {
	if log == nil {
		log = zap.NewNop()
	}
	return &Agent{
		Name:    name,
		Balance: balance,
		Assets:  make(map[string]int64),
		log:     log,
	}
}

// String returns the agent's name; the journal and the feed identify
// owners this way.
func (a *Agent) String() string {
	return a.Name
}

// Record books one side of a completed match: positive quantity adds to the
// agent's position, and cash moves the opposite way at the trade price.
func (a *Agent) Record(t exchange.Trade) {
	a.Trades = append(a.Trades, t)
	a.Assets[t.Security] += t.Quantity
	a.Balance -= float64(t.Quantity) * t.Price
	a.log.Debug("trade recorded",
		zap.String("agent", a.Name),
		zap.String("security", t.Security),
		zap.Int64("quantity", t.Quantity),
		zap.Float64("price", t.Price),
	)
}

// Position returns the agent's holding of the security.
func (a *Agent) Position(security string) int64 {
	return a.Assets[security]
}

// Run advances the agent to now and covers its needs: for each need the
// agent is short on, it enters a bid priced by urgency. The offered price
// ranges from about 10% under the market when the deadline is a full cycle
// away to 5% over it once the deadline has passed. With no market price to
// anchor on, a token bid opens the market.
func (a *Agent) Run(ex *exchange.Exchange, now int64) {
	a.now = now
	for _, n := range a.Needs {
		short := n.Amount - a.Assets[n.Security]
		if short <= 0 {
			continue
		}
		proportion := 1 - float64(n.Deadline-now)/float64(n.Cycle)
		factor := num.Scale(proportion, num.Span{Min: 0, Max: 1}, num.Span{Min: 0.90, Max: 1.05})

		offer := 0.01
		if q, ok := ex.Price(n.Security); ok {
			if basis := max(q.Bid, q.Ask, q.Last); basis > 0 {
				offer = factor * basis
			}
		}
		a.log.Info("covering need",
			zap.String("agent", a.Name),
			zap.String("security", n.Security),
			zap.Int64("short", short),
			zap.Float64("offer", offer),
		)
		if err := ex.Buy(n.Security, a.owner(), short, exchange.LimitPrice(offer), now, true); err != nil {
			a.log.Debug("bid rejected",
				zap.String("agent", a.Name),
				zap.String("security", n.Security),
				zap.Float64("offer", offer),
				zap.Error(err),
			)
		}
	}

	// Open buys may exceed cash on hand; flag it. Covering the shortfall by
	// selling surplus assets is the subclass's business.
	var committed float64
	for _, o := range ex.Open(a.owner()) {
		if o.Quantity > 0 && !o.Price.IsMarket() {
			committed += float64(o.Quantity) * o.Price.Value()
		}
	}
	if committed > a.Balance {
		a.log.Warn("orders exceed balance",
			zap.String("agent", a.Name),
			zap.Float64("committed", committed),
			zap.Float64("balance", a.Balance),
		)
	}
}

// Producer is an agent that harvests a fixed commodity on a cycle and
// offers the whole position for sale at market price.
type Producer struct {
	Agent

	Crop   string
	Cycle  int64
	Output [2]int64 // harvest yield range, inclusive

	harvested int64
	rng       *rand.Rand
}

// NewProducer creates a producer whose first harvest completes one cycle
// after now.
func NewProducer(name, crop string, cycle int64, output [2]int64, now int64, rng *rand.Rand, log *zap.Logger) *Producer {
	p := &Producer{
		Agent:     *NewAgent(name, 0, log),
		Crop:      crop,
		Cycle:     cycle,
		Output:    output,
		harvested: now,
		rng:       rng,
	}
	p.self = p
	return p
}

// Run harvests any cycles completed since the last run, then offers the
// accumulated crop at market price. Harvests are booked as zero-cost trades
// so the position and trade log stay consistent.
func (p *Producer) Run(ex *exchange.Exchange, now int64) {
	p.Agent.Run(ex, now)
	for now >= p.harvested+p.Cycle {
		p.harvested += p.Cycle
		yield := p.Output[0] + p.rng.Int63n(p.Output[1]-p.Output[0]+1)
		p.log.Info("harvest",
			zap.String("agent", p.Name),
			zap.String("crop", p.Crop),
			zap.Int64("yield", yield),
		)
		p.Record(exchange.Trade{Security: p.Crop, Price: 0, Time: p.harvested, Quantity: yield})
	}
	if surplus := p.Assets[p.Crop]; surplus > 0 {
		if err := ex.Sell(p.Crop, p, surplus, exchange.MarketPrice(), now, true); err != nil {
			p.log.Debug("offer rejected",
				zap.String("agent", p.Name),
				zap.String("crop", p.Crop),
				zap.Error(err),
			)
		}
	}
}
