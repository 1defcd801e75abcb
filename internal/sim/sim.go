// Package sim drives the exchange: it owns the single goroutine allowed to
// mutate the engine, ticks the trading agents, consumes matched trades, and
// fans them out to owners, the journal and the live feed. It also provides
// the trend machinery that gives simulated prices somewhere to go.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openmkt/simex/internal/agent"
	"github.com/openmkt/simex/internal/exchange"
	"github.com/openmkt/simex/internal/storage"
)

// Simulation owns an Exchange and everything trading on it. The engine is
// not thread-safe, so all mutation happens on the simulation's own
// goroutine; the read accessors take the same lock and are safe to call
// from HTTP handlers.
type Simulation struct {
	mu sync.RWMutex

	ex      *exchange.Exchange
	traders []agent.Trader
	hooks   []func(now int64)
	owners  map[string]exchange.Owner

	journal storage.TradeStore
	feed    *Hub[storage.Trade]
	log     *zap.Logger

	interval time.Duration
	now      int64

	wg sync.WaitGroup
}

// New creates a simulation ticking at the given interval. The journal may
// be nil when no persistence is wanted.
func New(ex *exchange.Exchange, journal storage.TradeStore, interval time.Duration, log *zap.Logger) *Simulation {
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulation{
		ex:       ex,
		owners:   make(map[string]exchange.Owner),
		journal:  journal,
		feed:     NewHub[storage.Trade](),
		log:      log,
		interval: interval,
	}
}

// AddTrader registers a trader to be run every tick. Traders that are also
// owners (all the agent types) become queryable by name.
func (s *Simulation) AddTrader(t agent.Trader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traders = append(s.traders, t)
	if o, ok := t.(exchange.Owner); ok {
		s.owners[ownerName(o)] = o
	}
}

// OnTick registers a hook run at the start of every tick, before the
// traders. Trend stepping hangs off this.
func (s *Simulation) OnTick(f func(now int64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, f)
}

// Feed returns the hub broadcasting every journaled trade.
func (s *Simulation) Feed() *Hub[storage.Trade] {
	return s.feed
}

// Start runs the tick loop until the context is cancelled.
func (s *Simulation) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Step()
			}
		}
	}()
}

// Wait blocks until the tick loop has exited.
func (s *Simulation) Wait() {
	s.wg.Wait()
}

// Step advances the simulation one tick: hooks, then every trader, then the
// matching pass. It is exported so tests and batch runs can drive the clock
// directly instead of in real time.
func (s *Simulation) Step() {
	journaled := s.tick()

	// The journal write happens outside the lock so a slow backend cannot
	// stall the read accessors for the duration of a batch.
	if len(journaled) > 0 && s.journal != nil {
		if err := s.journal.SaveBatch(journaled); err != nil {
			s.log.Error("journal write failed", zap.Error(err))
		}
	}
}

// tick runs one round of the simulation under the write lock and returns
// the trades it produced.
func (s *Simulation) tick() []*storage.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.now++
	for _, f := range s.hooks {
		f(s.now)
	}
	for _, t := range s.traders {
		t.Run(s.ex, s.now)
	}

	var journaled []*storage.Trade
	for trade := range s.ex.Execute(s.now) {
		if trade.Owner != nil {
			trade.Owner.Record(trade)
		}
		jt := storage.Trade{
			Security: trade.Security,
			Price:    trade.Price,
			Time:     trade.Time,
			Quantity: trade.Quantity,
			Owner:    ownerName(trade.Owner),
			Recorded: time.Now().UTC(),
		}
		journaled = append(journaled, &jt)
		s.feed.Broadcast(jt)
		s.log.Debug("trade",
			zap.String("security", jt.Security),
			zap.Float64("price", jt.Price),
			zap.Int64("quantity", jt.Quantity),
			zap.String("owner", jt.Owner),
		)
	}
	return journaled
}

// Now returns the current tick.
func (s *Simulation) Now() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now
}

// Securities returns the securities trading so far, sorted.
func (s *Simulation) Securities() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ex.Securities()
}

// Quote returns the named market's spread.
func (s *Simulation) Quote(security string) (exchange.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ex.Price(security)
}

// Book returns snapshots of the named market's books, best orders first.
func (s *Simulation) Book(security string) (bids, asks []exchange.Order, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, name := range s.ex.Securities() {
		if name == security {
			m := s.ex.Market(security)
			return m.Bids(), m.Asks(), true
		}
	}
	return nil, nil, false
}

// OpenOrders returns the named participant's resting orders across all
// markets.
func (s *Simulation) OpenOrders(owner string) ([]exchange.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.owners[owner]
	if !ok {
		return nil, false
	}
	return s.ex.Open(o), true
}

// RecentTrades reads back the most recent journaled trades, newest first.
func (s *Simulation) RecentTrades(limit int) ([]*storage.Trade, error) {
	if s.journal == nil {
		return []*storage.Trade{}, nil
	}
	return s.journal.GetRecent(limit)
}

func ownerName(o exchange.Owner) string {
	if o == nil {
		return ""
	}
	if s, ok := o.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%p", o)
}
