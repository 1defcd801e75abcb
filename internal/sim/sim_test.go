package sim_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmkt/simex/internal/agent"
	"github.com/openmkt/simex/internal/exchange"
	"github.com/openmkt/simex/internal/sim"
	"github.com/openmkt/simex/internal/storage"
)

// crosser enters a matched pair of limit orders on its first run.
type crosser struct {
	buyer, seller *agent.Agent
	done          bool
}

func (c *crosser) Run(ex *exchange.Exchange, now int64) {
	if c.done {
		return
	}
	c.done = true
	_ = ex.Sell("grain", c.seller, 10, exchange.LimitPrice(4.00), now, true)
	_ = ex.Buy("grain", c.buyer, 10, exchange.LimitPrice(4.00), now, true)
}

func TestSimulationStepMatchesAndJournals(t *testing.T) {
	journal := storage.NewMemoryTradeStore(100)
	s := sim.New(exchange.NewExchange("test"), journal, time.Millisecond, nil)

	buyer := agent.NewAgent("buyer", 1000, nil)
	seller := agent.NewAgent("seller", 0, nil)
	s.AddTrader(&crosser{buyer: buyer, seller: seller})

	sub := s.Feed().Subscribe(8)
	defer s.Feed().Unsubscribe(sub)

	var ticks []int64
	s.OnTick(func(now int64) { ticks = append(ticks, now) })

	s.Step()
	assert.Equal(t, []int64{1}, ticks)
	assert.Equal(t, int64(1), s.Now())

	// Owners got their trades.
	assert.Equal(t, int64(10), buyer.Position("grain"))
	assert.Equal(t, int64(-10), seller.Position("grain"))

	// The journal holds both sides, named by owner.
	trades, err := s.RecentTrades(0)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "seller", trades[0].Owner)
	assert.Equal(t, "buyer", trades[1].Owner)
	assert.Equal(t, 4.00, trades[0].Price)

	// The feed broadcast both sides too.
	first := <-sub.C()
	second := <-sub.C()
	assert.Equal(t, "buyer", first.Owner)
	assert.Equal(t, "seller", second.Owner)

	// An idle step trades nothing further.
	s.Step()
	trades, err = s.RecentTrades(0)
	require.NoError(t, err)
	assert.Len(t, trades, 2)
}

func TestSimulationReadAccessors(t *testing.T) {
	s := sim.New(exchange.NewExchange("test"), nil, time.Millisecond, nil)

	mm := agent.NewSpreadTrader("mm", "grain", 1000, 10, 0.05)
	mm.Reference = func() float64 { return 4.00 }
	s.AddTrader(mm)
	s.Step()

	assert.Equal(t, []string{"grain"}, s.Securities())

	q, ok := s.Quote("grain")
	require.True(t, ok)
	assert.InDelta(t, 3.95, q.Bid, 1e-9)
	assert.InDelta(t, 4.05, q.Ask, 1e-9)
	_, ok = s.Quote("oil")
	assert.False(t, ok)

	bids, asks, ok := s.Book("grain")
	require.True(t, ok)
	require.Len(t, bids, 1)
	require.Len(t, asks, 1)
	assert.InDelta(t, 3.95, bids[0].Price.Value(), 1e-9)
	_, _, ok = s.Book("oil")
	assert.False(t, ok)

	open, ok := s.OpenOrders("mm")
	require.True(t, ok)
	assert.Len(t, open, 2)
	_, ok = s.OpenOrders("nobody")
	assert.False(t, ok)

	// No journal configured: recent trades read back empty, not an error.
	trades, err := s.RecentTrades(10)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

// blockingStore stalls SaveBatch until released, standing in for a slow
// journal backend.
type blockingStore struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) Save(*storage.Trade) error { return nil }

func (b *blockingStore) SaveBatch([]*storage.Trade) error {
	close(b.entered)
	<-b.release
	return nil
}

func (b *blockingStore) GetRecent(int) ([]*storage.Trade, error) { return nil, nil }

func (b *blockingStore) Close() error { return nil }

func TestSimulationReadsNotStalledByJournal(t *testing.T) {
	store := &blockingStore{entered: make(chan struct{}), release: make(chan struct{})}
	s := sim.New(exchange.NewExchange("test"), store, time.Millisecond, nil)

	buyer := agent.NewAgent("buyer", 1000, nil)
	seller := agent.NewAgent("seller", 0, nil)
	s.AddTrader(&crosser{buyer: buyer, seller: seller})

	stepDone := make(chan struct{})
	go func() {
		defer close(stepDone)
		s.Step()
	}()
	<-store.entered

	// The journal write is in flight; reads must still get through.
	quoted := make(chan struct{})
	go func() {
		defer close(quoted)
		_, ok := s.Quote("grain")
		assert.True(t, ok)
	}()
	select {
	case <-quoted:
	case <-time.After(2 * time.Second):
		t.Fatal("read accessor stalled behind the journal write")
	}

	close(store.release)
	<-stepDone
}

func TestHubBroadcastDoesNotBlock(t *testing.T) {
	h := sim.NewHub[int]()
	full := h.Subscribe(1)
	defer h.Unsubscribe(full)

	h.Broadcast(1)
	h.Broadcast(2) // dropped, buffer full
	assert.Equal(t, 1, <-full.C())

	empty := h.Subscribe(1)
	h.Unsubscribe(empty)
	_, open := <-empty.C()
	assert.False(t, open)
}
