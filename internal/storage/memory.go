package storage

import "sync"

// MemoryTradeStore keeps the N most recent trades in a ring buffer. It is
// the fast read path in front of the durable stores.
type MemoryTradeStore struct {
	trades  []*Trade
	maxSize int
	mutex   sync.RWMutex
}

// NewMemoryTradeStore creates an in-memory trade store with a size limit.
func NewMemoryTradeStore(maxSize int) *MemoryTradeStore {
	return &MemoryTradeStore{
		trades:  make([]*Trade, 0, maxSize),
		maxSize: maxSize,
	}
}

func (s *MemoryTradeStore) Save(trade *Trade) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.trades = append(s.trades, trade)
	if len(s.trades) > s.maxSize {
		s.trades = s.trades[len(s.trades)-s.maxSize:]
	}
	return nil
}

func (s *MemoryTradeStore) SaveBatch(trades []*Trade) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.trades = append(s.trades, trades...)
	if len(s.trades) > s.maxSize {
		s.trades = s.trades[len(s.trades)-s.maxSize:]
	}
	return nil
}

func (s *MemoryTradeStore) GetRecent(limit int) ([]*Trade, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if limit <= 0 || limit > len(s.trades) {
		limit = len(s.trades)
	}

	// Newest first.
	result := make([]*Trade, limit)
	for i := 0; i < limit; i++ {
		result[i] = s.trades[len(s.trades)-1-i]
	}
	return result, nil
}

func (s *MemoryTradeStore) Close() error {
	return nil
}
