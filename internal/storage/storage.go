// Package storage persists the simulation's trade journal. The matching
// engine itself keeps no history beyond the last price; the driver records
// every executed trade here.
package storage

import "time"

// Trade is a journaled execution. Quantity keeps the engine's sign
// convention: positive for the buying side, negative for the selling side.
type Trade struct {
	Security string    `json:"security"`
	Price    float64   `json:"price"`
	Time     int64     `json:"time"`
	Quantity int64     `json:"quantity"`
	Owner    string    `json:"owner"`
	Recorded time.Time `json:"recorded"`
}

// TradeStore abstracts trade journal storage. Implementations can be an
// in-memory buffer, an append-only file, Redis or PostgreSQL.
type TradeStore interface {
	// Save persists a single trade.
	Save(trade *Trade) error

	// SaveBatch persists multiple trades in one round trip where the
	// backend supports it.
	SaveBatch(trades []*Trade) error

	// GetRecent retrieves the limit most recent trades, newest first.
	GetRecent(limit int) ([]*Trade, error)

	// Close releases any resources held by the store.
	Close() error
}
