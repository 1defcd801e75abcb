package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileTradeStore appends trades to a JSON-lines audit log. It is
// write-only; pair it with a MemoryTradeStore in a composite for reads.
type FileTradeStore struct {
	file    *os.File
	encoder *json.Encoder
	mutex   sync.Mutex
}

// NewFileTradeStore opens (or creates) the trade log for appending.
func NewFileTradeStore(path string) (*FileTradeStore, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trade log: %w", err)
	}
	return &FileTradeStore{
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

func (s *FileTradeStore) Save(trade *Trade) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.encoder.Encode(trade)
}

func (s *FileTradeStore) SaveBatch(trades []*Trade) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, trade := range trades {
		if err := s.encoder.Encode(trade); err != nil {
			return err
		}
	}
	return nil
}

func (s *FileTradeStore) GetRecent(limit int) ([]*Trade, error) {
	return []*Trade{}, nil
}

func (s *FileTradeStore) Close() error {
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
