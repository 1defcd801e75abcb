package storage_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmkt/simex/internal/storage"
)

func trade(security string, price float64, qty int64, tick int64) *storage.Trade {
	return &storage.Trade{
		Security: security,
		Price:    price,
		Time:     tick,
		Quantity: qty,
		Owner:    "tester",
		Recorded: time.Unix(tick, 0),
	}
}

func TestMemoryTradeStoreRingBuffer(t *testing.T) {
	s := storage.NewMemoryTradeStore(3)

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, s.Save(trade("grain", float64(i), 1, i)))
	}

	// Only the last three remain, newest first.
	got, err := s.GetRecent(10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(5), got[0].Time)
	assert.Equal(t, int64(3), got[2].Time)

	got, err = s.GetRecent(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(5), got[0].Time)
	assert.Equal(t, int64(4), got[1].Time)
}

func TestMemoryTradeStoreSaveBatch(t *testing.T) {
	s := storage.NewMemoryTradeStore(10)
	batch := []*storage.Trade{
		trade("grain", 4.00, 10, 1),
		trade("grain", 4.01, -10, 1),
	}
	require.NoError(t, s.SaveBatch(batch))

	got, err := s.GetRecent(0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFileTradeStoreAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.log")
	s, err := storage.NewFileTradeStore(path)
	require.NoError(t, err)

	require.NoError(t, s.Save(trade("grain", 4.00, 10, 1)))
	require.NoError(t, s.SaveBatch([]*storage.Trade{
		trade("grain", 4.01, -10, 2),
	}))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var first storage.Trade
	lines := 0
	for _, line := range splitLines(data) {
		var tr storage.Trade
		require.NoError(t, json.Unmarshal(line, &tr))
		if lines == 0 {
			first = tr
		}
		lines++
	}
	assert.Equal(t, 2, lines)
	assert.Equal(t, "grain", first.Security)
	assert.Equal(t, 4.00, first.Price)
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, data[start:i])
			}
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}

func TestCompositeTradeStoreFanOut(t *testing.T) {
	fast := storage.NewMemoryTradeStore(10)
	slow := storage.NewMemoryTradeStore(10)
	c := storage.NewCompositeTradeStore(fast, slow)

	require.NoError(t, c.Save(trade("grain", 4.00, 10, 1)))

	// Both layers got the write.
	got, err := fast.GetRecent(0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	got, err = slow.GetRecent(0)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// Reads prefer the first layer with data.
	got, err = c.GetRecent(0)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.NoError(t, c.Close())
}
