package service

import (
	"sync"

	"metcompare/internal/tabular"
)

// WristBuffer accumulates wrist tables uploaded one at a time until they are
// processed together. It is safe for concurrent use.
type WristBuffer struct {
	mu     sync.Mutex
	tables []tabular.SensorTable
}

// Add appends a table.
func (b *WristBuffer) Add(t tabular.SensorTable) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tables = append(b.tables, t)
}

// Tables returns a copy of the buffered tables.
func (b *WristBuffer) Tables() []tabular.SensorTable {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]tabular.SensorTable(nil), b.tables...)
}

// Len returns the number of buffered tables.
func (b *WristBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tables)
}

// Reset empties the buffer.
func (b *WristBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tables = nil
}
