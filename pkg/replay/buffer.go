// Package replay keeps a bounded window of recent step outcomes for
// post-rollout inspection.
package replay

import (
	"sync"

	"github.com/arcade-rl/plasmapong/pkg/core"
)

// Record is one stored step outcome. Observations are deliberately not
// retained; the buffer tracks what happened, not what was seen.
type Record struct {
	Episode    int
	Step       int
	Action     core.Action
	Reward     int
	Terminated bool
}

// Buffer holds the most recent records up to a fixed capacity, evicting the
// oldest first.
type Buffer struct {
	mu       sync.RWMutex
	records  []Record
	capacity int
}

// NewBuffer creates a buffer holding at most capacity records. Capacities
// below one are raised to one.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		records:  make([]Record, 0, capacity),
		capacity: capacity,
	}
}

// Add appends a record, evicting the oldest when full.
func (b *Buffer) Add(r Record) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records = append(b.records, r)
	if len(b.records) > b.capacity {
		b.records = b.records[1:]
	}
}

// Recent returns a copy of the retained records, oldest first.
func (b *Buffer) Recent() []Record {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Record, len(b.records))
	copy(out, b.records)
	return out
}

// Len reports how many records are retained.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}
