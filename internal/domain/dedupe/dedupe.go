// Package dedupe defines the interface for idempotency tracking.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen submission IDs to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a submission that was never enqueued
	// (queue backpressure) can be retried.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

type slot struct {
	id   string
	used bool
}

// inMemoryDeduper remembers submission IDs in insertion order.
// Bounded mode (maxSize > 0) keeps a ring of slots and overwrites the oldest
// id once full. Unbounded mode (maxSize <= 0) only uses the map.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // id -> ring index, -1 in unbounded mode
	ring    []slot
	next    int
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.ring = make([]slot, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if d.maxSize <= 0 {
		d.seen[id] = -1
		return false
	}

	// The slot at next is always the oldest write; evict whatever it holds.
	if old := d.ring[d.next]; old.used {
		delete(d.seen, old.id)
	}
	d.ring[d.next] = slot{id: id, used: true}
	d.seen[id] = d.next
	d.next = (d.next + 1) % d.maxSize
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx, ok := d.seen[id]
	if !ok {
		return
	}
	delete(d.seen, id)
	if idx >= 0 {
		d.ring[idx] = slot{}
	}
}

// Size returns the current number of remembered IDs.
func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
