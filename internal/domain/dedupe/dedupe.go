// Package dedupe tracks ids that were already processed so each one is
// handled at most once.
package dedupe

import "sync"

// Deduper records seen ids.
type Deduper[K comparable] interface {
	// SeenAndRecord reports whether id was already seen and records it if not.
	SeenAndRecord(id K) bool

	// Unrecord forgets id so it can be processed again, e.g. after a failed
	// persistence attempt.
	Unrecord(id K)

	Size() int
}

type entry[K comparable] struct {
	id  K
	seq uint64
}

// inMemoryDeduper keeps ids in a map. In bounded mode the oldest ids are
// evicted first; Unrecord leaves a stale entry in order that eviction skips.
type inMemoryDeduper[K comparable] struct {
	mu      sync.Mutex
	seen    map[K]uint64
	order   []entry[K]
	seq     uint64
	maxSize int // <= 0 means unbounded
}

// New creates an in-memory deduper.
func New[K comparable](opts ...Option) Deduper[K] {
	s := settings{maxSize: 50000}
	for _, opt := range opts {
		opt(&s)
	}
	return &inMemoryDeduper[K]{
		seen:    make(map[K]uint64),
		maxSize: s.maxSize,
	}
}

func (d *inMemoryDeduper[K]) SeenAndRecord(id K) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seq++
	d.seen[id] = d.seq
	if d.maxSize > 0 {
		d.order = append(d.order, entry[K]{id: id, seq: d.seq})
	}
	return false
}

func (d *inMemoryDeduper[K]) Unrecord(id K) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
}

// evictOldest drops the oldest live id. Caller holds mu.
func (d *inMemoryDeduper[K]) evictOldest() {
	for len(d.order) > 0 {
		e := d.order[0]
		d.order = d.order[1:]
		if seq, ok := d.seen[e.id]; ok && seq == e.seq {
			delete(d.seen, e.id)
			return
		}
	}
}

func (d *inMemoryDeduper[K]) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
