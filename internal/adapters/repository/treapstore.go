package repository

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/okian/beatcore/internal/domain/model"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: score DESC, then played-at ASC, then record ID ASC
// (deterministic). "less" means ranks earlier, so in-order traversal yields
// the ranking from best to worst. One treap is kept per level plus a global
// one under allLevels.

const allLevels = ""

type node struct {
	id       string
	score    int
	playedAt int64
	prio     uint64
	left     *node
	right    *node
	size     int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func less(a, b *node) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.playedAt != b.playedAt {
		return a.playedAt < b.playedAt
	}
	return a.id < b.id
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

// priority hashes the record id so the heap shape does not follow score
// order.
func priority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func insert(n, k *node) *node {
	if n == nil {
		return k
	}
	if less(k, n) {
		n.left = insert(n.left, k)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, k)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n, k *node) *node {
	if n == nil {
		return nil
	}
	switch {
	case n.id == k.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, k)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, k)
		}
	case less(k, n):
		n.left = deleteNode(n.left, k)
	default:
		n.right = deleteNode(n.right, k)
	}
	fix(n)
	return n
}

// collectTopN appends up to limit ids in ranking order.
func collectTopN(n *node, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.id)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// TreapStore keeps every record in memory.
type TreapStore struct {
	mu     sync.RWMutex
	roots  map[string]*node
	byID   map[string]model.CompletedLevel
	closed bool
}

// NewTreapStore constructs an empty treap store.
func NewTreapStore() *TreapStore {
	return &TreapStore{
		roots: make(map[string]*node),
		byID:  make(map[string]model.CompletedLevel),
	}
}

func keyOf(rec model.CompletedLevel) *node {
	return &node{id: rec.ID, score: rec.Score, playedAt: rec.PlayedAt.UnixNano(), prio: priority(rec.ID), size: 1}
}

// Save implements Store.Save in O(log n) expected time.
func (s *TreapStore) Save(ctx context.Context, rec model.CompletedLevel) error {
	if err := validate(rec); err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if old, ok := s.byID[rec.ID]; ok {
		k := keyOf(old)
		s.roots[old.LevelID] = deleteNode(s.roots[old.LevelID], k)
		s.roots[allLevels] = deleteNode(s.roots[allLevels], k)
	}
	s.byID[rec.ID] = rec
	s.roots[rec.LevelID] = insert(s.roots[rec.LevelID], keyOf(rec))
	s.roots[allLevels] = insert(s.roots[allLevels], keyOf(rec))
	s.mu.Unlock()
	return nil
}

// Best implements Store.Best.
func (s *TreapStore) Best(ctx context.Context, levelID string) (model.CompletedLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.CompletedLevel{}, ErrClosed
	}
	n := s.roots[levelID]
	if n == nil {
		return model.CompletedLevel{}, ErrNotFound
	}
	for n.left != nil {
		n = n.left
	}
	return s.byID[n.id], nil
}

// List implements Store.List.
func (s *TreapStore) List(ctx context.Context, levelID string, limit int) ([]Entry, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	ids := make([]string, 0, min(limit, nsize(s.roots[levelID])))
	collectTopN(s.roots[levelID], limit, &ids)
	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i].Record = s.byID[id]
	}
	assignPositions(out)
	return out, nil
}

// Count returns the total number of records.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Close drops every record.
func (s *TreapStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.roots = nil
	s.byID = map[string]model.CompletedLevel{}
	return nil
}
