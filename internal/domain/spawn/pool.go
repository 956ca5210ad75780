package spawn

// Kind selects the pool an instance comes from.
type Kind int

const (
	KindNote Kind = iota
	KindBomb
	KindObstacleFullHeight
	KindObstacleTop
)

// Kinds lists every pooled kind.
var Kinds = []Kind{KindNote, KindBomb, KindObstacleFullHeight, KindObstacleTop}

func (k Kind) String() string {
	switch k {
	case KindNote:
		return "note"
	case KindBomb:
		return "bomb"
	case KindObstacleFullHeight:
		return "obstacle_full_height"
	case KindObstacleTop:
		return "obstacle_top"
	}
	return "unknown"
}

// Handle addresses a pooled instance. It stays valid across reuse.
type Handle int

// Pool hands out instances. Acquire never fails; fresh reports that the
// instance was constructed by this call rather than reused.
type Pool interface {
	Acquire(kind Kind) (h Handle, fresh bool)
	Recycle(h Handle)
	Spawned(kind Kind) []Handle
}

type slot struct {
	kind Kind
	live bool
}

// Arena is a growable Pool with one free list per kind.
type Arena struct {
	slots []slot
	free  map[Kind][]Handle
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{free: make(map[Kind][]Handle)}
}

// Acquire reuses the most recently recycled slot of kind or grows the arena.
func (a *Arena) Acquire(kind Kind) (Handle, bool) {
	if list := a.free[kind]; len(list) > 0 {
		h := list[len(list)-1]
		a.free[kind] = list[:len(list)-1]
		a.slots[h].live = true
		return h, false
	}
	a.slots = append(a.slots, slot{kind: kind, live: true})
	return Handle(len(a.slots) - 1), true
}

// Recycle returns h to its free list. Recycling a free or unknown handle is a no-op.
func (a *Arena) Recycle(h Handle) {
	if int(h) < 0 || int(h) >= len(a.slots) || !a.slots[h].live {
		return
	}
	a.slots[h].live = false
	a.free[a.slots[h].kind] = append(a.free[a.slots[h].kind], h)
}

// Spawned lists the live handles of kind in ascending order.
func (a *Arena) Spawned(kind Kind) []Handle {
	var out []Handle
	for i, s := range a.slots {
		if s.live && s.kind == kind {
			out = append(out, Handle(i))
		}
	}
	return out
}

// Live counts live instances across kinds.
func (a *Arena) Live() int {
	n := 0
	for _, s := range a.slots {
		if s.live {
			n++
		}
	}
	return n
}

// Capacity is the number of instances ever constructed.
func (a *Arena) Capacity() int {
	return len(a.slots)
}
