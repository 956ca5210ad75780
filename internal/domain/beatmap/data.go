package beatmap

import (
	"sort"

	"github.com/okian/beatcore/pkg/mutils"
)

// DefaultLaneCount is the number of note lines in a standard level.
const DefaultLaneCount = 4

// Data is the per-lane, time-sorted object collection plus the global event
// list. It is never mutated after construction; transforms build a new one.
type Data struct {
	lanes  [][]Object
	events []Event
	bpm    float64

	notesCount     int
	bombsCount     int
	obstaclesCount int
}

// NewData buckets objects by lane and sorts every lane and the events by
// time. Lanes are clamped into range and ties keep their input order. The
// objects are owned by the returned Data.
func NewData(laneCount int, bpm float64, objects []Object, events []Event) *Data {
	if laneCount < 1 {
		laneCount = DefaultLaneCount
	}
	d := &Data{
		lanes:  make([][]Object, laneCount),
		events: make([]Event, len(events)),
		bpm:    bpm,
	}
	for _, o := range objects {
		lane := mutils.Clamp(o.Lane(), 0, laneCount-1)
		o.setLane(lane)
		d.lanes[lane] = append(d.lanes[lane], o)

		switch v := o.(type) {
		case *NoteData:
			v.FlipLane = mutils.Clamp(v.FlipLane, 0, laneCount-1)
			switch {
			case v.Type.Colored():
				d.notesCount++
			case v.Type == Bomb:
				d.bombsCount++
			}
		case *ObstacleData:
			d.obstaclesCount++
		}
	}
	for _, lane := range d.lanes {
		sort.SliceStable(lane, func(i, j int) bool { return lane[i].Time() < lane[j].Time() })
	}
	copy(d.events, events)
	sort.SliceStable(d.events, func(i, j int) bool { return d.events[i].Time < d.events[j].Time })
	return d
}

// LaneCount returns the number of lanes.
func (d *Data) LaneCount() int { return len(d.lanes) }

// Lane returns the objects of lane i in time order. The slice must not be modified.
func (d *Data) Lane(i int) []Object { return d.lanes[i] }

// Events returns the global events in time order. The slice must not be modified.
func (d *Data) Events() []Event { return d.events }

// BeatsPerMinute returns the tempo the level was converted with.
func (d *Data) BeatsPerMinute() float64 { return d.bpm }

// NotesCount counts coloured notes; it is the scoring normalisation basis.
func (d *Data) NotesCount() int { return d.notesCount }

// BombsCount counts bombs.
func (d *Data) BombsCount() int { return d.bombsCount }

// ObstaclesCount counts obstacles.
func (d *Data) ObstaclesCount() int { return d.obstaclesCount }

// Objects returns every object ordered by time, then id.
func (d *Data) Objects() []Object {
	var all []Object
	for _, lane := range d.lanes {
		all = append(all, lane...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Time() != all[j].Time() {
			return all[i].Time() < all[j].Time()
		}
		return all[i].ID() < all[j].ID()
	})
	return all
}

// Copy returns an independent deep copy.
func (d *Data) Copy() *Data {
	return d.rebuild(func(o Object) Object { return o }, func(e Event) (Event, bool) { return e, true })
}

// rebuild clones every object, passes the clones through mapObj and the
// events through mapEvent, and builds a fresh Data. mapObj returning nil
// drops the object.
func (d *Data) rebuild(mapObj func(Object) Object, mapEvent func(Event) (Event, bool)) *Data {
	src := d.Objects()
	objs := make([]Object, 0, len(src))
	for _, o := range src {
		if c := mapObj(o.clone()); c != nil {
			objs = append(objs, c)
		}
	}
	events := make([]Event, 0, len(d.events))
	for _, e := range d.events {
		if ne, ok := mapEvent(e); ok {
			events = append(events, ne)
		}
	}
	return NewData(d.LaneCount(), d.bpm, objs, events)
}
