// Package callback delivers beatmap objects to subscribers as song time
// advances. Every subscriber owns one cursor per lane, so subscribers with
// different lead times never interfere; global events share one cursor and
// fire without lead.
//
// Delivery is at-most-once and in time order per lane for any non-decreasing
// sequence of song times. Song time moving backwards is not supported.
package callback

import (
	"context"
	"math"

	"github.com/okian/beatcore/internal/domain/beatmap"
	"github.com/okian/beatcore/pkg/feed"
	"github.com/okian/beatcore/pkg/logger"
)

// ObjectCallback receives an object aheadTime seconds before its time.
type ObjectCallback func(beatmap.Object)

// EventCallback receives a global event at its time.
type EventCallback func(beatmap.Event)

type subscriber struct {
	id      int
	fn      ObjectCallback
	ahead   float64
	start   float64
	resume  float64
	cursors []int
	removed bool
}

// Engine is the time-cursor scheduler. It is driven from the simulation
// goroutine only.
type Engine struct {
	data   *beatmap.Data
	subs   []*subscriber
	nextID int

	events      feed.Feed[beatmap.Event]
	eventCursor int
	songTime    float64

	log logger.Logger
}

// NewEngine creates an engine with no beatmap.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{log: logger.NamedOrNop("callback"), songTime: math.Inf(-1)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetBeatmap swaps the level and rewinds every cursor. Resume bounds set
// with WithResumeTime are dropped; start times are kept.
func (e *Engine) SetBeatmap(d *beatmap.Data) {
	e.data = d
	lanes := 0
	if d != nil {
		lanes = d.LaneCount()
	}
	for _, s := range e.subs {
		s.cursors = resize(s.cursors, lanes)
		s.resume = math.Inf(-1)
	}
	e.eventCursor = 0
	e.songTime = math.Inf(-1)
	e.log.Debug(context.Background(), "beatmap set", logger.Int("lanes", lanes), logger.Int("subscribers", len(e.subs)))
}

// AddObjectCallback registers fn with lead time aheadTime and returns its id.
func (e *Engine) AddObjectCallback(fn ObjectCallback, aheadTime float64, opts ...RegisterOption) int {
	e.nextID++
	s := &subscriber{id: e.nextID, fn: fn, ahead: aheadTime, start: math.Inf(-1), resume: math.Inf(-1)}
	for _, opt := range opts {
		opt(s)
	}
	if e.data != nil {
		s.cursors = make([]int, e.data.LaneCount())
	}
	e.subs = append(e.subs, s)
	e.log.Debug(context.Background(), "object callback added", logger.Int("id", s.id), logger.Float64("ahead", aheadTime))
	return s.id
}

// RemoveObjectCallback unregisters id. Unknown ids are ignored.
func (e *Engine) RemoveObjectCallback(id int) {
	for i, s := range e.subs {
		if s.id == id {
			s.removed = true
			next := make([]*subscriber, 0, len(e.subs)-1)
			next = append(next, e.subs[:i]...)
			e.subs = append(next, e.subs[i+1:]...)
			return
		}
	}
}

// AddEventCallback registers fn for global events.
func (e *Engine) AddEventCallback(fn EventCallback) int {
	return e.events.Subscribe(fn)
}

// RemoveEventCallback unregisters an event callback.
func (e *Engine) RemoveEventCallback(id int) {
	e.events.Unsubscribe(id)
}

// SongTime returns the time of the last Tick on the current beatmap, or
// negative infinity if it has not been ticked since SetBeatmap.
func (e *Engine) SongTime() float64 { return e.songTime }

// Tick delivers everything due strictly before songTime.
func (e *Engine) Tick(songTime float64) {
	if e.data == nil {
		return
	}
	e.songTime = songTime
	// subscribers added during this tick wait for the next one
	subs := e.subs
	for _, s := range subs {
		if s.removed {
			continue
		}
		e.scan(s, songTime)
	}

	events := e.data.Events()
	for e.eventCursor < len(events) && events[e.eventCursor].Time < songTime {
		ev := events[e.eventCursor]
		e.eventCursor++
		e.events.Publish(ev)
	}
}

func (e *Engine) scan(s *subscriber, songTime float64) {
	for lane := range s.cursors {
		objs := e.data.Lane(lane)
		for s.cursors[lane] < len(objs) {
			o := objs[s.cursors[lane]]
			if o.Time()-s.ahead >= songTime {
				break
			}
			s.cursors[lane]++
			if o.Time() < s.start || o.Time() < s.resume {
				continue
			}
			s.fn(o)
			if s.removed {
				return
			}
		}
	}
}

func resize(cursors []int, n int) []int {
	if cap(cursors) >= n {
		cursors = cursors[:n]
	} else {
		cursors = make([]int, n)
	}
	for i := range cursors {
		cursors[i] = 0
	}
	return cursors
}
