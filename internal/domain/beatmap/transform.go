package beatmap

import (
	"fmt"
	"sort"
	"strings"
)

// ObstacleFilter selects which obstacles survive FilterObstacles.
type ObstacleFilter int

const (
	ObstaclesAll ObstacleFilter = iota
	ObstaclesFullHeightOnly
	ObstaclesNone
)

// ParseObstacleFilter maps the config spelling onto a filter.
func ParseObstacleFilter(s string) (ObstacleFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ObstaclesAll, nil
	case "full_height_only":
		return ObstaclesFullHeightOnly, nil
	case "none":
		return ObstaclesNone, nil
	}
	return ObstaclesAll, fmt.Errorf("unknown obstacle filter %q", s)
}

// GameplayOptions are the player-selected transforms applied before a level starts.
type GameplayOptions struct {
	Mirror       bool
	NoArrows     bool
	Obstacles    ObstacleFilter
	StaticLights bool
}

// ApplyOptions chains the enabled transforms. The result is always a fresh copy.
func ApplyOptions(d *Data, opts GameplayOptions) *Data {
	out := d.Copy()
	if opts.Mirror {
		out = Mirror(out)
	}
	if opts.NoArrows {
		out = NoArrows(out)
	}
	if opts.Obstacles != ObstaclesAll {
		out = FilterObstacles(out, opts.Obstacles)
	}
	if opts.StaticLights {
		out = StaticLights(out)
	}
	return out
}

// Mirror reflects the level left to right.
func Mirror(d *Data) *Data {
	lanes := d.LaneCount()
	return d.rebuild(func(o Object) Object {
		switch v := o.(type) {
		case *NoteData:
			v.setLane(lanes - 1 - v.Lane())
			v.FlipLane = lanes - 1 - v.FlipLane
			v.FlipYSide = -v.FlipYSide
			v.CutDirection = v.CutDirection.Mirrored()
			switch v.Type {
			case NoteA:
				v.Type = NoteB
			case NoteB:
				v.Type = NoteA
			}
		case *ObstacleData:
			lane := lanes - v.Lane() - v.Width
			if lane < 0 {
				lane = 0
			}
			v.setLane(lane)
		}
		return o
	}, func(e Event) (Event, bool) {
		switch e.Type {
		case EventLeftLasers:
			e.Type = EventRightLasers
		case EventRightLasers:
			e.Type = EventLeftLasers
		}
		return e, true
	})
}

// NoArrows turns every coloured note into an any-direction note.
func NoArrows(d *Data) *Data {
	return d.rebuild(func(o Object) Object {
		if n, ok := o.(*NoteData); ok && n.Type.Colored() {
			n.CutDirection = CutAny
		}
		return o
	}, keepEvent)
}

// FilterObstacles drops obstacles according to mode.
func FilterObstacles(d *Data, mode ObstacleFilter) *Data {
	return d.rebuild(func(o Object) Object {
		ob, ok := o.(*ObstacleData)
		if !ok {
			return o
		}
		switch mode {
		case ObstaclesNone:
			return nil
		case ObstaclesFullHeightOnly:
			if ob.Type != ObstacleFullHeight {
				return nil
			}
		}
		return o
	}, keepEvent)
}

// StaticLights replaces the light show with every light switched on at t=0.
func StaticLights(d *Data) *Data {
	out := d.rebuild(func(o Object) Object { return o }, func(e Event) (Event, bool) {
		return e, !isLightEvent(e.Type)
	})
	on := make([]Event, 0, EventCenterLights+1+len(out.events))
	for t := EventBackLasers; t <= EventCenterLights; t++ {
		on = append(on, Event{Time: 0, Type: t, Value: 1})
	}
	out.events = append(on, out.events...)
	sort.SliceStable(out.events, func(i, j int) bool { return out.events[i].Time < out.events[j].Time })
	return out
}

func isLightEvent(t int) bool {
	return t >= EventBackLasers && t <= EventCenterLights
}

func keepEvent(e Event) (Event, bool) { return e, true }
