package beatmap

import (
	"fmt"
	"math"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/okian/beatcore/pkg/mutils"
)

// simultaneity window for notes sharing a time
const sameTimeEpsilon = 1e-4

type rawNote struct {
	beat  float64
	lane  int
	layer int
	typ   int
	dir   int
}

type rawObstacle struct {
	beat     float64
	lane     int
	typ      int
	duration float64
	width    int
}

// Load parses the JSON save format into Data. Any structural problem returns
// ErrMalformedBeatmap (or ErrInvalidTempo) and no data at all.
func Load(raw []byte, opts ...LoadOption) (*Data, error) {
	cfg := loadConfig{laneCount: DefaultLaneCount}
	for _, opt := range opts {
		opt(&cfg)
	}

	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformedBeatmap)
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: document is not an object", ErrMalformedBeatmap)
	}

	bpm := cfg.bpm
	if bpm <= 0 {
		v := root.Get("_beatsPerMinute")
		if v.Exists() && v.Type != gjson.Number {
			return nil, fmt.Errorf("%w: _beatsPerMinute is not a number", ErrMalformedBeatmap)
		}
		bpm = v.Float()
	}
	if bpm <= 0 || math.IsInf(bpm, 0) || math.IsNaN(bpm) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTempo, bpm)
	}

	shuffle, err := optionalNumber(root, "_shuffle")
	if err != nil {
		return nil, err
	}
	shufflePeriod, err := optionalNumber(root, "_shufflePeriod")
	if err != nil {
		return nil, err
	}

	notes, err := parseNotes(root.Get("_notes"))
	if err != nil {
		return nil, err
	}
	obstacles, err := parseObstacles(root.Get("_obstacles"))
	if err != nil {
		return nil, err
	}
	events, err := parseEvents(root.Get("_events"), bpm)
	if err != nil {
		return nil, err
	}

	conv := converter{bpm: bpm, shuffle: shuffle, shufflePeriod: shufflePeriod}
	objects := make([]Object, 0, len(notes)+len(obstacles))
	for _, n := range notes {
		layer := LineLayer(mutils.Clamp(n.layer, int(LayerBase), int(LayerTop)))
		objects = append(objects, NewNote(0, conv.noteSeconds(n.beat), n.lane, layer, NoteType(n.typ), CutDirection(n.dir)))
	}
	for _, o := range obstacles {
		objects = append(objects, NewObstacle(0, conv.seconds(o.beat), o.lane, ObstacleType(o.typ), conv.seconds(o.duration), o.width))
	}

	// ids follow (time, source order) with notes before obstacles on ties
	sort.SliceStable(objects, func(i, j int) bool { return objects[i].Time() < objects[j].Time() })
	for i, o := range objects {
		switch v := o.(type) {
		case *NoteData:
			v.id = i
		case *ObstacleData:
			v.id = i
		}
		o.setLane(mutils.Clamp(o.Lane(), 0, cfg.laneCount-1))
	}
	resolveStacks(objects)

	return NewData(cfg.laneCount, bpm, objects, events), nil
}

type converter struct {
	bpm           float64
	shuffle       float64
	shufflePeriod float64
}

func (c converter) seconds(beat float64) float64 {
	return beat * 60 / c.bpm
}

func (c converter) noteSeconds(beat float64) float64 {
	if c.shufflePeriod > 0 && int(beat/c.shufflePeriod)%2 == 1 {
		beat += c.shuffle * c.shufflePeriod
	}
	return c.seconds(beat)
}

func optionalNumber(root gjson.Result, key string) (float64, error) {
	v := root.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return 0, nil
	}
	if v.Type != gjson.Number {
		return 0, fmt.Errorf("%w: %s is not a number", ErrMalformedBeatmap, key)
	}
	return v.Float(), nil
}

// entries returns the elements of an optional array field.
func entries(v gjson.Result, field string) ([]gjson.Result, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	if !v.IsArray() {
		return nil, fmt.Errorf("%w: %s is not an array", ErrMalformedBeatmap, field)
	}
	return v.Array(), nil
}

// fields reads the named numeric fields of one entry, in order.
func fields(entry gjson.Result, where string, idx int, names ...string) ([]float64, error) {
	if !entry.IsObject() {
		return nil, fmt.Errorf("%w: %s[%d] is not an object", ErrMalformedBeatmap, where, idx)
	}
	out := make([]float64, len(names))
	for i, name := range names {
		v := entry.Get(name)
		if v.Type != gjson.Number {
			return nil, fmt.Errorf("%w: %s[%d].%s missing or not a number", ErrMalformedBeatmap, where, idx, name)
		}
		out[i] = v.Float()
	}
	return out, nil
}

func parseNotes(v gjson.Result) ([]rawNote, error) {
	list, err := entries(v, "_notes")
	if err != nil {
		return nil, err
	}
	notes := make([]rawNote, 0, len(list))
	for i, e := range list {
		f, err := fields(e, "_notes", i, "_time", "_lineIndex", "_lineLayer", "_type", "_cutDirection")
		if err != nil {
			return nil, err
		}
		n := rawNote{beat: f[0], lane: int(f[1]), layer: int(f[2]), typ: int(f[3]), dir: int(f[4])}
		if n.typ < int(NoteA) || n.typ > int(Bomb) {
			return nil, fmt.Errorf("%w: _notes[%d] has unknown type %d", ErrMalformedBeatmap, i, n.typ)
		}
		if n.dir < int(CutUp) || n.dir > int(CutNone) {
			return nil, fmt.Errorf("%w: _notes[%d] has unknown cut direction %d", ErrMalformedBeatmap, i, n.dir)
		}
		notes = append(notes, n)
	}
	return notes, nil
}

func parseObstacles(v gjson.Result) ([]rawObstacle, error) {
	list, err := entries(v, "_obstacles")
	if err != nil {
		return nil, err
	}
	obstacles := make([]rawObstacle, 0, len(list))
	for i, e := range list {
		f, err := fields(e, "_obstacles", i, "_time", "_lineIndex", "_type", "_duration", "_width")
		if err != nil {
			return nil, err
		}
		o := rawObstacle{beat: f[0], lane: int(f[1]), typ: int(f[2]), duration: f[3], width: int(f[4])}
		if o.typ != int(ObstacleFullHeight) && o.typ != int(ObstacleTop) {
			return nil, fmt.Errorf("%w: _obstacles[%d] has unknown type %d", ErrMalformedBeatmap, i, o.typ)
		}
		if o.width < 1 {
			o.width = 1
		}
		if o.duration < 0 {
			o.duration = 0
		}
		obstacles = append(obstacles, o)
	}
	return obstacles, nil
}

func parseEvents(v gjson.Result, bpm float64) ([]Event, error) {
	list, err := entries(v, "_events")
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(list))
	for i, e := range list {
		f, err := fields(e, "_events", i, "_time", "_type", "_value")
		if err != nil {
			return nil, err
		}
		events = append(events, Event{Time: f[0] * 60 / bpm, Type: int(f[1]), Value: int(f[2])})
	}
	return events, nil
}

// resolveStacks fills StartLineLayer for notes stacked in one lane and the
// flip fields for crossed A/B pairs. objects must be sorted by time.
func resolveStacks(objects []Object) {
	var group []*NoteData
	flush := func() {
		if len(group) > 0 {
			stackGroup(group)
			crossGroup(group)
		}
		group = group[:0]
	}
	for _, o := range objects {
		n, ok := o.(*NoteData)
		if !ok || n.Type == Ghost {
			continue
		}
		if len(group) > 0 && math.Abs(n.Time()-group[0].Time()) > sameTimeEpsilon {
			flush()
		}
		group = append(group, n)
	}
	flush()
}

func stackGroup(group []*NoteData) {
	byLane := map[int][]*NoteData{}
	for _, n := range group {
		byLane[n.Lane()] = append(byLane[n.Lane()], n)
	}
	for _, stack := range byLane {
		sort.SliceStable(stack, func(i, j int) bool { return stack[i].LineLayer < stack[j].LineLayer })
		for i, n := range stack {
			start := LineLayer(i)
			if start > n.LineLayer {
				start = n.LineLayer
			}
			n.StartLineLayer = start
		}
	}
}

func crossGroup(group []*NoteData) {
	var a, b *NoteData
	colored := 0
	for _, n := range group {
		switch n.Type {
		case NoteA:
			a = n
			colored++
		case NoteB:
			b = n
			colored++
		}
	}
	if colored != 2 || a == nil || b == nil || a.Lane() <= b.Lane() {
		return
	}
	a.FlipLane, b.FlipLane = b.Lane(), a.Lane()
	a.FlipYSide, b.FlipYSide = 1, -1
}
