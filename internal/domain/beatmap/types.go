// Package beatmap holds the immutable, time-sorted level data consumed by the
// runtime, the loader for the JSON save format and the gameplay transforms.
package beatmap

// ObjectKind tags the two beatmap object variants.
type ObjectKind int

const (
	KindNote ObjectKind = iota
	KindObstacle
)

func (k ObjectKind) String() string {
	if k == KindObstacle {
		return "obstacle"
	}
	return "note"
}

// NoteType is the save-format note type.
type NoteType int

const (
	NoteA NoteType = 0
	NoteB NoteType = 1
	Ghost NoteType = 2
	Bomb  NoteType = 3
)

// Colored reports whether the note is scored (A or B).
func (t NoteType) Colored() bool {
	return t == NoteA || t == NoteB
}

// CutDirection is the required swing direction of a note.
type CutDirection int

const (
	CutUp CutDirection = iota
	CutDown
	CutLeft
	CutRight
	CutUpLeft
	CutUpRight
	CutDownLeft
	CutDownRight
	CutAny
	CutNone
)

// Mirrored returns the direction reflected across the vertical axis.
func (d CutDirection) Mirrored() CutDirection {
	switch d {
	case CutLeft:
		return CutRight
	case CutRight:
		return CutLeft
	case CutUpLeft:
		return CutUpRight
	case CutUpRight:
		return CutUpLeft
	case CutDownLeft:
		return CutDownRight
	case CutDownRight:
		return CutDownLeft
	}
	return d
}

// LineLayer is the vertical row of a note.
type LineLayer int

const (
	LayerBase LineLayer = iota
	LayerUpper
	LayerTop
)

// ObstacleType selects the obstacle height.
type ObstacleType int

const (
	ObstacleFullHeight ObstacleType = iota
	ObstacleTop
)

// Object is a note or an obstacle placed on a lane.
type Object interface {
	ID() int
	Time() float64
	Lane() int
	Kind() ObjectKind

	clone() Object
	setLane(lane int)
}

type objectBase struct {
	id   int
	time float64 // seconds
	lane int
}

func (o *objectBase) ID() int          { return o.id }
func (o *objectBase) Time() float64    { return o.time }
func (o *objectBase) Lane() int        { return o.lane }
func (o *objectBase) setLane(lane int) { o.lane = lane }

// NoteData is a note, bomb or ghost note.
type NoteData struct {
	objectBase
	Type           NoteType
	CutDirection   CutDirection
	LineLayer      LineLayer
	StartLineLayer LineLayer
	// FlipLane is the lane the note starts its jump from. It differs from
	// Lane only for crossed simultaneous notes.
	FlipLane  int
	FlipYSide float64
}

// NewNote builds a note with FlipLane = lane and StartLineLayer = LayerBase.
func NewNote(id int, time float64, lane int, layer LineLayer, typ NoteType, dir CutDirection) *NoteData {
	return &NoteData{
		objectBase:   objectBase{id: id, time: time, lane: lane},
		Type:         typ,
		CutDirection: dir,
		LineLayer:    layer,
		FlipLane:     lane,
	}
}

func (n *NoteData) Kind() ObjectKind { return KindNote }

func (n *NoteData) clone() Object {
	c := *n
	return &c
}

// ObstacleData is a wall spanning Width lanes for Duration seconds.
type ObstacleData struct {
	objectBase
	Type     ObstacleType
	Duration float64 // seconds
	Width    int
}

// NewObstacle builds an obstacle.
func NewObstacle(id int, time float64, lane int, typ ObstacleType, duration float64, width int) *ObstacleData {
	return &ObstacleData{
		objectBase: objectBase{id: id, time: time, lane: lane},
		Type:       typ,
		Duration:   duration,
		Width:      width,
	}
}

func (o *ObstacleData) Kind() ObjectKind { return KindObstacle }

func (o *ObstacleData) clone() Object {
	c := *o
	return &c
}

// Event is a global timed event (lighting, rotation, boost).
type Event struct {
	Time  float64 // seconds
	Type  int
	Value int
}

// Light event types.
const (
	EventBackLasers   = 0
	EventRingLights   = 1
	EventLeftLasers   = 2
	EventRightLasers  = 3
	EventCenterLights = 4
)
