// Package spawn turns upcoming beatmap objects into pooled, moving instances.
//
// The controller registers with the callback engine using the spawn-ahead
// time derived from tempo and note jump speed. Every delivered object gets a
// pooled instance whose lifecycle (jump start, miss, jump finish for notes;
// three quarters, avoided mark, finish for obstacles) is advanced once per
// Tick and republished through the exported feeds.
package spawn

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/okian/beatcore/internal/domain/beatmap"
	"github.com/okian/beatcore/internal/domain/callback"
	"github.com/okian/beatcore/internal/domain/model"
	"github.com/okian/beatcore/pkg/feed"
	"github.com/okian/beatcore/pkg/logger"
)

// DefaultNoteJumpSpeed is used when a level does not set one.
const DefaultNoteJumpSpeed = 10.0

// NoteState is a sampled live note or bomb.
type NoteState struct {
	Handle     Handle
	Note       *beatmap.NoteData
	Position   mgl32.Vec3
	Dissolving bool
}

// ObstacleState is a sampled live obstacle.
type ObstacleState struct {
	Handle   Handle
	Obstacle *beatmap.ObstacleData
	Min      mgl32.Vec3
	Max      mgl32.Vec3
}

// Controller owns the live instances of one level session.
type Controller struct {
	cfg    Config
	pool   Pool
	engine *callback.Engine
	log    logger.Logger

	laneCount  int
	njs        float64
	kin        Kinematics
	callbackID int

	wired  map[Handle]*instance
	active []*instance

	songTime         float64
	disabled         bool
	dissolveDeadline float64

	NoteSpawned           feed.Feed[NoteEvent]
	NoteJumpStarted       feed.Feed[NoteEvent]
	NoteMissed            feed.Feed[NoteEvent]
	NoteJumpFinished      feed.Feed[NoteEvent]
	NoteCut               feed.Feed[CutEvent]
	ObstacleMoveStarted   feed.Feed[ObstacleEvent]
	ObstacleThreeQuarters feed.Feed[ObstacleEvent]
	ObstacleAvoidedMark   feed.Feed[ObstacleEvent]
	ObstacleFinished      feed.Feed[ObstacleEvent]
}

// NewController creates a controller bound to engine. Call Init before the
// first Tick.
func NewController(engine *callback.Engine, opts ...Option) *Controller {
	c := &Controller{
		cfg:       DefaultConfig(),
		pool:      NewArena(),
		engine:    engine,
		log:       logger.NamedOrNop("spawn"),
		laneCount: beatmap.DefaultLaneCount,
		njs:       DefaultNoteJumpSpeed,
		wired:     make(map[Handle]*instance),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init sets the level parameters and registers with the engine.
func (c *Controller) Init(bpm float64, laneCount int, noteJumpSpeed float64) {
	if laneCount > 0 {
		c.laneCount = laneCount
	}
	if noteJumpSpeed > 0 {
		c.njs = noteJumpSpeed
	}
	c.applyTempo(bpm)
}

// SetBeatsPerMinute recomputes the kinematics for a new tempo.
func (c *Controller) SetBeatsPerMinute(bpm float64) {
	c.applyTempo(bpm)
}

func (c *Controller) applyTempo(bpm float64) {
	if bpm <= 0 {
		return
	}
	k := ComputeKinematics(c.cfg, bpm, c.njs)
	prev := c.kin
	changed := c.callbackID == 0 || k.SpawnAheadTime != prev.SpawnAheadTime
	c.kin = k
	if !changed {
		return
	}
	var opts []callback.RegisterOption
	if c.callbackID != 0 {
		c.engine.RemoveObjectCallback(c.callbackID)
		// the old subscription delivered everything timed before this bound
		opts = append(opts, callback.WithResumeTime(c.engine.SongTime()+prev.SpawnAheadTime))
	}
	c.callbackID = c.engine.AddObjectCallback(c.onObject, k.SpawnAheadTime, opts...)
	c.log.Debug(context.Background(), "spawn callback registered",
		logger.Float64("bpm", bpm),
		logger.Float64("spawn_ahead", k.SpawnAheadTime),
		logger.Float64("half_jump_beats", k.HalfJumpDurationBeats),
	)
}

// Kinematics returns the current motion parameters.
func (c *Controller) Kinematics() Kinematics { return c.kin }

// Close unregisters from the engine.
func (c *Controller) Close() {
	if c.callbackID != 0 {
		c.engine.RemoveObjectCallback(c.callbackID)
		c.callbackID = 0
	}
}

// Wired returns how many physical instances had their hooks bound.
func (c *Controller) Wired() int { return len(c.wired) }

// Dissolving reports whether StopSpawningAndDissolveAll was called.
func (c *Controller) Dissolving() bool { return c.disabled }

func (c *Controller) onObject(o beatmap.Object) {
	if c.disabled {
		return
	}
	switch v := o.(type) {
	case *beatmap.ObstacleData:
		c.spawnObstacle(v)
	case *beatmap.NoteData:
		switch {
		case v.Type.Colored():
			c.spawnNote(v, KindNote)
		case v.Type == beatmap.Bomb:
			c.spawnNote(v, KindBomb)
		}
	}
}

func (c *Controller) acquire(kind Kind) *instance {
	h, fresh := c.pool.Acquire(kind)
	in, ok := c.wired[h]
	if !ok {
		in = &instance{handle: h}
		c.wire(in)
		c.wired[h] = in
	} else if fresh {
		c.log.Warn(context.Background(), "pool reported a reused handle as fresh", logger.Int("handle", int(h)))
	}
	in.rebind(kind)
	c.active = append(c.active, in)
	return in
}

func (c *Controller) wire(in *instance) {
	in.hooks = hooks{
		jumpStarted: func(in *instance, t float64) {
			c.NoteJumpStarted.Publish(NoteEvent{Handle: in.handle, Note: in.note, SongTime: t})
		},
		missed: func(in *instance, t float64) {
			c.NoteMissed.Publish(NoteEvent{Handle: in.handle, Note: in.note, SongTime: t})
		},
		jumpFinished: func(in *instance, t float64) {
			c.NoteJumpFinished.Publish(NoteEvent{Handle: in.handle, Note: in.note, SongTime: t})
			c.recycle(in)
		},
		threeQuarters: func(in *instance, t float64) {
			c.ObstacleThreeQuarters.Publish(ObstacleEvent{Handle: in.handle, Obstacle: in.obstacle, SongTime: t})
		},
		avoidedMark: func(in *instance, t float64) {
			c.ObstacleAvoidedMark.Publish(ObstacleEvent{Handle: in.handle, Obstacle: in.obstacle, SongTime: t})
		},
		finished: func(in *instance, t float64) {
			c.ObstacleFinished.Publish(ObstacleEvent{Handle: in.handle, Obstacle: in.obstacle, SongTime: t})
			c.recycle(in)
		},
	}
}

func (c *Controller) recycle(in *instance) {
	if !in.live {
		return
	}
	in.live = false
	c.pool.Recycle(in.handle)
}

func (c *Controller) spawnNote(n *beatmap.NoteData, kind Kind) {
	k := c.kin
	moveStart := forward.Mul(float32(k.MoveDistance + k.JumpDistance*0.5))
	moveEnd := moveStart.Sub(forward.Mul(float32(k.MoveDistance)))
	jumpEnd := moveStart.Sub(forward.Mul(float32(k.MoveDistance + k.JumpDistance)))
	if n.LineLayer == beatmap.LayerTop {
		jumpEnd = jumpEnd.Add(forward.Mul(float32(c.cfg.TopLinesZPosOffset * 2)))
	}
	endOffset := c.noteOffset(n.Lane(), n.StartLineLayer)
	startOffset := endOffset
	if kind == KindNote {
		startOffset = c.noteOffset(n.FlipLane, n.StartLineLayer)
	}

	in := c.acquire(kind)
	in.note = n
	in.spawnTime = n.Time() - k.SpawnAheadTime
	in.moveDuration = k.MoveDuration
	in.jumpDuration = k.JumpDuration
	in.missedTime = n.Time() + c.cfg.MissedTimeOffset
	in.moveStart = moveStart.Add(startOffset)
	in.moveEnd = moveEnd.Add(startOffset)
	in.jumpEnd = jumpEnd.Add(endOffset)
	in.startY = float32(c.lineY(n.StartLineLayer))
	in.gravity = float32(c.jumpGravity(n.LineLayer, n.StartLineLayer))

	c.NoteSpawned.Publish(NoteEvent{Handle: in.handle, Note: n, SongTime: c.songTime})
}

func (c *Controller) spawnObstacle(o *beatmap.ObstacleData) {
	k := c.kin
	moveStart := forward.Mul(float32(k.MoveDistance + k.JumpDistance*0.5))
	moveEnd := moveStart.Sub(forward.Mul(float32(k.MoveDistance)))
	jumpEnd := moveStart.Sub(forward.Mul(float32(k.MoveDistance + k.JumpDistance)))

	offset := c.noteOffset(o.Lane(), beatmap.LayerBase)
	offset = offset.Add(right.Mul(float32(float64(o.Width-1) * 0.5 * c.cfg.NoteLinesDistance)))
	kind, height := KindObstacleFullHeight, c.cfg.FullHeightObstacleHeight
	offset[1] = float32(c.cfg.VerticalObstaclePosY)
	if o.Type == beatmap.ObstacleTop {
		kind, height = KindObstacleTop, c.cfg.TopObstacleHeight
		offset[1] = float32(c.cfg.TopObstaclePosY + c.cfg.GlobalYJumpOffset)
	}

	in := c.acquire(kind)
	in.obstacle = o
	in.spawnTime = o.Time() - k.SpawnAheadTime
	in.moveDuration = k.MoveDuration
	in.jumpDuration = k.JumpDuration
	in.missedTime = o.Time() + o.Duration + c.cfg.MissedTimeOffset
	in.moveStart = moveStart.Add(offset)
	in.moveEnd = moveEnd.Add(offset)
	in.jumpEnd = jumpEnd.Add(offset)
	in.size = mgl32.Vec3{
		float32(float64(o.Width) * c.cfg.NoteLinesDistance),
		float32(height),
		float32(o.Duration * k.NoteJumpSpeed),
	}

	c.ObstacleMoveStarted.Publish(ObstacleEvent{Handle: in.handle, Obstacle: o, SongTime: c.songTime})
}

// Tick advances every live instance to songTime, or finishes the dissolve
// once its window has elapsed.
func (c *Controller) Tick(songTime float64) {
	c.songTime = songTime
	if c.disabled {
		if songTime >= c.dissolveDeadline {
			for _, in := range c.active {
				c.recycle(in)
			}
			c.active = c.active[:0]
		}
		return
	}
	// hooks may recycle instances; index loop so spawns appended meanwhile are advanced too
	for i := 0; i < len(c.active); i++ {
		if in := c.active[i]; in.live {
			in.advance(songTime)
		}
	}
	c.compact()
}

func (c *Controller) compact() {
	live := c.active[:0]
	for _, in := range c.active {
		if in.live {
			live = append(live, in)
		}
	}
	for i := len(live); i < len(c.active); i++ {
		c.active[i] = nil
	}
	c.active = live
}

// Cut reports a cut on a live note or bomb and recycles it. It returns false
// for unknown, finished, missed, dissolving or obstacle handles.
func (c *Controller) Cut(h Handle, info model.NoteCutInfo) bool {
	in, ok := c.wired[h]
	if !ok || !in.live || in.dissolving || in.note == nil || in.missedFired {
		return false
	}
	c.NoteCut.Publish(CutEvent{
		NoteEvent: NoteEvent{Handle: h, Note: in.note, SongTime: c.songTime},
		Info:      info,
	})
	c.recycle(in)
	return true
}

// StopSpawningAndDissolveAll halts spawning and recycles every live instance
// once the dissolve window has passed. Further calls do nothing.
func (c *Controller) StopSpawningAndDissolveAll() {
	if c.disabled {
		return
	}
	c.disabled = true
	c.dissolveDeadline = c.songTime + c.cfg.DissolveDuration + c.cfg.DissolveTail
	n := 0
	for _, in := range c.active {
		if in.live {
			in.dissolving = true
			n++
		}
	}
	c.log.Debug(context.Background(), "dissolving all objects",
		logger.Int("live", n), logger.Float64("deadline", c.dissolveDeadline))
}

// NotePosition samples a live note at songTime.
func (c *Controller) NotePosition(h Handle, songTime float64) (mgl32.Vec3, bool) {
	in, ok := c.wired[h]
	if !ok || !in.live || in.note == nil {
		return mgl32.Vec3{}, false
	}
	return in.position(songTime), true
}

// ObstacleBounds samples a live obstacle at songTime.
func (c *Controller) ObstacleBounds(h Handle, songTime float64) (ObstacleState, bool) {
	in, ok := c.wired[h]
	if !ok || !in.live || in.obstacle == nil {
		return ObstacleState{}, false
	}
	lo, hi := in.bounds(songTime)
	return ObstacleState{Handle: h, Obstacle: in.obstacle, Min: lo, Max: hi}, true
}

// ActiveNotes samples every live note and bomb at the last tick time, in spawn order.
func (c *Controller) ActiveNotes() []NoteState {
	var out []NoteState
	for _, in := range c.active {
		if in.live && in.note != nil {
			out = append(out, NoteState{Handle: in.handle, Note: in.note, Position: in.position(c.songTime), Dissolving: in.dissolving})
		}
	}
	return out
}

// ActiveObstacles samples every live obstacle at the last tick time.
func (c *Controller) ActiveObstacles() []ObstacleState {
	var out []ObstacleState
	for _, in := range c.active {
		if in.live && in.obstacle != nil {
			lo, hi := in.bounds(c.songTime)
			out = append(out, ObstacleState{Handle: in.handle, Obstacle: in.obstacle, Min: lo, Max: hi})
		}
	}
	return out
}

// Live counts live instances.
func (c *Controller) Live() int {
	n := 0
	for _, in := range c.active {
		if in.live {
			n++
		}
	}
	return n
}

func (c *Controller) noteOffset(lane int, layer beatmap.LineLayer) mgl32.Vec3 {
	x := (-(float64(c.laneCount)-1)*0.5 + float64(lane)) * c.cfg.NoteLinesDistance
	return right.Mul(float32(x)).Add(mgl32.Vec3{0, float32(c.lineY(layer)), 0})
}

func (c *Controller) lineY(layer beatmap.LineLayer) float64 {
	switch layer {
	case beatmap.LayerBase:
		return c.cfg.BaseLinesY
	case beatmap.LayerUpper:
		return c.cfg.UpperLinesY
	}
	return c.cfg.TopLinesY
}

func (c *Controller) highestJumpY(layer beatmap.LineLayer) float64 {
	switch layer {
	case beatmap.LayerBase:
		return c.cfg.BaseLinesHighestJumpY + c.cfg.GlobalYJumpOffset
	case beatmap.LayerUpper:
		return c.cfg.UpperLinesHighestJumpY + c.cfg.GlobalYJumpOffset
	}
	return c.cfg.TopLinesHighestJumpY + c.cfg.GlobalYJumpOffset
}

func (c *Controller) jumpGravity(layer, startLayer beatmap.LineLayer) float64 {
	half := c.kin.HalfJumpTime()
	return 2 * (c.highestJumpY(layer) - c.lineY(startLayer)) / (half * half)
}
