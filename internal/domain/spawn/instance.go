package spawn

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/okian/beatcore/internal/domain/beatmap"
)

var (
	forward = mgl32.Vec3{0, 0, 1}
	right   = mgl32.Vec3{1, 0, 0}
)

// hooks are bound once per physical instance, when its handle is first seen.
type hooks struct {
	jumpStarted   func(in *instance, songTime float64)
	missed        func(in *instance, songTime float64)
	jumpFinished  func(in *instance, songTime float64)
	threeQuarters func(in *instance, songTime float64)
	avoidedMark   func(in *instance, songTime float64)
	finished      func(in *instance, songTime float64)
}

type instance struct {
	handle Handle
	kind   Kind
	hooks  hooks

	note     *beatmap.NoteData
	obstacle *beatmap.ObstacleData

	spawnTime    float64
	moveDuration float64
	jumpDuration float64
	missedTime   float64

	moveStart mgl32.Vec3
	moveEnd   mgl32.Vec3
	jumpEnd   mgl32.Vec3
	startY    float32
	gravity   float32
	size      mgl32.Vec3 // obstacles: width, height, length

	live          bool
	dissolving    bool
	jumpStarted   bool
	missedFired   bool
	threeQuarters bool
	avoided       bool
}

// rebind clears the per-object state of a reused instance. Hooks survive.
func (in *instance) rebind(kind Kind) {
	h := in.hooks
	handle := in.handle
	*in = instance{handle: handle, kind: kind, hooks: h, live: true}
}

// advance fires every lifecycle step due at songTime, in timeline order.
func (in *instance) advance(songTime float64) {
	elapsed := songTime - in.spawnTime
	if in.note != nil {
		if !in.jumpStarted && elapsed >= in.moveDuration {
			in.jumpStarted = true
			in.hooks.jumpStarted(in, songTime)
		}
		finish := elapsed >= in.moveDuration+in.jumpDuration
		if !in.missedFired && (songTime >= in.missedTime || finish) {
			in.missedFired = true
			in.hooks.missed(in, songTime)
		}
		if finish && in.live {
			in.hooks.jumpFinished(in, songTime)
		}
		return
	}

	if !in.threeQuarters && elapsed >= in.moveDuration+0.75*in.jumpDuration {
		in.threeQuarters = true
		in.hooks.threeQuarters(in, songTime)
	}
	finish := elapsed >= in.moveDuration+in.jumpDuration+in.obstacle.Duration
	if !in.avoided && (songTime >= in.missedTime || finish) {
		in.avoided = true
		in.hooks.avoidedMark(in, songTime)
	}
	if finish && in.live {
		in.hooks.finished(in, songTime)
	}
}

// position samples the trajectory: a linear approach, then a jump with a
// constant-acceleration arc in y. Obstacles have no arc.
func (in *instance) position(songTime float64) mgl32.Vec3 {
	elapsed := float32(songTime - in.spawnTime)
	moveDur := float32(in.moveDuration)
	jumpDur := float32(in.jumpDuration)
	if elapsed < moveDur || jumpDur <= 0 {
		t := mgl32.Clamp(elapsed/moveDur, 0, 1)
		return lerp(in.moveStart, in.moveEnd, t)
	}

	tau := elapsed - moveDur
	t := tau / jumpDur
	p := lerp(in.moveEnd, in.jumpEnd, t)
	if in.note == nil {
		return p
	}
	p[0] = in.moveEnd.X() + (in.jumpEnd.X()-in.moveEnd.X())*mgl32.Clamp(2*t, 0, 1)
	v0 := in.gravity * jumpDur / 2
	p[1] = in.startY + v0*tau - 0.5*in.gravity*tau*tau
	return p
}

// bounds returns the axis-aligned box of an obstacle. The front face is at
// the sampled position and the box extends away from the player.
func (in *instance) bounds(songTime float64) (mgl32.Vec3, mgl32.Vec3) {
	p := in.position(songTime)
	half := in.size.X() / 2
	lo := mgl32.Vec3{p.X() - half, p.Y(), p.Z()}
	hi := mgl32.Vec3{p.X() + half, p.Y() + in.size.Y(), p.Z() + in.size.Z()}
	return lo, hi
}

func lerp(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
