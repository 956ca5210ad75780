package spawn

// smallest half jump the halving loop may reach
const minHalfJumpBeats = 1.0 / 64

// Kinematics are the tempo-derived motion parameters shared by every object.
type Kinematics struct {
	SecondsPerBeat        float64
	NoteJumpSpeed         float64
	MoveDistance          float64
	MoveDuration          float64 // seconds
	HalfJumpDurationBeats float64
	JumpDistance          float64
	JumpDuration          float64 // seconds
	SpawnAheadTime        float64 // seconds
}

// HalfJumpTime is the time from jump start to the apex.
func (k Kinematics) HalfJumpTime() float64 {
	return k.JumpDuration / 2
}

// ComputeKinematics derives the motion parameters for a tempo and note jump
// speed. The half jump is halved until its distance fits the configured
// maximum.
func ComputeKinematics(cfg Config, bpm, noteJumpSpeed float64) Kinematics {
	spb := 60 / bpm
	k := Kinematics{
		SecondsPerBeat: spb,
		NoteJumpSpeed:  noteJumpSpeed,
		MoveDistance:   cfg.MoveSpeed * spb * cfg.MoveDurationBeats,
	}
	half := cfg.HalfJumpDurationBeats
	for noteJumpSpeed*spb*half > cfg.MaxHalfJumpDistance && half > minHalfJumpBeats {
		half /= 2
	}
	k.HalfJumpDurationBeats = half
	k.JumpDistance = noteJumpSpeed * spb * half * 2
	k.MoveDuration = k.MoveDistance / cfg.MoveSpeed
	k.JumpDuration = k.JumpDistance / noteJumpSpeed
	k.SpawnAheadTime = k.MoveDuration + k.JumpDistance/(2*noteJumpSpeed)
	return k
}
