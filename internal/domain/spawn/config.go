package spawn

// Config holds the spawn geometry and timing constants. Distances are in
// metres, durations in beats unless named otherwise.
type Config struct {
	MoveSpeed             float64
	MoveDurationBeats     float64
	HalfJumpDurationBeats float64
	MaxHalfJumpDistance   float64
	NoteLinesDistance     float64

	BaseLinesY  float64
	UpperLinesY float64
	TopLinesY   float64

	BaseLinesHighestJumpY  float64
	UpperLinesHighestJumpY float64
	TopLinesHighestJumpY   float64

	TopLinesZPosOffset float64
	GlobalYJumpOffset  float64

	VerticalObstaclePosY     float64
	TopObstaclePosY          float64
	FullHeightObstacleHeight float64
	TopObstacleHeight        float64

	MissedTimeOffset float64 // seconds
	DissolveDuration float64 // seconds
	DissolveTail     float64 // seconds
}

// DefaultConfig returns the standard level geometry.
func DefaultConfig() Config {
	return Config{
		MoveSpeed:             200,
		MoveDurationBeats:     1,
		HalfJumpDurationBeats: 4,
		MaxHalfJumpDistance:   18,
		NoteLinesDistance:     0.6,

		BaseLinesY:  0.25,
		UpperLinesY: 0.85,
		TopLinesY:   1.45,

		BaseLinesHighestJumpY:  0.85,
		UpperLinesHighestJumpY: 1.4,
		TopLinesHighestJumpY:   1.9,

		TopLinesZPosOffset: -0.2,

		VerticalObstaclePosY:     0.1,
		TopObstaclePosY:          1.3,
		FullHeightObstacleHeight: 5,
		TopObstacleHeight:        1.5,

		MissedTimeOffset: 0.15,
		DissolveDuration: 1.4,
		DissolveTail:     0.1,
	}
}
