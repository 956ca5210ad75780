package beatmap

// LoadOption configures Load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	bpm       float64
	laneCount int
}

// WithBeatsPerMinute overrides the tempo found in the document.
func WithBeatsPerMinute(bpm float64) LoadOption {
	return func(c *loadConfig) { c.bpm = bpm }
}

// WithLaneCount sets the number of lanes. Non-positive values keep the default.
func WithLaneCount(n int) LoadOption {
	return func(c *loadConfig) {
		if n > 0 {
			c.laneCount = n
		}
	}
}
