package autoplay

import "github.com/go-gl/mathgl/mgl32"

// Option applies a configuration option to a Player.
type Option func(*Player)

// WithAccuracy sets the probability in [0,1] that a note is cut well.
func WithAccuracy(a float64) Option {
	return func(p *Player) {
		if a >= 0 && a <= 1 {
			p.accuracy = a
		}
	}
}

// WithSeed seeds the player's random source.
func WithSeed(seed int64) Option {
	return func(p *Player) {
		p.seed = seed
	}
}

// WithDodge makes the player step out of every obstacle.
func WithDodge(dodge bool) Option {
	return func(p *Player) {
		p.dodge = dodge
	}
}

// WithHead places the player's head box, centre and half extents.
func WithHead(center, halfSize mgl32.Vec3) Option {
	return func(p *Player) {
		p.head = center
		p.headHalf = halfSize
	}
}
