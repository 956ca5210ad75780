package scoring

import "github.com/okian/beatcore/pkg/logger"

// Default fever parameters.
const (
	DefaultFeverComboThreshold = 16
	DefaultFeverDuration       = 10.0 // seconds
)

// Option configures a Controller.
type Option func(*Controller)

// WithFeverComboThreshold sets the good-cut streak that starts fever.
func WithFeverComboThreshold(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.feverThreshold = n
		}
	}
}

// WithFeverDuration sets how long fever lasts, in seconds.
func WithFeverDuration(seconds float64) Option {
	return func(c *Controller) {
		if seconds > 0 {
			c.feverDuration = seconds
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}
