package spawn

import "github.com/okian/beatcore/pkg/logger"

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithPool replaces the default Arena.
func WithPool(p Pool) Option {
	return func(c *Controller) {
		if p != nil {
			c.pool = p
		}
	}
}

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(c *Controller) { c.cfg = cfg }
}
