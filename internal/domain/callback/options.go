package callback

import "github.com/okian/beatcore/pkg/logger"

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// RegisterOption configures a single object subscription.
type RegisterOption func(*subscriber)

// WithStartTime skips objects timed before t. They still advance the cursor.
func WithStartTime(t float64) RegisterOption {
	return func(s *subscriber) { s.start = t }
}

// WithResumeTime skips objects of the current beatmap timed before t. Unlike
// WithStartTime the bound is dropped when the beatmap is swapped, so a
// subscription that replaces an earlier one can pick up where it stopped.
func WithResumeTime(t float64) RegisterOption {
	return func(s *subscriber) { s.resume = t }
}
