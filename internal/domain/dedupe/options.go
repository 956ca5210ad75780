package dedupe

// Option configures a deduper.
type Option func(*settings)

type settings struct {
	maxSize int
}

// WithMaxSize bounds the number of remembered ids. Values <= 0 disable the
// bound.
func WithMaxSize(maxSize int) Option {
	return func(s *settings) {
		s.maxSize = maxSize
	}
}
