package beatmap

import "errors"

// Sentinel errors. A load that fails with either of them yields no data.
var (
	ErrMalformedBeatmap = errors.New("malformed beatmap")
	ErrInvalidTempo     = errors.New("invalid beats per minute")
)
