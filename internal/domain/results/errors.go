package results

import "errors"

// ErrScoreAlreadyModified is returned by a second ModifyScore call.
var ErrScoreAlreadyModified = errors.New("score already modified")
