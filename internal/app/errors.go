package service

import "errors"

// Sentinel errors for session and service lifecycle misuse.
var (
	ErrNotStarted      = errors.New("not started")
	ErrAlreadyFinished = errors.New("session already finished")
)
