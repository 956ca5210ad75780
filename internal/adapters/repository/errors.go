package repository

import "errors"

// Sentinel kinds for results store errors.
var (
	ErrNotFound      = errors.New("result not found")
	ErrInvalidLimit  = errors.New("invalid results limit")
	ErrInvalidRecord = errors.New("invalid result record")
	ErrClosed        = errors.New("store closed")
)
