package service

import "errors"

// Sentinel kinds for lookup errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrTooManyNames = errors.New("too many names")
)
