package worker

import "errors"

// Sentinel kinds for dispatcher errors.
var (
	ErrStopped   = errors.New("dispatcher stopped")
	ErrQueueFull = errors.New("dispatch queue full")
)
