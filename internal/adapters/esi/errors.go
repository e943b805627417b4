package esi

import "errors"

// Sentinel kinds for ESI errors.
var (
	// ErrResolve aborts a whole lookup.
	ErrResolve = errors.New("resolve character names failed")
	// ErrNotFound fails a single profile.
	ErrNotFound = errors.New("character not found")
	ErrDecode   = errors.New("decode esi response failed")
)
