package zkill

import "errors"

// Sentinel kinds for zKillboard errors. Both are absorbed by the lookup.
var (
	ErrFetch  = errors.New("fetch zkill stats failed")
	ErrDecode = errors.New("decode zkill stats failed")
)
