package upstream

import (
	"errors"
	"fmt"
)

// Sentinel kinds for upstream errors.
var (
	ErrRequest   = errors.New("build request failed")
	ErrTransport = errors.New("upstream transport failed")
)

// StatusError is returned for non-success responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.URL, e.StatusCode)
}

// IsStatus reports whether err carries a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
