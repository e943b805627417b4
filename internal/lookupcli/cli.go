package lookupcli

import (
	"fmt"
	"io"
	"os"
)

// File permission constants.
const (
	logFilePermission = 0o600
)

// OpenLog opens logFile for appending. An empty name yields stdout and a
// no-op closer.
func OpenLog(logFile string) (io.Writer, func() error, error) {
	if logFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return io.MultiWriter(os.Stdout, f), f.Close, nil
}

// ShowHelp writes usage information to w.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Telescope CLI

Looks up a list of pilot names against a running telescope service and
prints a threat table, most dangerous first.

Usage:
  telescope-cli [options] < names.txt

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -file string
        File with one pilot name per line (default: stdin)
  -stream
        Use the streaming endpoint and print progress
  -timeout duration
        HTTP request timeout (default 2m0s)
  -json
        Print results as JSON instead of a table
  -clear-cache
        Clear the service cache before the lookup
  -log string
        Also write logs to this file
  -log-level string
        Log level: debug, info, warn, error (default "warn")
  -help
        Show this help message

Examples:
  # Paste a local channel member list
  pbpaste | telescope-cli -stream

  # Look up names from a file against a remote service
  telescope-cli -url http://intel.example:9080 -file local.txt

  # Force fresh data
  telescope-cli -clear-cache -file local.txt
`)
}
