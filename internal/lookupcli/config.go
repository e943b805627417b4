package lookupcli

import "time"

// Config holds configuration for one CLI run.
type Config struct {
	BaseURL    string        // Base URL of the service
	File       string        // Names file, stdin when empty
	Stream     bool          // Use the streaming endpoint
	Timeout    time.Duration // HTTP request timeout
	JSON       bool          // Print the raw results as JSON
	ClearCache bool          // Clear the service cache before looking up
	LogFile    string        // Log file for run output
}

// Stats holds run statistics.
type Stats struct {
	Names     int
	Results   int
	Failed    int
	Threats   int
	CacheHits int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
