package model

// Stream event names.
const (
	EventStarted  = "started"
	EventProgress = "progress"
	EventResult   = "result"
	EventDone     = "done"
	EventError    = "error"
)

// Started opens a streamed lookup.
type Started struct {
	LookupID string `json:"lookup_id"`
	Total    int    `json:"total"`
}

// Progress is emitted after every collected record.
type Progress struct {
	Current   int `json:"current"`
	Total     int `json:"total"`
	CacheHits int `json:"cache_hits"`
}

// Result carries one record and the position of its name in the input.
type Result struct {
	Record        PilotRecord `json:"record"`
	OriginalIndex int         `json:"original_index"`
}

// Done carries the sorted records of a finished lookup.
type Done struct {
	LookupID string        `json:"lookup_id"`
	Results  []PilotRecord `json:"results"`
}

// Failure reports a lookup that aborted.
type Failure struct {
	LookupID string `json:"lookup_id"`
	Message  string `json:"message"`
}
