package models

import "time"

// Skipped records a configured section that produced no document.
type Skipped struct {
	Source Source `json:"source"`
	Title  string `json:"title"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// SiteSummary reports what happened to one site during a run.
type SiteSummary struct {
	Source     Source `json:"source"`
	Root       string `json:"root"`
	Configured int    `json:"configured"`
	Emitted    int    `json:"emitted"`
	Skipped    int    `json:"skipped"`
	DurationMs int64  `json:"duration_ms"`

	// Error is set when the site as a whole failed (e.g. its root page
	// could not be opened).
	Error string `json:"error,omitempty"`
}

// Report is the outcome of one harvest run.
type Report struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	DurationMs int64         `json:"duration_ms"`
	Output     string        `json:"output"`
	Sites      []SiteSummary `json:"sites"`
	Skipped    []Skipped     `json:"skipped"`

	// Documents is written to the output file, not to the report.
	Documents []Document `json:"-"`
}

// Emitted returns the total number of documents produced by the run.
func (r *Report) Emitted() int {
	return len(r.Documents)
}
