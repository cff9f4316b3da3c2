package model

import (
	"time"

	"github.com/kosmosec/portreport/internal/api"
)

// ScanRequest is created once from user input or defaults and consumed by
// the delegate invocation.
type ScanRequest struct {
	Target string
	Ports  string
}

// Report is the final artifact of a successful run. It is written once and
// never modified afterwards.
type Report struct {
	Path        string
	Version     string
	GeneratedAt time.Time
	Platform    string
	Body        string
}

// Event is published on every pipeline stage transition.
type Event struct {
	RunID   string
	Stage   api.Stage
	At      time.Time
	Request ScanRequest
	Report  string
	Err     error
}
