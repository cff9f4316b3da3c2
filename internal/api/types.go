package api

// Version is stamped into every report header. Overridden at build time
// with -ldflags "-X github.com/kosmosec/portreport/internal/api.Version=...".
var Version = "1.0.0"

type Stage string

const (
	StagePreflight Stage = "PREFLIGHT"
	StageInput     Stage = "INPUT"
	StageScan      Stage = "SCAN"
	StageReport    Stage = "REPORT"
	StageDone      Stage = "DONE"
	StageAborted   Stage = "ABORTED"
)
