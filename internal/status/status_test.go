package status

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kosmosec/portreport/internal/api"
	"github.com/kosmosec/portreport/internal/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func openRecorder(t *testing.T) (*Recorder, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "status.db")
	r, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r, path
}

func TestRecordFollowsStages(t *testing.T) {
	r, _ := openRecorder(t)
	ctx := context.Background()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	req := model.ScanRequest{Target: "scanme.example", Ports: "22,80"}

	require.NoError(t, r.Record(ctx, model.Event{RunID: "a", Stage: api.StagePreflight, At: start}))
	require.NoError(t, r.Record(ctx, model.Event{RunID: "a", Stage: api.StageScan, At: start.Add(time.Second), Request: req}))
	require.NoError(t, r.Record(ctx, model.Event{RunID: "a", Stage: api.StageReport, At: start.Add(2 * time.Second), Request: req}))
	require.NoError(t, r.Record(ctx, model.Event{RunID: "a", Stage: api.StageDone, At: start.Add(3 * time.Second), Report: "report.txt"}))

	runs, err := r.Runs(ctx, "")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	require.Equal(t, "scanme.example", run.Target)
	require.Equal(t, "22,80", run.Ports)
	require.Equal(t, string(api.StageDone), run.Stage)
	require.Equal(t, "report.txt", run.Report)
	require.True(t, run.Started.Equal(start))
	require.True(t, run.Updated.Equal(start.Add(3*time.Second)))
}

func TestRunsFilteredByTarget(t *testing.T) {
	r, _ := openRecorder(t)
	ctx := context.Background()

	r.Handle(model.Event{RunID: "1", Stage: api.StageDone, Request: model.ScanRequest{Target: "a", Ports: "1"}})
	r.Handle(model.Event{RunID: "2", Stage: api.StageAborted, Request: model.ScanRequest{Target: "b", Ports: "2"},
		Err: errors.New("DelegateTimeout: scan exceeded 5m0s")})

	runs, err := r.Runs(ctx, "b")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "2", runs[0].ID)
	require.Equal(t, string(api.StageAborted), runs[0].Stage)
	require.Contains(t, runs[0].Error, "DelegateTimeout")
}

func TestStatusOutput(t *testing.T) {
	r, path := openRecorder(t)
	r.Handle(model.Event{RunID: "1", Stage: api.StageDone, Request: model.ScanRequest{Target: "host", Ports: "80"},
		Report: "port_scan_report_host_20260101_000000.txt"})

	var out bytes.Buffer
	require.NoError(t, Status(context.Background(), &out, path, ""))
	require.Contains(t, out.String(), "port_scan_report_host_20260101_000000.txt")
	require.Contains(t, out.String(), "DONE")

	out.Reset()
	require.NoError(t, Status(context.Background(), &out, path, "other"))
	require.Contains(t, out.String(), "No runs recorded")
}

func TestStatusDisabled(t *testing.T) {
	require.Error(t, Status(context.Background(), &bytes.Buffer{}, "", ""))
}
