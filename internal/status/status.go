package status

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/kosmosec/portreport/internal/model"
)

const timeLayout = time.RFC3339

const schema = `
CREATE TABLE IF NOT EXISTS Runs (
	ID TEXT PRIMARY KEY,
	Target TEXT NOT NULL DEFAULT '',
	Ports TEXT NOT NULL DEFAULT '',
	Stage TEXT NOT NULL,
	Report TEXT NOT NULL DEFAULT '',
	Error TEXT NOT NULL DEFAULT '',
	Started TEXT NOT NULL,
	Updated TEXT NOT NULL
);
`

// Run is one pipeline execution as recorded in the status database.
type Run struct {
	ID      string
	Target  string
	Ports   string
	Stage   string
	Report  string
	Error   string
	Started time.Time
	Updated time.Time
}

// Recorder keeps the run history in SQLite.
type Recorder struct {
	db *sql.DB
}

func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open status database %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "create status schema in %s", path)
	}
	return &Recorder{db: db}, nil
}

func (r *Recorder) Close() error {
	return r.db.Close()
}

// Record upserts the run described by ev. Empty request or report fields
// never overwrite values recorded by an earlier stage.
func (r *Recorder) Record(ctx context.Context, ev model.Event) error {
	stmt, err := r.db.PrepareContext(ctx, `
INSERT INTO Runs (ID, Target, Ports, Stage, Report, Error, Started, Updated)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(ID) DO UPDATE SET
	Target = CASE WHEN excluded.Target <> '' THEN excluded.Target ELSE Runs.Target END,
	Ports = CASE WHEN excluded.Ports <> '' THEN excluded.Ports ELSE Runs.Ports END,
	Stage = excluded.Stage,
	Report = CASE WHEN excluded.Report <> '' THEN excluded.Report ELSE Runs.Report END,
	Error = excluded.Error,
	Updated = excluded.Updated`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	var errText string
	if ev.Err != nil {
		errText = ev.Err.Error()
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	stamp := at.UTC().Format(timeLayout)

	_, err = stmt.ExecContext(ctx, ev.RunID, ev.Request.Target, ev.Request.Ports, string(ev.Stage),
		ev.Report, errText, stamp, stamp)
	return err
}

// Handle records ev and logs failures instead of returning them, so it can
// be subscribed to the stage bus.
func (r *Recorder) Handle(ev model.Event) {
	if err := r.Record(context.Background(), ev); err != nil {
		log.Warn().Str("run_id", ev.RunID).Str("stage", string(ev.Stage)).Err(err).Msg("status: record run")
	}
}

// Runs returns recorded runs, newest first. An empty target returns all runs.
func (r *Recorder) Runs(ctx context.Context, target string) ([]Run, error) {
	query := "SELECT ID, Target, Ports, Stage, Report, Error, Started, Updated FROM Runs"
	args := []interface{}{}
	if target != "" {
		query += " WHERE Target = ?"
		args = append(args, target)
	}
	query += " ORDER BY Started DESC, Updated DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var run Run
		var started, updated string
		err := rows.Scan(&run.ID, &run.Target, &run.Ports, &run.Stage, &run.Report, &run.Error, &started, &updated)
		if err != nil {
			return nil, err
		}
		run.Started, _ = time.Parse(timeLayout, started)
		run.Updated, _ = time.Parse(timeLayout, updated)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Status prints the recorded runs for target, or every run when target is
// empty.
func Status(ctx context.Context, w io.Writer, dbPath string, target string) error {
	if dbPath == "" {
		return errors.New("run history is disabled (statusDatabase is empty)")
	}
	r, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer r.Close()

	runs, err := r.Runs(ctx, target)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return nil
	}
	fmt.Fprintf(w, "%-20s %-24s %-16s %-10s %s\n", "STARTED", "TARGET", "PORTS", "STAGE", "REPORT / ERROR")
	for _, run := range runs {
		detail := run.Report
		if run.Error != "" {
			detail = run.Error
		}
		fmt.Fprintf(w, "%-20s %-24s %-16s %-10s %s\n",
			run.Started.Local().Format("2006-01-02 15:04:05"), run.Target, run.Ports, run.Stage, detail)
	}
	return nil
}
