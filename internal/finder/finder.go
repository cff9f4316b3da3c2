package finder

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/kosmosec/portreport/internal/report"
)

// Report is a previously written report file.
type Report struct {
	Path      string
	Timestamp string
}

// Find prints the reports in dir that were generated for target, newest
// first.
func Find(ctx context.Context, w io.Writer, dir string, target string) error {
	reports, err := Reports(dir, target)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Fprintf(w, "No reports for %s in %s\n", target, dir)
		return nil
	}
	for _, r := range reports {
		fmt.Fprintln(w, r.Path)
	}
	return nil
}

// Reports lists report files for target. The timestamp suffix sorts
// lexically in time order.
func Reports(dir string, target string) ([]Report, error) {
	if strings.TrimSpace(target) == "" {
		return nil, errors.New("target cannot be empty")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read report directory %s", dir)
	}

	prefix := report.Prefix(target)
	found := make([]Report, 0)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".txt") {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".txt")
		if !isTimestamp(stamp) {
			continue
		}
		found = append(found, Report{Path: filepath.Join(dir, name), Timestamp: stamp})
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].Timestamp > found[j].Timestamp
	})
	return found, nil
}

// isTimestamp keeps "host" from matching the reports of "host_2".
func isTimestamp(s string) bool {
	_, err := time.Parse(report.TimestampLayout, s)
	return err == nil
}
