package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kosmosec/portreport/internal/api"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.March, 4, 9, 8, 7, 0, time.UTC)

func newAssembler(t *testing.T) (*Assembler, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	cfg := api.DefaultConfig()
	cfg.TempOutput = filepath.Join(dir, "scan_temp_output.txt")
	cfg.ReportDir = filepath.Join(dir, "reports")

	var out bytes.Buffer
	a := New(cfg, &out)
	a.Now = func() time.Time { return fixedNow }
	a.Platform = func() string { return "Linux 6.1.0" }
	return a, &out
}

func TestAssemble(t *testing.T) {
	a, out := newAssembler(t)
	raw := "22/open\n80/open\n443/closed\n"
	require.NoError(t, os.WriteFile(a.cfg.TempOutput, []byte(raw), 0o644))

	rep, err := a.Assemble(context.Background(), "scanme.example")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(a.cfg.ReportDir, "port_scan_report_scanme.example_20260304_090807.txt"), rep.Path)

	content, err := os.ReadFile(rep.Path)
	require.NoError(t, err)
	rule := strings.Repeat("=", 70)
	want := rule + "\n" +
		"         PORT SCANNING REPORT\n" +
		"         Shell Delegate Scan Wrapper\n" +
		rule + "\n\n" +
		"Generated by: portreport v" + api.Version + "\n" +
		"Report Date: 2026-03-04 09:08:07\n" +
		"Platform: Linux 6.1.0\n" +
		"\n" + rule + "\n\n" +
		raw +
		"\n" + rule + "\n" +
		"         END OF REPORT\n" +
		rule + "\n"
	require.Equal(t, want, string(content))

	_, err = os.Stat(a.cfg.TempOutput)
	require.True(t, os.IsNotExist(err), "intermediate file should be removed")
	require.Contains(t, out.String(), "temporary files cleaned up")
}

func TestAssembleArtifactMissing(t *testing.T) {
	a, _ := newAssembler(t)

	_, err := a.Assemble(context.Background(), "scanme.example")
	require.True(t, errors.Is(err, api.ErrArtifactMissing), "got %v", err)

	entries, err := os.ReadDir(a.cfg.ReportDir)
	if err == nil {
		require.Empty(t, entries, "no report should be written")
	} else {
		require.True(t, os.IsNotExist(err))
	}
}

func TestAssemblePermissiveDecoding(t *testing.T) {
	a, _ := newAssembler(t)
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("80/open \xff\xfe http\n")...)
	require.NoError(t, os.WriteFile(a.cfg.TempOutput, raw, 0o644))

	rep, err := a.Assemble(context.Background(), "host")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(rep.Body, "80/open "))
	require.True(t, strings.HasSuffix(rep.Body, " http\n"))
	require.NotContains(t, rep.Body, "\xff")
}

func TestAssembleSameSecondCollision(t *testing.T) {
	a, _ := newAssembler(t)
	require.NoError(t, os.WriteFile(a.cfg.TempOutput, []byte("first\n"), 0o644))
	first, err := a.Assemble(context.Background(), "host")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(a.cfg.TempOutput, []byte("second\n"), 0o644))
	_, err = a.Assemble(context.Background(), "host")
	require.Equal(t, api.ReportWriteError, api.KindOf(err))

	content, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	require.Contains(t, string(content), "first\n")
	require.NotContains(t, string(content), "second")
}

func TestAssembleInterrupted(t *testing.T) {
	a, _ := newAssembler(t)
	require.NoError(t, os.WriteFile(a.cfg.TempOutput, []byte("data"), 0o644))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Assemble(ctx, "host")
	require.Equal(t, api.UserInterrupt, api.KindOf(err))
	_, statErr := os.Stat(filepath.Join(a.cfg.ReportDir, Filename("host", fixedNow)))
	require.True(t, os.IsNotExist(statErr))
}

func TestSanitizeRemovesSeparators(t *testing.T) {
	targets := []string{
		"10.0.0.0/24",
		`C:\hosts\list`,
		"../../etc/passwd",
		"fe80::1%eth0",
		"a/b\\c/d",
		"host\nname",
		"////",
	}
	for _, target := range targets {
		name := Filename(target, fixedNow)
		require.NotContains(t, name, "/", target)
		require.NotContains(t, name, `\`, target)
		require.NotContains(t, name, string(os.PathSeparator), target)
		require.Equal(t, name, filepath.Base(name), target)
	}
	require.Equal(t, "10.0.0.0_24", Sanitize("10.0.0.0/24"))
}

func TestFilenameDistinctPerSecond(t *testing.T) {
	first := Filename("host", fixedNow)
	second := Filename("host", fixedNow.Add(time.Second))
	require.NotEqual(t, first, second)
	// Known limitation: the same target within the same second collides.
	require.Equal(t, first, Filename("host", fixedNow.Add(500*time.Millisecond)))
}

func TestPlatform(t *testing.T) {
	p := Platform()
	require.NotEmpty(t, p)
	require.Equal(t, strings.ToUpper(p[:1]), p[:1])
}
