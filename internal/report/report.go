// Package report turns the delegate's raw output into the final,
// timestamped report file.
package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
	"unicode"

	"github.com/kosmosec/portreport/internal/api"
	"github.com/kosmosec/portreport/internal/model"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	xunicode "golang.org/x/text/encoding/unicode"
)

const (
	bannerWidth    = 70
	filenamePrefix = "port_scan_report_"
	filenameSuffix = ".txt"
	dateLayout     = "2006-01-02 15:04:05"

	// TimestampLayout is the per-run suffix of every report file name.
	TimestampLayout = "20060102_150405"
)

var reportTmpl = template.Must(template.New("report").Parse(`{{ .Rule }}
         PORT SCANNING REPORT
         Shell Delegate Scan Wrapper
{{ .Rule }}

Generated by: {{ .Generator }}
Report Date: {{ .Date }}
Platform: {{ .Platform }}

{{ .Rule }}

{{ .Body }}
{{ .Rule }}
         END OF REPORT
{{ .Rule }}
`))

type Assembler struct {
	cfg api.Config
	Out io.Writer
	// Now and Platform are replaceable for tests.
	Now      func() time.Time
	Platform func() string
}

func New(cfg api.Config, out io.Writer) *Assembler {
	return &Assembler{
		cfg:      cfg,
		Out:      out,
		Now:      time.Now,
		Platform: Platform,
	}
}

// Assemble reads the intermediate output, writes the report for target and
// removes the intermediate file. Failing to remove it is only a warning.
func (a *Assembler) Assemble(ctx context.Context, target string) (model.Report, error) {
	fmt.Fprintln(a.Out, "[*] Processing report...")

	raw, err := a.readArtifact()
	if err != nil {
		return model.Report{}, err
	}

	now := a.Now()
	rep := model.Report{
		Path:        filepath.Join(a.cfg.ReportDirectory(), Filename(target, now)),
		Version:     api.Version,
		GeneratedAt: now,
		Platform:    a.Platform(),
		Body:        raw,
	}

	content, err := Render(rep)
	if err != nil {
		return model.Report{}, api.NewError(api.ReportWriteError, err, "")
	}
	if err := ctx.Err(); err != nil {
		return model.Report{}, api.NewError(api.UserInterrupt, err, "")
	}
	if err := writeExclusive(rep.Path, content); err != nil {
		return model.Report{}, err
	}
	fmt.Fprintf(a.Out, "    [+] final report created: %s\n", rep.Path)

	if err := a.cleanup(); err != nil {
		fmt.Fprintf(a.Out, "    [!] warning: %s\n", err)
		log.Warn().Str("kind", string(api.CleanupWarning)).Err(err).Msg("intermediate output left behind")
	} else {
		fmt.Fprintln(a.Out, "    [+] temporary files cleaned up")
	}
	return rep, nil
}

func (a *Assembler) readArtifact() (string, error) {
	path := a.cfg.TempOutput
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", api.NewError(api.ArtifactMissing, errors.Errorf("temporary output file not found: %s", path),
			"the delegate reported success but wrote no output")
	}
	if err != nil {
		return "", api.NewError(api.ArtifactMissing, errors.Wrapf(err, "read %s", path), "")
	}
	return decode(raw), nil
}

// decode reads raw as UTF-8, dropping a byte order mark and replacing
// invalid sequences. It never fails.
func decode(raw []byte) string {
	text, err := xunicode.UTF8BOM.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "\uFFFD")
	}
	return string(text)
}

func (a *Assembler) cleanup() error {
	err := os.Remove(a.cfg.TempOutput)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return api.NewError(api.CleanupWarning, errors.Wrap(err, "could not remove temp file"), "")
}

// writeExclusive creates path and writes content to it. An existing file is
// never overwritten; a partially written file is removed.
func writeExclusive(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return api.NewError(api.ReportWriteError, errors.Wrap(err, "create report directory"), "")
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if os.IsExist(err) {
		return api.NewError(api.ReportWriteError, errors.Errorf("report %s already exists", path),
			"a report for this target was generated within the same second; retry")
	}
	if err != nil {
		return api.NewError(api.ReportWriteError, errors.Wrap(err, "create report"), "")
	}
	_, err = f.Write(content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return api.NewError(api.ReportWriteError, errors.Wrap(err, "write report"), "")
	}
	return nil
}

// Render lays out the report: banner, titles, metadata, separator, the raw
// body untouched and the closing banner.
func Render(rep model.Report) ([]byte, error) {
	var buf bytes.Buffer
	err := reportTmpl.Execute(&buf, struct {
		Rule      string
		Generator string
		Date      string
		Platform  string
		Body      string
	}{
		Rule:      strings.Repeat("=", bannerWidth),
		Generator: fmt.Sprintf("%s v%s", api.AppName, rep.Version),
		Date:      rep.GeneratedAt.Format(dateLayout),
		Platform:  rep.Platform,
		Body:      rep.Body,
	})
	if err != nil {
		return nil, errors.Wrap(err, "render report")
	}
	return buf.Bytes(), nil
}

// Filename builds the report name for target at t. Two runs for the same
// target within the same second produce the same name.
func Filename(target string, t time.Time) string {
	return Prefix(target) + t.Format(TimestampLayout) + filenameSuffix
}

// Prefix is the part of the report file name that depends only on target.
func Prefix(target string) string {
	return filenamePrefix + Sanitize(target) + "_"
}

// Sanitize replaces every character that cannot appear in a file name on
// common platforms with an underscore.
func Sanitize(target string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, target)
}
