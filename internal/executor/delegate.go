// Package executor runs the delegate scan script through a shell.
package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kosmosec/portreport/internal/api"
	"github.com/kosmosec/portreport/internal/binary"
	"github.com/kosmosec/portreport/internal/model"
	"github.com/kosmosec/portreport/internal/shell"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Delegate struct {
	cfg  api.Config
	goos string
	// Out receives status lines and, on failure, the captured stdout.
	Out io.Writer
	// Progress receives the delegate's stderr while it runs.
	Progress io.Writer
	lookPath shell.LookPathFunc
}

func New(cfg api.Config, out, progress io.Writer) *Delegate {
	return &Delegate{
		cfg:      cfg,
		goos:     runtime.GOOS,
		Out:      out,
		Progress: progress,
		lookPath: exec.LookPath,
	}
}

// Invoke runs `<shell> <delegate> <target> <ports> <tempOutput>` and waits
// at most the configured delegate timeout. On success the delegate has
// written its findings to the temp output file.
func (d *Delegate) Invoke(ctx context.Context, req model.ScanRequest) error {
	fmt.Fprintln(d.Out, "[*] Starting scan process...")
	fmt.Fprintln(d.Out, strings.Repeat("-", 54))

	script := d.cfg.DelegatePath()
	if _, err := os.Stat(script); err != nil {
		return api.NewError(api.DelegateMissing, errors.Wrap(err, "delegate script not found"), d.cfg.DelegateHint())
	}

	sh, err := shell.Select(shell.Candidates(d.cfg, d.goos), d.lookPath)
	if err != nil {
		return api.NewError(api.ShellNotFound, err, shell.Hint(d.goos))
	}
	fmt.Fprintf(d.Out, "    using %s\n", sh.Name)

	removeStale(d.cfg.TempOutput)

	args := append([]string{}, sh.Command[1:]...)
	args = append(args, script, req.Target, req.Ports, d.cfg.TempOutput)

	scanCtx, cancel := context.WithTimeout(ctx, d.cfg.Delegate.Timeout)
	defer cancel()

	logger := log.With().Str("shell", sh.Name).Str("target", req.Target).Str("ports", req.Ports).Logger()
	logger.Info().Str("script", script).Dur("timeout", d.cfg.Delegate.Timeout).Msg("invoking delegate")

	stdout, _, err := binary.Run(scanCtx, sh.Command[0], args, d.Progress)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return api.NewError(api.UserInterrupt, ctx.Err(), "")
	case errors.Is(err, context.DeadlineExceeded):
		return api.NewError(api.DelegateTimeout,
			errors.Errorf("scan exceeded %s", d.cfg.Delegate.Timeout), "narrow the port range or raise delegate.timeout")
	case errors.Is(err, exec.ErrNotFound):
		return api.NewError(api.ShellNotFound, err, shell.Hint(d.goos))
	default:
		code := binary.ExitCode(err)
		logger.Error().Int("exit_code", code).Str("stdout", stdout.String()).Msg("delegate failed")
		if out := strings.TrimSpace(stdout.String()); out != "" {
			fmt.Fprintf(d.Out, "Output: %s\n", out)
		}
		if code >= 0 {
			return api.NewError(api.DelegateExecutionError, errors.Errorf("delegate exited with status %d", code), "")
		}
		return api.NewError(api.DelegateExecutionError, errors.Wrap(err, "run delegate"), "")
	}

	logger.Info().Msg("delegate finished")
	fmt.Fprintln(d.Out, "[+] Scan completed successfully")
	return nil
}

// removeStale deletes an intermediate file left behind by an earlier run so
// that a delegate which writes nothing is detected.
func removeStale(path string) {
	err := os.Remove(path)
	if err == nil {
		log.Debug().Str("path", filepath.Clean(path)).Msg("removed stale intermediate output")
		return
	}
	if !os.IsNotExist(err) {
		log.Warn().Str("path", path).Err(err).Msg("could not remove stale intermediate output")
	}
}
