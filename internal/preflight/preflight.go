// Package preflight verifies that the scanner binary and the delegate
// script are available before any input is collected.
package preflight

import (
	"bufio"
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
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Check runs the scanner's version query and looks for the delegate script.
// The returned error is an *api.Error of kind ToolMissing, DelegateMissing
// or UserInterrupt.
func Check(ctx context.Context, cfg api.Config, out io.Writer) error {
	fmt.Fprintln(out, "[*] Checking requirements...")

	version, err := checkScanner(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "    [+] %s is installed (%s)\n", cfg.Scanner.Binary, version)

	delegate, err := checkDelegate(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "    [+] delegate script found: %s\n", delegate)
	return nil
}

func checkScanner(ctx context.Context, cfg api.Config) (string, error) {
	name := cfg.Scanner.Binary
	hint := InstallHint(name, runtime.GOOS)

	checkCtx, cancel := context.WithTimeout(ctx, cfg.Scanner.CheckTimeout)
	defer cancel()

	stdout, _, err := binary.Run(checkCtx, name, []string{cfg.Scanner.VersionFlag}, nil)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return "", api.NewError(api.UserInterrupt, ctx.Err(), "")
	case errors.Is(err, exec.ErrNotFound):
		return "", api.NewError(api.ToolMissing, errors.Errorf("%s is not installed", name), hint)
	case errors.Is(err, context.DeadlineExceeded):
		return "", api.NewError(api.ToolMissing,
			errors.Errorf("%s did not answer %s within %s", name, cfg.Scanner.VersionFlag, cfg.Scanner.CheckTimeout), hint)
	default:
		log.Warn().Str("binary", name).Int("exit_code", binary.ExitCode(err)).Err(err).Msg("version query failed")
		return "", api.NewError(api.ToolMissing, errors.Wrapf(err, "%s is not installed properly", name), hint)
	}

	version := firstLine(stdout.String())
	if version == "" {
		return "", api.NewError(api.ToolMissing, errors.Errorf("%s %s printed nothing", name, cfg.Scanner.VersionFlag), hint)
	}
	log.Debug().Str("binary", name).Str("version", version).Msg("scanner available")
	return version, nil
}

func checkDelegate(cfg api.Config) (string, error) {
	path := cfg.DelegatePath()
	info, err := os.Stat(path)
	if err != nil {
		return "", api.NewError(api.DelegateMissing, errors.Wrap(err, "delegate script not found"), cfg.DelegateHint())
	}
	if info.IsDir() {
		return "", api.NewError(api.DelegateMissing, errors.Errorf("delegate script %s is a directory", path), cfg.DelegateHint())
	}
	return path, nil
}

// InstallHint suggests how to install the scanner binary on goos.
func InstallHint(binaryName, goos string) string {
	if filepath.Base(binaryName) != "nmap" {
		return fmt.Sprintf("make sure %s is installed and on PATH", binaryName)
	}
	switch goos {
	case "linux":
		return "install: sudo apt-get install nmap (Debian/Ubuntu) or sudo dnf install nmap (Fedora)"
	case "darwin":
		return "install: brew install nmap"
	case "windows":
		return "install: download the installer from https://nmap.org/download.html"
	default:
		return "install nmap from https://nmap.org/download.html"
	}
}

func firstLine(s string) string {
	scanner := bufio.NewScanner(strings.NewReader(s))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line
		}
	}
	return ""
}
