// Package shell chooses how the delegate script is launched.
package shell

import (
	"os/exec"

	"github.com/kosmosec/portreport/internal/api"
	"github.com/pkg/errors"
)

var ErrNoShell = errors.New("no usable shell found")

// Defaults returns the ordered candidate shells for goos. Windows tries the
// Linux subsystem first and Git Bash second.
func Defaults(goos string) []api.Shell {
	if goos == "windows" {
		return []api.Shell{
			{Name: "wsl", Command: []string{"wsl", "bash"}},
			{Name: "git-bash", Command: []string{"bash"}},
		}
	}
	return []api.Shell{
		{Name: "bash", Command: []string{"bash"}},
		{Name: "sh", Command: []string{"sh"}},
	}
}

// Candidates returns the configured shells, or the defaults for goos when
// none are configured.
func Candidates(cfg api.Config, goos string) []api.Shell {
	if len(cfg.Delegate.Shells) > 0 {
		return cfg.Delegate.Shells
	}
	return Defaults(goos)
}

// LookPathFunc resolves an executable name, like exec.LookPath.
type LookPathFunc func(file string) (string, error)

// Select returns the first candidate whose interpreter can be found, with
// the interpreter resolved to a full path.
func Select(candidates []api.Shell, lookPath LookPathFunc) (api.Shell, error) {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, c := range candidates {
		if len(c.Command) == 0 {
			continue
		}
		path, err := lookPath(c.Command[0])
		if err != nil {
			continue
		}
		command := append([]string{path}, c.Command[1:]...)
		return api.Shell{Name: c.Name, Command: command}, nil
	}
	return api.Shell{}, ErrNoShell
}

// Hint is the remediation shown when no shell could be found.
func Hint(goos string) string {
	if goos == "windows" {
		return "install WSL (wsl --install) or Git Bash"
	}
	return "install bash or make sure it is on PATH"
}
