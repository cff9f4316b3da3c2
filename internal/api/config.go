package api

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultConfigName = "config.yml"
	AppName           = "portreport"
)

type (
	Config struct {
		Scanner        Scanner  `yaml:"scanner,omitempty"`
		Delegate       Delegate `yaml:"delegate,omitempty"`
		Defaults       Defaults `yaml:"defaults,omitempty"`
		TempOutput     string   `yaml:"tempOutput,omitempty"`
		ReportDir      string   `yaml:"reportDir,omitempty"`
		StatusDatabase string   `yaml:"statusDatabase"`
		LogLevel       string   `yaml:"logLevel,omitempty"`
	}

	// Scanner is the external scanning binary probed during preflight.
	Scanner struct {
		Binary       string        `yaml:"binary,omitempty"`
		VersionFlag  string        `yaml:"versionFlag,omitempty"`
		CheckTimeout time.Duration `yaml:"checkTimeout,omitempty"`
	}

	// Delegate is the script that does the actual scanning.
	Delegate struct {
		Script  string        `yaml:"script,omitempty"`
		Timeout time.Duration `yaml:"timeout,omitempty"`
		Shells  []Shell       `yaml:"shells,omitempty"`
	}

	// Shell is one way of launching the delegate. Command holds the
	// interpreter and any arguments placed before the delegate path.
	Shell struct {
		Name    string   `yaml:"name,omitempty"`
		Command []string `yaml:"command,omitempty"`
	}

	Defaults struct {
		Target string `yaml:"target,omitempty"`
		Ports  string `yaml:"ports,omitempty"`
	}
)

func DefaultConfig() Config {
	return Config{
		Scanner: Scanner{
			Binary:       "nmap",
			VersionFlag:  "--version",
			CheckTimeout: 5 * time.Second,
		},
		Delegate: Delegate{
			Script:  "advanced_port_scan.sh",
			Timeout: 5 * time.Minute,
		},
		Defaults: Defaults{
			Target: "127.0.0.1",
			Ports:  "1-1024",
		},
		TempOutput:     "scan_temp_output.txt",
		ReportDir:      ".",
		StatusDatabase: "status.db",
		LogLevel:       "info",
	}
}

func (c Config) Validate() error {
	switch {
	case c.Scanner.Binary == "":
		return errors.New("scanner.binary must be set")
	case strings.TrimSpace(c.Scanner.VersionFlag) == "":
		return errors.New("scanner.versionFlag must be set")
	case c.Scanner.CheckTimeout <= 0:
		return errors.New("scanner.checkTimeout must be positive")
	case c.Delegate.Script == "":
		return errors.New("delegate.script must be set")
	case c.Delegate.Timeout <= 0:
		return errors.New("delegate.timeout must be positive")
	case c.TempOutput == "":
		return errors.New("tempOutput must be set")
	case c.Defaults.Target == "" || c.Defaults.Ports == "":
		return errors.New("defaults.target and defaults.ports must be set")
	}
	for i, s := range c.Delegate.Shells {
		if len(s.Command) == 0 || s.Command[0] == "" {
			return errors.Errorf("delegate.shells[%d] (%s) has no command", i, s.Name)
		}
	}
	return nil
}

// DelegateHint is the remediation shown when the delegate script is missing.
func (c Config) DelegateHint() string {
	return "place " + filepath.Base(c.Delegate.Script) + " next to the portreport binary or set delegate.script"
}

// DelegatePath resolves the delegate script. Relative paths are tried
// against the working directory first and then next to the executable.
// When neither exists the working directory candidate is returned.
func (c Config) DelegatePath() string {
	script := c.Delegate.Script
	if filepath.IsAbs(script) {
		return script
	}
	local, err := filepath.Abs(script)
	if err != nil {
		local = script
	}
	if _, err := os.Stat(local); err == nil {
		return local
	}
	exe, err := os.Executable()
	if err != nil {
		return local
	}
	beside := filepath.Join(filepath.Dir(exe), script)
	if _, err := os.Stat(beside); err == nil {
		return beside
	}
	return local
}

// ReportDirectory returns the directory reports are written to.
func (c Config) ReportDirectory() string {
	if c.ReportDir == "" {
		return "."
	}
	return c.ReportDir
}
