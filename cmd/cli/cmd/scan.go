package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v2"

	"github.com/kosmosec/portreport/internal/api"
	"github.com/kosmosec/portreport/internal/model"
	"github.com/kosmosec/portreport/internal/scanner"
	"github.com/kosmosec/portreport/internal/sns"
	"github.com/kosmosec/portreport/internal/status"
)

func NewScan() *cobra.Command {

	newScan := cobra.Command{
		Use:   "scan",
		Short: "Scan a target and write a report",
		Long: "Checks requirements, asks for the target and port range unless given as flags, " +
			"runs the delegate scan script and writes port_scan_report_<target>_<timestamp>.txt",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			req := model.ScanRequest{Target: target, Ports: ports}

			bus := sns.New()
			bus.CreateTopic(scanner.Topic)
			defer bus.CloseTopic(scanner.Topic)
			if cfg.StatusDatabase != "" {
				recorder, err := status.Open(cfg.StatusDatabase)
				if err != nil {
					log.Warn().Err(err).Msg("run history disabled")
					fmt.Fprintf(cmd.ErrOrStderr(), "[!] warning: run history disabled: %s\n", err)
				} else {
					defer recorder.Close()
					bus.AddConsumer(scanner.Topic, "status", recorder.Handle)
				}
			}

			log.Debug().Strs("consumers", bus.Consumers(scanner.Topic)).Msg("pipeline subscribers")

			_, err = scanner.Scan(cmd.Context(), cfg, scanner.Env{
				Stdin:   promptInput(cmd.OutOrStdout(), cmd.InOrStdin(), req, term.IsTerminal(int(os.Stdin.Fd()))),
				Stdout:  cmd.OutOrStdout(),
				Stderr:  cmd.ErrOrStderr(),
				Request: req,
				Bus:     bus,
			})
			return err
		},
	}

	return &newScan
}

// promptInput returns in when there is something left to ask and a user at a
// terminal to answer. Otherwise blank fields take their defaults, and out is
// told so when any field was left blank.
func promptInput(out io.Writer, in io.Reader, req model.ScanRequest, interactive bool) io.Reader {
	if req.Target != "" && req.Ports != "" {
		return nil
	}
	if !interactive {
		fmt.Fprintln(out, "[!] stdin is not a terminal, not prompting: blank target or ports use the configured defaults")
		return nil
	}
	return in
}

func loadConfig(cmd *cobra.Command) (api.Config, error) {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return api.Config{}, err
	}
	cfg, err := applyConfig(cfgPath)
	if err != nil {
		return api.Config{}, err
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(level)
	}
	return cfg, nil
}

// applyConfig reads cfgPath over the defaults. Without a path it looks for
// ./config.yml, then the user config directory, and falls back to defaults.
func applyConfig(cfgPath string) (api.Config, error) {
	cfg := api.DefaultConfig()
	if cfgPath == "" {
		cfgPath = findConfig()
		if cfgPath == "" {
			return cfg, nil
		}
	}

	rawCfg, err := os.ReadFile(cfgPath)
	if err != nil {
		return api.Config{}, err
	}
	err = yaml.Unmarshal(rawCfg, &cfg)
	if err != nil {
		return api.Config{}, errors.Wrapf(err, "parse %s", cfgPath)
	}
	log.Debug().Str("path", cfgPath).Msg("config loaded")
	return cfg, nil
}

func findConfig() string {
	if _, err := os.Stat(api.DefaultConfigName); err == nil {
		return api.DefaultConfigName
	}
	global, err := xdg.SearchConfigFile(filepath.Join(api.AppName, api.DefaultConfigName))
	if err == nil {
		return global
	}
	return ""
}
