package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	target     string
	ports      string
)

func NewRoot() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "portreport",
		Short: "Port scan wrapper with timestamped reports",
		Long: "Runs an external scan script against a target and port range and " +
			"archives its output as a timestamped report",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			if err := cmd.Help(); err != nil {
				log.Error().Err(err).Msg("root cobra")
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVarP(&target, "target", "t", "", "target host, domain or network")
	rootCmd.PersistentFlags().StringVarP(&ports, "ports", "p", "", "port range, e.g. 1-1024 or 80,443")

	rootCmd.AddCommand(
		NewScan(),
		NewCheck(),
		NewConfig(),
		NewFind(),
		NewStatus(),
	)

	return rootCmd
}
