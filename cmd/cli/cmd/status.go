package cmd

import (
	"github.com/kosmosec/portreport/internal/status"
	"github.com/spf13/cobra"
)

func NewStatus() *cobra.Command {

	newStatus := cobra.Command{
		Use:   "status",
		Short: "Show recorded scan runs",
		Long:  "",
		RunE: func(cmd *cobra.Command, args []string) error {
			targetFilter, err := cmd.Flags().GetString("target")
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return status.Status(cmd.Context(), cmd.OutOrStdout(), cfg.StatusDatabase, targetFilter)
		},
	}

	return &newStatus
}
