package cmd

import (
	"github.com/kosmosec/portreport/internal/finder"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewFind() *cobra.Command {

	newFind := cobra.Command{
		Use:   "find",
		Short: "List reports written for a target",
		Long:  "",
		RunE: func(cmd *cobra.Command, args []string) error {
			targetFilter, err := cmd.Flags().GetString("target")
			if err != nil {
				return err
			}
			if targetFilter == "" {
				return errors.New("find needs --target")
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return finder.Find(cmd.Context(), cmd.OutOrStdout(), cfg.ReportDirectory(), targetFilter)
		},
	}

	return &newFind
}
