package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kosmosec/portreport/internal/api"
	"github.com/kosmosec/portreport/internal/preflight"
)

func NewCheck() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the scanner and the delegate script are available",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			err = preflight.Check(cmd.Context(), cfg, cmd.OutOrStdout())
			if err != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "[-] Error: %s\n", err)
				if hint := api.HintOf(err); hint != "" {
					fmt.Fprintf(out, "    hint: %s\n", hint)
				}
				return api.Reported(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "[+] All requirements satisfied")
			return nil
		},
	}
}
