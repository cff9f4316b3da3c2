package cmd

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kosmosec/portreport/internal/api"
)

//go:embed config.yml
var defaultCfg []byte

func NewConfig() *cobra.Command {
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create config",
		Long:  "Create the default config in the current directory and in the user config directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := createLocalConfig(api.DefaultConfigName, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[+] wrote %s\n", api.DefaultConfigName)

			global, err := createGlobalConfig()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[+] global config at %s\n", global)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing local config")
	return initCmd
}

func createLocalConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.Errorf("%s already exists, use --force to overwrite", path)
	}
	return os.WriteFile(path, defaultCfg, 0664)
}

// createGlobalConfig writes the default config to the user config directory
// unless one is already there.
func createGlobalConfig() (string, error) {
	pathToConfigFile, err := xdg.ConfigFile(filepath.Join(api.AppName, api.DefaultConfigName))
	if err != nil {
		return "", errors.Wrap(err, "resolve global config path")
	}
	if _, err := os.Stat(pathToConfigFile); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(pathToConfigFile, defaultCfg, 0664); err != nil {
			return "", err
		}
	}
	return pathToConfigFile, nil
}
