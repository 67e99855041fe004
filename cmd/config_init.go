package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current configuration to config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat("config.yaml"); err == nil && !configForce {
			return eris.New("config.yaml already exists (use --force to overwrite)")
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return eris.Wrap(err, "config: marshal")
		}
		if err := os.WriteFile("config.yaml", data, 0o644); err != nil {
			return eris.Wrap(err, "config: write file")
		}

		fmt.Fprintln(cmd.OutOrStdout(), "wrote config.yaml")
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config.yaml")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
