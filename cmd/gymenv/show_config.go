package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/config"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/env/registry"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(config.Get()); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "envs",
		Short: "List the registered environment ids",
		Run: func(cmd *cobra.Command, args []string) {
			for _, id := range registry.Default.IDs() {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
		},
	})
	return cmd
}
