package main

import (
	"github.com/spf13/cobra"

	"github.com/xraph/bookkeeper/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the store schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(config.Options{File: configFile, EnvFiles: envFiles})
		if err != nil {
			return err
		}
		s, err := openStore(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Migrate(cmd.Context()); err != nil {
			return err
		}
		cmd.Printf("migrated %s store\n", cfg.Store.Driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
