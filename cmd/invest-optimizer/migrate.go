package main

import (
	"github.com/iwvelando/investment-optimizer/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the results table in the configured database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		s, err := store.Open(cmd.Context(), a.conf.Database, a.logger)
		if err != nil {
			return err
		}
		defer func() {
			_ = s.Close()
		}()

		if err := s.Migrate(cmd.Context()); err != nil {
			return err
		}
		a.logger.Info("migration complete",
			zap.String("op", "main.migrate"),
			zap.String("driver", a.conf.Database.Driver),
		)
		return nil
	},
}
