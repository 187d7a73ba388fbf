package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/iwvelando/investment-optimizer/internal/report"
	"github.com/iwvelando/investment-optimizer/internal/store"
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect stored optimization results",
}

var resultsLastCmd = &cobra.Command{
	Use:   "last",
	Short: "Show the most recently stored result",
	Args:  cobra.NoArgs,
	RunE: withStore(func(cmd *cobra.Command, a *app, s store.Store, _ []string) error {
		record, err := s.Last(cmd.Context())
		if err != nil {
			return err
		}
		return report.WriteRecords(cmd.OutOrStdout(), a.outputFormat, []store.Record{*record})
	}),
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored results, oldest first",
	Args:  cobra.NoArgs,
	RunE: withStore(func(cmd *cobra.Command, a *app, s store.Store, _ []string) error {
		records, err := s.List(cmd.Context())
		if err != nil {
			return err
		}
		return report.WriteRecords(cmd.OutOrStdout(), a.outputFormat, records)
	}),
}

var resultsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one stored result",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(cmd *cobra.Command, a *app, s store.Store, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid result id %q: %w", args[0], err)
		}
		record, err := s.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		return report.WriteRecords(cmd.OutOrStdout(), a.outputFormat, []store.Record{*record})
	}),
}

var resultsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one stored result",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(cmd *cobra.Command, _ *app, s store.Store, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid result id %q: %w", args[0], err)
		}
		if err := s.Delete(cmd.Context(), id); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
		return err
	}),
}

func init() {
	resultsCmd.AddCommand(resultsLastCmd, resultsListCmd, resultsGetCmd, resultsDeleteCmd)
}

type storeCommand func(cmd *cobra.Command, a *app, s store.Store, args []string) error

// withStore prepares configuration, logging and the database for fn.
func withStore(fn storeCommand) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		s, err := a.openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			_ = s.Close()
		}()

		return fn(cmd, a, s, args)
	}
}
