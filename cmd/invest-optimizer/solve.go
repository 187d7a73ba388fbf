package main

import (
	"fmt"
	"path/filepath"

	"github.com/iwvelando/investment-optimizer/internal/ingest"
	"github.com/iwvelando/investment-optimizer/internal/investments"
	"github.com/iwvelando/investment-optimizer/internal/report"
	"github.com/iwvelando/investment-optimizer/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var saveResults bool

var solveCmd = &cobra.Command{
	Use:   "solve <file>...",
	Short: "Optimize one or more spreadsheets (.xlsx or .csv)",
	Long: `Reads each file as a table whose first column is the budget ladder and
whose remaining columns are enterprise profits, then prints the optimal
allocation. Files are solved concurrently.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().BoolVar(&saveResults, "save", false, "store results in the configured database")
}

func runSolve(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()

	// Without --save the service runs solve-only.
	var results store.Store
	if saveResults {
		db, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		defer func() {
			_ = db.Close()
		}()
		results = db
	}

	ingestOptions := ingest.Options{Sheet: a.conf.Ingest.Sheet}
	svc, err := investments.NewService(investments.Options{
		Store:               results,
		Logger:              a.logger,
		Limits:              a.conf.Limits,
		Ingest:              ingestOptions,
		MaxConcurrentSolves: a.conf.Server.MaxConcurrentSolves,
		SolveTimeout:        a.conf.Server.SolveTimeout,
	})
	if err != nil {
		return err
	}

	solved := make([]report.Named, len(args))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range args {
		g.Go(func() error {
			table, err := ingest.Load(path, ingestOptions)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			result, err := svc.Solve(gctx, table)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if saveResults {
				record, err := svc.Save(gctx, filepath.Base(path), result)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				a.logger.Info("stored result",
					zap.String("op", "main.solve"),
					zap.String("file", path),
					zap.String("id", record.ID.String()),
				)
			}
			solved[i] = report.Named{Source: path, Result: *result}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return report.Write(cmd.OutOrStdout(), a.outputFormat, solved)
}
