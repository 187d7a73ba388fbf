package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/investment-optimizer/internal/ingest"
	"github.com/iwvelando/investment-optimizer/internal/investments"
	"github.com/iwvelando/investment-optimizer/internal/metrics"
	"github.com/iwvelando/investment-optimizer/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveAddress string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the investments HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "listen address override (e.g. :8080)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = results.Close()
	}()

	m := metrics.New()
	svc, err := investments.NewService(investments.Options{
		Store:               results,
		Logger:              logger,
		Metrics:             m,
		Limits:              a.conf.Limits,
		Ingest:              ingest.Options{Sheet: a.conf.Ingest.Sheet},
		MaxConcurrentSolves: a.conf.Server.MaxConcurrentSolves,
		SolveTimeout:        a.conf.Server.SolveTimeout,
	})
	if err != nil {
		return err
	}

	if a.conf.App.SecretKey == "" {
		logger.Warn("no app secret key configured, API authentication is disabled",
			zap.String("op", "main.serve"),
		)
	}

	address := a.conf.Server.Address
	if serveAddress != "" {
		address = serveAddress
	}

	srv := &http.Server{
		Addr: address,
		Handler: server.NewHandler(server.Options{
			Service:       svc,
			Logger:        logger,
			Metrics:       m,
			SecretKey:     a.conf.App.SecretKey,
			APIPrefix:     a.conf.App.APIPrefix(),
			MaxUploadSize: a.conf.Server.UploadSizeBytes(),
			Version:       version,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server",
			zap.String("op", "main.serve"),
			zap.String("address", address),
			zap.String("apiPrefix", a.conf.App.APIPrefix()),
			zap.String("driver", a.conf.Database.Driver),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server", zap.String("op", "main.serve"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
