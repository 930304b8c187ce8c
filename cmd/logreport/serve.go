package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coffersTech/logreport/internal/engine"
	"github.com/coffersTech/logreport/internal/jobs"
	"github.com/coffersTech/logreport/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP report service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = a.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

// serve runs until ctx is done, then drains HTTP requests and running jobs
// within the shutdown timeout.
func (a *app) serve(ctx context.Context) error {
	gen := a.newGenerator()
	store := jobs.NewStore(func(ctx context.Context, req jobs.Request) ([]engine.Report, error) {
		return gen.GenerateFiltered(ctx, req.Service, req.LogsPath, req.Query)
	}, jobs.Options{
		TTL:      a.cfg.Jobs.TTL,
		Capacity: a.cfg.Jobs.Capacity,
		Logger:   a.logger,
	})

	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	store.StartCleanupLoop(cleanupCtx, a.cfg.Jobs.CleanupInterval)

	srv := server.NewServer(gen, store, server.Options{
		ReadHeaderTimeout: a.cfg.Server.ReadHeaderTimeout,
		Logger:            a.logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(a.cfg.Server.Addr)
	}()
	a.logger.Info("logreport started", "addr", a.cfg.Server.Addr, "logs_root", a.cfg.LogsRoot, "version", version)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down", "timeout", a.cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown failed", "error", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		a.logger.Error("jobs did not stop in time", "error", err)
	}
	a.logger.Info("logreport exited gracefully")
	return nil
}
