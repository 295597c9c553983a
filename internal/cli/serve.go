package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forPelevin/hookscan/internal/janitor"
	"github.com/forPelevin/hookscan/internal/pipeline"
	"github.com/forPelevin/hookscan/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cmd)
		},
	}
}

func serve(ctx context.Context, cmd *cobra.Command) error {
	e, err := loadEnv(cmd, os.Stdout)
	if err != nil {
		return err
	}
	defer e.Close()
	cfg, log := e.cfg, e.log

	if err := os.MkdirAll(cfg.Media.DownloadDir, 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if st != nil {
		defer st.Close()
	}
	log.WithField("driver", cfg.Store.Driver).Info("store ready")

	p, err := pipeline.New(ctx, cfg, log)
	if err != nil {
		return err
	}

	if cfg.Janitor.Enabled {
		j, err := janitor.New(cfg.Media.DownloadDir, cfg.Janitor.Schedule, cfg.Janitor.MaxAge, log)
		if err != nil {
			return err
		}
		j.Start()
		defer j.Stop()
	}

	srv := server.New(cfg.Server, p, st, log)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
