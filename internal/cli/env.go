package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/forPelevin/hookscan/internal/config"
	"github.com/forPelevin/hookscan/internal/logger"
	"github.com/forPelevin/hookscan/internal/store"
	"github.com/forPelevin/hookscan/internal/store/postgres"
	"github.com/forPelevin/hookscan/internal/store/sqlite"
)

// env is what every subcommand needs: validated config and a logger.
type env struct {
	cfg    *config.Config
	log    *logrus.Logger
	closer io.Closer
}

func loadEnv(cmd *cobra.Command, logOut io.Writer) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log, closer, err := logger.NewWithOutput(cfg.Log, logOut)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return &env{cfg: cfg, log: log, closer: closer}, nil
}

func (e *env) Close() {
	_ = e.closer.Close()
}

// openStore returns nil when persistence is disabled.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
