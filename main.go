// Command registry is the employee registration console: a form for adding
// employees and a table listing them, backed by a MySQL (or Postgres/SQLite)
// table named empleados.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Skryldev/employee-registry/config"
	"github.com/Skryldev/employee-registry/console"
	"github.com/Skryldev/employee-registry/db"
	"github.com/Skryldev/employee-registry/metrics"
	"github.com/Skryldev/employee-registry/migrations"
	"github.com/Skryldev/employee-registry/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Employee Registration System",
		Long: `Employee Registration System.

Settings are read from flags, then REGISTRY_* environment variables
(e.g. REGISTRY_DB_HOST=10.0.0.5), then an optional registry.yaml file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(viper.New(), cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, cfg)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, closer, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(logger)

	// ── Metrics ──────────────────────────────────────────────────────────
	var collector db.MetricsCollector
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		collector = metrics.NewCollector(reg)
		srv := metrics.StartServer(cfg.MetricsAddr, reg, logger)
		defer srv.Close()
	}

	// ── Schema ───────────────────────────────────────────────────────────
	if cfg.Migrate {
		if err := migrateUp(cfg, logger); err != nil {
			return err
		}
	}

	// ── Data access ──────────────────────────────────────────────────────
	dbCfg, err := cfg.DBConfig(logger, collector)
	if err != nil {
		return err
	}
	conn, err := db.NewConnector(dbCfg)
	if err != nil {
		return err
	}
	employees := store.New(conn, logger)

	// ── Console ──────────────────────────────────────────────────────────
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	term := console.NewTerminal(color.Output, line)
	app := console.NewApp(employees, term, logger)
	return console.NewShell(app, term, line, logger).Run(ctx)
}

func migrateUp(cfg *config.Config, logger *slog.Logger) error {
	url, err := cfg.MigrateURL()
	if err != nil {
		return err
	}
	m, err := migrations.New(cfg.Driver, url, logger)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil {
		return fmt.Errorf("migrations: up: %w", err)
	}
	v, _, _ := m.Version()
	logger.Info("schema up to date", "version", v)
	return nil
}
