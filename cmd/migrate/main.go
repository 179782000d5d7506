// Command migrate manages the registry schema with the migrations embedded in
// the binary. It shares the connection settings of the registry command.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Skryldev/employee-registry/config"
	"github.com/Skryldev/employee-registry/migrations"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply or roll back the registry schema",
		SilenceUsage: true,
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, m *migrations.Migrator, _ []string) error {
				if err := m.Up(); err != nil {
					return err
				}
				slog.Info("migrations: up completed")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down [N]",
			Short: "Roll back N migrations (default 1)",
			Args:  cobra.MaximumNArgs(1),
			RunE: withMigrator(func(cmd *cobra.Command, m *migrations.Migrator, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n < 1 {
						return fmt.Errorf("down: invalid steps argument %q", args[0])
					}
					steps = n
				}
				if err := m.Down(steps); err != nil {
					return err
				}
				slog.Info("migrations: down completed", "steps", steps)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, m *migrations.Migrator, _ []string) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version: %d  dirty: %v\n", v, dirty)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "force V",
			Short: "Set the schema version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(cmd *cobra.Command, m *migrations.Migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("force: invalid version %q", args[0])
				}
				if err := m.Force(v); err != nil {
					return err
				}
				slog.Info("migrations: forced", "version", v)
				return nil
			}),
		},
		newDropCmd(),
	)
	return root
}

func newDropCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop every table (development only)",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m *migrations.Migrator, _ []string) error {
			if !yes && !confirmDrop() {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}
			if err := m.Drop(); err != nil {
				return err
			}
			slog.Info("migrations: all tables dropped")
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func confirmDrop() bool {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Fprintln(os.Stderr, "WARNING: drop will destroy all tables.")
	answer, err := line.Prompt("Type 'yes' to confirm: ")
	if err != nil {
		return false
	}
	return strings.TrimSpace(answer) == "yes"
}

// withMigrator resolves the configuration, opens a Migrator for the duration
// of fn and closes it afterwards.
func withMigrator(fn func(*cobra.Command, *migrations.Migrator, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.New(), cmd.Flags())
		if err != nil {
			return err
		}
		logger, closer, err := cfg.NewLogger()
		if err != nil {
			return err
		}
		defer closer.Close()
		slog.SetDefault(logger)

		url, err := cfg.MigrateURL()
		if err != nil {
			return err
		}
		m, err := migrations.New(cfg.Driver, url, logger)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := m.Close(); cerr != nil {
				logger.Warn("migrations: close", "error", cerr)
			}
		}()
		return fn(cmd, m, args)
	}
}
