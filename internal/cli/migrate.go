package cli

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/migrations"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/spf13/cobra"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(rootOpts, func(db *sql.DB) error {
				if err := migrations.Up(db); err != nil {
					return err
				}
				return printVersion(cmd, rootOpts, db)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default 1 step)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("steps must be a positive integer, got %q", args[0])
				}
				steps = n
			}

			return withDB(rootOpts, func(db *sql.DB) error {
				if err := migrations.Down(db, steps); err != nil {
					return err
				}
				return printVersion(cmd, rootOpts, db)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(rootOpts, func(db *sql.DB) error {
				return printVersion(cmd, rootOpts, db)
			})
		},
	})

	return cmd
}

func withDB(opts *RootOptions, fn func(db *sql.DB) error) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	if cfg.Storage.Driver != config.StorageDriverPostgres {
		return fmt.Errorf("migrations need the postgres storage driver, config uses %q", cfg.Storage.Driver)
	}

	db, err := repository.Open(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(db)
}

func printVersion(cmd *cobra.Command, opts *RootOptions, db *sql.DB) error {
	version, dirty, err := migrations.Version(db)
	if err != nil {
		return err
	}

	return printResult(cmd, opts, map[string]any{"version": version, "dirty": dirty}, "schema version %d (dirty=%t)", version, dirty)
}
