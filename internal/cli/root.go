// Package cli implements cartctl, the operator tool for the storefront:
// schema migrations, fulfillment transitions, sweeps and catalog seeding.
package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/aaravmahajanofficial/storefront/internal/app"
	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cartctl",
		Short: "Operate the storefront cart and order engine",
		Long:  "cartctl runs schema migrations, drives order fulfillment and maintains the variant catalog and discount codes.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to the config file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewOrdersCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewDiscountsCommand(opts))
	cmd.AddCommand(NewVariantsCommand(opts))

	return cmd
}

func (o *RootOptions) loadConfig() (*config.Config, error) {
	if o.ConfigPath == "" {
		return nil, fmt.Errorf("config path is not set: pass --config or CONFIG_PATH")
	}

	return config.LoadConfigFromPath(o.ConfigPath)
}

func (o *RootOptions) openApp() (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	return app.New(cfg)
}
