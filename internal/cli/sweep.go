package cli

import (
	"github.com/spf13/cobra"
)

func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired session carts and cancel stale pending orders once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Janitor.Sweep(cmd.Context())
			if err != nil {
				return err
			}

			return printResult(cmd, rootOpts, result, "expired carts: %d, expired orders: %d", result.ExpiredCarts, result.ExpiredOrders)
		},
	}
}
