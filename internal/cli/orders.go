package cli

import (
	"fmt"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type advanceOptions struct {
	*RootOptions
	Reason string
}

func NewOrdersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Drive order fulfillment",
	}

	opts := &advanceOptions{RootOptions: rootOpts}

	advance := &cobra.Command{
		Use:   "advance <order-id> <processing|shipping|delivered>",
		Short: "Move a confirmed order along the fulfillment path",
		Long: `Move an order to the next fulfillment status.

Examples:
  cartctl orders advance 3f1c... processing
  cartctl orders advance 3f1c... shipping --reason "handed to carrier"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdvance(cmd, opts, args[0], models.OrderStatus(args[1]))
		},
	}
	advance.Flags().StringVar(&opts.Reason, "reason", "", "note stored in the status history")

	cmd.AddCommand(advance)

	return cmd
}

func runAdvance(cmd *cobra.Command, opts *advanceOptions, rawID string, to models.OrderStatus) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid order id %q: %w", rawID, err)
	}

	a, err := opts.openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	order, err := a.Orders.Advance(cmd.Context(), id, to, opts.Reason)
	if err != nil {
		return err
	}

	return printResult(cmd, opts.RootOptions, order, "order %s is now %s", order.ID, order.Status)
}
