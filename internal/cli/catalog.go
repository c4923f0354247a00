package cli

import (
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type variantOptions struct {
	*RootOptions
	ID     string
	SKU    string
	Name   string
	Price  string
	Stock  int
	Active bool
}

func NewVariantsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "variants",
		Short: "Maintain the variant catalog",
	}

	opts := &variantOptions{RootOptions: rootOpts}

	upsert := &cobra.Command{
		Use:   "upsert",
		Short: "Create or replace a variant and its stock level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpsertVariant(cmd, opts)
		},
	}
	upsert.Flags().StringVar(&opts.ID, "id", "", "variant id (required)")
	_ = upsert.MarkFlagRequired("id")
	upsert.Flags().StringVar(&opts.SKU, "sku", "", "stock keeping unit")
	upsert.Flags().StringVar(&opts.Name, "name", "", "display name")
	upsert.Flags().StringVar(&opts.Price, "price", "", "unit price, e.g. 19.99 (required)")
	_ = upsert.MarkFlagRequired("price")
	upsert.Flags().IntVar(&opts.Stock, "stock", 0, "units on hand")
	upsert.Flags().BoolVar(&opts.Active, "active", true, "whether the variant can be sold")

	cmd.AddCommand(upsert)

	return cmd
}

func runUpsertVariant(cmd *cobra.Command, opts *variantOptions) error {
	price, err := decimal.NewFromString(opts.Price)
	if err != nil || price.IsNegative() {
		return fmt.Errorf("invalid price %q", opts.Price)
	}

	if opts.Stock < 0 {
		return fmt.Errorf("stock must not be negative")
	}

	a, err := opts.openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	variant := &models.Variant{
		ID:            opts.ID,
		SKU:           opts.SKU,
		Name:          opts.Name,
		Price:         price,
		StockQuantity: opts.Stock,
		Active:        opts.Active,
		UpdatedAt:     time.Now().UTC(),
	}

	if err := a.Catalog.UpsertVariant(cmd.Context(), variant); err != nil {
		return err
	}

	return printResult(cmd, opts.RootOptions, variant, "variant %s: %s x%d", variant.ID, variant.Price.StringFixed(2), variant.StockQuantity)
}

type discountOptions struct {
	*RootOptions
	Code        string
	Kind        string
	Value       string
	MinSubtotal string
	UsageLimit  int
	Starts      string
	Ends        string
}

func NewDiscountsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discounts",
		Short: "Manage discount codes",
	}

	opts := &discountOptions{RootOptions: rootOpts}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a discount code",
		Long: `Create a percentage or fixed discount code.

Examples:
  cartctl discounts create --code SPRING --kind percentage --value 15
  cartctl discounts create --code TENOFF --kind fixed --value 10 --min-subtotal 50 --ends 2026-12-31T23:59:59Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateDiscount(cmd, opts)
		},
	}
	create.Flags().StringVar(&opts.Code, "code", "", "code shoppers type (required)")
	_ = create.MarkFlagRequired("code")
	create.Flags().StringVar(&opts.Kind, "kind", string(models.DiscountPercentage), "percentage or fixed")
	create.Flags().StringVar(&opts.Value, "value", "", "percent or amount (required)")
	_ = create.MarkFlagRequired("value")
	create.Flags().StringVar(&opts.MinSubtotal, "min-subtotal", "0", "minimum cart subtotal")
	create.Flags().IntVar(&opts.UsageLimit, "usage-limit", 0, "maximum redemptions, 0 for unlimited")
	create.Flags().StringVar(&opts.Starts, "starts", "", "RFC3339 start of the validity window (default now)")
	create.Flags().StringVar(&opts.Ends, "ends", "", "RFC3339 end of the validity window")

	cmd.AddCommand(create)

	return cmd
}

func runCreateDiscount(cmd *cobra.Command, opts *discountOptions) error {
	value, err := decimal.NewFromString(opts.Value)
	if err != nil {
		return fmt.Errorf("invalid value %q", opts.Value)
	}

	minSubtotal, err := decimal.NewFromString(opts.MinSubtotal)
	if err != nil {
		return fmt.Errorf("invalid min-subtotal %q", opts.MinSubtotal)
	}

	req := &models.CreateDiscountRequest{
		Code:        opts.Code,
		Kind:        models.DiscountKind(opts.Kind),
		Value:       value,
		MinSubtotal: minSubtotal,
		UsageLimit:  opts.UsageLimit,
	}

	if opts.Starts != "" {
		if req.StartsAt, err = time.Parse(time.RFC3339, opts.Starts); err != nil {
			return fmt.Errorf("invalid starts: %w", err)
		}
	}

	if opts.Ends != "" {
		ends, err := time.Parse(time.RFC3339, opts.Ends)
		if err != nil {
			return fmt.Errorf("invalid ends: %w", err)
		}
		req.EndsAt = &ends
	}

	a, err := opts.openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	discount, err := a.Ledger.CreateDiscount(cmd.Context(), req)
	if err != nil {
		return err
	}

	return printResult(cmd, opts.RootOptions, discount, "discount %s created (%s %s)", discount.Code, discount.Kind, discount.Value.String())
}
