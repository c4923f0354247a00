// Package pricing derives every monetary figure the storefront shows or
// charges. Nothing else in the module holds tax or shipping constants.
package pricing

import (
	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/shopspring/decimal"
)

// Adjustments are the already-validated ledger inputs for a quote.
type Adjustments struct {
	Discount      *models.DiscountCode
	LoyaltyPoints int64
}

type Calculator struct {
	currency              string
	taxRate               decimal.Decimal
	freeShippingThreshold decimal.Decimal
	flatShippingFee       decimal.Decimal
	pointValue            decimal.Decimal
	earnRate              decimal.Decimal
}

func NewCalculator(p config.Pricing, l config.Loyalty) *Calculator {
	return &Calculator{
		currency:              p.Currency,
		taxRate:               decimal.NewFromFloat(p.TaxRate),
		freeShippingThreshold: decimal.NewFromFloat(p.FreeShippingThreshold),
		flatShippingFee:       decimal.NewFromFloat(p.FlatShippingFee),
		pointValue:            decimal.NewFromFloat(l.PointValue),
		earnRate:              decimal.NewFromFloat(l.EarnRate),
	}
}

// Gross computes subtotal, shipping and tax with no discount or redemption.
func (c *Calculator) Gross(lines []models.CartLine) models.PriceBreakdown {
	breakdown := models.PriceBreakdown{
		Currency:          c.currency,
		Subtotal:          decimal.Zero,
		Shipping:          decimal.Zero,
		Tax:               decimal.Zero,
		DiscountAmount:    decimal.Zero,
		LoyaltyRedemption: decimal.Zero,
		Total:             decimal.Zero,
	}

	if len(lines) == 0 {
		return breakdown
	}

	for _, line := range lines {
		breakdown.Subtotal = breakdown.Subtotal.Add(line.LineTotal())
		breakdown.ItemCount += line.Quantity
	}

	if !breakdown.Subtotal.GreaterThan(c.freeShippingThreshold) {
		breakdown.Shipping = c.flatShippingFee
	}

	breakdown.Tax = breakdown.Subtotal.Mul(c.taxRate).Round(2)
	breakdown.Total = breakdown.GrossTotal()

	return breakdown
}

// Quote applies the adjustments on top of Gross. The discount is clamped to
// the gross total and the redemption to what remains after it, so Total is
// never negative.
func (c *Calculator) Quote(lines []models.CartLine, adj Adjustments) models.PriceBreakdown {
	breakdown := c.Gross(lines)
	remaining := breakdown.Total

	if adj.Discount != nil {
		breakdown.DiscountCode = adj.Discount.Code
		breakdown.DiscountAmount = adj.Discount.AmountFor(remaining)
		remaining = remaining.Sub(breakdown.DiscountAmount)
	}

	if adj.LoyaltyPoints > 0 && remaining.IsPositive() {
		amount := c.PointsValue(adj.LoyaltyPoints)
		if amount.GreaterThan(remaining) {
			amount = remaining
		}

		breakdown.LoyaltyRedemption = amount
		breakdown.LoyaltyPointsRedeemed = c.pointsFor(amount, adj.LoyaltyPoints)
		remaining = remaining.Sub(amount)
	}

	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	breakdown.Total = remaining

	return breakdown
}

// PointsValue converts loyalty points to money.
func (c *Calculator) PointsValue(points int64) decimal.Decimal {
	return c.pointValue.Mul(decimal.NewFromInt(points))
}

// pointsFor is the number of points a clamped redemption actually consumes.
func (c *Calculator) pointsFor(amount decimal.Decimal, requested int64) int64 {
	needed := amount.Div(c.pointValue).Ceil().IntPart()
	if needed > requested {
		return requested
	}

	return needed
}

// EarnedPoints is floor(total * earn rate).
func (c *Calculator) EarnedPoints(total decimal.Decimal) int64 {
	if !total.IsPositive() {
		return 0
	}

	return total.Mul(c.earnRate).Floor().IntPart()
}

func (c *Calculator) Currency() string {
	return c.currency
}
