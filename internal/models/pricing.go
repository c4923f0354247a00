package models

import "github.com/shopspring/decimal"

// PriceBreakdown is always derived from a set of lines; it is only persisted
// as the frozen copy inside an Order.
type PriceBreakdown struct {
	Currency              string          `json:"currency"`
	ItemCount             int             `json:"item_count"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	Shipping              decimal.Decimal `json:"shipping"`
	Tax                   decimal.Decimal `json:"tax"`
	DiscountCode          string          `json:"discount_code,omitempty"`
	DiscountAmount        decimal.Decimal `json:"discount_amount"`
	LoyaltyPointsRedeemed int64           `json:"loyalty_points_redeemed"`
	LoyaltyRedemption     decimal.Decimal `json:"loyalty_redemption_amount"`
	Total                 decimal.Decimal `json:"total"`
}

// GrossTotal is the total before any discount or loyalty redemption.
func (p PriceBreakdown) GrossTotal() decimal.Decimal {
	return p.Subtotal.Add(p.Shipping).Add(p.Tax)
}
