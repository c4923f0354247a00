package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

type DiscountCode struct {
	Code        string          `json:"code"`
	Kind        DiscountKind    `json:"kind"`
	Value       decimal.Decimal `json:"value"`
	Active      bool            `json:"active"`
	StartsAt    time.Time       `json:"starts_at"`
	EndsAt      *time.Time      `json:"ends_at,omitempty"`
	MinSubtotal decimal.Decimal `json:"min_subtotal"`
	UsageLimit  int             `json:"usage_limit"`
	UsedCount   int             `json:"used_count"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NormalizeDiscountCode is applied to every code before lookup or storage.
func NormalizeDiscountCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (d *DiscountCode) InWindow(at time.Time) bool {
	if at.Before(d.StartsAt) {
		return false
	}

	return d.EndsAt == nil || at.Before(*d.EndsAt)
}

func (d *DiscountCode) Exhausted() bool {
	return d.UsageLimit > 0 && d.UsedCount >= d.UsageLimit
}

// AmountFor returns the discount for the given base, never more than base.
func (d *DiscountCode) AmountFor(base decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal

	switch d.Kind {
	case DiscountPercentage:
		amount = base.Mul(d.Value).Div(decimal.NewFromInt(100)).Round(2)
	case DiscountFixed:
		amount = d.Value
	}

	if amount.GreaterThan(base) {
		amount = base
	}

	if amount.IsNegative() {
		return decimal.Zero
	}

	return amount
}

type DiscountQuote struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

type CreateDiscountRequest struct {
	Code        string          `json:"code" validate:"required,max=64"`
	Kind        DiscountKind    `json:"kind" validate:"required,oneof=percentage fixed"`
	Value       decimal.Decimal `json:"value"`
	StartsAt    time.Time       `json:"starts_at"`
	EndsAt      *time.Time      `json:"ends_at,omitempty"`
	MinSubtotal decimal.Decimal `json:"min_subtotal"`
	UsageLimit  int             `json:"usage_limit" validate:"gte=0"`
}
