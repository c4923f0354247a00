package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Variant is the purchasable unit the catalog exposes. StockQuantity is the
// single inventory counter for the variant.
type Variant struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	Active        bool            `json:"active"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (v *Variant) Available(quantity int) bool {
	return v.Active && quantity <= v.StockQuantity
}
