package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartLine struct {
	VariantID string          `json:"variant_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	AddedAt   time.Time       `json:"added_at"`
}

// LineTotal is the line's unit price times its quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds at most one line per variant and never a line with a
// quantity below 1.
type Cart struct {
	Owner        OwnerKey   `json:"owner"`
	Items        []CartLine `json:"items"`
	DiscountCode string     `json:"discount_code,omitempty"`
	Version      int64      `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

func NewCart(owner OwnerKey, now time.Time) *Cart {
	return &Cart{
		Owner:     owner,
		Items:     []CartLine{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Cart) IsNew() bool {
	return c.Version == 0
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) indexOf(variantID string) int {
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			return i
		}
	}

	return -1
}

func (c *Cart) Line(variantID string) (CartLine, bool) {
	if i := c.indexOf(variantID); i >= 0 {
		return c.Items[i], true
	}

	return CartLine{}, false
}

// Quantity returns the current quantity of the variant, 0 when absent.
func (c *Cart) Quantity(variantID string) int {
	line, _ := c.Line(variantID)

	return line.Quantity
}

// AddLine sums into an existing line or appends a new one. The unit price of
// the most recent add wins.
func (c *Cart) AddLine(variantID string, quantity int, unitPrice decimal.Decimal, now time.Time) {
	if i := c.indexOf(variantID); i >= 0 {
		c.Items[i].Quantity += quantity
		c.Items[i].UnitPrice = unitPrice
		c.Items[i].AddedAt = now

		return
	}

	c.Items = append(c.Items, CartLine{
		VariantID: variantID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		AddedAt:   now,
	})
}

// SetQuantity replaces the quantity of an existing line. A quantity below 1
// removes the line. Reports false when the variant is not in the cart.
func (c *Cart) SetQuantity(variantID string, quantity int) bool {
	i := c.indexOf(variantID)
	if i < 0 {
		return false
	}

	if quantity <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)

		return true
	}

	c.Items[i].Quantity = quantity

	return true
}

// RemoveLine reports whether a line was removed.
func (c *Cart) RemoveLine(variantID string) bool {
	i := c.indexOf(variantID)
	if i < 0 {
		return false
	}

	c.Items = append(c.Items[:i], c.Items[i+1:]...)

	return true
}

func (c *Cart) Clear() {
	c.Items = []CartLine{}
	c.DiscountCode = ""
}

func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}

	return count
}

// Clone returns a deep copy; callers mutate clones so a failed operation
// leaves the original untouched.
func (c *Cart) Clone() *Cart {
	clone := *c

	clone.Items = make([]CartLine, len(c.Items))
	copy(clone.Items, c.Items)

	if c.ExpiresAt != nil {
		expires := *c.ExpiresAt
		clone.ExpiresAt = &expires
	}

	return &clone
}

// MergeLines unions two line sets by variant. Quantities are summed and the
// unit price comes from whichever line was added most recently.
func MergeLines(into, from []CartLine) []CartLine {
	merged := make([]CartLine, 0, len(into)+len(from))
	index := make(map[string]int, len(into)+len(from))

	for _, lines := range [][]CartLine{into, from} {
		for _, line := range lines {
			i, ok := index[line.VariantID]
			if !ok {
				index[line.VariantID] = len(merged)
				merged = append(merged, line)

				continue
			}

			existing := &merged[i]
			existing.Quantity += line.Quantity

			if line.AddedAt.After(existing.AddedAt) {
				existing.UnitPrice = line.UnitPrice
				existing.AddedAt = line.AddedAt
			}
		}
	}

	return merged
}

type CartView struct {
	Cart      *Cart          `json:"cart"`
	ItemCount int            `json:"item_count"`
	Pricing   PriceBreakdown `json:"pricing"`
}

// MaxRequestQuantity bounds the quantity of a single add or set call.
const MaxRequestQuantity = 10_000

type AddItemRequest struct {
	VariantID string `json:"variant_id" validate:"required,max=64"`
	Quantity  int    `json:"quantity" validate:"lte=10000"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"lte=10000"`
}

type ApplyDiscountRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}
