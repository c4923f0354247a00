package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCreditCard     PaymentMethod = "credit_card"
	PaymentMethodPayPal         PaymentMethod = "paypal"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

type Address struct {
	RecipientName string `json:"recipient_name,omitempty" validate:"omitempty,max=120"`
	Phone         string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Street        string `json:"street" validate:"required,max=200"`
	City          string `json:"city" validate:"required,max=100"`
	State         string `json:"state" validate:"required,max=100"`
	PostalCode    string `json:"postal_code" validate:"required,max=20"`
	Country       string `json:"country" validate:"required,iso3166_1_alpha2"`
}

type OrderLine struct {
	VariantID string          `json:"variant_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type StatusChange struct {
	Status    OrderStatus `json:"status"`
	Reason    string      `json:"reason,omitempty"`
	ChangedAt time.Time   `json:"changed_at"`
}

// Order is immutable apart from Status, History and UpdatedAt. Lines and
// Pricing are frozen at checkout.
type Order struct {
	ID                    uuid.UUID      `json:"id"`
	OrderNumber           string         `json:"order_number"`
	OwnerUserID           string         `json:"owner_user_id"`
	Lines                 []OrderLine    `json:"lines"`
	Pricing               PriceBreakdown `json:"pricing"`
	ShippingAddress       Address        `json:"shipping_address"`
	PaymentMethod         PaymentMethod  `json:"payment_method"`
	Status                OrderStatus    `json:"status"`
	History               []StatusChange `json:"history"`
	DiscountCode          string         `json:"discount_code,omitempty"`
	LoyaltyPointsRedeemed int64          `json:"loyalty_points_redeemed"`
	LoyaltyPointsEarned   int64          `json:"loyalty_points_earned"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// NewOrderNumber renders ORD-YYYYMMDD-XXXXXXXX using the first eight hex
// digits of the order id.
func NewOrderNumber(id uuid.UUID, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])

	return fmt.Sprintf("ORD-%s-%s", at.UTC().Format("20060102"), suffix)
}

// OrderLinesFromCart freezes the cart lines into order lines.
func OrderLinesFromCart(lines []CartLine) []OrderLine {
	out := make([]OrderLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, OrderLine{
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.LineTotal(),
		})
	}

	return out
}

func (o *Order) IsGuest() bool {
	return strings.HasPrefix(o.OwnerUserID, guestOwnerPrefix)
}

// OwnedBy reports whether the order was placed by the given owner.
func (o *Order) OwnedBy(owner OwnerKey) bool {
	return o.OwnerUserID == owner.OrderOwnerID()
}

// Owner recovers the cart owner the order was placed by.
func (o *Order) Owner() OwnerKey {
	if sessionID, ok := strings.CutPrefix(o.OwnerUserID, guestOwnerPrefix); ok {
		return SessionOwner(sessionID)
	}

	return UserOwner(o.OwnerUserID)
}

type OrderTracking struct {
	OrderID     uuid.UUID      `json:"order_id"`
	OrderNumber string         `json:"order_number"`
	Status      OrderStatus    `json:"status"`
	History     []StatusChange `json:"history"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (o *Order) Tracking() *OrderTracking {
	history := make([]StatusChange, len(o.History))
	copy(history, o.History)

	return &OrderTracking{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		History:     history,
		UpdatedAt:   o.UpdatedAt,
	}
}

type CheckoutRequest struct {
	ShippingAddress       Address       `json:"shipping_address" validate:"required"`
	PaymentMethod         PaymentMethod `json:"payment_method" validate:"required,oneof=credit_card paypal bank_transfer cash_on_delivery"`
	LoyaltyPointsToRedeem int64         `json:"loyalty_points_to_redeem"`
	DiscountCode          string        `json:"discount_code,omitempty" validate:"omitempty,max=64"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type AdvanceOrderRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=processing shipping delivered"`
	Reason string      `json:"reason" validate:"max=500"`
}
