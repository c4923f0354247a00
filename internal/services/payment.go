package service

import (
	"context"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
)

// PaymentConfirmer is the hook between an order and whatever captures the
// money. Confirm is called before a pending order moves to confirmed.
type PaymentConfirmer interface {
	Confirm(ctx context.Context, order *models.Order) error
}

type methodConfirmer struct {
	accepted map[models.PaymentMethod]struct{}
}

// NewMethodConfirmer accepts any order paid with one of methods, or with
// any known method when none are given.
func NewMethodConfirmer(methods ...models.PaymentMethod) PaymentConfirmer {
	if len(methods) == 0 {
		methods = []models.PaymentMethod{
			models.PaymentMethodCreditCard,
			models.PaymentMethodPayPal,
			models.PaymentMethodBankTransfer,
			models.PaymentMethodCashOnDelivery,
		}
	}

	accepted := make(map[models.PaymentMethod]struct{}, len(methods))
	for _, m := range methods {
		accepted[m] = struct{}{}
	}

	return &methodConfirmer{accepted: accepted}
}

func (c *methodConfirmer) Confirm(ctx context.Context, order *models.Order) error {
	if _, ok := c.accepted[order.PaymentMethod]; !ok {
		return errors.BadRequestError("Payment method is not accepted").
			WithDetail("payment method: " + string(order.PaymentMethod))
	}

	return nil
}
