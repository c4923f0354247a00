package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/stretchr/testify/mock"
)

// LedgerService is a testify mock of service.LedgerService.
type LedgerService struct {
	mock.Mock
}

func (m *LedgerService) ValidateDiscount(ctx context.Context, code string, base models.PriceBreakdown) (*models.DiscountQuote, error) {
	args := m.Called(ctx, code, base)

	var q *models.DiscountQuote
	if args.Get(0) != nil {
		q = args.Get(0).(*models.DiscountQuote)
	}

	return q, args.Error(1)
}

func (m *LedgerService) RedeemLoyalty(ctx context.Context, owner models.OwnerKey, points int64) (*models.RedemptionQuote, error) {
	args := m.Called(ctx, owner, points)

	var q *models.RedemptionQuote
	if args.Get(0) != nil {
		q = args.Get(0).(*models.RedemptionQuote)
	}

	return q, args.Error(1)
}

func (m *LedgerService) Account(ctx context.Context, userID string) (*models.LoyaltyAccount, error) {
	args := m.Called(ctx, userID)

	var a *models.LoyaltyAccount
	if args.Get(0) != nil {
		a = args.Get(0).(*models.LoyaltyAccount)
	}

	return a, args.Error(1)
}

func (m *LedgerService) CreateDiscount(ctx context.Context, req *models.CreateDiscountRequest) (*models.DiscountCode, error) {
	args := m.Called(ctx, req)

	var d *models.DiscountCode
	if args.Get(0) != nil {
		d = args.Get(0).(*models.DiscountCode)
	}

	return d, args.Error(1)
}
