package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/stretchr/testify/mock"
)

// CartService is a testify mock of service.CartService.
type CartService struct {
	mock.Mock
}

func view(args mock.Arguments) (*models.CartView, error) {
	var v *models.CartView
	if args.Get(0) != nil {
		v = args.Get(0).(*models.CartView)
	}

	return v, args.Error(1)
}

func (m *CartService) GetOrCreate(ctx context.Context, owner models.OwnerKey) (*models.CartView, error) {
	return view(m.Called(ctx, owner))
}

func (m *CartService) View(ctx context.Context, owner models.OwnerKey, discountCode string, points int64) (*models.CartView, error) {
	return view(m.Called(ctx, owner, discountCode, points))
}

func (m *CartService) AddItem(ctx context.Context, owner models.OwnerKey, variantID string, qty int) (*models.CartView, error) {
	return view(m.Called(ctx, owner, variantID, qty))
}

func (m *CartService) SetItemQuantity(ctx context.Context, owner models.OwnerKey, variantID string, qty int) (*models.CartView, error) {
	return view(m.Called(ctx, owner, variantID, qty))
}

func (m *CartService) RemoveItem(ctx context.Context, owner models.OwnerKey, variantID string) (*models.CartView, error) {
	return view(m.Called(ctx, owner, variantID))
}

func (m *CartService) Clear(ctx context.Context, owner models.OwnerKey) (*models.CartView, error) {
	return view(m.Called(ctx, owner))
}

func (m *CartService) MergeSessionIntoUser(ctx context.Context, sessionID, userID string) (*models.CartView, error) {
	return view(m.Called(ctx, sessionID, userID))
}

func (m *CartService) ApplyDiscount(ctx context.Context, owner models.OwnerKey, code string) (*models.CartView, error) {
	return view(m.Called(ctx, owner, code))
}

func (m *CartService) RemoveDiscount(ctx context.Context, owner models.OwnerKey) (*models.CartView, error) {
	return view(m.Called(ctx, owner))
}

func (m *CartService) GetPriceBreakdown(ctx context.Context, owner models.OwnerKey, discountCode string, points int64) (*models.PriceBreakdown, error) {
	args := m.Called(ctx, owner, discountCode, points)

	var b *models.PriceBreakdown
	if args.Get(0) != nil {
		b = args.Get(0).(*models.PriceBreakdown)
	}

	return b, args.Error(1)
}
