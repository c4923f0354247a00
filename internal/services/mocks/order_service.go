package mocks

import (
	"context"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// OrderService is a testify mock of service.OrderService.
type OrderService struct {
	mock.Mock
}

func order(args mock.Arguments) (*models.Order, error) {
	var o *models.Order
	if args.Get(0) != nil {
		o = args.Get(0).(*models.Order)
	}

	return o, args.Error(1)
}

func (m *OrderService) Checkout(ctx context.Context, owner models.OwnerKey, req *models.CheckoutRequest) (*models.Order, error) {
	return order(m.Called(ctx, owner, req))
}

func (m *OrderService) Confirm(ctx context.Context, owner models.OwnerKey, orderID uuid.UUID) (*models.Order, error) {
	return order(m.Called(ctx, owner, orderID))
}

func (m *OrderService) Cancel(ctx context.Context, owner models.OwnerKey, orderID uuid.UUID, reason string) (*models.Order, error) {
	return order(m.Called(ctx, owner, orderID, reason))
}

func (m *OrderService) Advance(ctx context.Context, orderID uuid.UUID, to models.OrderStatus, reason string) (*models.Order, error) {
	return order(m.Called(ctx, orderID, to, reason))
}

func (m *OrderService) Get(ctx context.Context, owner models.OwnerKey, orderID uuid.UUID) (*models.Order, error) {
	return order(m.Called(ctx, owner, orderID))
}

func (m *OrderService) List(ctx context.Context, owner models.OwnerKey, page, size int) (*models.PaginatedResponse, error) {
	args := m.Called(ctx, owner, page, size)

	var p *models.PaginatedResponse
	if args.Get(0) != nil {
		p = args.Get(0).(*models.PaginatedResponse)
	}

	return p, args.Error(1)
}

func (m *OrderService) Tracking(ctx context.Context, owner models.OwnerKey, orderID uuid.UUID) (*models.OrderTracking, error) {
	args := m.Called(ctx, owner, orderID)

	var tr *models.OrderTracking
	if args.Get(0) != nil {
		tr = args.Get(0).(*models.OrderTracking)
	}

	return tr, args.Error(1)
}

func (m *OrderService) ExpireStalePending(ctx context.Context, olderThan time.Duration) (int, error) {
	args := m.Called(ctx, olderThan)
	return args.Int(0), args.Error(1)
}
