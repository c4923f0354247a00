package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/storefront/internal/api/handlers"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/services/mocks"
	"github.com/aaravmahajanofficial/storefront/internal/testutils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupOrderTest() (*mocks.OrderService, *handlers.OrderHandler) {
	mockOrderService := new(mocks.OrderService)
	return mockOrderService, handlers.NewOrderHandler(mockOrderService, 2)
}

func pendingOrder(owner models.OwnerKey) *models.Order {
	id := uuid.New()

	return &models.Order{
		ID:            id,
		OrderNumber:   models.NewOrderNumber(id, testNow),
		OwnerUserID:   owner.OrderOwnerID(),
		Lines:         []models.OrderLine{{VariantID: "v1", Quantity: 2, UnitPrice: decimal.NewFromInt(100), LineTotal: decimal.NewFromInt(200)}},
		PaymentMethod: models.PaymentMethodCreditCard,
		Status:        models.OrderStatusPending,
		History:       []models.StatusChange{{Status: models.OrderStatusPending, ChangedAt: testNow}},
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
}

func checkoutBody(country string) []byte {
	body, _ := json.Marshal(models.CheckoutRequest{
		ShippingAddress: models.Address{Street: "1 Main St", City: "Springfield", State: "IL", PostalCode: "62701", Country: country},
		PaymentMethod:   models.PaymentMethodPayPal,
		DiscountCode:    "SAVE10",
	})

	return body
}

func TestCreateOrder(t *testing.T) {
	owner := models.UserOwner("user-1")

	t.Run("Success - Order Created", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		mockOrderService.On("Checkout", mock.Anything, owner, mock.MatchedBy(func(req *models.CheckoutRequest) bool {
			return req.PaymentMethod == models.PaymentMethodPayPal && req.DiscountCode == "SAVE10" && req.ShippingAddress.Country == "US"
		})).Return(pendingOrder(owner), nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/orders", bytes.NewReader(checkoutBody("US")), owner, nil)
		rr := httptest.NewRecorder()

		// Act
		orderHandler.CreateOrder().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusCreated, rr.Code)
		resp := decode(t, rr)
		assert.True(t, resp.Success)
		mockOrderService.AssertExpectations(t)
	})

	t.Run("Failure - Invalid Country", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/orders", bytes.NewReader(checkoutBody("Narnia")), owner, nil)
		rr := httptest.NewRecorder()

		// Act
		orderHandler.CreateOrder().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, appErrors.ErrCodeValidation, decode(t, rr).Error.Code)
		mockOrderService.AssertNumberOfCalls(t, "Checkout", 0)
	})

	t.Run("Failure - Unknown Payment Method", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		body := []byte(`{"shipping_address":{"street":"1 Main St","city":"Springfield","state":"IL","postal_code":"62701","country":"US"},"payment_method":"barter"}`)
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/orders", bytes.NewReader(body), owner, nil)
		rr := httptest.NewRecorder()

		// Act
		orderHandler.CreateOrder().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockOrderService.AssertNumberOfCalls(t, "Checkout", 0)
	})

	t.Run("Failure - Out Of Stock", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		mockOrderService.On("Checkout", mock.Anything, owner, mock.Anything).Return(nil, appErrors.OutOfStockError("v1", 3, 1)).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/orders", bytes.NewReader(checkoutBody("US")), owner, nil)
		rr := httptest.NewRecorder()

		// Act
		orderHandler.CreateOrder().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, appErrors.ErrCodeOutOfStock, decode(t, rr).Error.Code)
	})

	t.Run("Failure - Guest Checkout Disabled", func(t *testing.T) {
		// Arrange
		guest := models.SessionOwner(uuid.NewString())
		mockOrderService, orderHandler := setupOrderTest()
		mockOrderService.On("Checkout", mock.Anything, guest, mock.Anything).Return(nil, appErrors.UnauthorizedError("Sign in to check out")).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/orders", bytes.NewReader(checkoutBody("US")), guest, nil)
		rr := httptest.NewRecorder()

		// Act
		orderHandler.CreateOrder().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestListOrders(t *testing.T) {
	// Arrange
	owner := models.UserOwner("user-1")
	mockOrderService, orderHandler := setupOrderTest()
	page := &models.PaginatedResponse{Data: []*models.Order{pendingOrder(owner)}, Total: 1, Page: 2, PageSize: 5}
	mockOrderService.On("List", mock.Anything, owner, 2, 5).Return(page, nil).Once()

	req := testutils.CreateTestRequestWithContext(http.MethodGet, "/orders?page=2&pageSize=5", nil, owner, nil)
	rr := httptest.NewRecorder()

	// Act
	orderHandler.ListOrders().ServeHTTP(rr, req)

	// Assert
	assert.Equal(t, http.StatusOK, rr.Code)
	mockOrderService.AssertExpectations(t)

	t.Run("Defaults Left To The Service", func(t *testing.T) {
		mockOrderService.On("List", mock.Anything, owner, 0, 0).Return(&models.PaginatedResponse{Page: 1, PageSize: 10}, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/orders?page=abc", nil, owner, nil)
		rr := httptest.NewRecorder()

		orderHandler.ListOrders().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockOrderService.AssertExpectations(t)
	})
}

func TestGetOrder(t *testing.T) {
	owner := models.UserOwner("user-1")

	t.Run("Success - Retrieved", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		order := pendingOrder(owner)
		mockOrderService.On("Get", mock.Anything, owner, order.ID).Return(order, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/orders/"+order.ID.String(), nil, owner, map[string]string{"id": order.ID.String()})
		rr := httptest.NewRecorder()

		// Act
		orderHandler.GetOrder().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		mockOrderService.AssertExpectations(t)
	})

	t.Run("Failure - Invalid ID", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/orders/nope", nil, owner, map[string]string{"id": "nope"})
		rr := httptest.NewRecorder()

		// Act
		orderHandler.GetOrder().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockOrderService.AssertNumberOfCalls(t, "Get", 0)
	})

	t.Run("Failure - Someone Else's Order", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		id := uuid.New()
		mockOrderService.On("Get", mock.Anything, owner, id).Return(nil, appErrors.NotFoundError("Order not found")).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/orders/"+id.String(), nil, owner, map[string]string{"id": id.String()})
		rr := httptest.NewRecorder()

		// Act
		orderHandler.GetOrder().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestOrderTransitions(t *testing.T) {
	owner := models.UserOwner("user-1")
	id := uuid.New()
	params := map[string]string{"id": id.String()}

	t.Run("Success - Confirmed", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		confirmed := pendingOrder(owner)
		confirmed.Status = models.OrderStatusConfirmed
		mockOrderService.On("Confirm", mock.Anything, owner, id).Return(confirmed, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/orders/"+id.String()+"/confirm", nil, owner, params)
		rr := httptest.NewRecorder()

		// Act
		orderHandler.ConfirmOrder().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		mockOrderService.AssertExpectations(t)
	})

	t.Run("Failure - Confirm Twice", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		mockOrderService.On("Confirm", mock.Anything, owner, id).Return(nil, appErrors.InvalidStateTransitionError("confirmed", "confirmed")).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/orders/"+id.String()+"/confirm", nil, owner, params)
		rr := httptest.NewRecorder()

		// Act
		orderHandler.ConfirmOrder().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, appErrors.ErrCodeInvalidStateTransition, decode(t, rr).Error.Code)
	})

	t.Run("Success - Cancel With Reason", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		mockOrderService.On("Cancel", mock.Anything, owner, id, "changed my mind").Return(pendingOrder(owner), nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/orders/"+id.String()+"/cancel", bytes.NewReader([]byte(`{"reason":"changed my mind"}`)), owner, params)
		rr := httptest.NewRecorder()

		// Act
		orderHandler.CancelOrder().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		mockOrderService.AssertExpectations(t)
	})

	t.Run("Success - Cancel Without Body", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		mockOrderService.On("Cancel", mock.Anything, owner, id, "").Return(pendingOrder(owner), nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/orders/"+id.String()+"/cancel", nil, owner, params)
		rr := httptest.NewRecorder()

		// Act
		orderHandler.CancelOrder().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		mockOrderService.AssertExpectations(t)
	})

	t.Run("Failure - Cancel While Shipping", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		mockOrderService.On("Cancel", mock.Anything, owner, id, "").Return(nil, appErrors.InvalidStateTransitionError("shipping", "cancelled")).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/orders/"+id.String()+"/cancel", nil, owner, params)
		rr := httptest.NewRecorder()

		// Act
		orderHandler.CancelOrder().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("Success - Tracking", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		mockOrderService.On("Tracking", mock.Anything, owner, id).Return(pendingOrder(owner).Tracking(), nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/orders/"+id.String()+"/tracking", nil, owner, params)
		rr := httptest.NewRecorder()

		// Act
		orderHandler.GetTracking().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		mockOrderService.AssertExpectations(t)
	})
}
