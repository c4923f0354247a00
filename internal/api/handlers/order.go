package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type OrderHandler struct {
	orderService service.OrderService
	maxRetries   uint64
	validator    *validator.Validate
}

func NewOrderHandler(orderService service.OrderService, maxRetries uint64) *OrderHandler {
	return &OrderHandler{orderService: orderService, maxRetries: maxRetries, validator: validator.New()}
}

// CreateOrder godoc
//	@Summary		Check out the current cart
//	@Description	Turns the caller's cart into a pending order. Stock, the discount code and loyalty points are committed together or not at all.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			order	body		models.CheckoutRequest	true	"Shipping, payment method, code and points"
//	@Success		201		{object}	models.Order			"Created order"
//	@Failure		400		{object}	response.ErrorResponse	"Validation error or empty cart"
//	@Failure		401		{object}	response.ErrorResponse	"Guest checkout disabled"
//	@Failure		409		{object}	response.ErrorResponse	"Out of stock, invalid code, not enough points or cart busy"
//	@Failure		500		{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders [post]
func (h *OrderHandler) CreateOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		ctx, res, logger, ok := resolve(w, r)
		if !ok {
			return
		}

		var req models.CheckoutRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid checkout input")
			return
		}

		order, err := retry(ctx, h.maxRetries, func() (*models.Order, error) {
			return h.orderService.Checkout(ctx, res.Owner, &req)
		})
		if err != nil {
			logger.Warn("Checkout failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Order created", slog.String("orderId", order.ID.String()), slog.String("orderNumber", order.OrderNumber))
		response.Success(w, http.StatusCreated, order)
	}
}

// ListOrders godoc
//	@Summary		List the caller's orders
//	@Tags			Orders
//	@Produce		json
//	@Param			page		query		int												false	"Page number (default: 1)"						minimum(1)
//	@Param			pageSize	query		int												false	"Items per page (default: 10, max: 100)"	minimum(1)	maximum(100)
//	@Success		200			{object}	models.PaginatedResponse{Data=[]models.Order}	"Orders, newest first"
//	@Failure		500			{object}	response.ErrorResponse							"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders [get]
func (h *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		ctx, res, logger, ok := resolve(w, r)
		if !ok {
			return
		}

		// the service clamps out-of-range values
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

		result, err := h.orderService.List(ctx, res.Owner, page, pageSize)
		if err != nil {
			logger.Error("Failed to list orders", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Orders listed", slog.Int("total", result.Total), slog.Int("page", result.Page))
		response.Success(w, http.StatusOK, result)
	}
}

// GetOrder godoc
//	@Summary		Get an order
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string					true	"Order ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Order			"Order"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid order ID format"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/{id} [get]
func (h *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		ctx, res, logger, ok := resolve(w, r)
		if !ok {
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		order, err := h.orderService.Get(ctx, res.Owner, id)
		if err != nil {
			logger.Warn("Failed to get order", slog.String("orderId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, order)
	}
}

// ConfirmOrder godoc
//	@Summary		Confirm a pending order
//	@Description	Confirms payment for a pending order using its payment method.
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string					true	"Order ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Order			"Confirmed order"
//	@Failure		400	{object}	response.ErrorResponse	"Payment method not accepted"
//	@Failure		409	{object}	response.ErrorResponse	"Order is not pending"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/{id}/confirm [post]
func (h *OrderHandler) ConfirmOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		ctx, res, logger, ok := resolve(w, r)
		if !ok {
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		order, err := retry(ctx, h.maxRetries, func() (*models.Order, error) {
			return h.orderService.Confirm(ctx, res.Owner, id)
		})
		if err != nil {
			logger.Warn("Failed to confirm order", slog.String("orderId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Order confirmed", slog.String("orderId", id.String()))
		response.Success(w, http.StatusOK, order)
	}
}

// CancelOrder godoc
//	@Summary		Cancel an order
//	@Description	Cancels a pending or confirmed order. Stock is returned and loyalty points are settled.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Order ID (UUID)"	Format(uuid)
//	@Param			reason	body		models.CancelOrderRequest	false	"Cancellation reason"
//	@Success		200		{object}	models.Order				"Cancelled order"
//	@Failure		409		{object}	response.ErrorResponse		"Order can no longer be cancelled"
//	@Failure		404		{object}	response.ErrorResponse		"Order not found"
//	@Failure		500		{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		ctx, res, logger, ok := resolve(w, r)
		if !ok {
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		// the body is optional
		var req models.CancelOrderRequest
		if r.ContentLength != 0 && !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid cancel order input")
			return
		}

		order, err := retry(ctx, h.maxRetries, func() (*models.Order, error) {
			return h.orderService.Cancel(ctx, res.Owner, id, req.Reason)
		})
		if err != nil {
			logger.Warn("Failed to cancel order", slog.String("orderId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Order cancelled", slog.String("orderId", id.String()))
		response.Success(w, http.StatusOK, order)
	}
}

// GetTracking godoc
//	@Summary		Track an order
//	@Description	Returns the current status and the full status history of an order.
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string					true	"Order ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.OrderTracking	"Tracking information"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid order ID format"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/{id}/tracking [get]
func (h *OrderHandler) GetTracking() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		ctx, res, logger, ok := resolve(w, r)
		if !ok {
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		tracking, err := h.orderService.Tracking(ctx, res.Owner, id)
		if err != nil {
			logger.Warn("Failed to track order", slog.String("orderId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, tracking)
	}
}
