package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

const discountAttemptAction = "discount"

type CartHandler struct {
	cartService service.CartService
	limiter     repository.RateLimitRepository
	maxRetries  uint64
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartService, limiter repository.RateLimitRepository, maxRetries uint64) *CartHandler {
	if limiter == nil {
		limiter = repository.NewAllowAllLimiter()
	}

	return &CartHandler{cartService: cartService, limiter: limiter, maxRetries: maxRetries, validator: validator.New()}
}

// GetCart godoc
//	@Summary		Get the current cart
//	@Description	Returns the caller's cart (session or user) with a price breakdown. A code or points given here are quoted, not applied.
//	@Tags			Cart
//	@Produce		json
//	@Param			discountCode	query		string					false	"Discount code to quote"
//	@Param			loyaltyPoints	query		int						false	"Loyalty points to quote"	minimum(0)
//	@Success		200				{object}	models.CartView			"Cart with pricing"
//	@Failure		400				{object}	response.ErrorResponse	"Negative points"
//	@Failure		409				{object}	response.ErrorResponse	"Cart is busy"
//	@Failure		500				{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart [get]
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		ctx, res, logger, ok := resolve(w, r)
		if !ok {
			return
		}

		points, ok := queryInt(r, "loyaltyPoints", 0)
		if !ok {
			response.Error(w, errors.BadRequestError("loyaltyPoints must be an integer"))
			return
		}

		code := r.URL.Query().Get("discountCode")

		view, err := retry(ctx, h.maxRetries, func() (*models.CartView, error) {
			return h.cartService.View(ctx, res.Owner, code, points)
		})
		if err != nil {
			logger.Warn("Failed to get cart", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, view)
	}
}

// GetPriceBreakdown godoc
//	@Summary		Quote the cart total
//	@Description	Prices the stored cart without creating or modifying it.
//	@Tags			Cart
//	@Produce		json
//	@Param			discountCode	query		string					false	"Discount code to quote"
//	@Param			loyaltyPoints	query		int						false	"Loyalty points to quote"	minimum(0)
//	@Success		200				{object}	models.PriceBreakdown	"Price breakdown"
//	@Failure		400				{object}	response.ErrorResponse	"Negative points"
//	@Failure		500				{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/pricing [get]
func (h *CartHandler) GetPriceBreakdown() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		ctx, res, logger, ok := resolve(w, r)
		if !ok {
			return
		}

		points, ok := queryInt(r, "loyaltyPoints", 0)
		if !ok {
			response.Error(w, errors.BadRequestError("loyaltyPoints must be an integer"))
			return
		}

		breakdown, err := h.cartService.GetPriceBreakdown(ctx, res.Owner, r.URL.Query().Get("discountCode"), points)
		if err != nil {
			logger.Warn("Failed to price cart", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, breakdown)
	}
}

// AddItem godoc
//	@Summary		Add an item to the cart
//	@Description	Adds quantity of a variant. Adding a variant already in the cart sums the quantities.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			item	body		models.AddItemRequest	true	"Variant and quantity"
//	@Success		200		{object}	models.CartView			"Updated cart"
//	@Failure		400		{object}	response.ErrorResponse	"Invalid quantity"
//	@Failure		404		{object}	response.ErrorResponse	"Unknown or inactive variant"
//	@Failure		409		{object}	response.ErrorResponse	"Not enough stock"
//	@Failure		409		{object}	response.ErrorResponse	"Cart is busy"
//	@Failure		500		{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/items [post]
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		ctx, res, logger, ok := resolve(w, r)
		if !ok {
			return
		}

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid add item input")
			return
		}

		logger = logger.With(slog.String("variantId", req.VariantID), slog.Int("quantity", req.Quantity))

		view, err := retry(ctx, h.maxRetries, func() (*models.CartView, error) {
			return h.cartService.AddItem(ctx, res.Owner, req.VariantID, req.Quantity)
		})
		if err != nil {
			logger.Warn("Failed to add item", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Item added to cart")
		response.Success(w, http.StatusOK, view)
	}
}

// UpdateItem godoc
//	@Summary		Set the quantity of a cart line
//	@Description	Replaces the quantity of a line. A quantity of zero or less removes it.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			variantId	path		string							true	"Variant ID"
//	@Param			quantity	body		models.UpdateQuantityRequest	true	"New quantity"
//	@Success		200			{object}	models.CartView					"Updated cart"
//	@Failure		400			{object}	response.ErrorResponse			"Quantity above the limit"
//	@Failure		409			{object}	response.ErrorResponse			"Not enough stock"
//	@Failure		404			{object}	response.ErrorResponse			"Variant not in cart"
//	@Failure		409			{object}	response.ErrorResponse			"Cart is busy"
//	@Failure		500			{object}	response.ErrorResponse			"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/items/{variantId} [put]
func (h *CartHandler) UpdateItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		ctx, res, logger, ok := resolve(w, r)
		if !ok {
			return
		}

		variantID := r.PathValue("variantId")
		if variantID == "" {
			response.Error(w, errors.BadRequestError("Missing path parameter").WithDetail("variantId"))
			return
		}

		var req models.UpdateQuantityRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid update quantity input")
			return
		}

		view, err := retry(ctx, h.maxRetries, func() (*models.CartView, error) {
			return h.cartService.SetItemQuantity(ctx, res.Owner, variantID, req.Quantity)
		})
		if err != nil {
			logger.Warn("Failed to update item", slog.String("variantId", variantID), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, view)
	}
}

// RemoveItem godoc
//	@Summary		Remove a cart line
//	@Tags			Cart
//	@Produce		json
//	@Param			variantId	path		string					true	"Variant ID"
//	@Success		200			{object}	models.CartView			"Updated cart"
//	@Failure		409			{object}	response.ErrorResponse	"Cart is busy"
//	@Failure		500			{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/items/{variantId} [delete]
func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		ctx, res, logger, ok := resolve(w, r)
		if !ok {
			return
		}

		variantID := r.PathValue("variantId")
		if variantID == "" {
			response.Error(w, errors.BadRequestError("Missing path parameter").WithDetail("variantId"))
			return
		}

		view, err := retry(ctx, h.maxRetries, func() (*models.CartView, error) {
			return h.cartService.RemoveItem(ctx, res.Owner, variantID)
		})
		if err != nil {
			logger.Warn("Failed to remove item", slog.String("variantId", variantID), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, view)
	}
}

// ClearCart godoc
//	@Summary		Empty the cart
//	@Description	Removes every line and the applied discount code.
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	models.CartView			"Empty cart"
//	@Failure		409	{object}	response.ErrorResponse	"Cart is busy"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart [delete]
func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		ctx, res, logger, ok := resolve(w, r)
		if !ok {
			return
		}

		view, err := retry(ctx, h.maxRetries, func() (*models.CartView, error) {
			return h.cartService.Clear(ctx, res.Owner)
		})
		if err != nil {
			logger.Warn("Failed to clear cart", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Cart cleared")
		response.Success(w, http.StatusOK, view)
	}
}

// ApplyDiscount godoc
//	@Summary		Apply a discount code
//	@Description	Validates a code and remembers it on the cart. Attempts are rate limited per owner.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			discount	body		models.ApplyDiscountRequest	true	"Discount code"
//	@Success		200			{object}	models.CartView				"Cart with the code applied"
//	@Failure		409			{object}	response.ErrorResponse		"Invalid, expired or inactive code"
//	@Failure		429			{object}	response.ErrorResponse		"Too many attempts"
//	@Failure		500			{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/discount [post]
func (h *CartHandler) ApplyDiscount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		ctx, res, logger, ok := resolve(w, r)
		if !ok {
			return
		}

		allowed, _, retryAfter, err := h.limiter.Allow(ctx, discountAttemptAction, res.Owner.String())
		if err != nil {
			// The limiter guards against guessing, it does not protect data.
			logger.Error("Rate limiter unavailable, allowing discount attempt", slog.Any("error", err))
		} else if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			response.Error(w, errors.TooManyRequestsError("Too many discount attempts, please try again later"))
			return
		}

		var req models.ApplyDiscountRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid apply discount input")
			return
		}

		view, err := retry(ctx, h.maxRetries, func() (*models.CartView, error) {
			return h.cartService.ApplyDiscount(ctx, res.Owner, req.Code)
		})
		if err != nil {
			logger.Warn("Failed to apply discount", slog.String("code", req.Code), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Discount applied", slog.String("code", view.Cart.DiscountCode))
		response.Success(w, http.StatusOK, view)
	}
}

// RemoveDiscount godoc
//	@Summary		Remove the applied discount code
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	models.CartView			"Cart without a code"
//	@Failure		409	{object}	response.ErrorResponse	"Cart is busy"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/discount [delete]
func (h *CartHandler) RemoveDiscount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		ctx, res, logger, ok := resolve(w, r)
		if !ok {
			return
		}

		view, err := retry(ctx, h.maxRetries, func() (*models.CartView, error) {
			return h.cartService.RemoveDiscount(ctx, res.Owner)
		})
		if err != nil {
			logger.Warn("Failed to remove discount", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, view)
	}
}

// MergeCart godoc
//	@Summary		Merge the session cart into the user cart
//	@Description	Called after login. Folds the browser's anonymous cart into the authenticated user's cart. Running it twice is harmless.
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	models.CartView			"Merged cart"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		409	{object}	response.ErrorResponse	"Cart is busy"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/merge [post]
func (h *CartHandler) MergeCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		ctx, res, logger, ok := resolve(w, r)
		if !ok {
			return
		}

		if !res.Owner.IsUser() {
			logger.Warn("Cart merge attempted without authentication")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		view, err := retry(ctx, h.maxRetries, func() (*models.CartView, error) {
			return h.cartService.MergeSessionIntoUser(ctx, res.SessionID, res.Owner.ID)
		})
		if err != nil {
			logger.Warn("Failed to merge carts", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Carts merged", slog.Int("itemCount", view.ItemCount))
		response.Success(w, http.StatusOK, view)
	}
}
