package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
)

type LoyaltyHandler struct {
	ledgerService service.LedgerService
}

func NewLoyaltyHandler(ledgerService service.LedgerService) *LoyaltyHandler {
	return &LoyaltyHandler{ledgerService: ledgerService}
}

// GetAccount godoc
//	@Summary		Get the loyalty balance
//	@Description	Returns the caller's loyalty point balance and recent point movements.
//	@Tags			Loyalty
//	@Produce		json
//	@Success		200	{object}	models.LoyaltyAccount	"Balance and history"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/loyalty [get]
func (h *LoyaltyHandler) GetAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		ctx, res, logger, ok := resolve(w, r)
		if !ok {
			return
		}

		if !res.Owner.IsUser() {
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		account, err := h.ledgerService.Account(ctx, res.Owner.ID)
		if err != nil {
			logger.Error("Failed to load loyalty account", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, account)
	}
}
