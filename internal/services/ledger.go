package service

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/pricing"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/shopspring/decimal"
)

const loyaltyHistoryLimit = 50

// LedgerService validates discount codes and loyalty redemptions. Its
// answers are advisory: checkout validates both again under row locks.
type LedgerService interface {
	ValidateDiscount(ctx context.Context, code string, base models.PriceBreakdown) (*models.DiscountQuote, error)
	RedeemLoyalty(ctx context.Context, owner models.OwnerKey, points int64) (*models.RedemptionQuote, error)
	Account(ctx context.Context, userID string) (*models.LoyaltyAccount, error)
	CreateDiscount(ctx context.Context, req *models.CreateDiscountRequest) (*models.DiscountCode, error)
}

type ledgerService struct {
	store repository.Store
	calc  *pricing.Calculator
	now   func() time.Time
}

func NewLedgerService(store repository.Store, calc *pricing.Calculator) LedgerService {
	return &ledgerService{store: store, calc: calc, now: time.Now}
}

func (s *ledgerService) ValidateDiscount(ctx context.Context, code string, base models.PriceBreakdown) (*models.DiscountQuote, error) {
	discount, err := checkDiscount(ctx, s.store.Repos().Discounts, code, base, s.now(), false)
	if err != nil {
		return nil, err
	}

	return &models.DiscountQuote{Code: discount.Code, Amount: discount.AmountFor(base.GrossTotal())}, nil
}

// checkDiscount loads and validates a code. forUpdate row-locks it, which
// only means something inside a transaction.
func checkDiscount(ctx context.Context, repo repository.DiscountRepository, code string, base models.PriceBreakdown, at time.Time, forUpdate bool) (*models.DiscountCode, error) {
	normalized := models.NormalizeDiscountCode(code)
	if normalized == "" {
		return nil, errors.DiscountInvalidError(code)
	}

	load := repo.GetByCode
	if forUpdate {
		load = repo.GetByCodeForUpdate
	}

	discount, err := load(ctx, normalized)
	if err != nil {
		if stdErrors.Is(err, repository.ErrNotFound) {
			return nil, errors.DiscountInvalidError(normalized)
		}
		return nil, storeFailure(err, "Failed to look up the discount code")
	}

	switch {
	case !discount.Active:
		return nil, errors.DiscountInactiveError(normalized)
	case !discount.InWindow(at):
		return nil, errors.DiscountExpiredError(normalized)
	case discount.Exhausted():
		return nil, errors.DiscountInvalidError(normalized).WithDetail("usage limit reached")
	case base.Subtotal.LessThan(discount.MinSubtotal):
		return nil, errors.DiscountInvalidError(normalized).
			WithDetail(fmt.Sprintf("minimum subtotal %s not met", discount.MinSubtotal.StringFixed(2)))
	}

	return discount, nil
}

// RedeemLoyalty quotes a redemption. Guests have no account, so any
// positive request from a session owner is insufficient.
func (s *ledgerService) RedeemLoyalty(ctx context.Context, owner models.OwnerKey, points int64) (*models.RedemptionQuote, error) {
	if points < 0 {
		return nil, errors.InvalidPointsError(points)
	}

	if points == 0 {
		return &models.RedemptionQuote{Points: 0, Amount: s.calc.PointsValue(0)}, nil
	}

	if !owner.IsUser() {
		return nil, errors.InsufficientPointsError(points, 0)
	}

	balance, err := s.store.Repos().Loyalty.GetBalance(ctx, owner.ID)
	if err != nil {
		return nil, storeFailure(err, "Failed to read the loyalty balance")
	}

	if points > balance {
		return nil, errors.InsufficientPointsError(points, balance)
	}

	return &models.RedemptionQuote{Points: points, Amount: s.calc.PointsValue(points)}, nil
}

func (s *ledgerService) Account(ctx context.Context, userID string) (*models.LoyaltyAccount, error) {
	repo := s.store.Repos().Loyalty

	balance, err := repo.GetBalance(ctx, userID)
	if err != nil {
		return nil, storeFailure(err, "Failed to read the loyalty balance")
	}

	history, err := repo.ListTransactions(ctx, userID, loyaltyHistoryLimit)
	if err != nil {
		return nil, storeFailure(err, "Failed to read the loyalty history")
	}

	return &models.LoyaltyAccount{UserID: userID, Balance: balance, History: history}, nil
}

func (s *ledgerService) CreateDiscount(ctx context.Context, req *models.CreateDiscountRequest) (*models.DiscountCode, error) {
	if !req.Value.IsPositive() {
		return nil, errors.AddValidationError("value", "must be positive")
	}

	if req.Kind == models.DiscountPercentage && req.Value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, errors.AddValidationError("value", "percentage cannot exceed 100")
	}

	if req.EndsAt != nil && !req.EndsAt.After(req.StartsAt) {
		return nil, errors.AddValidationError("ends_at", "must be after starts_at")
	}

	discount := &models.DiscountCode{
		Code:        req.Code,
		Kind:        req.Kind,
		Value:       req.Value,
		Active:      true,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		MinSubtotal: req.MinSubtotal,
		UsageLimit:  req.UsageLimit,
	}

	if discount.StartsAt.IsZero() {
		discount.StartsAt = s.now()
	}

	if err := s.store.Repos().Discounts.CreateDiscount(ctx, discount); err != nil {
		return nil, storeFailure(err, "Failed to create the discount code")
	}

	return discount, nil
}
