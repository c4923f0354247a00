package service

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/catalog"
	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/lock"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/notifier"
	"github.com/aaravmahajanofficial/storefront/internal/pricing"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

const (
	staleSweepBatch   = 100
	staleCancelReason = "Payment was not confirmed in time"
)

var textPolicy = bluemonday.StrictPolicy()

type OrderService interface {
	Checkout(ctx context.Context, owner models.OwnerKey, req *models.CheckoutRequest) (*models.Order, error)
	Confirm(ctx context.Context, owner models.OwnerKey, orderID uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, owner models.OwnerKey, orderID uuid.UUID, reason string) (*models.Order, error)
	// Advance drives fulfillment; it is not owner-scoped.
	Advance(ctx context.Context, orderID uuid.UUID, to models.OrderStatus, reason string) (*models.Order, error)
	Get(ctx context.Context, owner models.OwnerKey, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, owner models.OwnerKey, page, size int) (*models.PaginatedResponse, error)
	Tracking(ctx context.Context, owner models.OwnerKey, orderID uuid.UUID) (*models.OrderTracking, error)
	ExpireStalePending(ctx context.Context, olderThan time.Duration) (int, error)
}

type orderService struct {
	store     repository.Store
	locker    lock.Locker
	catalog   catalog.Catalog
	calc      *pricing.Calculator
	confirmer PaymentConfirmer
	notifier  notifier.Notifier
	cfg       config.Orders
	lockWait  time.Duration
	now       func() time.Time
}

func NewOrderService(store repository.Store, locker lock.Locker, c catalog.Catalog, calc *pricing.Calculator, confirmer PaymentConfirmer, n notifier.Notifier, cfg config.Orders, lockWait time.Duration) OrderService {
	if n == nil {
		n = notifier.Nop()
	}

	if confirmer == nil {
		confirmer = NewMethodConfirmer()
	}

	return &orderService{
		store:     store,
		locker:    locker,
		catalog:   c,
		calc:      calc,
		confirmer: confirmer,
		notifier:  n,
		cfg:       cfg,
		lockWait:  lockWait,
		now:       time.Now,
	}
}

func sanitize(s string) string {
	return strings.TrimSpace(textPolicy.Sanitize(s))
}

func sanitizeAddress(a models.Address) models.Address {
	return models.Address{
		RecipientName: sanitize(a.RecipientName),
		Phone:         sanitize(a.Phone),
		Street:        sanitize(a.Street),
		City:          sanitize(a.City),
		State:         sanitize(a.State),
		PostalCode:    sanitize(a.PostalCode),
		Country:       strings.ToUpper(sanitize(a.Country)),
	}
}

// Checkout turns the owner's cart into a pending order. Stock, discount
// usage, the loyalty ledger, the order rows and the emptied cart all
// commit together or not at all.
func (s *orderService) Checkout(ctx context.Context, owner models.OwnerKey, req *models.CheckoutRequest) (order *models.Order, err error) {
	logger := middleware.LoggerFromContext(ctx)

	defer func() {
		metrics.ObserveCheckout(errorCode(err))
	}()

	if owner.IsSession() && !s.cfg.AllowGuestCheckout {
		return nil, errors.UnauthorizedError("Sign in to check out")
	}

	points := req.LoyaltyPointsToRedeem
	if points < 0 {
		return nil, errors.InvalidPointsError(points)
	}

	if points > 0 && !owner.IsUser() {
		return nil, errors.InsufficientPointsError(points, 0)
	}

	unlock, err := acquire(ctx, s.locker, s.lockWait, owner)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now()

	cart, err := s.store.Repos().Carts.GetCart(ctx, owner, now)
	if err != nil && !stdErrors.Is(err, repository.ErrNotFound) {
		return nil, storeFailure(err, "Failed to load the cart")
	}

	if cart == nil || cart.IsEmpty() {
		return nil, errors.BadRequestError("Cannot check out an empty cart")
	}

	code := req.DiscountCode
	if code == "" {
		code = cart.DiscountCode
	}

	orderID := uuid.New()
	order = &models.Order{
		ID:              orderID,
		OrderNumber:     models.NewOrderNumber(orderID, now),
		OwnerUserID:     owner.OrderOwnerID(),
		Lines:           models.OrderLinesFromCart(cart.Items),
		ShippingAddress: sanitizeAddress(req.ShippingAddress),
		PaymentMethod:   req.PaymentMethod,
		Status:          models.OrderStatusPending,
		History:         []models.StatusChange{{Status: models.OrderStatusPending, ChangedAt: now}},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	variantIDs := make([]string, 0, len(cart.Items))
	for _, line := range cart.Items {
		variantIDs = append(variantIDs, line.VariantID)
	}
	sort.Strings(variantIDs)

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		for _, id := range variantIDs {
			variant, err := tx.Variants.GetVariantForUpdate(ctx, id)
			if err != nil {
				if stdErrors.Is(err, repository.ErrNotFound) {
					return errors.NotFoundError("Variant not found").WithDetail("variant: " + id)
				}
				return err
			}

			if err := checkStock(variant, cart.Quantity(id)); err != nil {
				return err
			}
		}

		adj := pricing.Adjustments{LoyaltyPoints: points}

		if code != "" {
			discount, err := checkDiscount(ctx, tx.Discounts, code, s.calc.Gross(cart.Items), now, true)
			if err != nil {
				return err
			}
			adj.Discount = discount
		}

		if points > 0 {
			balance, err := tx.Loyalty.GetBalanceForUpdate(ctx, owner.ID)
			if err != nil {
				return err
			}

			if points > balance {
				return errors.InsufficientPointsError(points, balance)
			}
		}

		order.Pricing = s.calc.Quote(cart.Items, adj)
		order.DiscountCode = order.Pricing.DiscountCode
		order.LoyaltyPointsRedeemed = order.Pricing.LoyaltyPointsRedeemed

		if owner.IsUser() {
			order.LoyaltyPointsEarned = s.calc.EarnedPoints(order.Pricing.Total)
		}

		for _, id := range variantIDs {
			qty := cart.Quantity(id)
			if err := tx.Variants.AdjustStock(ctx, id, -qty); err != nil {
				if stdErrors.Is(err, repository.ErrInsufficient) {
					return errors.OutOfStockError(id, qty, 0)
				}
				return err
			}
		}

		if err := tx.Orders.CreateOrder(ctx, order); err != nil {
			return err
		}

		if order.LoyaltyPointsRedeemed > 0 {
			if err := s.journal(ctx, tx, order, -order.LoyaltyPointsRedeemed, models.LoyaltyReasonRedeemed, now); err != nil {
				if stdErrors.Is(err, repository.ErrInsufficient) {
					return errors.InsufficientPointsError(order.LoyaltyPointsRedeemed, 0)
				}
				return err
			}
		}

		if order.LoyaltyPointsEarned > 0 {
			if err := s.journal(ctx, tx, order, order.LoyaltyPointsEarned, models.LoyaltyReasonEarned, now); err != nil {
				return err
			}
		}

		if order.DiscountCode != "" {
			if err := tx.Discounts.IncrementUsage(ctx, order.DiscountCode); err != nil {
				if stdErrors.Is(err, repository.ErrInsufficient) {
					return errors.DiscountInvalidError(order.DiscountCode).WithDetail("usage limit reached")
				}
				return err
			}
		}

		// the cart outlives the order, empty
		cart.Clear()
		cart.UpdatedAt = now

		return tx.Carts.SaveCart(ctx, cart)
	})
	if err != nil {
		logger.Warn("Checkout failed", slog.String("owner", owner.String()), slog.Any("error", err))
		return nil, storeFailure(err, "Failed to place the order")
	}

	s.catalog.Invalidate(ctx, variantIDs...)

	logger.Info("Order placed",
		slog.String("orderID", order.ID.String()),
		slog.String("orderNumber", order.OrderNumber),
		slog.String("total", order.Pricing.Total.StringFixed(2)),
	)

	s.notifier.Publish(ctx, notifier.NewEvent(ctx, notifier.EventOrderCreated, owner, order))

	emptied := models.NewCart(owner, now)
	s.notifier.Publish(ctx, notifier.NewEvent(ctx, notifier.EventCartUpdated, owner, &models.CartView{
		Cart:    emptied,
		Pricing: s.calc.Gross(nil),
	}))

	return order, nil
}

func (s *orderService) journal(ctx context.Context, tx *repository.Repositories, order *models.Order, delta int64, reason models.LoyaltyReason, at time.Time) error {
	orderID := order.ID

	_, err := tx.Loyalty.AddTransaction(ctx, &models.LoyaltyTransaction{
		ID:        uuid.New(),
		UserID:    order.OwnerUserID,
		OrderID:   &orderID,
		Delta:     delta,
		Reason:    reason,
		CreatedAt: at,
	})

	return err
}

// transition moves one order to status to under a row lock. A nil owner
// skips the ownership check. compensate runs in the same transaction.
func (s *orderService) transition(ctx context.Context, orderID uuid.UUID, owner *models.OwnerKey, to models.OrderStatus, reason string,
	compensate func(ctx context.Context, tx *repository.Repositories, order *models.Order) error) (*models.Order, error) {

	logger := middleware.LoggerFromContext(ctx)

	var (
		order *models.Order
		from  models.OrderStatus
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		var err error

		order, err = tx.Orders.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			if stdErrors.Is(err, repository.ErrNotFound) {
				return errors.NotFoundError("Order not found")
			}
			return err
		}

		if owner != nil && !order.OwnedBy(*owner) {
			return errors.NotFoundError("Order not found")
		}

		from = order.Status
		if !models.CanTransition(from, to) {
			return errors.InvalidStateTransitionError(string(from), string(to))
		}

		if compensate != nil {
			if err := compensate(ctx, tx, order); err != nil {
				return err
			}
		}

		change := models.StatusChange{Status: to, Reason: reason, ChangedAt: s.now()}
		if err := tx.Orders.UpdateStatus(ctx, orderID, from, change); err != nil {
			return err
		}

		order.Status = to
		order.History = append(order.History, change)
		order.UpdatedAt = change.ChangedAt

		return nil
	})
	if err != nil {
		return nil, storeFailure(err, "Failed to update the order")
	}

	metrics.ObserveOrderTransition(string(from), string(to))

	logger.Info("Order status changed",
		slog.String("orderID", orderID.String()),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)

	s.notifier.Publish(ctx, notifier.NewEvent(ctx, notifier.EventOrderStatusChanged, order.Owner(), order.Tracking()))

	return order, nil
}

func (s *orderService) Confirm(ctx context.Context, owner models.OwnerKey, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.Get(ctx, owner, orderID)
	if err != nil {
		return nil, err
	}

	if !models.CanTransition(order.Status, models.OrderStatusConfirmed) {
		return nil, errors.InvalidStateTransitionError(string(order.Status), string(models.OrderStatusConfirmed))
	}

	if err := s.confirmer.Confirm(ctx, order); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Payment confirmation rejected", slog.String("orderID", orderID.String()), slog.Any("error", err))
		return nil, err
	}

	return s.transition(ctx, orderID, &owner, models.OrderStatusConfirmed, "", nil)
}

func (s *orderService) Cancel(ctx context.Context, owner models.OwnerKey, orderID uuid.UUID, reason string) (*models.Order, error) {
	return s.cancel(ctx, orderID, &owner, sanitize(reason))
}

func (s *orderService) cancel(ctx context.Context, orderID uuid.UUID, owner *models.OwnerKey, reason string) (*models.Order, error) {
	order, err := s.transition(ctx, orderID, owner, models.OrderStatusCancelled, reason, s.compensate)
	if err != nil {
		return nil, err
	}

	variantIDs := make([]string, 0, len(order.Lines))
	for _, line := range order.Lines {
		variantIDs = append(variantIDs, line.VariantID)
	}
	s.catalog.Invalidate(ctx, variantIDs...)

	return order, nil
}

// compensate undoes checkout's side effects: stock goes back, redeemed
// points are refunded and earned points revoked as far as the balance allows.
func (s *orderService) compensate(ctx context.Context, tx *repository.Repositories, order *models.Order) error {
	lines := make([]models.OrderLine, len(order.Lines))
	copy(lines, order.Lines)
	sort.Slice(lines, func(i, j int) bool { return lines[i].VariantID < lines[j].VariantID })

	for _, line := range lines {
		if err := tx.Variants.AdjustStock(ctx, line.VariantID, line.Quantity); err != nil {
			// AdjustStock reports a deleted variant as ErrInsufficient.
			if stdErrors.Is(err, repository.ErrInsufficient) || stdErrors.Is(err, repository.ErrNotFound) {
				middleware.LoggerFromContext(ctx).Warn("Cannot restock a removed variant", slog.String("variantID", line.VariantID))
				continue
			}
			return err
		}
	}

	if order.IsGuest() {
		return nil
	}

	now := s.now()

	if order.LoyaltyPointsRedeemed > 0 {
		if err := s.journal(ctx, tx, order, order.LoyaltyPointsRedeemed, models.LoyaltyReasonRefunded, now); err != nil {
			return err
		}
	}

	if order.LoyaltyPointsEarned > 0 {
		balance, err := tx.Loyalty.GetBalanceForUpdate(ctx, order.OwnerUserID)
		if err != nil {
			return err
		}

		if revoke := min(order.LoyaltyPointsEarned, balance); revoke > 0 {
			if err := s.journal(ctx, tx, order, -revoke, models.LoyaltyReasonRevoked, now); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *orderService) Advance(ctx context.Context, orderID uuid.UUID, to models.OrderStatus, reason string) (*models.Order, error) {
	switch to {
	case models.OrderStatusProcessing, models.OrderStatusShipping, models.OrderStatusDelivered:
	default:
		return nil, errors.BadRequestError("Only fulfillment statuses can be set directly").WithDetail("status: " + string(to))
	}

	return s.transition(ctx, orderID, nil, to, sanitize(reason), nil)
}

func (s *orderService) Get(ctx context.Context, owner models.OwnerKey, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.store.Repos().Orders.GetOrder(ctx, orderID)
	if err != nil {
		if stdErrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFoundError("Order not found")
		}
		return nil, storeFailure(err, "Failed to fetch the order")
	}

	if !order.OwnedBy(owner) {
		return nil, errors.NotFoundError("Order not found")
	}

	return order, nil
}

func (s *orderService) List(ctx context.Context, owner models.OwnerKey, page, size int) (*models.PaginatedResponse, error) {
	req := models.PageRequest{Page: page, Size: size}.Clamp(s.cfg.DefaultPageSize, s.cfg.MaxPageSize)

	orders, total, err := s.store.Repos().Orders.ListOrdersByOwner(ctx, owner.OrderOwnerID(), req.Page, req.Size)
	if err != nil {
		return nil, storeFailure(err, "Failed to list orders")
	}

	return models.NewPage(orders, total, req), nil
}

func (s *orderService) Tracking(ctx context.Context, owner models.OwnerKey, orderID uuid.UUID) (*models.OrderTracking, error) {
	order, err := s.Get(ctx, owner, orderID)
	if err != nil {
		return nil, err
	}

	return order.Tracking(), nil
}

// ExpireStalePending cancels pending orders older than olderThan. Orders
// that moved on in the meantime are skipped.
func (s *orderService) ExpireStalePending(ctx context.Context, olderThan time.Duration) (int, error) {
	logger := middleware.LoggerFromContext(ctx)

	ids, err := s.store.Repos().Orders.ListStalePending(ctx, s.now().Add(-olderThan), staleSweepBatch)
	if err != nil {
		return 0, storeFailure(err, "Failed to list stale orders")
	}

	expired := 0

	for _, id := range ids {
		if _, err := s.cancel(ctx, id, nil, staleCancelReason); err != nil {
			if errors.HasCode(err, errors.ErrCodeInvalidStateTransition) || errors.IsRetryable(err) {
				logger.Info("Skipping order that is no longer stale", slog.String("orderID", id.String()))
				continue
			}
			return expired, err
		}

		expired++
	}

	return expired, nil
}
