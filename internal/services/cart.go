package service

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/lock"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/notifier"
	"github.com/aaravmahajanofficial/storefront/internal/pricing"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
)

type CartService interface {
	GetOrCreate(ctx context.Context, owner models.OwnerKey) (*models.CartView, error)
	// View is GetOrCreate priced with an optional what-if code and points.
	View(ctx context.Context, owner models.OwnerKey, discountCode string, points int64) (*models.CartView, error)
	AddItem(ctx context.Context, owner models.OwnerKey, variantID string, qty int) (*models.CartView, error)
	SetItemQuantity(ctx context.Context, owner models.OwnerKey, variantID string, qty int) (*models.CartView, error)
	RemoveItem(ctx context.Context, owner models.OwnerKey, variantID string) (*models.CartView, error)
	Clear(ctx context.Context, owner models.OwnerKey) (*models.CartView, error)
	MergeSessionIntoUser(ctx context.Context, sessionID, userID string) (*models.CartView, error)
	ApplyDiscount(ctx context.Context, owner models.OwnerKey, code string) (*models.CartView, error)
	RemoveDiscount(ctx context.Context, owner models.OwnerKey) (*models.CartView, error)
	GetPriceBreakdown(ctx context.Context, owner models.OwnerKey, discountCode string, points int64) (*models.PriceBreakdown, error)
}

type cartService struct {
	store    repository.Store
	locker   lock.Locker
	gate     *InventoryGate
	ledger   LedgerService
	calc     *pricing.Calculator
	notifier notifier.Notifier
	cfg      config.Cart
	now      func() time.Time
}

func NewCartService(store repository.Store, locker lock.Locker, gate *InventoryGate, ledger LedgerService, calc *pricing.Calculator, n notifier.Notifier, cfg config.Cart) CartService {
	if n == nil {
		n = notifier.Nop()
	}

	return &cartService{store: store, locker: locker, gate: gate, ledger: ledger, calc: calc, notifier: n, cfg: cfg, now: time.Now}
}

func cartLockKey(owner models.OwnerKey) string {
	return "cart:" + owner.String()
}

// acquire takes the per-owner locks, waiting at most LockWait.
func acquire(ctx context.Context, locker lock.Locker, wait time.Duration, owners ...models.OwnerKey) (func(), error) {
	keys := make([]string, 0, len(owners))
	for _, owner := range owners {
		if err := owner.Validate(); err != nil {
			return nil, errors.BadRequestError("Invalid cart owner").WithError(err)
		}
		keys = append(keys, cartLockKey(owner))
	}

	lockCtx := ctx
	if wait > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	start := time.Now()
	unlock, err := lock.LockAll(lockCtx, locker, keys...)
	metrics.ObserveLockWait(time.Since(start))

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.ConcurrencyError("Cart is busy, please retry").WithError(err)
	}

	return unlock, nil
}

// load returns the stored cart or a fresh, unsaved one.
func (s *cartService) load(ctx context.Context, repos *repository.Repositories, owner models.OwnerKey) (*models.Cart, error) {
	cart, err := repos.Carts.GetCart(ctx, owner, s.now())
	if err != nil {
		if stdErrors.Is(err, repository.ErrNotFound) {
			return models.NewCart(owner, s.now()), nil
		}
		return nil, storeFailure(err, "Failed to load the cart")
	}

	return cart, nil
}

func (s *cartService) touch(cart *models.Cart) {
	now := s.now()
	cart.UpdatedAt = now

	if cart.Owner.IsSession() && s.cfg.SessionTTL > 0 {
		expiresAt := now.Add(s.cfg.SessionTTL)
		cart.ExpiresAt = &expiresAt
	} else {
		cart.ExpiresAt = nil
	}
}

// mutate is the single write path: lock the owner, load, apply fn, save
// with the version check, publish. fn reports whether it changed the cart.
func (s *cartService) mutate(ctx context.Context, op string, owner models.OwnerKey, fn func(cart *models.Cart) (bool, error)) (view *models.CartView, err error) {
	logger := middleware.LoggerFromContext(ctx)

	defer func() {
		metrics.ObserveCartMutation(op, errorCode(err))
	}()

	unlock, err := acquire(ctx, s.locker, s.cfg.LockWait, owner)
	if err != nil {
		return nil, err
	}
	defer unlock()

	repos := s.store.Repos()

	cart, err := s.load(ctx, repos, owner)
	if err != nil {
		return nil, err
	}

	changed, err := fn(cart)
	if err != nil {
		logger.Info("Cart mutation rejected", slog.String("op", op), slog.String("error", err.Error()))
		return nil, err
	}

	if changed {
		s.touch(cart)

		if err := repos.Carts.SaveCart(ctx, cart); err != nil {
			logger.Warn("Failed to save the cart", slog.String("op", op), slog.Any("error", err))
			return nil, storeFailure(err, "Failed to save the cart")
		}
	}

	view = s.view(ctx, cart)

	if changed {
		s.notifier.Publish(ctx, notifier.NewEvent(ctx, notifier.EventCartUpdated, owner, view))
	}

	return view, nil
}

// view prices the cart with its applied code. A code that stopped being
// valid is left on the cart but not priced.
func (s *cartService) view(ctx context.Context, cart *models.Cart) *models.CartView {
	gross := s.calc.Gross(cart.Items)
	adj := pricing.Adjustments{}

	if cart.DiscountCode != "" {
		discount, err := checkDiscount(ctx, s.store.Repos().Discounts, cart.DiscountCode, gross, s.now(), false)
		if err != nil {
			middleware.LoggerFromContext(ctx).Info("Applied discount no longer valid", slog.String("code", cart.DiscountCode), slog.String("error", err.Error()))
		} else {
			adj.Discount = discount
		}
	}

	return &models.CartView{Cart: cart, ItemCount: cart.ItemCount(), Pricing: s.calc.Quote(cart.Items, adj)}
}

func (s *cartService) GetOrCreate(ctx context.Context, owner models.OwnerKey) (*models.CartView, error) {
	return s.mutate(ctx, "get_or_create", owner, func(cart *models.Cart) (bool, error) {
		return cart.IsNew(), nil
	})
}

func (s *cartService) View(ctx context.Context, owner models.OwnerKey, discountCode string, points int64) (*models.CartView, error) {
	view, err := s.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}

	if discountCode == "" && points == 0 {
		return view, nil
	}

	breakdown, err := s.quote(ctx, view.Cart, discountCode, points)
	if err != nil {
		return nil, err
	}

	view.Pricing = *breakdown

	return view, nil
}

func (s *cartService) AddItem(ctx context.Context, owner models.OwnerKey, variantID string, qty int) (*models.CartView, error) {
	if qty <= 0 {
		return nil, errors.InvalidQuantityError(qty)
	}

	if qty > models.MaxRequestQuantity {
		return nil, errors.QuantityTooLargeError(qty, models.MaxRequestQuantity)
	}

	return s.mutate(ctx, "add_item", owner, func(cart *models.Cart) (bool, error) {
		variant, err := s.gate.CheckAvailable(ctx, variantID, cart.Quantity(variantID)+qty)
		if err != nil {
			return false, err
		}

		cart.AddLine(variantID, qty, variant.Price, s.now())

		return true, nil
	})
}

func (s *cartService) SetItemQuantity(ctx context.Context, owner models.OwnerKey, variantID string, qty int) (*models.CartView, error) {
	if qty > models.MaxRequestQuantity {
		return nil, errors.QuantityTooLargeError(qty, models.MaxRequestQuantity)
	}

	return s.mutate(ctx, "set_quantity", owner, func(cart *models.Cart) (bool, error) {
		if qty <= 0 {
			return cart.RemoveLine(variantID), nil
		}

		if _, ok := cart.Line(variantID); !ok {
			return false, errors.ItemNotFoundError(variantID)
		}

		if _, err := s.gate.CheckAvailable(ctx, variantID, qty); err != nil {
			return false, err
		}

		return cart.SetQuantity(variantID, qty), nil
	})
}

func (s *cartService) RemoveItem(ctx context.Context, owner models.OwnerKey, variantID string) (*models.CartView, error) {
	return s.mutate(ctx, "remove_item", owner, func(cart *models.Cart) (bool, error) {
		return cart.RemoveLine(variantID), nil
	})
}

func (s *cartService) Clear(ctx context.Context, owner models.OwnerKey) (*models.CartView, error) {
	return s.mutate(ctx, "clear", owner, func(cart *models.Cart) (bool, error) {
		if cart.IsEmpty() && cart.DiscountCode == "" {
			return false, nil
		}

		cart.Clear()

		return true, nil
	})
}

func (s *cartService) ApplyDiscount(ctx context.Context, owner models.OwnerKey, code string) (*models.CartView, error) {
	return s.mutate(ctx, "apply_discount", owner, func(cart *models.Cart) (bool, error) {
		quote, err := s.ledger.ValidateDiscount(ctx, code, s.calc.Gross(cart.Items))
		if err != nil {
			return false, err
		}

		if cart.DiscountCode == quote.Code {
			return false, nil
		}

		cart.DiscountCode = quote.Code

		return true, nil
	})
}

func (s *cartService) RemoveDiscount(ctx context.Context, owner models.OwnerKey) (*models.CartView, error) {
	return s.mutate(ctx, "remove_discount", owner, func(cart *models.Cart) (bool, error) {
		if cart.DiscountCode == "" {
			return false, nil
		}

		cart.DiscountCode = ""

		return true, nil
	})
}

// GetPriceBreakdown is a pure read: it neither creates nor locks the cart.
func (s *cartService) GetPriceBreakdown(ctx context.Context, owner models.OwnerKey, discountCode string, points int64) (*models.PriceBreakdown, error) {
	if err := owner.Validate(); err != nil {
		return nil, errors.BadRequestError("Invalid cart owner").WithError(err)
	}

	cart, err := s.load(ctx, s.store.Repos(), owner)
	if err != nil {
		return nil, err
	}

	return s.quote(ctx, cart, discountCode, points)
}

// quote prices cart with an explicit code (which must be valid) or else the
// cart's applied code (skipped if no longer valid), plus a redemption.
func (s *cartService) quote(ctx context.Context, cart *models.Cart, discountCode string, points int64) (*models.PriceBreakdown, error) {
	gross := s.calc.Gross(cart.Items)
	adj := pricing.Adjustments{}

	switch {
	case discountCode != "":
		discount, err := checkDiscount(ctx, s.store.Repos().Discounts, discountCode, gross, s.now(), false)
		if err != nil {
			return nil, err
		}
		adj.Discount = discount

	case cart.DiscountCode != "":
		if discount, err := checkDiscount(ctx, s.store.Repos().Discounts, cart.DiscountCode, gross, s.now(), false); err == nil {
			adj.Discount = discount
		}
	}

	if points != 0 {
		redemption, err := s.ledger.RedeemLoyalty(ctx, cart.Owner, points)
		if err != nil {
			return nil, err
		}
		adj.LoyaltyPoints = redemption.Points
	}

	breakdown := s.calc.Quote(cart.Items, adj)

	return &breakdown, nil
}

// MergeSessionIntoUser folds the anonymous cart into the user's at login.
// Lines are summed per variant; anything the catalog can no longer supply
// is clamped to stock or dropped. Running it twice is a no-op.
func (s *cartService) MergeSessionIntoUser(ctx context.Context, sessionID, userID string) (view *models.CartView, err error) {
	logger := middleware.LoggerFromContext(ctx)

	defer func() {
		metrics.ObserveCartMutation("merge", errorCode(err))
	}()

	sessionOwner := models.SessionOwner(sessionID)
	userOwner := models.UserOwner(userID)

	unlock, err := acquire(ctx, s.locker, s.cfg.LockWait, sessionOwner, userOwner)
	if err != nil {
		return nil, err
	}
	defer unlock()

	repos := s.store.Repos()

	sessionCart, err := repos.Carts.GetCart(ctx, sessionOwner, s.now())
	if err != nil && !stdErrors.Is(err, repository.ErrNotFound) {
		return nil, storeFailure(err, "Failed to load the session cart")
	}

	userCart, err := s.load(ctx, repos, userOwner)
	if err != nil {
		return nil, err
	}

	if sessionCart == nil {
		return s.view(ctx, userCart), nil
	}

	merged, err := s.clampToStock(ctx, models.MergeLines(userCart.Items, sessionCart.Items))
	if err != nil {
		return nil, err
	}

	userCart.Items = merged
	if userCart.DiscountCode == "" {
		userCart.DiscountCode = sessionCart.DiscountCode
	}
	s.touch(userCart)

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		if err := tx.Carts.SaveCart(ctx, userCart); err != nil {
			return err
		}

		return tx.Carts.DeleteCart(ctx, sessionOwner)
	})
	if err != nil {
		logger.Warn("Failed to merge carts", slog.Any("error", err))
		return nil, storeFailure(err, "Failed to merge the carts")
	}

	logger.Info("Session cart merged", slog.String("sessionOwner", sessionOwner.String()), slog.Int("lines", len(userCart.Items)))

	view = s.view(ctx, userCart)
	s.notifier.Publish(ctx, notifier.NewEvent(ctx, notifier.EventCartMerged, userOwner, view))

	return view, nil
}

func (s *cartService) clampToStock(ctx context.Context, lines []models.CartLine) ([]models.CartLine, error) {
	logger := middleware.LoggerFromContext(ctx)
	kept := make([]models.CartLine, 0, len(lines))

	for _, line := range lines {
		variant, err := s.gate.lookup(ctx, line.VariantID)
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeNotFound) {
				logger.Info("Dropping unknown variant during merge", slog.String("variantID", line.VariantID))
				continue
			}
			return nil, err
		}

		if !variant.Active || variant.StockQuantity <= 0 {
			logger.Info("Dropping unavailable variant during merge", slog.String("variantID", line.VariantID))
			continue
		}

		line.Quantity = min(line.Quantity, variant.StockQuantity)
		kept = append(kept, line)
	}

	return kept, nil
}
