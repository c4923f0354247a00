package service_test

import (
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/catalog"
	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/lock"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/notifier"
	"github.com/aaravmahajanofficial/storefront/internal/pricing"
	"github.com/aaravmahajanofficial/storefront/internal/repositories/memory"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *memory.Store
	hub     *notifier.Hub
	catalog catalog.Catalog
	ledger  service.LedgerService
	carts   service.CartService
	orders  service.OrderService
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	cart      config.Cart
	orders    config.Orders
	confirmer service.PaymentConfirmer
}

func withCartConfig(c config.Cart) fixtureOption {
	return func(fc *fixtureConfig) { fc.cart = c }
}

func withOrdersConfig(o config.Orders) fixtureOption {
	return func(fc *fixtureConfig) { fc.orders = o }
}

func withConfirmer(c service.PaymentConfirmer) fixtureOption {
	return func(fc *fixtureConfig) { fc.confirmer = c }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	fc := &fixtureConfig{
		cart:   config.Cart{SessionTTL: time.Hour, LockWait: time.Second},
		orders: config.Orders{AllowGuestCheckout: true, PendingTTL: 48 * time.Hour, DefaultPageSize: 10, MaxPageSize: 100},
	}
	for _, opt := range opts {
		opt(fc)
	}

	store := memory.NewStore()
	locker := lock.NewKeyedMutex()
	hub := notifier.NewHub(16)
	cat := catalog.New(store.Repos().Variants, nil, 0)

	calc := pricing.NewCalculator(
		config.Pricing{Currency: "USD", TaxRate: 0.10, FreeShippingThreshold: 500, FlatShippingFee: 15},
		config.Loyalty{PointValue: 1, EarnRate: 0.01},
	)

	ledger := service.NewLedgerService(store, calc)
	gate := service.NewInventoryGate(cat)

	return &fixture{
		store:   store,
		hub:     hub,
		catalog: cat,
		ledger:  ledger,
		carts:   service.NewCartService(store, locker, gate, ledger, calc, hub, fc.cart),
		orders:  service.NewOrderService(store, locker, cat, calc, fc.confirmer, hub, fc.orders, fc.cart.LockWait),
	}
}

func (f *fixture) seedVariant(t *testing.T, id string, price int64, stock int) {
	t.Helper()

	err := f.store.Repos().Variants.UpsertVariant(t.Context(), &models.Variant{
		ID:            id,
		SKU:           "SKU-" + id,
		Name:          "Variant " + id,
		Price:         decimal.NewFromInt(price),
		StockQuantity: stock,
		Active:        true,
	})
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()

	variant, err := f.store.Repos().Variants.GetVariant(t.Context(), id)
	require.NoError(t, err)

	return variant.StockQuantity
}

func (f *fixture) seedDiscount(t *testing.T, discount *models.DiscountCode) {
	t.Helper()

	if discount.StartsAt.IsZero() {
		discount.StartsAt = time.Now().Add(-time.Hour)
	}

	require.NoError(t, f.store.Repos().Discounts.CreateDiscount(t.Context(), discount))
}

func (f *fixture) seedPoints(t *testing.T, userID string, points int64) {
	t.Helper()

	_, err := f.store.Repos().Loyalty.AddTransaction(t.Context(), &models.LoyaltyTransaction{
		ID:        uuid.New(),
		UserID:    userID,
		Delta:     points,
		Reason:    models.LoyaltyReasonEarned,
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, userID string) int64 {
	t.Helper()

	balance, err := f.store.Repos().Loyalty.GetBalance(t.Context(), userID)
	require.NoError(t, err)

	return balance
}

type lineContent struct {
	VariantID string
	Quantity  int
	UnitPrice string
}

// lineContents drops AddedAt so carts built at different instants compare equal.
func lineContents(lines []models.CartLine) []lineContent {
	out := make([]lineContent, 0, len(lines))
	for _, l := range lines {
		out = append(out, lineContent{VariantID: l.VariantID, Quantity: l.Quantity, UnitPrice: l.UnitPrice.String()})
	}
	return out
}

func percentOff(code string, pct int64) *models.DiscountCode {
	return &models.DiscountCode{Code: code, Kind: models.DiscountPercentage, Value: decimal.NewFromInt(pct), Active: true}
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func checkoutRequest() *models.CheckoutRequest {
	return &models.CheckoutRequest{
		ShippingAddress: models.Address{
			RecipientName: "Ada Lovelace",
			Street:        "1 Analytical Way",
			City:          "London",
			State:         "London",
			PostalCode:    "N1 9GU",
			Country:       "gb",
		},
		PaymentMethod: models.PaymentMethodCreditCard,
	}
}
