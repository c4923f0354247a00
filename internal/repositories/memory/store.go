// Package memory is an in-process Store used for local development and
// service tests. Transactions run against a copy of the whole state that is
// swapped in on commit, so a failed unit of work leaves nothing behind.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/google/uuid"
)

type state struct {
	carts       map[models.OwnerKey]*models.Cart
	variants    map[string]*models.Variant
	discounts   map[string]*models.DiscountCode
	balances    map[string]int64
	loyaltyTxns []models.LoyaltyTransaction
	orders      map[uuid.UUID]*models.Order
}

func newState() *state {
	return &state{
		carts:     make(map[models.OwnerKey]*models.Cart),
		variants:  make(map[string]*models.Variant),
		discounts: make(map[string]*models.DiscountCode),
		balances:  make(map[string]int64),
		orders:    make(map[uuid.UUID]*models.Order),
	}
}

func (s *state) clone() *state {
	c := newState()

	for k, v := range s.carts {
		c.carts[k] = v.Clone()
	}

	for k, v := range s.variants {
		variant := *v
		c.variants[k] = &variant
	}

	for k, v := range s.discounts {
		c.discounts[k] = cloneDiscount(v)
	}

	for k, v := range s.balances {
		c.balances[k] = v
	}

	c.loyaltyTxns = append([]models.LoyaltyTransaction(nil), s.loyaltyTxns...)

	for k, v := range s.orders {
		c.orders[k] = cloneOrder(v)
	}

	return c
}

func cloneDiscount(d *models.DiscountCode) *models.DiscountCode {
	discount := *d
	if d.EndsAt != nil {
		endsAt := *d.EndsAt
		discount.EndsAt = &endsAt
	}

	return &discount
}

func cloneOrder(o *models.Order) *models.Order {
	order := *o
	order.Lines = append([]models.OrderLine{}, o.Lines...)
	order.History = append([]models.StatusChange{}, o.History...)

	return &order
}

type Store struct {
	mu    sync.Mutex
	state *state
	repos *repository.Repositories
}

func NewStore() *Store {
	s := &Store{state: newState()}
	s.repos = reposFor(&view{store: s})

	return s
}

// view resolves which state an operation touches: the live state under the
// store mutex, or a transaction's private copy.
type view struct {
	store *Store
	tx    *state
}

func (v *view) with(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}

	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	return fn(v.store.state)
}

func reposFor(v *view) *repository.Repositories {
	return &repository.Repositories{
		Carts:     &cartRepo{v},
		Orders:    &orderRepo{v},
		Variants:  &variantRepo{v},
		Discounts: &discountRepo{v},
		Loyalty:   &loyaltyRepo{v},
	}
}

func (s *Store) Repos() *repository.Repositories {
	return s.repos
}

// WithinTx serializes transactions. fn must only use the repositories it is
// handed; calling s.Repos() from inside fn deadlocks.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.state.clone()

	if err := fn(ctx, reposFor(&view{store: s, tx: tx})); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.state = tx

	return nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}

type cartRepo struct{ v *view }

func (r *cartRepo) GetCart(_ context.Context, owner models.OwnerKey, now time.Time) (*models.Cart, error) {
	var cart *models.Cart

	err := r.v.with(func(st *state) error {
		stored, ok := st.carts[owner]
		if !ok || expired(stored, now) {
			return repository.ErrNotFound
		}

		cart = stored.Clone()

		return nil
	})

	return cart, err
}

func expired(cart *models.Cart, now time.Time) bool {
	return cart.ExpiresAt != nil && !cart.ExpiresAt.After(now)
}

func (r *cartRepo) SaveCart(_ context.Context, cart *models.Cart) error {
	return r.v.with(func(st *state) error {
		stored, ok := st.carts[cart.Owner]

		if cart.IsNew() {
			if ok && !expired(stored, cart.UpdatedAt) {
				return repository.ErrVersionConflict
			}

			var previous int64
			if ok {
				previous = stored.Version
			}

			cart.Version = previous + 1
		} else {
			if !ok || stored.Version != cart.Version {
				return repository.ErrVersionConflict
			}

			cart.Version++
		}

		st.carts[cart.Owner] = cart.Clone()

		return nil
	})
}

func (r *cartRepo) DeleteCart(_ context.Context, owner models.OwnerKey) error {
	return r.v.with(func(st *state) error {
		delete(st.carts, owner)
		return nil
	})
}

func (r *cartRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var deleted int64

	err := r.v.with(func(st *state) error {
		for owner, cart := range st.carts {
			if expired(cart, now) {
				delete(st.carts, owner)
				deleted++
			}
		}

		return nil
	})

	return deleted, err
}

type variantRepo struct{ v *view }

func (r *variantRepo) GetVariant(_ context.Context, id string) (*models.Variant, error) {
	var variant *models.Variant

	err := r.v.with(func(st *state) error {
		stored, ok := st.variants[id]
		if !ok {
			return repository.ErrNotFound
		}

		copied := *stored
		variant = &copied

		return nil
	})

	return variant, err
}

func (r *variantRepo) GetVariantForUpdate(ctx context.Context, id string) (*models.Variant, error) {
	return r.GetVariant(ctx, id)
}

func (r *variantRepo) AdjustStock(_ context.Context, id string, delta int) error {
	return r.v.with(func(st *state) error {
		stored, ok := st.variants[id]
		if !ok || stored.StockQuantity+delta < 0 {
			return repository.ErrInsufficient
		}

		stored.StockQuantity += delta
		stored.UpdatedAt = time.Now()

		return nil
	})
}

func (r *variantRepo) UpsertVariant(_ context.Context, variant *models.Variant) error {
	return r.v.with(func(st *state) error {
		variant.UpdatedAt = time.Now()
		copied := *variant
		st.variants[variant.ID] = &copied

		return nil
	})
}

type discountRepo struct{ v *view }

func (r *discountRepo) GetByCode(_ context.Context, code string) (*models.DiscountCode, error) {
	var discount *models.DiscountCode

	err := r.v.with(func(st *state) error {
		stored, ok := st.discounts[models.NormalizeDiscountCode(code)]
		if !ok {
			return repository.ErrNotFound
		}

		discount = cloneDiscount(stored)

		return nil
	})

	return discount, err
}

func (r *discountRepo) GetByCodeForUpdate(ctx context.Context, code string) (*models.DiscountCode, error) {
	return r.GetByCode(ctx, code)
}

func (r *discountRepo) IncrementUsage(_ context.Context, code string) error {
	return r.v.with(func(st *state) error {
		stored, ok := st.discounts[models.NormalizeDiscountCode(code)]
		if !ok || stored.Exhausted() {
			return repository.ErrInsufficient
		}

		stored.UsedCount++

		return nil
	})
}

func (r *discountRepo) CreateDiscount(_ context.Context, discount *models.DiscountCode) error {
	return r.v.with(func(st *state) error {
		discount.Code = models.NormalizeDiscountCode(discount.Code)
		discount.UsedCount = 0
		discount.CreatedAt = time.Now()
		st.discounts[discount.Code] = cloneDiscount(discount)

		return nil
	})
}

type loyaltyRepo struct{ v *view }

func (r *loyaltyRepo) GetBalance(_ context.Context, userID string) (int64, error) {
	var balance int64

	err := r.v.with(func(st *state) error {
		balance = st.balances[userID]
		return nil
	})

	return balance, err
}

func (r *loyaltyRepo) GetBalanceForUpdate(ctx context.Context, userID string) (int64, error) {
	return r.GetBalance(ctx, userID)
}

func (r *loyaltyRepo) AddTransaction(_ context.Context, txn *models.LoyaltyTransaction) (int64, error) {
	var balance int64

	err := r.v.with(func(st *state) error {
		current, ok := st.balances[txn.UserID]
		if txn.Delta < 0 && (!ok || current+txn.Delta < 0) {
			return repository.ErrInsufficient
		}

		balance = current + txn.Delta
		st.balances[txn.UserID] = balance
		st.loyaltyTxns = append(st.loyaltyTxns, *txn)

		return nil
	})

	return balance, err
}

func (r *loyaltyRepo) ListTransactions(_ context.Context, userID string, limit int) ([]models.LoyaltyTransaction, error) {
	transactions := []models.LoyaltyTransaction{}

	err := r.v.with(func(st *state) error {
		for i := len(st.loyaltyTxns) - 1; i >= 0 && len(transactions) < limit; i-- {
			if st.loyaltyTxns[i].UserID == userID {
				transactions = append(transactions, st.loyaltyTxns[i])
			}
		}

		return nil
	})

	return transactions, err
}

type orderRepo struct{ v *view }

func (r *orderRepo) CreateOrder(_ context.Context, order *models.Order) error {
	return r.v.with(func(st *state) error {
		for _, existing := range st.orders {
			if existing.OrderNumber == order.OrderNumber {
				return repository.ErrVersionConflict
			}
		}

		st.orders[order.ID] = cloneOrder(order)

		return nil
	})
}

func (r *orderRepo) GetOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	var order *models.Order

	err := r.v.with(func(st *state) error {
		stored, ok := st.orders[id]
		if !ok {
			return repository.ErrNotFound
		}

		order = cloneOrder(stored)

		return nil
	})

	return order, err
}

func (r *orderRepo) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.GetOrder(ctx, id)
}

func (r *orderRepo) ListOrdersByOwner(_ context.Context, ownerID string, page, size int) ([]*models.Order, int, error) {
	var (
		orders []*models.Order
		total  int
	)

	err := r.v.with(func(st *state) error {
		owned := []*models.Order{}
		for _, order := range st.orders {
			if order.OwnerUserID == ownerID {
				owned = append(owned, order)
			}
		}

		sort.Slice(owned, func(i, j int) bool {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		})

		total = len(owned)
		start := min(models.PageRequest{Page: page, Size: size}.Offset(), total)
		end := min(start+size, total)

		orders = make([]*models.Order, 0, end-start)
		for _, order := range owned[start:end] {
			orders = append(orders, cloneOrder(order))
		}

		return nil
	})

	return orders, total, err
}

func (r *orderRepo) UpdateStatus(_ context.Context, id uuid.UUID, from models.OrderStatus, change models.StatusChange) error {
	return r.v.with(func(st *state) error {
		stored, ok := st.orders[id]
		if !ok || stored.Status != from {
			return repository.ErrVersionConflict
		}

		stored.Status = change.Status
		stored.UpdatedAt = change.ChangedAt
		stored.History = append(stored.History, change)

		return nil
	})
}

func (r *orderRepo) ListStalePending(_ context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}

	err := r.v.with(func(st *state) error {
		stale := []*models.Order{}
		for _, order := range st.orders {
			if order.Status == models.OrderStatusPending && order.CreatedAt.Before(createdBefore) {
				stale = append(stale, order)
			}
		}

		sort.Slice(stale, func(i, j int) bool {
			return stale[i].CreatedAt.Before(stale[j].CreatedAt)
		})

		for _, order := range stale {
			if len(ids) == limit {
				break
			}
			ids = append(ids, order.ID)
		}

		return nil
	})

	return ids, err
}

var _ repository.Store = (*Store)(nil)
