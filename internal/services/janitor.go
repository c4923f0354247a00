package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
)

type SweepResult struct {
	ExpiredCarts  int64 `json:"expired_carts"`
	ExpiredOrders int   `json:"expired_orders"`
}

// Janitor removes expired session carts and cancels pending orders whose
// payment was never confirmed.
type Janitor struct {
	store      repository.Store
	orders     OrderService
	pendingTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func NewJanitor(store repository.Store, orders OrderService, pendingTTL time.Duration) *Janitor {
	return &Janitor{store: store, orders: orders, pendingTTL: pendingTTL, logger: slog.Default(), now: time.Now}
}

func (j *Janitor) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	carts, err := j.store.Repos().Carts.DeleteExpired(ctx, j.now())
	if err != nil {
		return result, storeFailure(err, "Failed to delete expired carts")
	}

	result.ExpiredCarts = carts
	metrics.ObserveSwept("carts", carts)

	if j.pendingTTL > 0 {
		orders, err := j.orders.ExpireStalePending(ctx, j.pendingTTL)
		result.ExpiredOrders = orders
		metrics.ObserveSwept("orders", int64(orders))

		if err != nil {
			return result, err
		}
	}

	return result, nil
}

// Run sweeps every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := j.Sweep(ctx)
			if err != nil {
				j.logger.Error("Janitor sweep failed", slog.Any("error", err))
				continue
			}

			if result.ExpiredCarts > 0 || result.ExpiredOrders > 0 {
				j.logger.Info("Janitor sweep finished",
					slog.Int64("expiredCarts", result.ExpiredCarts),
					slog.Int("expiredOrders", result.ExpiredOrders),
				)
			}
		}
	}
}
