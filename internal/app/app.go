// Package app wires configuration into the storefront's stores, services
// and background workers. The API server and the ops CLI share it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aaravmahajanofficial/storefront/internal/cache"
	"github.com/aaravmahajanofficial/storefront/internal/catalog"
	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/lock"
	"github.com/aaravmahajanofficial/storefront/internal/migrations"
	"github.com/aaravmahajanofficial/storefront/internal/notifier"
	"github.com/aaravmahajanofficial/storefront/internal/pricing"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/aaravmahajanofficial/storefront/internal/repositories/memory"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Config *config.Config

	// DB is nil with the memory store, Redis when no host is configured.
	DB    *sql.DB
	Redis *redis.Client

	Store    repository.Store
	Cache    cache.Cache
	Catalog  catalog.Catalog
	Locker   lock.Locker
	Limiter  repository.RateLimitRepository
	Hub      *notifier.Hub
	Bridge   *notifier.RedisBridge
	Notifier notifier.Notifier

	Ledger  service.LedgerService
	Carts   service.CartService
	Orders  service.OrderService
	Janitor *service.Janitor

	closeOnce sync.Once
}

// New opens the configured store and Redis (if any) and builds every
// service on top of them.
func New(cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	if err := a.openStore(); err != nil {
		return nil, err
	}

	if err := a.openRedis(); err != nil {
		a.Close()
		return nil, err
	}

	calc := pricing.NewCalculator(cfg.Pricing, cfg.Loyalty)

	a.Catalog = catalog.New(a.Store.Repos().Variants, a.Cache, cfg.Cache.VariantTTL)
	a.Ledger = service.NewLedgerService(a.Store, calc)
	a.Carts = service.NewCartService(a.Store, a.Locker, service.NewInventoryGate(a.Catalog), a.Ledger, calc, a.Notifier, cfg.Cart)
	a.Orders = service.NewOrderService(a.Store, a.Locker, a.Catalog, calc, service.NewMethodConfirmer(), a.Notifier, cfg.Orders, cfg.Cart.LockWait)
	a.Janitor = service.NewJanitor(a.Store, a.Orders, cfg.Orders.PendingTTL)

	return a, nil
}

func (a *App) openStore() error {
	switch a.Config.Storage.Driver {
	case config.StorageDriverMemory:
		slog.Warn("Using the in-memory store, data is lost on restart")
		a.Store = memory.NewStore()

	case config.StorageDriverPostgres:
		db, err := repository.Open(&a.Config.Database)
		if err != nil {
			return err
		}

		if a.Config.Storage.AutoMigrate {
			if err := migrations.Up(db); err != nil {
				db.Close()
				return fmt.Errorf("failed to apply migrations: %w", err)
			}
			slog.Info("✅ Database schema is up to date")
		}

		a.DB = db
		a.Store = repository.NewPostgresStore(db)

	default:
		return fmt.Errorf("unknown storage driver %q", a.Config.Storage.Driver)
	}

	return nil
}

// openRedis falls back to in-process locks, cache, limiter and notifier when
// Redis is not configured. That is only correct for a single replica.
func (a *App) openRedis() error {
	cfg := a.Config

	a.Hub = notifier.NewHub(cfg.Notifier.SubscriberBuffer)

	if !cfg.RedisConnect.Enabled() {
		slog.Warn("Redis is not configured, locks and notifications are local to this process")

		a.Cache = cache.NewNopCache()
		a.Locker = lock.NewKeyedMutex()
		a.Limiter = repository.NewAllowAllLimiter()
		a.Notifier = a.Hub

		return nil
	}

	client, err := repository.NewRedisClient(&cfg.RedisConnect)
	if err != nil {
		return err
	}

	a.Redis = client
	a.Cache = cache.NewRedisCache(client, &cfg.Cache)
	a.Locker = lock.NewRedisLocker(client, cfg.Cart.LockTTL)
	a.Limiter = repository.NewRateLimitRepo(client, cfg.RateConfig)
	a.Bridge = notifier.NewRedisBridge(client, cfg.Notifier.Channel, a.Hub)
	a.Notifier = a.Bridge

	return nil
}

// RunWorkers starts the notifier relay and the janitor. Both stop with ctx.
func (a *App) RunWorkers(ctx context.Context) *sync.WaitGroup {
	var wg sync.WaitGroup

	if a.Bridge != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Bridge.Run(ctx)
		}()
	}

	if a.Config.Cart.SweepInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Janitor.Run(ctx, a.Config.Cart.SweepInterval)
		}()
	}

	return &wg
}

func (a *App) Close() error {
	var errs []error

	a.closeOnce.Do(func() {
		if a.Redis != nil {
			if err := a.Redis.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close redis: %w", err))
			}
		}

		if a.Store != nil {
			if err := a.Store.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close store: %w", err))
			}
		}
	})

	return errors.Join(errs...)
}
