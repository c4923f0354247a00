// Package catalog is the read side of the product catalog the cart needs:
// variant price, stock and availability, cached in front of Postgres.
package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/cache"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
)

type Catalog interface {
	// GetVariant returns repository.ErrNotFound for an unknown variant.
	GetVariant(ctx context.Context, id string) (*models.Variant, error)
	// UpsertVariant writes through to the store and drops the cached copy.
	UpsertVariant(ctx context.Context, variant *models.Variant) error
	Invalidate(ctx context.Context, ids ...string)
}

type variantCatalog struct {
	repo  repository.VariantRepository
	cache cache.Cache
	ttl   time.Duration
}

func New(repo repository.VariantRepository, c cache.Cache, ttl time.Duration) Catalog {
	if c == nil {
		c = cache.NewNopCache()
	}

	return &variantCatalog{repo: repo, cache: c, ttl: ttl}
}

func (c *variantCatalog) GetVariant(ctx context.Context, id string) (*models.Variant, error) {
	logger := middleware.LoggerFromContext(ctx)

	load := func(ctx context.Context) (*models.Variant, error) {
		return c.repo.GetVariant(ctx, id)
	}

	return cache.Fetch(ctx, c.cache, cache.Key(cache.VariantKeyPrefix, id), c.ttl, load, func(err error) {
		logger.Warn("Variant cache unavailable, reading through", slog.String("variantID", id), slog.Any("error", err))
	})
}

func (c *variantCatalog) UpsertVariant(ctx context.Context, variant *models.Variant) error {
	if err := c.repo.UpsertVariant(ctx, variant); err != nil {
		return err
	}

	c.Invalidate(ctx, variant.ID)

	return nil
}

// Invalidate is called after stock changes so the next add sees fresh
// availability. Failures only cost staleness for one TTL.
func (c *variantCatalog) Invalidate(ctx context.Context, ids ...string) {
	logger := middleware.LoggerFromContext(ctx)

	for _, id := range ids {
		if err := c.cache.Delete(ctx, cache.Key(cache.VariantKeyPrefix, id)); err != nil {
			logger.Warn("Failed to invalidate cached variant", slog.String("variantID", id), slog.Any("error", err))
		}
	}
}
