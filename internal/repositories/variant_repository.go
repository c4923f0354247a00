package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
)

type VariantRepository interface {
	GetVariant(ctx context.Context, id string) (*models.Variant, error)
	// GetVariantForUpdate row-locks the variant until the transaction ends.
	GetVariantForUpdate(ctx context.Context, id string) (*models.Variant, error)
	// AdjustStock adds delta to the stock counter. A change that would drop
	// stock below zero fails with ErrInsufficient.
	AdjustStock(ctx context.Context, id string, delta int) error
	UpsertVariant(ctx context.Context, variant *models.Variant) error
}

type variantRepository struct {
	DB Querier
}

func NewVariantRepo(db Querier) VariantRepository {
	return &variantRepository{DB: db}
}

const variantColumns = `id, sku, name, price, stock_quantity, active, updated_at`

func (r *variantRepository) get(ctx context.Context, query, id string) (*models.Variant, error) {
	dbCtx, cancel := utils.WithQueryTimeout(ctx)
	defer cancel()

	variant := &models.Variant{}

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(&variant.ID, &variant.SKU, &variant.Name, &variant.Price, &variant.StockQuantity, &variant.Active, &variant.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying variant: %w", translate(err))
	}

	return variant, nil
}

func (r *variantRepository) GetVariant(ctx context.Context, id string) (*models.Variant, error) {
	return r.get(ctx, `SELECT `+variantColumns+` FROM variants WHERE id = $1`, id)
}

func (r *variantRepository) GetVariantForUpdate(ctx context.Context, id string) (*models.Variant, error) {
	return r.get(ctx, `SELECT `+variantColumns+` FROM variants WHERE id = $1 FOR UPDATE`, id)
}

func (r *variantRepository) AdjustStock(ctx context.Context, id string, delta int) error {
	dbCtx, cancel := utils.WithQueryTimeout(ctx)
	defer cancel()

	query := `
		UPDATE variants
		SET stock_quantity = stock_quantity + $1, updated_at = NOW()
		WHERE id = $2 AND stock_quantity + $1 >= 0
	`

	result, err := r.DB.ExecContext(dbCtx, query, delta, id)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", translate(err))
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return ErrInsufficient
	}

	return nil
}

func (r *variantRepository) UpsertVariant(ctx context.Context, variant *models.Variant) error {
	dbCtx, cancel := utils.WithQueryTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO variants (id, sku, name, price, stock_quantity, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE
		SET sku = EXCLUDED.sku, name = EXCLUDED.name, price = EXCLUDED.price,
		    stock_quantity = EXCLUDED.stock_quantity, active = EXCLUDED.active, updated_at = NOW()
		RETURNING updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query, variant.ID, variant.SKU, variant.Name, variant.Price, variant.StockQuantity, variant.Active).Scan(&variant.UpdatedAt)
}
