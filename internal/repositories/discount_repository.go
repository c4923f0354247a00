package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
)

type DiscountRepository interface {
	GetByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	GetByCodeForUpdate(ctx context.Context, code string) (*models.DiscountCode, error)
	// IncrementUsage fails with ErrInsufficient once the usage limit is hit.
	IncrementUsage(ctx context.Context, code string) error
	CreateDiscount(ctx context.Context, discount *models.DiscountCode) error
}

type discountRepository struct {
	DB Querier
}

func NewDiscountRepo(db Querier) DiscountRepository {
	return &discountRepository{DB: db}
}

const discountColumns = `code, kind, value, active, starts_at, ends_at, min_subtotal, usage_limit, used_count, created_at`

func (r *discountRepository) get(ctx context.Context, query, code string) (*models.DiscountCode, error) {
	dbCtx, cancel := utils.WithQueryTimeout(ctx)
	defer cancel()

	discount := &models.DiscountCode{}

	var endsAt sql.NullTime

	err := r.DB.QueryRowContext(dbCtx, query, models.NormalizeDiscountCode(code)).Scan(
		&discount.Code, &discount.Kind, &discount.Value, &discount.Active, &discount.StartsAt, &endsAt,
		&discount.MinSubtotal, &discount.UsageLimit, &discount.UsedCount, &discount.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying discount code: %w", translate(err))
	}

	if endsAt.Valid {
		discount.EndsAt = &endsAt.Time
	}

	return discount, nil
}

func (r *discountRepository) GetByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	return r.get(ctx, `SELECT `+discountColumns+` FROM discount_codes WHERE code = $1`, code)
}

func (r *discountRepository) GetByCodeForUpdate(ctx context.Context, code string) (*models.DiscountCode, error) {
	return r.get(ctx, `SELECT `+discountColumns+` FROM discount_codes WHERE code = $1 FOR UPDATE`, code)
}

func (r *discountRepository) IncrementUsage(ctx context.Context, code string) error {
	dbCtx, cancel := utils.WithQueryTimeout(ctx)
	defer cancel()

	query := `
		UPDATE discount_codes
		SET used_count = used_count + 1
		WHERE code = $1 AND (usage_limit = 0 OR used_count < usage_limit)
	`

	result, err := r.DB.ExecContext(dbCtx, query, models.NormalizeDiscountCode(code))
	if err != nil {
		return fmt.Errorf("failed to increment discount usage: %w", translate(err))
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

func (r *discountRepository) CreateDiscount(ctx context.Context, discount *models.DiscountCode) error {
	dbCtx, cancel := utils.WithQueryTimeout(ctx)
	defer cancel()

	discount.Code = models.NormalizeDiscountCode(discount.Code)

	query := `
		INSERT INTO discount_codes (code, kind, value, active, starts_at, ends_at, min_subtotal, usage_limit, used_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, NOW())
		RETURNING created_at
	`

	return r.DB.QueryRowContext(dbCtx, query, discount.Code, discount.Kind, discount.Value, discount.Active, discount.StartsAt, discount.EndsAt, discount.MinSubtotal, discount.UsageLimit).Scan(&discount.CreatedAt)
}
