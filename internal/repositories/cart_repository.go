package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
)

type CartRepository interface {
	// GetCart returns ErrNotFound for a missing or expired cart.
	GetCart(ctx context.Context, owner models.OwnerKey, now time.Time) (*models.Cart, error)
	// SaveCart inserts a new cart (Version 0) or updates one whose stored
	// version still matches. On success cart.Version is advanced; on a
	// mismatch ErrVersionConflict is returned.
	SaveCart(ctx context.Context, cart *models.Cart) error
	DeleteCart(ctx context.Context, owner models.OwnerKey) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type cartRepository struct {
	DB Querier
}

func NewCartRepo(db Querier) CartRepository {
	return &cartRepository{DB: db}
}

func (r *cartRepository) GetCart(ctx context.Context, owner models.OwnerKey, now time.Time) (*models.Cart, error) {
	dbCtx, cancel := utils.WithQueryTimeout(ctx)
	defer cancel()

	query := `
		SELECT items, COALESCE(discount_code, ''), version, created_at, updated_at, expires_at
		FROM carts
		WHERE owner_kind = $1 AND owner_id = $2
		  AND (expires_at IS NULL OR expires_at > $3)
	`

	cart := &models.Cart{Owner: owner}

	var (
		itemsJSON []byte
		expiresAt sql.NullTime
	)

	err := r.DB.QueryRowContext(dbCtx, query, owner.Kind, owner.ID, now).Scan(&itemsJSON, &cart.DiscountCode, &cart.Version, &cart.CreatedAt, &cart.UpdatedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying cart: %w", err)
	}

	if err := json.Unmarshal(itemsJSON, &cart.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart items: %w", err)
	}

	if cart.Items == nil {
		cart.Items = []models.CartLine{}
	}

	if expiresAt.Valid {
		cart.ExpiresAt = &expiresAt.Time
	}

	return cart, nil
}

func (r *cartRepository) SaveCart(ctx context.Context, cart *models.Cart) error {
	dbCtx, cancel := utils.WithQueryTimeout(ctx)
	defer cancel()

	items := cart.Items
	if items == nil {
		items = []models.CartLine{}
	}

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal cart items: %w", err)
	}

	var version int64

	if cart.IsNew() {
		// An expired row for the same owner is replaced; a live one means
		// somebody else created the cart first.
		query := `
			INSERT INTO carts (owner_kind, owner_id, items, discount_code, version, created_at, updated_at, expires_at)
			VALUES ($1, $2, $3, NULLIF($4, ''), 1, $5, $6, $7)
			ON CONFLICT (owner_kind, owner_id) DO UPDATE
			SET items = EXCLUDED.items,
			    discount_code = EXCLUDED.discount_code,
			    version = carts.version + 1,
			    created_at = EXCLUDED.created_at,
			    updated_at = EXCLUDED.updated_at,
			    expires_at = EXCLUDED.expires_at
			WHERE carts.expires_at IS NOT NULL AND carts.expires_at <= EXCLUDED.updated_at
			RETURNING version
		`

		err = r.DB.QueryRowContext(dbCtx, query, cart.Owner.Kind, cart.Owner.ID, itemsJSON, cart.DiscountCode, cart.CreatedAt, cart.UpdatedAt, cart.ExpiresAt).Scan(&version)
	} else {
		query := `
			UPDATE carts
			SET items = $1, discount_code = NULLIF($2, ''), version = version + 1, updated_at = $3, expires_at = $4
			WHERE owner_kind = $5 AND owner_id = $6 AND version = $7
			RETURNING version
		`

		err = r.DB.QueryRowContext(dbCtx, query, itemsJSON, cart.DiscountCode, cart.UpdatedAt, cart.ExpiresAt, cart.Owner.Kind, cart.Owner.ID, cart.Version).Scan(&version)
	}

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrVersionConflict
		}
		return fmt.Errorf("failed to save the cart: %w", translate(err))
	}

	cart.Version = version

	return nil
}

func (r *cartRepository) DeleteCart(ctx context.Context, owner models.OwnerKey) error {
	dbCtx, cancel := utils.WithQueryTimeout(ctx)
	defer cancel()

	query := `DELETE FROM carts WHERE owner_kind = $1 AND owner_id = $2`

	if _, err := r.DB.ExecContext(dbCtx, query, owner.Kind, owner.ID); err != nil {
		return fmt.Errorf("failed to delete the cart: %w", translate(err))
	}

	return nil
}

func (r *cartRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	dbCtx, cancel := utils.WithQueryTimeout(ctx)
	defer cancel()

	query := `DELETE FROM carts WHERE expires_at IS NOT NULL AND expires_at <= $1`

	result, err := r.DB.ExecContext(dbCtx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired carts: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted rows: %w", err)
	}

	return deleted, nil
}
