package service

import (
	"context"
	stdErrors "errors"

	"github.com/aaravmahajanofficial/storefront/internal/catalog"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
)

// InventoryGate answers "can this owner hold qty of the variant right now".
// It never reserves stock; only checkout decrements it.
type InventoryGate struct {
	catalog catalog.Catalog
}

func NewInventoryGate(c catalog.Catalog) *InventoryGate {
	return &InventoryGate{catalog: c}
}

func (g *InventoryGate) CheckAvailable(ctx context.Context, variantID string, qty int) (*models.Variant, error) {
	if qty <= 0 {
		return nil, errors.InvalidQuantityError(qty)
	}

	variant, err := g.lookup(ctx, variantID)
	if err != nil {
		return nil, err
	}

	if err := checkStock(variant, qty); err != nil {
		return nil, err
	}

	return variant, nil
}

func (g *InventoryGate) lookup(ctx context.Context, variantID string) (*models.Variant, error) {
	variant, err := g.catalog.GetVariant(ctx, variantID)
	if err != nil {
		if stdErrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFoundError("Variant not found").WithDetail("variant: " + variantID).WithError(err)
		}
		return nil, errors.InternalError("Failed to read the catalog").WithError(err)
	}

	return variant, nil
}

func checkStock(variant *models.Variant, qty int) error {
	if !variant.Active {
		return errors.OutOfStockError(variant.ID, qty, 0)
	}

	if !variant.Available(qty) {
		return errors.OutOfStockError(variant.ID, qty, variant.StockQuantity)
	}

	return nil
}
