package repository_test

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantRepository(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewVariantRepo(db)
	ctx := t.Context()
	now := time.Now()
	columns := []string{"id", "sku", "name", "price", "stock_quantity", "active", "updated_at"}

	t.Run("GetVariant", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			// Arrange
			mock.ExpectQuery(regexp.QuoteMeta(`FROM variants WHERE id = $1`)).
				WithArgs("v1").
				WillReturnRows(sqlmock.NewRows(columns).AddRow("v1", "TSHIRT-M", "T-Shirt M", "19.99", 4, true, now))

			// Act
			variant, err := repo.GetVariant(ctx, "v1")

			// Assert
			require.NoError(t, err)
			assert.Equal(t, "TSHIRT-M", variant.SKU)
			assert.True(t, decimal.RequireFromString("19.99").Equal(variant.Price))
			assert.Equal(t, 4, variant.StockQuantity)
			assert.True(t, variant.Active)
			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("Failure - Not Found", func(t *testing.T) {
			// Arrange
			mock.ExpectQuery(regexp.QuoteMeta(`FROM variants WHERE id = $1 FOR UPDATE`)).
				WithArgs("missing").
				WillReturnError(sql.ErrNoRows)

			// Act
			variant, err := repo.GetVariantForUpdate(ctx, "missing")

			// Assert
			require.ErrorIs(t, err, repository.ErrNotFound)
			assert.Nil(t, variant)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	})

	t.Run("AdjustStock", func(t *testing.T) {
		adjustSQL := regexp.QuoteMeta(`UPDATE variants SET stock_quantity = stock_quantity + $1`)

		t.Run("Success", func(t *testing.T) {
			// Arrange
			mock.ExpectExec(adjustSQL).WithArgs(-2, "v1").WillReturnResult(sqlmock.NewResult(0, 1))

			// Act
			err := repo.AdjustStock(ctx, "v1", -2)

			// Assert
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("Failure - Would Go Negative", func(t *testing.T) {
			// Arrange
			mock.ExpectExec(adjustSQL).WithArgs(-9, "v1").WillReturnResult(sqlmock.NewResult(0, 0))

			// Act
			err := repo.AdjustStock(ctx, "v1", -9)

			// Assert
			require.ErrorIs(t, err, repository.ErrInsufficient)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	})

	t.Run("UpsertVariant", func(t *testing.T) {
		// Arrange
		variant := &models.Variant{ID: "v2", SKU: "MUG", Name: "Mug", Price: decimal.NewFromInt(8), StockQuantity: 10, Active: true}
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO variants`)).
			WithArgs("v2", "MUG", "Mug", decimal.NewFromInt(8), 10, true).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

		// Act
		err := repo.UpsertVariant(ctx, variant)

		// Assert
		require.NoError(t, err)
		assert.WithinDuration(t, now, variant.UpdatedAt, time.Second)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
