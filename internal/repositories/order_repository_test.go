package repository_test

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOrderRepoTest(t *testing.T) (repository.OrderRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	t.Cleanup(func() {
		db.Close()
	})

	return repository.NewOrderRepository(db), mock
}

func sampleOrder(now time.Time) *models.Order {
	id := uuid.New()

	return &models.Order{
		ID:          id,
		OrderNumber: models.NewOrderNumber(id, now),
		OwnerUserID: "user-1",
		Lines: []models.OrderLine{
			{VariantID: "v1", Quantity: 2, UnitPrice: decimal.NewFromInt(100), LineTotal: decimal.NewFromInt(200)},
			{VariantID: "v2", Quantity: 1, UnitPrice: decimal.NewFromInt(50), LineTotal: decimal.NewFromInt(50)},
		},
		Pricing: models.PriceBreakdown{
			Currency: "USD",
			Subtotal: decimal.NewFromInt(250),
			Total:    decimal.NewFromInt(290),
		},
		ShippingAddress: models.Address{RecipientName: "Jane", Street: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"},
		PaymentMethod:   models.PaymentMethodCreditCard,
		Status:          models.OrderStatusPending,
		History:         []models.StatusChange{{Status: models.OrderStatusPending, ChangedAt: now}},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func orderRow(order *models.Order) []driver.Value {
	pricingJSON, _ := json.Marshal(order.Pricing)
	addressJSON, _ := json.Marshal(order.ShippingAddress)

	return []driver.Value{order.ID.String(), order.OrderNumber, order.OwnerUserID, string(order.Status), pricingJSON, addressJSON, string(order.PaymentMethod),
		order.DiscountCode, order.LoyaltyPointsRedeemed, order.LoyaltyPointsEarned, order.CreatedAt, order.UpdatedAt}
}

var orderColumnNames = []string{"id", "order_number", "owner_user_id", "status", "pricing", "shipping_address", "payment_method",
	"discount_code", "loyalty_points_redeemed", "loyalty_points_earned", "created_at", "updated_at"}

func TestOrderRepository(t *testing.T) {
	repo, mock := setupOrderRepoTest(t)
	ctx := t.Context()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("CreateOrder", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			// Arrange
			order := sampleOrder(now)

			mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).
				WithArgs(order.ID, order.OrderNumber, order.OwnerUserID, order.Status, sqlmock.AnyArg(), sqlmock.AnyArg(),
					order.PaymentMethod, "", int64(0), int64(0), now, now).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items`)).
				WithArgs(order.ID, 0, "v1", 2, decimal.NewFromInt(100), decimal.NewFromInt(200)).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items`)).
				WithArgs(order.ID, 1, "v2", 1, decimal.NewFromInt(50), decimal.NewFromInt(50)).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_status_history`)).
				WithArgs(order.ID, models.OrderStatusPending, "", now).
				WillReturnResult(sqlmock.NewResult(0, 1))

			// Act
			err := repo.CreateOrder(ctx, order)

			// Assert
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
		})

		t.Run("Failure - Item Insert Error", func(t *testing.T) {
			// Arrange
			order := sampleOrder(now)
			dbError := errors.New("foreign key violation")

			mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items`)).WillReturnError(dbError)

			// Act
			err := repo.CreateOrder(ctx, order)

			// Assert
			require.ErrorIs(t, err, dbError)
			assert.ErrorContains(t, err, "failed to insert an order item")
			require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
		})
	})

	t.Run("GetOrder", func(t *testing.T) {
		selectSQL := regexp.QuoteMeta(`FROM orders WHERE id = $1`)

		t.Run("Success", func(t *testing.T) {
			// Arrange
			order := sampleOrder(now)

			mock.ExpectQuery(selectSQL).
				WithArgs(order.ID).
				WillReturnRows(sqlmock.NewRows(orderColumnNames).AddRow(orderRow(order)...))
			mock.ExpectQuery(regexp.QuoteMeta(`FROM order_items`)).
				WillReturnRows(sqlmock.NewRows([]string{"order_id", "variant_id", "quantity", "unit_price", "line_total"}).
					AddRow(order.ID.String(), "v1", 2, "100", "200").
					AddRow(order.ID.String(), "v2", 1, "50", "50"))
			mock.ExpectQuery(regexp.QuoteMeta(`FROM order_status_history`)).
				WillReturnRows(sqlmock.NewRows([]string{"order_id", "status", "reason", "changed_at"}).
					AddRow(order.ID.String(), "pending", "", now))

			// Act
			got, err := repo.GetOrder(ctx, order.ID)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, order.OrderNumber, got.OrderNumber)
			assert.Equal(t, models.OrderStatusPending, got.Status)
			assert.Equal(t, "US", got.ShippingAddress.Country)
			assert.True(t, decimal.NewFromInt(290).Equal(got.Pricing.Total))
			require.Len(t, got.Lines, 2)
			assert.Equal(t, "v1", got.Lines[0].VariantID)
			assert.True(t, decimal.NewFromInt(50).Equal(got.Lines[1].LineTotal))
			require.Len(t, got.History, 1)
			require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
		})

		t.Run("Failure - Not Found", func(t *testing.T) {
			// Arrange
			id := uuid.New()
			mock.ExpectQuery(selectSQL).WithArgs(id).WillReturnError(sql.ErrNoRows)

			// Act
			got, err := repo.GetOrder(ctx, id)

			// Assert
			require.ErrorIs(t, err, repository.ErrNotFound)
			assert.Nil(t, got)
			require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
		})

		t.Run("Success - For Update Locks The Row", func(t *testing.T) {
			// Arrange
			order := sampleOrder(now)

			mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id = $1 FOR UPDATE`)).
				WithArgs(order.ID).
				WillReturnRows(sqlmock.NewRows(orderColumnNames).AddRow(orderRow(order)...))
			mock.ExpectQuery(regexp.QuoteMeta(`FROM order_items`)).
				WillReturnRows(sqlmock.NewRows([]string{"order_id", "variant_id", "quantity", "unit_price", "line_total"}))
			mock.ExpectQuery(regexp.QuoteMeta(`FROM order_status_history`)).
				WillReturnRows(sqlmock.NewRows([]string{"order_id", "status", "reason", "changed_at"}))

			// Act
			got, err := repo.GetOrderForUpdate(ctx, order.ID)

			// Assert
			require.NoError(t, err)
			assert.Empty(t, got.Lines)
			assert.Empty(t, got.History)
			require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
		})
	})

	t.Run("ListOrdersByOwner", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			// Arrange
			first, second := sampleOrder(now), sampleOrder(now.Add(-time.Hour))

			mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM orders WHERE owner_user_id = $1`)).
				WithArgs("user-1").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
			mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at DESC`)).
				WithArgs("user-1", 10, 10).
				WillReturnRows(sqlmock.NewRows(orderColumnNames).AddRow(orderRow(first)...).AddRow(orderRow(second)...))
			mock.ExpectQuery(regexp.QuoteMeta(`FROM order_items`)).
				WillReturnRows(sqlmock.NewRows([]string{"order_id", "variant_id", "quantity", "unit_price", "line_total"}).
					AddRow(second.ID.String(), "v9", 1, "5", "5"))
			mock.ExpectQuery(regexp.QuoteMeta(`FROM order_status_history`)).
				WillReturnRows(sqlmock.NewRows([]string{"order_id", "status", "reason", "changed_at"}))

			// Act
			orders, total, err := repo.ListOrdersByOwner(ctx, "user-1", 2, 10)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, 12, total)
			require.Len(t, orders, 2)
			assert.Empty(t, orders[0].Lines)
			require.Len(t, orders[1].Lines, 1)
			assert.Equal(t, "v9", orders[1].Lines[0].VariantID)
			require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
		})
	})

	t.Run("UpdateStatus", func(t *testing.T) {
		updateSQL := regexp.QuoteMeta(`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`)

		t.Run("Success", func(t *testing.T) {
			// Arrange
			id := uuid.New()
			change := models.StatusChange{Status: models.OrderStatusConfirmed, ChangedAt: now}

			mock.ExpectExec(updateSQL).
				WithArgs(models.OrderStatusConfirmed, now, id, models.OrderStatusPending).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_status_history`)).
				WithArgs(id, models.OrderStatusConfirmed, "", now).
				WillReturnResult(sqlmock.NewResult(0, 1))

			// Act
			err := repo.UpdateStatus(ctx, id, models.OrderStatusPending, change)

			// Assert
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
		})

		t.Run("Failure - Status Moved Underneath", func(t *testing.T) {
			// Arrange
			id := uuid.New()
			change := models.StatusChange{Status: models.OrderStatusCancelled, ChangedAt: now}

			mock.ExpectExec(updateSQL).
				WithArgs(models.OrderStatusCancelled, now, id, models.OrderStatusPending).
				WillReturnResult(sqlmock.NewResult(0, 0))

			// Act
			err := repo.UpdateStatus(ctx, id, models.OrderStatusPending, change)

			// Assert
			require.ErrorIs(t, err, repository.ErrVersionConflict)
			require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
		})
	})

	t.Run("ListStalePending", func(t *testing.T) {
		// Arrange
		cutoff := now.Add(-48 * time.Hour)
		ids := []uuid.UUID{uuid.New(), uuid.New()}

		mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = 'pending' AND created_at < $1`)).
			WithArgs(cutoff, 50).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(ids[0].String()).AddRow(ids[1].String()))

		// Act
		got, err := repo.ListStalePending(ctx, cutoff, 50)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, ids, got)
		require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})
}
