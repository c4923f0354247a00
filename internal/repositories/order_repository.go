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
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type OrderRepository interface {
	// CreateOrder inserts the order, its lines and its initial history.
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByOwner(ctx context.Context, ownerID string, page, size int) ([]*models.Order, int, error)
	// UpdateStatus moves the order from -> change.Status and appends the
	// history row. ErrVersionConflict if the order is no longer in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from models.OrderStatus, change models.StatusChange) error
	ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error)
}

type orderRepository struct {
	DB Querier
}

func NewOrderRepository(db Querier) OrderRepository {
	return &orderRepository{DB: db}
}

const orderColumns = `id, order_number, owner_user_id, status, pricing, shipping_address, payment_method,
	COALESCE(discount_code, ''), loyalty_points_redeemed, loyalty_points_earned, created_at, updated_at`

func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) error {

	dbCtx, cancel := utils.WithQueryTimeout(ctx)
	defer cancel()

	pricingJSON, err := json.Marshal(order.Pricing)
	if err != nil {
		return fmt.Errorf("failed to marshal pricing: %w", err)
	}

	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping address: %w", err)
	}

	query := `
		INSERT INTO orders (id, order_number, owner_user_id, status, pricing, shipping_address, payment_method,
			discount_code, loyalty_points_redeemed, loyalty_points_earned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11, $12)
	`

	_, err = r.DB.ExecContext(dbCtx, query, order.ID, order.OrderNumber, order.OwnerUserID, order.Status, pricingJSON, addressJSON,
		order.PaymentMethod, order.DiscountCode, order.LoyaltyPointsRedeemed, order.LoyaltyPointsEarned, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", translate(err))
	}

	for position, line := range order.Lines {

		query := `
			INSERT INTO order_items (order_id, position, variant_id, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6)
		`

		if _, err := r.DB.ExecContext(dbCtx, query, order.ID, position, line.VariantID, line.Quantity, line.UnitPrice, line.LineTotal); err != nil {
			return fmt.Errorf("failed to insert an order item: %w", translate(err))
		}
	}

	for _, change := range order.History {
		if err := r.insertHistory(dbCtx, order.ID, change); err != nil {
			return err
		}
	}

	return nil
}

func (r *orderRepository) insertHistory(ctx context.Context, orderID uuid.UUID, change models.StatusChange) error {

	query := `
		INSERT INTO order_status_history (order_id, status, reason, changed_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.DB.ExecContext(ctx, query, orderID, change.Status, change.Reason, change.ChangedAt); err != nil {
		return fmt.Errorf("failed to insert order status history: %w", translate(err))
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {

	order := &models.Order{}

	var pricingJSON, addressJSON []byte

	err := row.Scan(&order.ID, &order.OrderNumber, &order.OwnerUserID, &order.Status, &pricingJSON, &addressJSON, &order.PaymentMethod,
		&order.DiscountCode, &order.LoyaltyPointsRedeemed, &order.LoyaltyPointsEarned, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(pricingJSON, &order.Pricing); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pricing: %w", err)
	}

	if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shipping address: %w", err)
	}

	order.Lines = []models.OrderLine{}
	order.History = []models.StatusChange{}

	return order, nil
}

func (r *orderRepository) get(ctx context.Context, query string, id uuid.UUID) (*models.Order, error) {

	dbCtx, cancel := utils.WithQueryTimeout(ctx)
	defer cancel()

	order, err := scanOrder(r.DB.QueryRowContext(dbCtx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get the order: %w", translate(err))
	}

	if err := r.loadDetails(dbCtx, []*models.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *orderRepository) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

// loadDetails fills lines and history for a batch of orders with one query
// each.
func (r *orderRepository) loadDetails(ctx context.Context, orders []*models.Order) error {

	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*models.Order, len(orders))
	ids := make([]string, 0, len(orders))

	for _, order := range orders {
		byID[order.ID] = order
		ids = append(ids, order.ID.String())
	}

	query := `
		SELECT order_id, variant_id, quantity, unit_price, line_total
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`

	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to get the order items: %w", err)
	}

	defer rows.Close()

	for rows.Next() {

		var (
			orderID uuid.UUID
			line    models.OrderLine
		)

		if err := rows.Scan(&orderID, &line.VariantID, &line.Quantity, &line.UnitPrice, &line.LineTotal); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}

		if order, ok := byID[orderID]; ok {
			order.Lines = append(order.Lines, line)
		}
	}

	if err := rows.Err(); err != nil {
		return err
	}

	query = `
		SELECT order_id, status, reason, changed_at
		FROM order_status_history
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, id
	`

	historyRows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to get the order history: %w", err)
	}

	defer historyRows.Close()

	for historyRows.Next() {

		var (
			orderID uuid.UUID
			change  models.StatusChange
		)

		if err := historyRows.Scan(&orderID, &change.Status, &change.Reason, &change.ChangedAt); err != nil {
			return fmt.Errorf("failed to scan order history: %w", err)
		}

		if order, ok := byID[orderID]; ok {
			order.History = append(order.History, change)
		}
	}

	return historyRows.Err()
}

func (r *orderRepository) ListOrdersByOwner(ctx context.Context, ownerID string, page, size int) ([]*models.Order, int, error) {

	dbCtx, cancel := utils.WithQueryTimeout(ctx)
	defer cancel()

	var total int

	countQuery := `SELECT COUNT(*) FROM orders WHERE owner_user_id = $1`

	if err := r.DB.QueryRowContext(dbCtx, countQuery, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := models.PageRequest{Page: page, Size: size}.Offset()

	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE owner_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.DB.QueryContext(dbCtx, query, ownerID, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	defer rows.Close()

	orders := []*models.Order{}

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.loadDetails(dbCtx, orders); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from models.OrderStatus, change models.StatusChange) error {

	dbCtx, cancel := utils.WithQueryTimeout(ctx)
	defer cancel()

	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.DB.ExecContext(dbCtx, query, change.Status, change.ChangedAt, id, from)
	if err != nil {
		return fmt.Errorf("failed to update the order status: %w", translate(err))
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return ErrVersionConflict
	}

	return r.insertHistory(dbCtx, id, change)
}

func (r *orderRepository) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error) {

	dbCtx, cancel := utils.WithQueryTimeout(ctx)
	defer cancel()

	query := `
		SELECT id FROM orders
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`

	rows, err := r.DB.QueryContext(dbCtx, query, createdBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale orders: %w", err)
	}

	defer rows.Close()

	ids := []uuid.UUID{}

	for rows.Next() {
		var id uuid.UUID

		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan order id: %w", err)
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}
