package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
)

type LoyaltyRepository interface {
	// GetBalance returns 0 for a user without an account.
	GetBalance(ctx context.Context, userID string) (int64, error)
	GetBalanceForUpdate(ctx context.Context, userID string) (int64, error)
	// AddTransaction applies txn.Delta to the balance and journals it,
	// returning the new balance. A negative resulting balance fails with
	// ErrInsufficient.
	AddTransaction(ctx context.Context, txn *models.LoyaltyTransaction) (int64, error)
	ListTransactions(ctx context.Context, userID string, limit int) ([]models.LoyaltyTransaction, error)
}

type loyaltyRepository struct {
	DB Querier
}

func NewLoyaltyRepo(db Querier) LoyaltyRepository {
	return &loyaltyRepository{DB: db}
}

func (r *loyaltyRepository) balance(ctx context.Context, query, userID string) (int64, error) {
	dbCtx, cancel := utils.WithQueryTimeout(ctx)
	defer cancel()

	var balance int64

	err := r.DB.QueryRowContext(dbCtx, query, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("querying loyalty balance: %w", translate(err))
	}

	return balance, nil
}

func (r *loyaltyRepository) GetBalance(ctx context.Context, userID string) (int64, error) {
	return r.balance(ctx, `SELECT balance FROM loyalty_accounts WHERE user_id = $1`, userID)
}

func (r *loyaltyRepository) GetBalanceForUpdate(ctx context.Context, userID string) (int64, error) {
	return r.balance(ctx, `SELECT balance FROM loyalty_accounts WHERE user_id = $1 FOR UPDATE`, userID)
}

func (r *loyaltyRepository) AddTransaction(ctx context.Context, txn *models.LoyaltyTransaction) (int64, error) {
	dbCtx, cancel := utils.WithQueryTimeout(ctx)
	defer cancel()

	// Debits never create an account; credits upsert one.
	query := `
		UPDATE loyalty_accounts
		SET balance = balance + $2, updated_at = $3
		WHERE user_id = $1 AND balance + $2 >= 0
		RETURNING balance
	`
	if txn.Delta >= 0 {
		query = `
			INSERT INTO loyalty_accounts (user_id, balance, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO UPDATE
			SET balance = loyalty_accounts.balance + EXCLUDED.balance, updated_at = EXCLUDED.updated_at
			RETURNING balance
		`
	}

	var balance int64

	err := r.DB.QueryRowContext(dbCtx, query, txn.UserID, txn.Delta, txn.CreatedAt).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInsufficient
		}
		return 0, fmt.Errorf("failed to update loyalty balance: %w", translate(err))
	}

	query = `
		INSERT INTO loyalty_transactions (id, user_id, order_id, delta, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := r.DB.ExecContext(dbCtx, query, txn.ID, txn.UserID, txn.OrderID, txn.Delta, txn.Reason, txn.CreatedAt); err != nil {
		return 0, fmt.Errorf("failed to journal loyalty transaction: %w", translate(err))
	}

	return balance, nil
}

func (r *loyaltyRepository) ListTransactions(ctx context.Context, userID string, limit int) ([]models.LoyaltyTransaction, error) {
	dbCtx, cancel := utils.WithQueryTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, user_id, order_id, delta, reason, created_at
		FROM loyalty_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.DB.QueryContext(dbCtx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying loyalty transactions: %w", err)
	}

	defer rows.Close()

	transactions := []models.LoyaltyTransaction{}

	for rows.Next() {
		var txn models.LoyaltyTransaction

		if err := rows.Scan(&txn.ID, &txn.UserID, &txn.OrderID, &txn.Delta, &txn.Reason, &txn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan loyalty transaction: %w", err)
		}

		transactions = append(transactions, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transactions, nil
}
