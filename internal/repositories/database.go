package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/XSAM/otelsql"
	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("record was modified concurrently")
	ErrInsufficient    = errors.New("insufficient quantity")
)

// Querier is satisfied by both *sql.DB and *sql.Tx so every repository can
// run inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repositories struct {
	Carts     CartRepository
	Orders    OrderRepository
	Variants  VariantRepository
	Discounts DiscountRepository
	Loyalty   LoyaltyRepository
}

func NewRepositories(q Querier) *Repositories {
	return &Repositories{
		Carts:     NewCartRepo(q),
		Orders:    NewOrderRepository(q),
		Variants:  NewVariantRepo(q),
		Discounts: NewDiscountRepo(q),
		Loyalty:   NewLoyaltyRepo(q),
	}
}

// Store hands out repositories and runs units of work atomically.
type Store interface {
	Repos() *Repositories
	// WithinTx runs fn with repositories bound to one transaction. Any
	// error from fn rolls everything back.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error
	Ping(ctx context.Context) error
	Close() error
}

type PostgresStore struct {
	DB    *sql.DB
	repos *Repositories
}

// Open connects to Postgres through the otelsql driver wrapper so every
// query is traced.
func Open(cfg *config.Database) (*sql.DB, error) {

	db, err := otelsql.Open("postgres", cfg.GetDSN(),
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	utils.SetQueryTimeout(cfg.QueryTimeout)

	// Test the connection to make sure DB is reachable
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db, repos: NewRepositories(db)}
}

func (s *PostgresStore) Repos() *Repositories {
	return s.repos
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error {

	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", translate(err))
	}

	if err := fn(ctx, NewRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", translate(err))
	}

	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}

// translate maps Postgres contention errors onto ErrVersionConflict so the
// caller treats them as retryable.
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%w: %w", ErrVersionConflict, err)
		}
	}

	return err
}
