package business

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"poscore/internal/core/tx"
)

// Context keys for business-related values.
type ctxKey int

const (
	poolKey ctxKey = iota
	txManagerKey
	businessKey
)

// Errors for context operations.
var (
	ErrNoBusinessInContext = errors.New("business not found in context")
	ErrNoPoolInContext     = errors.New("database pool not found in context")
	ErrNoTxManager         = errors.New("transaction manager not found in context")
)

// --- Pool ---

// WithPool stores database pool in context.
func WithPool(ctx context.Context, pool *pgxpool.Pool) context.Context {
	return context.WithValue(ctx, poolKey, pool)
}

// GetPool retrieves database pool from context.
func GetPool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, ok := ctx.Value(poolKey).(*pgxpool.Pool)
	if !ok || pool == nil {
		return nil, ErrNoPoolInContext
	}
	return pool, nil
}

// MustGetPool retrieves database pool or panics.
// Use in places where missing pool is a programming error.
func MustGetPool(ctx context.Context) *pgxpool.Pool {
	pool, err := GetPool(ctx)
	if err != nil {
		panic("database pool not in context: " + err.Error())
	}
	return pool
}

// --- TxManager ---

// WithTxManager stores TxManager in context.
func WithTxManager(ctx context.Context, txm tx.Manager) context.Context {
	return context.WithValue(ctx, txManagerKey, txm)
}

// GetTxManager retrieves TxManager from context.
func GetTxManager(ctx context.Context) (tx.Manager, error) {
	txm, ok := ctx.Value(txManagerKey).(tx.Manager)
	if !ok || txm == nil {
		return nil, ErrNoTxManager
	}
	return txm, nil
}

// MustGetTxManager retrieves TxManager or panics.
// Use in places where missing TxManager is a programming error.
func MustGetTxManager(ctx context.Context) tx.Manager {
	txm, err := GetTxManager(ctx)
	if err != nil {
		panic("TxManager not in context: " + err.Error())
	}
	return txm
}

// --- Business ---

// WithBusiness stores business info in context.
func WithBusiness(ctx context.Context, b *Business) context.Context {
	return context.WithValue(ctx, businessKey, b)
}

// GetBusiness retrieves business from context.
func GetBusiness(ctx context.Context) *Business {
	b, _ := ctx.Value(businessKey).(*Business)
	return b
}

// GetBusinessID returns business ID or empty string.
func GetBusinessID(ctx context.Context) string {
	if b := GetBusiness(ctx); b != nil {
		return b.ID
	}
	return ""
}

// GetPlan returns the subscription plan of the current business, or empty.
func GetPlan(ctx context.Context) Plan {
	if b := GetBusiness(ctx); b != nil {
		return b.Plan
	}
	return ""
}
