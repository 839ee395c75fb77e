package currency

import (
	"context"

	"github.com/shopspring/decimal"

	"poscore/internal/core/id"
	"poscore/internal/domain"
)

// Repository defines the interface for Currency persistence.
type Repository interface {
	domain.CatalogRepository[*Currency]

	// FindByISOCode retrieves currency by ISO code (unique within business).
	FindByISOCode(ctx context.Context, isoCode string) (*Currency, error)

	// GetForUpdate retrieves currency with row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*Currency, error)

	// GetMain retrieves the main (accounting) currency.
	GetMain(ctx context.Context) (*Currency, error)

	// ClearMain clears the main flag on all currencies (before setting new main).
	ClearMain(ctx context.Context) error

	// ListActive retrieves all active currencies.
	ListActive(ctx context.Context) ([]*Currency, error)

	// UpdateExchangeRate sets a new exchange rate.
	UpdateExchangeRate(ctx context.Context, id id.ID, rate decimal.Decimal) error
}
