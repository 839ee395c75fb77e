package product

import (
	"context"

	"github.com/shopspring/decimal"

	"poscore/internal/core/id"
	"poscore/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// GetForUpdate retrieves product with row lock (for cost recalculation).
	GetForUpdate(ctx context.Context, id id.ID) (*Product, error)

	// GetByBarcode retrieves product by barcode.
	GetByBarcode(ctx context.Context, barcode string) (*Product, error)

	// UpdateAverageCost sets the recalculated average cost.
	UpdateAverageCost(ctx context.Context, id id.ID, cost decimal.Decimal) error

	// CountActive returns the number of active non-folder products (for plan limits).
	CountActive(ctx context.Context) (int64, error)
}
