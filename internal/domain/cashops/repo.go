package cashops

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"poscore/internal/core/id"
	"poscore/internal/domain"
)

// Repository defines the interface for CashOperation persistence.
// The table is append-only: no Update or Delete.
type Repository interface {
	// Create inserts a single operation.
	Create(ctx context.Context, op *CashOperation) error

	// GetByID retrieves operation by ID.
	GetByID(ctx context.Context, id id.ID) (*CashOperation, error)

	// List retrieves operations with filtering and pagination.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*CashOperation], error)

	// SumByCycle returns per-currency totals grouped by operation type
	// for all operations of a cycle, optionally narrowed to one area.
	SumByCycle(ctx context.Context, cycleID id.ID, areaID *id.ID) ([]TypeTotal, error)
}

// TypeTotal is a per-type, per-currency aggregate.
type TypeTotal struct {
	Type        OperationType   `db:"type" json:"operation"`
	CurrencyISO string          `db:"currency_iso" json:"codeCurrency"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
}

// ListFilter contains filtering options for cash operation listings.
type ListFilter struct {
	AreaID   *id.ID
	ShiftID  *id.ID
	CycleID  *id.ID
	Type     *OperationType
	FromDate *time.Time
	ToDate   *time.Time

	OrderBy string
	Limit   int
	Offset  int
}
