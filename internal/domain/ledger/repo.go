package ledger

import (
	"context"
	"time"

	"poscore/internal/core/id"
	"poscore/internal/core/types"
	"poscore/internal/domain"
)

// Repository defines the interface for Movement persistence.
//
// The stock_movements table is append-only: no Update or Delete.
// A unique index on reversal_of_id makes double reversal impossible at
// the database level; Create must map that violation to a conflict error.
type Repository interface {
	// Create inserts a single movement.
	Create(ctx context.Context, m *Movement) error

	// CreateBatch inserts many movements at once (COPY fast path).
	CreateBatch(ctx context.Context, movements []*Movement) error

	// GetByID retrieves movement by ID.
	GetByID(ctx context.Context, id id.ID) (*Movement, error)

	// GetChildren retrieves movements whose ParentID is the given row
	// (destination legs of a transfer).
	GetChildren(ctx context.Context, parentID id.ID) ([]*Movement, error)

	// HasReversal reports whether a reversal row exists for the movement.
	HasReversal(ctx context.Context, movementID id.ID) (bool, error)

	// GetBalance returns the current stock of a product in an area
	// (sum of signed quantities).
	GetBalance(ctx context.Context, areaID, productID id.ID) (types.Quantity, error)

	// GetBalanceForUpdate returns the balance while serializing against
	// concurrent movements of the same area+product (advisory lock).
	GetBalanceForUpdate(ctx context.Context, areaID, productID id.ID) (types.Quantity, error)

	// GetAreaBalances returns all non-zero product balances of an area.
	GetAreaBalances(ctx context.Context, areaID id.ID) ([]Balance, error)

	// List retrieves movements with filtering and pagination.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Movement], error)
}

// Balance is a product quantity snapshot within an area.
type Balance struct {
	AreaID    id.ID          `db:"area_id" json:"areaId"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
}

// ListFilter contains filtering options for movement listings.
type ListFilter struct {
	AreaID    *id.ID
	ProductID *id.ID
	CycleID   *id.ID
	ShiftID   *id.ID
	Operation *Operation
	FromDate  *time.Time
	ToDate    *time.Time

	// IncludeReversals includes reversal rows and reversed originals
	IncludeReversals bool

	OrderBy string
	Limit   int
	Offset  int
}
