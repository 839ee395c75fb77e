package cycles

import (
	"context"
	"time"

	"poscore/internal/core/id"
	"poscore/internal/domain"
)

// Repository defines the interface for EconomicCycle persistence.
//
// The economic_cycles table carries a partial unique index on status
// (WHERE status IN ('ACTIVE','ON_HOLD')) so the database itself rejects
// a second open cycle. Create must map that violation to a conflict error.
type Repository interface {
	// Create inserts a new cycle. Returns a conflict error when an open
	// cycle already exists (partial unique index violation).
	Create(ctx context.Context, cycle *EconomicCycle) error

	// GetByID retrieves cycle by ID.
	GetByID(ctx context.Context, id id.ID) (*EconomicCycle, error)

	// GetActive retrieves the currently open cycle (ACTIVE or ON_HOLD).
	// Returns a not-found error if no cycle is open.
	GetActive(ctx context.Context) (*EconomicCycle, error)

	// GetActiveForUpdate retrieves the open cycle with a row lock.
	GetActiveForUpdate(ctx context.Context) (*EconomicCycle, error)

	// Update modifies an existing cycle (with optimistic locking).
	Update(ctx context.Context, cycle *EconomicCycle) error

	// List retrieves cycles with filtering and pagination.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*EconomicCycle], error)
}

// ListFilter contains filtering options for cycle listings.
type ListFilter struct {
	Status   *Status
	FromDate *time.Time
	ToDate   *time.Time

	OrderBy string
	Limit   int
	Offset  int
}
