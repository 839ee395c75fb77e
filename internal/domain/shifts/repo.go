package shifts

import (
	"context"
	"time"

	"poscore/internal/core/id"
	"poscore/internal/domain"
)

// Repository defines the interface for Shift persistence.
//
// The shifts table carries a partial unique index on area_id
// (WHERE status = 'OPEN') so the database rejects a second open shift
// in the same area.
type Repository interface {
	// Create inserts a new shift. Returns a conflict error when an open
	// shift already exists for the area.
	Create(ctx context.Context, shift *Shift) error

	// GetByID retrieves shift by ID.
	GetByID(ctx context.Context, id id.ID) (*Shift, error)

	// GetByIDForUpdate retrieves shift with a row lock.
	GetByIDForUpdate(ctx context.Context, id id.ID) (*Shift, error)

	// GetOpenByArea retrieves the open shift for an area.
	// Returns a not-found error if the area has no open shift.
	GetOpenByArea(ctx context.Context, areaID id.ID) (*Shift, error)

	// CountOpenByCycle returns the number of open shifts in a cycle.
	CountOpenByCycle(ctx context.Context, cycleID id.ID) (int64, error)

	// Update modifies an existing shift (with optimistic locking).
	Update(ctx context.Context, shift *Shift) error

	// List retrieves shifts with filtering and pagination.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Shift], error)
}

// ListFilter contains filtering options for shift listings.
type ListFilter struct {
	CycleID  *id.ID
	AreaID   *id.ID
	Status   *Status
	FromDate *time.Time
	ToDate   *time.Time

	OrderBy string
	Limit   int
	Offset  int
}
