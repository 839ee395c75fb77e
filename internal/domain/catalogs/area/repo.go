package area

import (
	"context"

	"poscore/internal/core/id"
	"poscore/internal/domain"
)

// Repository defines the interface for Area persistence.
type Repository interface {
	domain.CatalogRepository[*Area]

	// GetForUpdate retrieves area with row lock (for transactional updates).
	GetForUpdate(ctx context.Context, id id.ID) (*Area, error)

	// ListByType retrieves active areas of a given type.
	ListByType(ctx context.Context, areaType AreaType) ([]*Area, error)

	// ClearMain clears the main flag on all areas of a type (before setting new main).
	ClearMain(ctx context.Context, areaType AreaType) error

	// CountActive returns the number of active non-folder areas (for plan limits).
	CountActive(ctx context.Context) (int64, error)
}
