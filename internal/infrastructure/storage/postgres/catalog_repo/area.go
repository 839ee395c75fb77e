package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"poscore/internal/domain/catalogs/area"
	"poscore/internal/infrastructure/storage/postgres"
)

const areaTable = "cat_areas"

// AreaRepo implements area.Repository.
type AreaRepo struct {
	*BaseCatalogRepo[*area.Area]
}

// NewAreaRepo creates a new area repository.
func NewAreaRepo() *AreaRepo {
	return &AreaRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*area.Area](
			areaTable,
			postgres.ExtractDBColumns[area.Area](),
			func() *area.Area { return &area.Area{} },
		),
	}
}

// ListByType retrieves active areas of a given type.
func (r *AreaRepo) ListByType(ctx context.Context, areaType area.AreaType) ([]*area.Area, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"type": areaType}).
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.Eq{"is_folder": false}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("name ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*area.Area
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list by type: %w", err)
	}

	return items, nil
}

// ClearMain clears the main flag on all areas of a type.
func (r *AreaRepo) ClearMain(ctx context.Context, areaType area.AreaType) error {
	q := r.Builder().
		Update(areaTable).
		Set("is_main", false).
		Where(squirrel.Eq{"type": areaType}).
		Where(squirrel.Eq{"is_main": true})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	_, err = querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("clear main: %w", err)
	}

	return nil
}

// CountActive returns the number of active non-folder areas.
func (r *AreaRepo) CountActive(ctx context.Context) (int64, error) {
	q := r.Builder().
		Select("COUNT(*)").
		From(areaTable).
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.Eq{"is_folder": false}).
		Where(squirrel.Eq{"deletion_mark": false})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int64
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active: %w", err)
	}

	return count, nil
}
