package cycle_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"poscore/internal/core/apperror"
	"poscore/internal/core/id"
	"poscore/internal/domain"
	"poscore/internal/domain/shifts"
	"poscore/internal/infrastructure/storage/postgres"
)

const shiftTable = "shifts"

// ShiftRepo implements shifts.Repository.
//
// The shifts table carries a partial unique index:
//
//	CREATE UNIQUE INDEX ux_shifts_open_area
//	ON shifts (area_id) WHERE status = 'OPEN';
//
// so the database rejects a second open shift in the same area.
type ShiftRepo struct {
	selectCols []string
}

// NewShiftRepo creates a new shift repository.
func NewShiftRepo() *ShiftRepo {
	return &ShiftRepo{
		selectCols: postgres.ExtractDBColumns[shifts.Shift](),
	}
}

func (r *ShiftRepo) getTxManager(ctx context.Context) *postgres.TxManager {
	return postgres.MustGetTxManager(ctx)
}

func (r *ShiftRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *ShiftRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(r.selectCols...).
		From(shiftTable)
}

// Create inserts a new shift. A partial unique index violation (the area
// already has an open shift) is surfaced as a conflict error.
func (r *ShiftRepo) Create(ctx context.Context, shift *shifts.Shift) error {
	data := postgres.StructToMap(shift)

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder().
		Insert(shiftTable).
		SetMap(filtered)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewConflict("an open shift already exists for this area").WithCause(err)
		}
		return fmt.Errorf("insert shift: %w", err)
	}

	return nil
}

// GetByID retrieves shift by ID.
func (r *ShiftRepo) GetByID(ctx context.Context, shiftID id.ID) (*shifts.Shift, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": shiftID}).
		Limit(1)

	return r.findOne(ctx, q, shiftID.String())
}

// GetByIDForUpdate retrieves shift with a row lock.
func (r *ShiftRepo) GetByIDForUpdate(ctx context.Context, shiftID id.ID) (*shifts.Shift, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": shiftID}).
		Suffix("FOR UPDATE").
		Limit(1)

	return r.findOne(ctx, q, shiftID.String())
}

// GetOpenByArea retrieves the open shift for an area.
func (r *ShiftRepo) GetOpenByArea(ctx context.Context, areaID id.ID) (*shifts.Shift, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"area_id": areaID}).
		Where(squirrel.Eq{"status": shifts.StatusOpen}).
		Limit(1)

	return r.findOne(ctx, q, areaID.String())
}

// CountOpenByCycle returns the number of open shifts in a cycle.
func (r *ShiftRepo) CountOpenByCycle(ctx context.Context, cycleID id.ID) (int64, error) {
	q := r.builder().
		Select("COUNT(*)").
		From(shiftTable).
		Where(squirrel.Eq{"cycle_id": cycleID}).
		Where(squirrel.Eq{"status": shifts.StatusOpen})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int64
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count open shifts: %w", err)
	}

	return count, nil
}

// Update modifies an existing shift with optimistic locking.
func (r *ShiftRepo) Update(ctx context.Context, shift *shifts.Shift) error {
	data := postgres.StructToMap(shift)

	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("shift has no 'version' field or it is not an int")
	}

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if col == "id" || col == "version" {
			continue
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder().
		Update(shiftTable).
		SetMap(filtered).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": shift.ID}).
		Where(squirrel.Eq{"version": version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update shift: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(shiftTable, shift.ID)
	}

	return nil
}

// List retrieves shifts with filtering and pagination.
func (r *ShiftRepo) List(ctx context.Context, f shifts.ListFilter) (domain.ListResult[*shifts.Shift], error) {
	result := domain.ListResult[*shifts.Shift]{
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := r.baseSelect()

	if f.CycleID != nil {
		q = q.Where(squirrel.Eq{"cycle_id": *f.CycleID})
	}
	if f.AreaID != nil {
		q = q.Where(squirrel.Eq{"area_id": *f.AreaID})
	}
	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": *f.Status})
	}
	if f.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"open_date": *f.FromDate})
	}
	if f.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"open_date": *f.ToDate})
	}

	countQ := r.builder().
		Select("COUNT(*)").
		FromSelect(q, "sub")

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy := "open_date DESC"
	if f.OrderBy == "open_date" {
		orderBy = "open_date ASC"
	}
	q = q.OrderBy(orderBy)

	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list shifts: %w", err)
	}

	return result, nil
}

func (r *ShiftRepo) findOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*shifts.Shift, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s shifts.Shift
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("shift", key)
		}
		return nil, fmt.Errorf("get shift: %w", err)
	}

	return &s, nil
}
