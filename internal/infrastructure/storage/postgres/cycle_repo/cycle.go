// Package cycle_repo provides PostgreSQL persistence for economic cycles
// and shifts. TxManager is obtained from context per-request.
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
	"poscore/internal/domain/cycles"
	"poscore/internal/infrastructure/storage/postgres"
)

const cycleTable = "economic_cycles"

// CycleRepo implements cycles.Repository.
//
// The economic_cycles table carries a partial unique index:
//
//	CREATE UNIQUE INDEX ux_economic_cycles_open
//	ON economic_cycles ((1)) WHERE status IN ('ACTIVE', 'ON_HOLD');
//
// so the database itself guarantees at most one open cycle per business.
type CycleRepo struct {
	selectCols []string
}

// NewCycleRepo creates a new cycle repository.
func NewCycleRepo() *CycleRepo {
	return &CycleRepo{
		selectCols: postgres.ExtractDBColumns[cycles.EconomicCycle](),
	}
}

func (r *CycleRepo) getTxManager(ctx context.Context) *postgres.TxManager {
	return postgres.MustGetTxManager(ctx)
}

func (r *CycleRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *CycleRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(r.selectCols...).
		From(cycleTable)
}

// Create inserts a new cycle. A partial unique index violation (another
// cycle is still open) is surfaced as a conflict error.
func (r *CycleRepo) Create(ctx context.Context, cycle *cycles.EconomicCycle) error {
	data := postgres.StructToMap(cycle)

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder().
		Insert(cycleTable).
		SetMap(filtered)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewConflict("an open cycle already exists").WithCause(err)
		}
		return fmt.Errorf("insert cycle: %w", err)
	}

	return nil
}

// GetByID retrieves cycle by ID.
func (r *CycleRepo) GetByID(ctx context.Context, cycleID id.ID) (*cycles.EconomicCycle, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": cycleID}).
		Limit(1)

	return r.findOne(ctx, q, cycleID.String())
}

// GetActive retrieves the currently open cycle (ACTIVE or ON_HOLD).
func (r *CycleRepo) GetActive(ctx context.Context) (*cycles.EconomicCycle, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"status": []cycles.Status{cycles.StatusActive, cycles.StatusOnHold}}).
		Limit(1)

	return r.findOne(ctx, q, "active")
}

// GetActiveForUpdate retrieves the open cycle with a row lock.
func (r *CycleRepo) GetActiveForUpdate(ctx context.Context) (*cycles.EconomicCycle, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"status": []cycles.Status{cycles.StatusActive, cycles.StatusOnHold}}).
		Suffix("FOR UPDATE").
		Limit(1)

	return r.findOne(ctx, q, "active")
}

// Update modifies an existing cycle with optimistic locking.
func (r *CycleRepo) Update(ctx context.Context, cycle *cycles.EconomicCycle) error {
	data := postgres.StructToMap(cycle)

	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("cycle has no 'version' field or it is not an int")
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
		Update(cycleTable).
		SetMap(filtered).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": cycle.ID}).
		Where(squirrel.Eq{"version": version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update cycle: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(cycleTable, cycle.ID)
	}

	return nil
}

// List retrieves cycles with filtering and pagination.
func (r *CycleRepo) List(ctx context.Context, f cycles.ListFilter) (domain.ListResult[*cycles.EconomicCycle], error) {
	result := domain.ListResult[*cycles.EconomicCycle]{
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := r.baseSelect()

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
		return result, fmt.Errorf("list cycles: %w", err)
	}

	return result, nil
}

func (r *CycleRepo) findOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*cycles.EconomicCycle, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c cycles.EconomicCycle
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("cycle", key)
		}
		return nil, fmt.Errorf("get cycle: %w", err)
	}

	return &c, nil
}
