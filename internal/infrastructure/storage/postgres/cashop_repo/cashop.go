// Package cashop_repo provides PostgreSQL persistence for manual cash
// register operations. TxManager is obtained from context per-request.
package cashop_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"poscore/internal/core/apperror"
	"poscore/internal/core/id"
	"poscore/internal/domain"
	"poscore/internal/domain/cashops"
	"poscore/internal/infrastructure/storage/postgres"
)

const cashOperationTable = "cash_operations"

// CashOperationRepo implements cashops.Repository.
// The cash_operations table is append-only: no Update or Delete.
type CashOperationRepo struct {
	selectCols []string
}

// NewCashOperationRepo creates a new cash operation repository.
func NewCashOperationRepo() *CashOperationRepo {
	return &CashOperationRepo{
		selectCols: postgres.ExtractDBColumns[cashops.CashOperation](),
	}
}

func (r *CashOperationRepo) getTxManager(ctx context.Context) *postgres.TxManager {
	return postgres.MustGetTxManager(ctx)
}

func (r *CashOperationRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *CashOperationRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(r.selectCols...).
		From(cashOperationTable)
}

// Create inserts a new cash operation.
func (r *CashOperationRepo) Create(ctx context.Context, op *cashops.CashOperation) error {
	data := postgres.StructToMap(op)

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder().
		Insert(cashOperationTable).
		SetMap(filtered)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert cash operation: %w", err)
	}

	return nil
}

// GetByID retrieves cash operation by ID.
func (r *CashOperationRepo) GetByID(ctx context.Context, opID id.ID) (*cashops.CashOperation, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": opID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var op cashops.CashOperation
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &op, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("cash operation", opID.String())
		}
		return nil, fmt.Errorf("get cash operation: %w", err)
	}

	return &op, nil
}

// List retrieves cash operations with filtering and pagination.
func (r *CashOperationRepo) List(ctx context.Context, f cashops.ListFilter) (domain.ListResult[*cashops.CashOperation], error) {
	result := domain.ListResult[*cashops.CashOperation]{
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := r.baseSelect()

	if f.AreaID != nil {
		q = q.Where(squirrel.Eq{"area_id": *f.AreaID})
	}
	if f.ShiftID != nil {
		q = q.Where(squirrel.Eq{"shift_id": *f.ShiftID})
	}
	if f.CycleID != nil {
		q = q.Where(squirrel.Eq{"cycle_id": *f.CycleID})
	}
	if f.Type != nil {
		q = q.Where(squirrel.Eq{"type": *f.Type})
	}
	if f.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.FromDate})
	}
	if f.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *f.ToDate})
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

	orderBy := "created_at DESC"
	if f.OrderBy == "created_at" {
		orderBy = "created_at ASC"
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
		return result, fmt.Errorf("list cash operations: %w", err)
	}

	return result, nil
}

// SumByCycle aggregates cash operation amounts grouped by type and
// currency, optionally scoped to one area.
func (r *CashOperationRepo) SumByCycle(ctx context.Context, cycleID id.ID, areaID *id.ID) ([]cashops.TypeTotal, error) {
	q := r.builder().
		Select("type", "currency_iso", "SUM(amount) AS amount").
		From(cashOperationTable).
		Where(squirrel.Eq{"cycle_id": cycleID}).
		GroupBy("type", "currency_iso").
		OrderBy("type", "currency_iso")

	if areaID != nil {
		q = q.Where(squirrel.Eq{"area_id": *areaID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var totals []cashops.TypeTotal
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &totals, sql, args...); err != nil {
		return nil, fmt.Errorf("sum by cycle: %w", err)
	}

	return totals, nil
}
