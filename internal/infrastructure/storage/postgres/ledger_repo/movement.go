// Package ledger_repo provides PostgreSQL persistence for the append-only
// stock movement ledger. TxManager is obtained from context per-request.
package ledger_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"poscore/internal/core/apperror"
	"poscore/internal/core/id"
	"poscore/internal/core/types"
	"poscore/internal/domain"
	"poscore/internal/domain/ledger"
	"poscore/internal/infrastructure/storage/postgres"
)

const movementTable = "stock_movements"

// signedQuantityExpr computes the signed quantity of a row in SQL.
// Must stay in sync with Movement.SignedQuantity: ENTRY and ADJUST keep
// the stored sign, every other operation subtracts; a reversal row
// negates whatever its original operation would contribute.
const signedQuantityExpr = `
	(CASE WHEN operation IN ('ENTRY', 'ADJUST') THEN quantity ELSE -quantity END)
	* (CASE WHEN reversal_of_id IS NULL THEN 1 ELSE -1 END)`

// MovementRepo implements ledger.Repository.
//
// The stock_movements table is append-only. A unique index on
// reversal_of_id makes double reversal impossible at the database level.
type MovementRepo struct {
	selectCols []string
	inserter   func(ctx context.Context) *postgres.BatchInserter
}

// NewMovementRepo creates a new movement repository.
func NewMovementRepo() *MovementRepo {
	return &MovementRepo{
		selectCols: postgres.ExtractDBColumns[ledger.Movement](),
		inserter: func(ctx context.Context) *postgres.BatchInserter {
			return postgres.NewBatchInserter(postgres.MustGetTxManager(ctx))
		},
	}
}

func (r *MovementRepo) getTxManager(ctx context.Context) *postgres.TxManager {
	return postgres.MustGetTxManager(ctx)
}

func (r *MovementRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *MovementRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(r.selectCols...).
		From(movementTable)
}

// Create inserts a single movement. A unique violation on reversal_of_id
// (double reversal race) is surfaced as a conflict error.
func (r *MovementRepo) Create(ctx context.Context, m *ledger.Movement) error {
	data := postgres.StructToMap(m)

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder().
		Insert(movementTable).
		SetMap(filtered)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewConflict("movement already reversed").WithCause(err)
		}
		return fmt.Errorf("insert movement: %w", err)
	}

	return nil
}

// CreateBatch inserts many movements at once via COPY.
// Requires an active transaction in context.
func (r *MovementRepo) CreateBatch(ctx context.Context, movements []*ledger.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(movements))
	for _, m := range movements {
		data := postgres.StructToMap(m)
		row := make([]any, len(r.selectCols))
		for i, col := range r.selectCols {
			row[i] = data[col]
		}
		rows = append(rows, row)
	}

	copied, err := r.inserter(ctx).CopyFromSlice(ctx, movementTable, r.selectCols, rows)
	if err != nil {
		return fmt.Errorf("copy movements: %w", err)
	}
	if copied != int64(len(movements)) {
		return fmt.Errorf("copy movements: expected %d rows, copied %d", len(movements), copied)
	}

	return nil
}

// GetByID retrieves movement by ID.
func (r *MovementRepo) GetByID(ctx context.Context, movementID id.ID) (*ledger.Movement, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": movementID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m ledger.Movement
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("movement", movementID.String())
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}

	return &m, nil
}

// GetChildren retrieves destination legs linked to a transfer source row.
func (r *MovementRepo) GetChildren(ctx context.Context, parentID id.ID) ([]*ledger.Movement, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"parent_id": parentID}).
		OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*ledger.Movement
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get children: %w", err)
	}

	return items, nil
}

// HasReversal reports whether a reversal row exists for the movement.
func (r *MovementRepo) HasReversal(ctx context.Context, movementID id.ID) (bool, error) {
	q := r.builder().
		Select("1").
		From(movementTable).
		Where(squirrel.Eq{"reversal_of_id": movementID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	var exists int
	err = querier.QueryRow(ctx, sql, args...).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has reversal: %w", err)
	}

	return true, nil
}

// GetBalance returns the current stock of a product in an area.
func (r *MovementRepo) GetBalance(ctx context.Context, areaID, productID id.ID) (types.Quantity, error) {
	return r.queryBalance(ctx, areaID, productID)
}

// GetBalanceForUpdate returns the balance while holding a transaction
// scoped advisory lock on the area+product pair. Concurrent movements of
// the same pair serialize here, so the availability check and the insert
// that follows see a consistent balance. Requires an active transaction.
func (r *MovementRepo) GetBalanceForUpdate(ctx context.Context, areaID, productID id.ID) (types.Quantity, error) {
	txManager := r.getTxManager(ctx)
	if txManager.GetTx(ctx) == nil {
		return 0, fmt.Errorf("get balance for update: requires active transaction")
	}

	lockSQL := `SELECT pg_advisory_xact_lock(hashtextextended($1 || ':' || $2, 0))`
	querier := txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, lockSQL, areaID.String(), productID.String()); err != nil {
		return 0, fmt.Errorf("acquire stock lock: %w", err)
	}

	return r.queryBalance(ctx, areaID, productID)
}

func (r *MovementRepo) queryBalance(ctx context.Context, areaID, productID id.ID) (types.Quantity, error) {
	q := r.builder().
		Select(fmt.Sprintf("COALESCE(SUM(%s), 0)", signedQuantityExpr)).
		From(movementTable).
		Where(squirrel.Eq{"area_id": areaID}).
		Where(squirrel.Eq{"product_id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var balance int64
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&balance); err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}

	return types.Quantity(balance), nil
}

// GetAreaBalances returns all non-zero product balances of an area.
func (r *MovementRepo) GetAreaBalances(ctx context.Context, areaID id.ID) ([]ledger.Balance, error) {
	q := r.builder().
		Select(
			"area_id",
			"product_id",
			fmt.Sprintf("COALESCE(SUM(%s), 0) AS quantity", signedQuantityExpr),
		).
		From(movementTable).
		Where(squirrel.Eq{"area_id": areaID}).
		GroupBy("area_id", "product_id").
		Having(fmt.Sprintf("COALESCE(SUM(%s), 0) <> 0", signedQuantityExpr)).
		OrderBy("product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []ledger.Balance
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get area balances: %w", err)
	}

	return items, nil
}

// List retrieves movements with filtering and pagination.
func (r *MovementRepo) List(ctx context.Context, f ledger.ListFilter) (domain.ListResult[*ledger.Movement], error) {
	result := domain.ListResult[*ledger.Movement]{
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := r.baseSelect()

	if f.AreaID != nil {
		q = q.Where(squirrel.Eq{"area_id": *f.AreaID})
	}
	if f.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *f.ProductID})
	}
	if f.CycleID != nil {
		q = q.Where(squirrel.Eq{"cycle_id": *f.CycleID})
	}
	if f.ShiftID != nil {
		q = q.Where(squirrel.Eq{"shift_id": *f.ShiftID})
	}
	if f.Operation != nil {
		q = q.Where(squirrel.Eq{"operation": *f.Operation})
	}
	if f.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.FromDate})
	}
	if f.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *f.ToDate})
	}
	if !f.IncludeReversals {
		q = q.Where(squirrel.Eq{"reversal_of_id": nil}).
			Where(fmt.Sprintf(
				"NOT EXISTS (SELECT 1 FROM %s rev WHERE rev.reversal_of_id = %s.id)",
				movementTable, movementTable,
			))
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
		return result, fmt.Errorf("list movements: %w", err)
	}

	return result, nil
}
