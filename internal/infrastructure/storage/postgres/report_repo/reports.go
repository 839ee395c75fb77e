// Package report_repo provides PostgreSQL implementations for report
// repositories. In Database-per-Business architecture, TxManager is
// obtained from context.
package report_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/georgysavva/scany/v2/pgxscan"

	"poscore/internal/core/id"
	"poscore/internal/domain/cashops"
	"poscore/internal/domain/reports"
	"poscore/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct{}

// NewReportRepo creates a new report repository.
func NewReportRepo() *ReportRepo {
	return &ReportRepo{}
}

func (r *ReportRepo) getTxManager(ctx context.Context) *postgres.TxManager {
	return postgres.MustGetTxManager(ctx)
}

// areaAmountRow is one raw bucket read from the sales/cost queries.
type areaAmountRow struct {
	AreaID       id.ID           `db:"area_id"`
	AreaName     string          `db:"area_name"`
	CodeCurrency string          `db:"code_currency"`
	Amount       decimal.Decimal `db:"amount"`
}

// areaCashRow is one raw bucket read from the cash operation query.
type areaCashRow struct {
	AreaID       id.ID                 `db:"area_id"`
	AreaName     string                `db:"area_name"`
	Type         cashops.OperationType `db:"type"`
	CodeCurrency string                `db:"code_currency"`
	Amount       decimal.Decimal       `db:"amount"`
}

// GetAreaIncomes returns the raw per-currency aggregates of each sale
// area that had activity in the cycle.
//
// Sales are attributed to sale areas through the shift the movement was
// recorded under: OUT rows priced at the product's sale price form
// totalSales, the same rows priced at average cost (main currency) form
// totalCost. Reversal rows subtract. Cash register operations feed
// totalCashOperations, TIP rows feed totalTips, and the signed manual
// cash flow forms totalIncomesInCash. Discounts, shipping, commissions
// and non-cash incomes need billing orders, which this platform does not
// record; those buckets stay empty.
func (r *ReportRepo) GetAreaIncomes(ctx context.Context, cycleID id.ID) ([]reports.AreaIncomes, error) {
	querier := r.getTxManager(ctx).GetQuerier(ctx)

	mainISO, err := r.mainCurrencyISO(ctx)
	if err != nil {
		return nil, err
	}

	salesQuery := `
		SELECT
			sh.area_id,
			a.name AS area_name,
			COALESCE(c.iso_code, $2) AS code_currency,
			SUM(
				(m.quantity::numeric / 10000.0) * p.sale_price
				* (CASE WHEN m.reversal_of_id IS NULL THEN 1 ELSE -1 END)
			) AS amount
		FROM stock_movements m
		JOIN shifts sh ON m.shift_id = sh.id
		JOIN cat_areas a ON sh.area_id = a.id
		JOIN cat_products p ON m.product_id = p.id
		LEFT JOIN cat_currencies c ON c.id = p.sale_currency_id::uuid
		WHERE m.cycle_id = $1 AND m.operation = 'OUT'
		GROUP BY sh.area_id, a.name, COALESCE(c.iso_code, $2)
	`

	var salesRows []areaAmountRow
	if err := pgxscan.Select(ctx, querier, &salesRows, salesQuery, cycleID, mainISO); err != nil {
		return nil, fmt.Errorf("area sales: %w", err)
	}

	costQuery := `
		SELECT
			sh.area_id,
			a.name AS area_name,
			$2 AS code_currency,
			SUM(
				(m.quantity::numeric / 10000.0) * p.average_cost
				* (CASE WHEN m.reversal_of_id IS NULL THEN 1 ELSE -1 END)
			) AS amount
		FROM stock_movements m
		JOIN shifts sh ON m.shift_id = sh.id
		JOIN cat_areas a ON sh.area_id = a.id
		JOIN cat_products p ON m.product_id = p.id
		WHERE m.cycle_id = $1 AND m.operation = 'OUT'
		GROUP BY sh.area_id, a.name
	`

	var costRows []areaAmountRow
	if err := pgxscan.Select(ctx, querier, &costRows, costQuery, cycleID, mainISO); err != nil {
		return nil, fmt.Errorf("area costs: %w", err)
	}

	cashQuery := `
		SELECT
			o.area_id,
			a.name AS area_name,
			o.type,
			o.currency_iso AS code_currency,
			SUM(o.amount) AS amount
		FROM cash_operations o
		JOIN cat_areas a ON o.area_id = a.id
		WHERE o.cycle_id = $1
		GROUP BY o.area_id, a.name, o.type, o.currency_iso
		ORDER BY o.area_id, o.type, o.currency_iso
	`

	var cashRows []areaCashRow
	if err := pgxscan.Select(ctx, querier, &cashRows, cashQuery, cycleID); err != nil {
		return nil, fmt.Errorf("area cash operations: %w", err)
	}

	return assembleAreaIncomes(salesRows, costRows, cashRows), nil
}

// assembleAreaIncomes folds the raw rows into per-area aggregates,
// preserving first-appearance order of areas.
func assembleAreaIncomes(salesRows, costRows []areaAmountRow, cashRows []areaCashRow) []reports.AreaIncomes {
	var out []reports.AreaIncomes
	index := map[id.ID]int{}

	areaAt := func(areaID id.ID, areaName string) *reports.AreaIncomes {
		if i, ok := index[areaID]; ok {
			return &out[i]
		}
		index[areaID] = len(out)
		out = append(out, reports.AreaIncomes{AreaID: areaID, AreaName: areaName})
		return &out[len(out)-1]
	}

	for _, row := range salesRows {
		a := areaAt(row.AreaID, row.AreaName)
		a.TotalSales = reports.MergeAmounts(a.TotalSales, []reports.CurrencyAmount{
			{Amount: row.Amount, CodeCurrency: row.CodeCurrency},
		})
	}

	for _, row := range costRows {
		a := areaAt(row.AreaID, row.AreaName)
		a.TotalCost = reports.MergeAmounts(a.TotalCost, []reports.CurrencyAmount{
			{Amount: row.Amount, CodeCurrency: row.CodeCurrency},
		})
	}

	for _, row := range cashRows {
		a := areaAt(row.AreaID, row.AreaName)
		a.TotalCashOperations = reports.MergeCashAmounts(a.TotalCashOperations, []reports.CashAmount{
			{Operation: row.Type, Amount: row.Amount, CodeCurrency: row.CodeCurrency},
		})

		if row.Type == cashops.TypeTip {
			a.TotalTips = reports.MergeAmounts(a.TotalTips, []reports.CurrencyAmount{
				{Amount: row.Amount, CodeCurrency: row.CodeCurrency},
			})
		}

		signed := row.Amount
		if row.Type.IsOutflow() {
			signed = signed.Neg()
		}
		a.TotalIncomesInCash = reports.MergeAmounts(a.TotalIncomesInCash, []reports.CurrencyAmount{
			{Amount: signed, CodeCurrency: row.CodeCurrency},
		})
	}

	return out
}

func (r *ReportRepo) mainCurrencyISO(ctx context.Context) (string, error) {
	query := `
		SELECT COALESCE(iso_code, '')
		FROM cat_currencies
		WHERE is_main = true AND deletion_mark = false
		LIMIT 1
	`

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	var iso string
	if err := querier.QueryRow(ctx, query).Scan(&iso); err != nil {
		return "", fmt.Errorf("main currency: %w", err)
	}

	return iso, nil
}

// GetStockBalanceReport generates stock balance report with product and
// area details.
func (r *ReportRepo) GetStockBalanceReport(ctx context.Context, filter reports.StockBalanceFilter) (*reports.StockBalanceReport, error) {
	asOfDate := time.Now()
	if filter.AsOfDate != nil {
		asOfDate = *filter.AsOfDate
	}

	query := `
		WITH balance_data AS (
			SELECT
				m.area_id,
				m.product_id,
				SUM(
					(CASE WHEN m.operation IN ('ENTRY', 'ADJUST') THEN m.quantity ELSE -m.quantity END)
					* (CASE WHEN m.reversal_of_id IS NULL THEN 1 ELSE -1 END)
				) AS quantity_scaled
			FROM stock_movements m
			WHERE m.created_at <= $1
	`
	args := []any{asOfDate}
	argIndex := 2

	if len(filter.AreaIDs) > 0 {
		placeholders := make([]string, len(filter.AreaIDs))
		for i, areaID := range filter.AreaIDs {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, areaID)
			argIndex++
		}
		query += fmt.Sprintf(" AND m.area_id IN (%s)", strings.Join(placeholders, ","))
	}

	if len(filter.ProductIDs) > 0 {
		placeholders := make([]string, len(filter.ProductIDs))
		for i, pID := range filter.ProductIDs {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, pID)
			argIndex++
		}
		query += fmt.Sprintf(" AND m.product_id IN (%s)", strings.Join(placeholders, ","))
	}

	havingClause := ""
	if filter.ExcludeZero {
		havingClause = `HAVING SUM(
			(CASE WHEN m.operation IN ('ENTRY', 'ADJUST') THEN m.quantity ELSE -m.quantity END)
			* (CASE WHEN m.reversal_of_id IS NULL THEN 1 ELSE -1 END)
		) != 0`
	}

	query += fmt.Sprintf(`
			GROUP BY m.area_id, m.product_id
			%s
		)
		SELECT
			bd.area_id,
			a.name AS area_name,
			bd.product_id,
			p.name AS product_name,
			p.code AS product_code,
			bd.quantity_scaled::float8 / 10000.0 AS quantity,
			p.average_cost AS average_cost,
			(bd.quantity_scaled::numeric / 10000.0) * p.average_cost AS total_cost
		FROM balance_data bd
		JOIN cat_areas a ON bd.area_id = a.id
		JOIN cat_products p ON bd.product_id = p.id
		ORDER BY a.name, p.name
	`, havingClause)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	var items []reports.StockBalanceItem
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, query, args...); err != nil {
		return nil, fmt.Errorf("stock balance report: %w", err)
	}

	var totalQuantity float64
	totalCost := decimal.Zero
	for _, item := range items {
		totalQuantity += item.Quantity
		totalCost = totalCost.Add(item.TotalCost)
	}

	return &reports.StockBalanceReport{
		AsOfDate:      asOfDate,
		Items:         items,
		TotalItems:    len(items),
		TotalQuantity: totalQuantity,
		TotalCost:     totalCost,
	}, nil
}

// GetStockTurnoverReport generates stock turnover report for a period.
func (r *ReportRepo) GetStockTurnoverReport(ctx context.Context, filter reports.StockTurnoverFilter) (*reports.StockTurnoverReport, error) {
	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return nil, fmt.Errorf("from_date and to_date are required")
	}

	args := []any{filter.FromDate}
	argIndex := 2

	openingQuery := `
		SELECT
			m.area_id,
			m.product_id,
			SUM(
				(CASE WHEN m.operation IN ('ENTRY', 'ADJUST') THEN m.quantity ELSE -m.quantity END)
				* (CASE WHEN m.reversal_of_id IS NULL THEN 1 ELSE -1 END)
			) AS quantity_scaled
		FROM stock_movements m
		WHERE m.created_at < $1
	`

	if len(filter.AreaIDs) > 0 {
		placeholders := make([]string, len(filter.AreaIDs))
		for i, areaID := range filter.AreaIDs {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, areaID)
			argIndex++
		}
		openingQuery += fmt.Sprintf(" AND m.area_id IN (%s)", strings.Join(placeholders, ","))
	}

	openingQuery += " GROUP BY m.area_id, m.product_id"

	turnoverQuery := fmt.Sprintf(`
		SELECT
			m.area_id,
			a.name AS area_name,
			m.product_id,
			p.name AS product_name,
			p.code AS product_code,
			COALESCE(opening.quantity_scaled, 0)::float8 / 10000.0 AS opening_balance,
			SUM(CASE WHEN m.operation = 'ENTRY' AND m.reversal_of_id IS NULL THEN m.quantity ELSE 0 END)::float8 / 10000.0 AS entries,
			SUM(CASE WHEN m.operation = 'OUT' AND m.reversal_of_id IS NULL THEN m.quantity ELSE 0 END)::float8 / 10000.0 AS outs,
			SUM(CASE WHEN m.operation = 'WASTE' AND m.reversal_of_id IS NULL THEN m.quantity ELSE 0 END)::float8 / 10000.0 AS waste,
			(COALESCE(opening.quantity_scaled, 0) +
				SUM(
					(CASE WHEN m.operation IN ('ENTRY', 'ADJUST') THEN m.quantity ELSE -m.quantity END)
					* (CASE WHEN m.reversal_of_id IS NULL THEN 1 ELSE -1 END)
				))::float8 / 10000.0 AS closing_balance
		FROM stock_movements m
		JOIN cat_areas a ON m.area_id = a.id
		JOIN cat_products p ON m.product_id = p.id
		LEFT JOIN (%s) opening
			ON m.area_id = opening.area_id AND m.product_id = opening.product_id
		WHERE m.created_at >= $%d AND m.created_at < $%d
	`, openingQuery, argIndex, argIndex+1)

	args = append(args, filter.FromDate, filter.ToDate)
	argIndex += 2

	if len(filter.AreaIDs) > 0 {
		placeholders := make([]string, len(filter.AreaIDs))
		for i, areaID := range filter.AreaIDs {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, areaID)
			argIndex++
		}
		turnoverQuery += fmt.Sprintf(" AND m.area_id IN (%s)", strings.Join(placeholders, ","))
	}

	if len(filter.ProductIDs) > 0 {
		placeholders := make([]string, len(filter.ProductIDs))
		for i, pID := range filter.ProductIDs {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, pID)
			argIndex++
		}
		turnoverQuery += fmt.Sprintf(" AND m.product_id IN (%s)", strings.Join(placeholders, ","))
	}

	turnoverQuery += `
		GROUP BY m.area_id, a.name, m.product_id, p.name, p.code, opening.quantity_scaled
		ORDER BY a.name, p.name
	`

	if filter.Limit > 0 {
		turnoverQuery += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		turnoverQuery += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	var items []reports.StockTurnoverItem
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, turnoverQuery, args...); err != nil {
		return nil, fmt.Errorf("stock turnover report: %w", err)
	}

	var totalEntries, totalOuts, totalWaste float64
	for _, item := range items {
		totalEntries += item.Entries
		totalOuts += item.Outs
		totalWaste += item.Waste
	}

	return &reports.StockTurnoverReport{
		FromDate:     filter.FromDate,
		ToDate:       filter.ToDate,
		Items:        items,
		TotalItems:   len(items),
		TotalEntries: totalEntries,
		TotalOuts:    totalOuts,
		TotalWaste:   totalWaste,
	}, nil
}

// Ensure interface compliance
var _ reports.Repository = (*ReportRepo)(nil)
