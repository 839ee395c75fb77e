package reports

import (
	"context"

	"poscore/internal/core/id"
)

// Repository defines data access for report generation. Implementations
// run the heavy aggregation in SQL and return raw per-area buckets; the
// service layer merges them and derives computed aggregates.
type Repository interface {
	// GetAreaIncomes returns the raw per-currency aggregates of each
	// sale area that had activity in the cycle. TotalGrossRevenue is
	// left empty; the service derives it.
	GetAreaIncomes(ctx context.Context, cycleID id.ID) ([]AreaIncomes, error)

	// GetStockBalanceReport generates the stock balance report.
	GetStockBalanceReport(ctx context.Context, filter StockBalanceFilter) (*StockBalanceReport, error)

	// GetStockTurnoverReport generates the stock turnover report.
	GetStockTurnoverReport(ctx context.Context, filter StockTurnoverFilter) (*StockTurnoverReport, error)
}
