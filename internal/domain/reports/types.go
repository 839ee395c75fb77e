// Package reports provides financial and stock report generation.
package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"poscore/internal/core/id"
	"poscore/internal/domain/cashops"
)

// --- Currency buckets ---

// CurrencyAmount is one per-currency bucket of a financial aggregate.
type CurrencyAmount struct {
	Amount       decimal.Decimal `json:"amount"`
	CodeCurrency string          `json:"codeCurrency"`
}

// CashAmount is a per-currency bucket further grouped by operation type.
type CashAmount struct {
	Operation    cashops.OperationType `json:"operation"`
	Amount       decimal.Decimal       `json:"amount"`
	CodeCurrency string                `json:"codeCurrency"`
}

// MergeAmounts reduces any number of bucket groups into one: buckets
// with the same currency are summed, new currencies are appended in
// order of first appearance. The reduce is commutative and associative,
// so it yields the same totals whether applied across areas or across a
// single area's transactions.
func MergeAmounts(groups ...[]CurrencyAmount) []CurrencyAmount {
	var out []CurrencyAmount
	index := map[string]int{}
	for _, group := range groups {
		for _, b := range group {
			if i, ok := index[b.CodeCurrency]; ok {
				out[i].Amount = out[i].Amount.Add(b.Amount)
				continue
			}
			index[b.CodeCurrency] = len(out)
			out = append(out, b)
		}
	}
	return out
}

// MergeCashAmounts is MergeAmounts keyed by operation type + currency.
func MergeCashAmounts(groups ...[]CashAmount) []CashAmount {
	type key struct {
		op  cashops.OperationType
		iso string
	}
	var out []CashAmount
	index := map[key]int{}
	for _, group := range groups {
		for _, b := range group {
			k := key{b.Operation, b.CodeCurrency}
			if i, ok := index[k]; ok {
				out[i].Amount = out[i].Amount.Add(b.Amount)
				continue
			}
			index[k] = len(out)
			out = append(out, b)
		}
	}
	return out
}

// Convert converts an amount between currencies using a rate snapshot.
// Rates are expressed in units of the main currency per unit of the
// keyed currency (the main currency itself has rate 1). Returns
// ok=false when either rate is missing; callers must not treat a
// missing rate as zero.
func Convert(amount decimal.Decimal, fromISO, toISO string, rates map[string]decimal.Decimal) (decimal.Decimal, bool) {
	if fromISO == toISO {
		return amount, true
	}
	fromRate, ok := rates[fromISO]
	if !ok || fromRate.IsZero() {
		return decimal.Zero, false
	}
	toRate, ok := rates[toISO]
	if !ok || toRate.IsZero() {
		return decimal.Zero, false
	}
	return amount.Mul(fromRate).Div(toRate), true
}

// --- Cycle incomes report ---

// GeneralAreaName labels the synthetic aggregate covering all areas.
const GeneralAreaName = "general"

// AreaIncomes holds the per-currency financial aggregates of one area
// within an economic cycle.
type AreaIncomes struct {
	AreaID   id.ID  `json:"areaId,omitempty"`
	AreaName string `json:"areaName"`

	TotalSales            []CurrencyAmount `json:"totalSales"`
	TotalTips             []CurrencyAmount `json:"totalTips"`
	TotalDiscounts        []CurrencyAmount `json:"totalDiscounts"`
	TotalShipping         []CurrencyAmount `json:"totalShipping"`
	TotalCommissions      []CurrencyAmount `json:"totalCommissions"`
	TotalCashOperations   []CashAmount     `json:"totalCashOperations"`
	TotalIncomesInCash    []CurrencyAmount `json:"totalIncomesInCash"`
	TotalIncomesNotInCash []CurrencyAmount `json:"totalIncomesNotInCash"`
	TotalCost             []CurrencyAmount `json:"totalCost"`
	TotalGrossRevenue     []CurrencyAmount `json:"totalGrossRevenue"`
}

// Merge combines two area aggregates bucket-by-bucket.
func (a AreaIncomes) Merge(b AreaIncomes) AreaIncomes {
	return AreaIncomes{
		AreaID:                a.AreaID,
		AreaName:              a.AreaName,
		TotalSales:            MergeAmounts(a.TotalSales, b.TotalSales),
		TotalTips:             MergeAmounts(a.TotalTips, b.TotalTips),
		TotalDiscounts:        MergeAmounts(a.TotalDiscounts, b.TotalDiscounts),
		TotalShipping:         MergeAmounts(a.TotalShipping, b.TotalShipping),
		TotalCommissions:      MergeAmounts(a.TotalCommissions, b.TotalCommissions),
		TotalCashOperations:   MergeCashAmounts(a.TotalCashOperations, b.TotalCashOperations),
		TotalIncomesInCash:    MergeAmounts(a.TotalIncomesInCash, b.TotalIncomesInCash),
		TotalIncomesNotInCash: MergeAmounts(a.TotalIncomesNotInCash, b.TotalIncomesNotInCash),
		TotalCost:             MergeAmounts(a.TotalCost, b.TotalCost),
		TotalGrossRevenue:     MergeAmounts(a.TotalGrossRevenue, b.TotalGrossRevenue),
	}
}

// CycleIncomesReport is the financial summary of one economic cycle.
// With more than one area, a synthetic aggregate named "general" is
// prepended covering all of them.
type CycleIncomesReport struct {
	CycleID   id.ID         `json:"cycleId"`
	OpenDate  time.Time     `json:"openDate"`
	CloseDate *time.Time    `json:"closeDate,omitempty"`
	Areas     []AreaIncomes `json:"areas"`
}

// --- Stock balance report ---

// StockBalanceFilter defines filter for the stock balance report.
type StockBalanceFilter struct {
	// AsOfDate - report date (defaults to now)
	AsOfDate *time.Time

	AreaIDs    []id.ID
	ProductIDs []id.ID

	// Exclude zero balances
	ExcludeZero bool

	Limit  int
	Offset int
}

// StockBalanceItem represents a single row in the stock balance report.
type StockBalanceItem struct {
	AreaID      id.ID   `json:"areaId"`
	AreaName    string  `json:"areaName"`
	ProductID   id.ID   `json:"productId"`
	ProductName string  `json:"productName"`
	ProductCode string  `json:"productCode"`
	Quantity    float64 `json:"quantity"`

	AverageCost decimal.Decimal `json:"averageCost"`
	TotalCost   decimal.Decimal `json:"totalCost"`
}

// StockBalanceReport represents the full stock balance report.
type StockBalanceReport struct {
	AsOfDate   time.Time          `json:"asOfDate"`
	Items      []StockBalanceItem `json:"items"`
	TotalItems int                `json:"totalItems"`

	TotalQuantity float64         `json:"totalQuantity"`
	TotalCost     decimal.Decimal `json:"totalCost"`
}

// --- Stock turnover report ---

// StockTurnoverFilter defines filter for the stock turnover report.
type StockTurnoverFilter struct {
	// Period (required)
	FromDate time.Time
	ToDate   time.Time

	AreaIDs    []id.ID
	ProductIDs []id.ID

	// Include zero rows
	IncludeZero bool

	Limit  int
	Offset int
}

// StockTurnoverItem represents a single row in the turnover report.
type StockTurnoverItem struct {
	AreaID         id.ID   `json:"areaId,omitempty"`
	AreaName       string  `json:"areaName,omitempty"`
	ProductID      id.ID   `json:"productId,omitempty"`
	ProductName    string  `json:"productName,omitempty"`
	ProductCode    string  `json:"productCode,omitempty"`
	OpeningBalance float64 `json:"openingBalance"`
	Entries        float64 `json:"entries"`
	Outs           float64 `json:"outs"`
	Waste          float64 `json:"waste"`
	ClosingBalance float64 `json:"closingBalance"`
}

// StockTurnoverReport represents the full turnover report.
type StockTurnoverReport struct {
	FromDate   time.Time           `json:"fromDate"`
	ToDate     time.Time           `json:"toDate"`
	Items      []StockTurnoverItem `json:"items"`
	TotalItems int                 `json:"totalItems"`

	TotalEntries float64 `json:"totalEntries"`
	TotalOuts    float64 `json:"totalOuts"`
	TotalWaste   float64 `json:"totalWaste"`
}
