package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"poscore/internal/core/apperror"
	"poscore/internal/core/business"
	"poscore/internal/core/id"
	"poscore/internal/core/security"
	"poscore/internal/domain/cycles"
)

// CycleGetter resolves cycles and their frozen rate snapshots.
type CycleGetter interface {
	GetByID(ctx context.Context, cycleID id.ID) (*cycles.EconomicCycle, error)
}

// MainCurrencyProvider supplies the ISO code of the main currency.
type MainCurrencyProvider interface {
	MainISO(ctx context.Context) (string, error)
}

// Service provides report generation operations.
type Service struct {
	repo     Repository
	cycles   CycleGetter
	currency MainCurrencyProvider
	planGate *security.PlanGate
	flags    security.FeatureFlagProvider // Optional. Nil means all reports enabled.
}

// NewService creates a new reports service.
func NewService(
	repo Repository,
	cycleGetter CycleGetter,
	currency MainCurrencyProvider,
	planGate *security.PlanGate,
	flags security.FeatureFlagProvider,
) *Service {
	return &Service{
		repo:     repo,
		cycles:   cycleGetter,
		currency: currency,
		planGate: planGate,
		flags:    flags,
	}
}

// GetCycleIncomes builds the financial summary of an economic cycle:
// per-area currency buckets plus, with more than one area, a synthetic
// "general" aggregate covering all of them.
func (s *Service) GetCycleIncomes(ctx context.Context, cycleID id.ID) (*CycleIncomesReport, error) {
	if s.planGate != nil {
		if err := s.planGate.Check(ctx, "reports_access", string(business.GetPlan(ctx)), security.PlanUsage{}); err != nil {
			return nil, err
		}
	}

	cycle, err := s.cycles.GetByID(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	areas, err := s.repo.GetAreaIncomes(ctx, cycleID)
	if err != nil {
		return nil, fmt.Errorf("get area incomes: %w", err)
	}

	rates := rateSnapshot(cycle)
	mainISO, err := s.currency.MainISO(ctx)
	if err != nil {
		return nil, err
	}

	for i := range areas {
		areas[i].TotalGrossRevenue = GrossRevenue(
			areas[i].TotalSales, areas[i].TotalCost, mainISO, rates)
	}

	if len(areas) > 1 {
		general := AreaIncomes{AreaName: GeneralAreaName}
		for _, a := range areas {
			general = general.Merge(a)
		}
		areas = append([]AreaIncomes{general}, areas...)
	}

	return &CycleIncomesReport{
		CycleID:   cycle.ID,
		OpenDate:  cycle.OpenDate,
		CloseDate: cycle.CloseDate,
		Areas:     areas,
	}, nil
}

// GrossRevenue derives per-currency gross revenue as sales minus cost.
// Cost buckets matching a sales currency are subtracted directly; the
// rest are converted to the main currency using the cycle's frozen rate
// snapshot. A cost bucket with no available rate is skipped rather than
// counted as zero revenue.
func GrossRevenue(sales, cost []CurrencyAmount, mainISO string, rates map[string]decimal.Decimal) []CurrencyAmount {
	out := make([]CurrencyAmount, len(sales))
	index := map[string]int{}
	for i, b := range sales {
		out[i] = b
		index[b.CodeCurrency] = i
	}

	subtract := func(iso string, amount decimal.Decimal) {
		if i, ok := index[iso]; ok {
			out[i].Amount = out[i].Amount.Sub(amount)
			return
		}
		index[iso] = len(out)
		out = append(out, CurrencyAmount{Amount: amount.Neg(), CodeCurrency: iso})
	}

	for _, cb := range cost {
		if _, ok := index[cb.CodeCurrency]; ok {
			subtract(cb.CodeCurrency, cb.Amount)
			continue
		}
		converted, ok := Convert(cb.Amount, cb.CodeCurrency, mainISO, rates)
		if !ok {
			// No rate available: skip, never substitute zero
			continue
		}
		subtract(mainISO, converted)
	}

	return out
}

// rateSnapshot decodes the cycle's frozen exchange rates.
func rateSnapshot(cycle *cycles.EconomicCycle) map[string]decimal.Decimal {
	rates := make(map[string]decimal.Decimal, len(cycle.ExchangeRates))
	for iso := range cycle.ExchangeRates {
		rates[iso] = cycle.ExchangeRates.GetDecimal(iso)
	}
	return rates
}

// GetStockBalance generates the stock balance report.
func (s *Service) GetStockBalance(ctx context.Context, filter StockBalanceFilter) (*StockBalanceReport, error) {
	if filter.AsOfDate == nil {
		now := time.Now()
		filter.AsOfDate = &now
	}

	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}

	report, err := s.repo.GetStockBalanceReport(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get stock balance report: %w", err)
	}

	return report, nil
}

// GetStockTurnover generates the stock turnover report.
func (s *Service) GetStockTurnover(ctx context.Context, filter StockTurnoverFilter) (*StockTurnoverReport, error) {
	// Turnover is the heaviest report. An operator can switch it off
	// without redeploying.
	if s.flags != nil && !s.flags.IsEnabled(ctx, security.FlagAdvancedReports) {
		return nil, apperror.NewForbidden("advanced reports are disabled").
			WithDetail("flag", security.FlagAdvancedReports)
	}

	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return nil, apperror.NewValidation("fromDate and toDate are required")
	}
	if filter.FromDate.After(filter.ToDate) {
		return nil, apperror.NewValidation("fromDate must be before toDate")
	}

	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}

	report, err := s.repo.GetStockTurnoverReport(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get stock turnover report: %w", err)
	}

	return report, nil
}
