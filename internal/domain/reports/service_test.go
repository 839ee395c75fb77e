package reports

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poscore/internal/core/apperror"
	"poscore/internal/core/id"
	"poscore/internal/core/security"
	"poscore/internal/domain/cycles"
)

type mockRepo struct {
	GetAreaIncomesFunc func(ctx context.Context, cycleID id.ID) ([]AreaIncomes, error)
}

func (m *mockRepo) GetAreaIncomes(ctx context.Context, cycleID id.ID) ([]AreaIncomes, error) {
	return m.GetAreaIncomesFunc(ctx, cycleID)
}

func (m *mockRepo) GetStockBalanceReport(ctx context.Context, filter StockBalanceFilter) (*StockBalanceReport, error) {
	return &StockBalanceReport{}, nil
}

func (m *mockRepo) GetStockTurnoverReport(ctx context.Context, filter StockTurnoverFilter) (*StockTurnoverReport, error) {
	return &StockTurnoverReport{}, nil
}

type fakeCycles struct {
	cycle *cycles.EconomicCycle
}

func (f fakeCycles) GetByID(ctx context.Context, cycleID id.ID) (*cycles.EconomicCycle, error) {
	if f.cycle == nil {
		return nil, apperror.NewNotFound("economic cycle", cycleID.String())
	}
	return f.cycle, nil
}

type fakeMainCurrency struct{}

func (fakeMainCurrency) MainISO(ctx context.Context) (string, error) { return "CUP", nil }

func testCycle() *cycles.EconomicCycle {
	c := cycles.NewEconomicCycle("owner")
	c.ExchangeRates.Set("CUP", "1")
	c.ExchangeRates.Set("USD", "120")
	return c
}

func areaIncomes(name string, sales ...CurrencyAmount) AreaIncomes {
	return AreaIncomes{AreaID: id.New(), AreaName: name, TotalSales: sales}
}

func TestGetCycleIncomes_SingleAreaHasNoGeneral(t *testing.T) {
	cycle := testCycle()
	repo := &mockRepo{
		GetAreaIncomesFunc: func(ctx context.Context, cycleID id.ID) ([]AreaIncomes, error) {
			return []AreaIncomes{areaIncomes("Bar", usd(100))}, nil
		},
	}
	svc := NewService(repo, fakeCycles{cycle: cycle}, fakeMainCurrency{}, nil, nil)

	report, err := svc.GetCycleIncomes(context.Background(), cycle.ID)
	require.NoError(t, err)
	require.Len(t, report.Areas, 1)
	assert.Equal(t, "Bar", report.Areas[0].AreaName)
}

func TestGetCycleIncomes_GeneralPrependedForMultipleAreas(t *testing.T) {
	cycle := testCycle()
	repo := &mockRepo{
		GetAreaIncomesFunc: func(ctx context.Context, cycleID id.ID) ([]AreaIncomes, error) {
			return []AreaIncomes{
				areaIncomes("Bar", usd(100), cup(500)),
				areaIncomes("Kitchen", usd(50)),
			}, nil
		},
	}
	svc := NewService(repo, fakeCycles{cycle: cycle}, fakeMainCurrency{}, nil, nil)

	report, err := svc.GetCycleIncomes(context.Background(), cycle.ID)
	require.NoError(t, err)
	require.Len(t, report.Areas, 3)

	general := report.Areas[0]
	assert.Equal(t, GeneralAreaName, general.AreaName)
	require.Len(t, general.TotalSales, 2)
	assert.True(t, general.TotalSales[0].Amount.Equal(decimal.NewFromInt(150)))
	assert.True(t, general.TotalSales[1].Amount.Equal(decimal.NewFromInt(500)))
}

func TestGetCycleIncomes_GrossRevenueUsesFrozenRates(t *testing.T) {
	cycle := testCycle()
	repo := &mockRepo{
		GetAreaIncomesFunc: func(ctx context.Context, cycleID id.ID) ([]AreaIncomes, error) {
			ai := areaIncomes("Bar", cup(1000))
			ai.TotalCost = []CurrencyAmount{usd(2)}
			return []AreaIncomes{ai}, nil
		},
	}
	svc := NewService(repo, fakeCycles{cycle: cycle}, fakeMainCurrency{}, nil, nil)

	report, err := svc.GetCycleIncomes(context.Background(), cycle.ID)
	require.NoError(t, err)
	require.Len(t, report.Areas, 1)
	require.Len(t, report.Areas[0].TotalGrossRevenue, 1)
	// 1000 CUP sales - 2 USD * 120 cost
	assert.True(t, report.Areas[0].TotalGrossRevenue[0].Amount.Equal(decimal.NewFromInt(760)))
}

func TestGetStockTurnover_ValidatesPeriod(t *testing.T) {
	svc := NewService(&mockRepo{}, fakeCycles{}, fakeMainCurrency{}, nil, nil)

	_, err := svc.GetStockTurnover(context.Background(), StockTurnoverFilter{})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestGetStockTurnover_DisabledByFeatureFlag(t *testing.T) {
	flags := security.NewInMemoryFlags()
	flags.SetFlag(security.FlagAdvancedReports, false)

	svc := NewService(&mockRepo{}, fakeCycles{}, fakeMainCurrency{}, nil, flags)

	_, err := svc.GetStockTurnover(context.Background(), StockTurnoverFilter{
		FromDate: time.Now().Add(-24 * time.Hour),
		ToDate:   time.Now(),
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)

	flags.SetFlag(security.FlagAdvancedReports, true)
	_, err = svc.GetStockTurnover(context.Background(), StockTurnoverFilter{
		FromDate: time.Now().Add(-24 * time.Hour),
		ToDate:   time.Now(),
	})
	require.NoError(t, err)
}
