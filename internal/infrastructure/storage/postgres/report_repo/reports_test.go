package report_repo

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poscore/internal/core/id"
	"poscore/internal/domain/cashops"
)

func TestAssembleAreaIncomes(t *testing.T) {
	areaA := id.New()
	areaB := id.New()

	sales := []areaAmountRow{
		{AreaID: areaA, AreaName: "Bar", CodeCurrency: "USD", Amount: decimal.NewFromInt(100)},
		{AreaID: areaA, AreaName: "Bar", CodeCurrency: "CUP", Amount: decimal.NewFromInt(500)},
		{AreaID: areaB, AreaName: "Kitchen", CodeCurrency: "USD", Amount: decimal.NewFromInt(50)},
	}
	costs := []areaAmountRow{
		{AreaID: areaA, AreaName: "Bar", CodeCurrency: "CUP", Amount: decimal.NewFromInt(200)},
	}
	cash := []areaCashRow{
		{AreaID: areaA, AreaName: "Bar", Type: cashops.TypeCashIn, CodeCurrency: "CUP", Amount: decimal.NewFromInt(80)},
		{AreaID: areaA, AreaName: "Bar", Type: cashops.TypeExtraction, CodeCurrency: "CUP", Amount: decimal.NewFromInt(30)},
		{AreaID: areaA, AreaName: "Bar", Type: cashops.TypeTip, CodeCurrency: "USD", Amount: decimal.NewFromInt(5)},
	}

	out := assembleAreaIncomes(sales, costs, cash)
	require.Len(t, out, 2)

	bar := out[0]
	assert.Equal(t, "Bar", bar.AreaName)
	require.Len(t, bar.TotalSales, 2)
	assert.True(t, bar.TotalSales[0].Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "USD", bar.TotalSales[0].CodeCurrency)

	require.Len(t, bar.TotalCost, 1)
	assert.True(t, bar.TotalCost[0].Amount.Equal(decimal.NewFromInt(200)))

	// three cash buckets, one per type+currency
	assert.Len(t, bar.TotalCashOperations, 3)

	// tips are also surfaced in their own bucket
	require.Len(t, bar.TotalTips, 1)
	assert.True(t, bar.TotalTips[0].Amount.Equal(decimal.NewFromInt(5)))

	// signed cash flow: CUP 80 in, 30 extracted; USD 5 tip
	require.Len(t, bar.TotalIncomesInCash, 2)
	assert.True(t, bar.TotalIncomesInCash[0].Amount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "CUP", bar.TotalIncomesInCash[0].CodeCurrency)

	kitchen := out[1]
	assert.Equal(t, "Kitchen", kitchen.AreaName)
	require.Len(t, kitchen.TotalSales, 1)
	assert.Empty(t, kitchen.TotalCashOperations)
}

func TestAssembleAreaIncomes_Empty(t *testing.T) {
	out := assembleAreaIncomes(nil, nil, nil)
	assert.Empty(t, out)
}
