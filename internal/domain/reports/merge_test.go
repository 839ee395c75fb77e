package reports

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poscore/internal/domain/cashops"
)

func usd(v int64) CurrencyAmount {
	return CurrencyAmount{Amount: decimal.NewFromInt(v), CodeCurrency: "USD"}
}

func cup(v int64) CurrencyAmount {
	return CurrencyAmount{Amount: decimal.NewFromInt(v), CodeCurrency: "CUP"}
}

func TestMergeAmounts(t *testing.T) {
	got := MergeAmounts([]CurrencyAmount{usd(10), usd(5), cup(3)})

	require.Len(t, got, 2)
	assert.Equal(t, "USD", got[0].CodeCurrency)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, "CUP", got[1].CodeCurrency)
	assert.True(t, got[1].Amount.Equal(decimal.NewFromInt(3)))
}

func TestMergeAmounts_Commutative(t *testing.T) {
	a := []CurrencyAmount{usd(10), cup(3)}
	b := []CurrencyAmount{usd(5), cup(7),
		{Amount: decimal.NewFromInt(2), CodeCurrency: "EUR"}}

	ab := MergeAmounts(a, b)
	ba := MergeAmounts(b, a)

	totals := func(buckets []CurrencyAmount) map[string]string {
		out := map[string]string{}
		for _, bkt := range buckets {
			out[bkt.CodeCurrency] = bkt.Amount.String()
		}
		return out
	}
	assert.Equal(t, totals(ab), totals(ba))
}

func TestMergeAmounts_Associative(t *testing.T) {
	a := []CurrencyAmount{usd(1)}
	b := []CurrencyAmount{usd(2), cup(3)}
	c := []CurrencyAmount{cup(4)}

	left := MergeAmounts(MergeAmounts(a, b), c)
	right := MergeAmounts(a, MergeAmounts(b, c))

	require.Len(t, left, 2)
	require.Len(t, right, 2)
	assert.True(t, left[0].Amount.Equal(right[0].Amount))
	assert.True(t, left[1].Amount.Equal(right[1].Amount))
}

func TestMergeAmounts_Empty(t *testing.T) {
	assert.Empty(t, MergeAmounts(nil, nil))
	assert.Empty(t, MergeAmounts([]CurrencyAmount{}))
}

func TestMergeCashAmounts_GroupsByOperationAndCurrency(t *testing.T) {
	got := MergeCashAmounts([]CashAmount{
		{Operation: cashops.TypeDeposit, Amount: decimal.NewFromInt(10), CodeCurrency: "USD"},
		{Operation: cashops.TypeDeposit, Amount: decimal.NewFromInt(5), CodeCurrency: "USD"},
		{Operation: cashops.TypeExtraction, Amount: decimal.NewFromInt(5), CodeCurrency: "USD"},
		{Operation: cashops.TypeDeposit, Amount: decimal.NewFromInt(3), CodeCurrency: "CUP"},
	})

	require.Len(t, got, 3)
	assert.Equal(t, cashops.TypeDeposit, got[0].Operation)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, cashops.TypeExtraction, got[1].Operation)
	assert.True(t, got[1].Amount.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, "CUP", got[2].CodeCurrency)
}

func TestConvert(t *testing.T) {
	rates := map[string]decimal.Decimal{
		"CUP": decimal.NewFromInt(1),
		"USD": decimal.NewFromInt(120),
	}

	// Same currency needs no rate
	v, ok := Convert(decimal.NewFromInt(7), "EUR", "EUR", rates)
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(7)))

	// USD -> CUP via main-currency rates
	v, ok = Convert(decimal.NewFromInt(2), "USD", "CUP", rates)
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(240)))

	// CUP -> USD
	v, ok = Convert(decimal.NewFromInt(240), "CUP", "USD", rates)
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(2)))

	// Missing rate never yields zero silently
	_, ok = Convert(decimal.NewFromInt(5), "EUR", "CUP", rates)
	assert.False(t, ok)
	_, ok = Convert(decimal.NewFromInt(5), "CUP", "EUR", rates)
	assert.False(t, ok)
}

func TestGrossRevenue(t *testing.T) {
	rates := map[string]decimal.Decimal{
		"CUP": decimal.NewFromInt(1),
		"USD": decimal.NewFromInt(120),
	}

	t.Run("same currency subtracts directly", func(t *testing.T) {
		got := GrossRevenue(
			[]CurrencyAmount{usd(100)},
			[]CurrencyAmount{usd(40)},
			"CUP", rates)
		require.Len(t, got, 1)
		assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(60)))
	})

	t.Run("foreign cost converted to main currency", func(t *testing.T) {
		got := GrossRevenue(
			[]CurrencyAmount{cup(1000)},
			[]CurrencyAmount{usd(2)},
			"CUP", rates)
		require.Len(t, got, 1)
		assert.Equal(t, "CUP", got[0].CodeCurrency)
		assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(760)))
	})

	t.Run("cost with no rate is skipped", func(t *testing.T) {
		got := GrossRevenue(
			[]CurrencyAmount{cup(1000)},
			[]CurrencyAmount{{Amount: decimal.NewFromInt(50), CodeCurrency: "EUR"}},
			"CUP", rates)
		require.Len(t, got, 1)
		assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(1000)))
	})
}
