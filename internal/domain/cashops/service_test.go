package cashops

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poscore/internal/core/apperror"
	"poscore/internal/core/id"
	"poscore/internal/core/numerator"
	"poscore/internal/domain"
	"poscore/internal/domain/catalogs/area"
	"poscore/internal/domain/cycles"
	"poscore/internal/domain/shifts"
)

// --- Mocks ---

type mockRepo struct {
	created []*CashOperation
}

func (m *mockRepo) Create(ctx context.Context, op *CashOperation) error {
	clone := *op
	m.created = append(m.created, &clone)
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, opID id.ID) (*CashOperation, error) {
	for _, op := range m.created {
		if op.ID == opID {
			return op, nil
		}
	}
	return nil, apperror.NewNotFound("cash operation", opID.String())
}

func (m *mockRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*CashOperation], error) {
	return domain.ListResult[*CashOperation]{Items: m.created, TotalCount: int64(len(m.created))}, nil
}

func (m *mockRepo) SumByCycle(ctx context.Context, cycleID id.ID, areaID *id.ID) ([]TypeTotal, error) {
	return nil, nil
}

type fakeAreas struct {
	areas map[id.ID]*area.Area
}

func (f fakeAreas) GetByID(ctx context.Context, areaID id.ID) (*area.Area, error) {
	if ar, ok := f.areas[areaID]; ok {
		return ar, nil
	}
	return nil, apperror.NewNotFound("area", areaID.String())
}

type fakeCurrencies struct {
	known map[string]bool
}

func (f fakeCurrencies) ExistsByISO(ctx context.Context, iso string) (bool, error) {
	return f.known[iso], nil
}

type fakeCycleGate struct {
	cycle *cycles.EconomicCycle
	err   error
}

func (f fakeCycleGate) RequireAcceptingCycle(ctx context.Context) (*cycles.EconomicCycle, error) {
	return f.cycle, f.err
}

type fakeShifts struct {
	shift *shifts.Shift
	err   error
}

func (f fakeShifts) GetOpenByArea(ctx context.Context, areaID id.ID) (*shifts.Shift, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.shift, nil
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- Fixtures ---

type fixture struct {
	svc      *Service
	repo     *mockRepo
	saleArea *area.Area
	cycle    *cycles.EconomicCycle
	shift    *shifts.Shift
}

func newFixture(t *testing.T, shiftGetter ShiftGetter) *fixture {
	t.Helper()

	saleArea := area.NewArea("AR-001", "Front Store", area.TypeSale)
	cycle := cycles.NewEconomicCycle("owner")

	var shift *shifts.Shift
	if fs, ok := shiftGetter.(fakeShifts); ok {
		shift = fs.shift
	}

	repo := &mockRepo{}
	svc := NewService(
		repo,
		fakeAreas{areas: map[id.ID]*area.Area{saleArea.ID: saleArea}},
		fakeCurrencies{known: map[string]bool{"USD": true, "CUP": true}},
		fakeCycleGate{cycle: cycle},
		shiftGetter,
		&numerator.MockGenerator{},
		fakeTxManager{},
	)

	return &fixture{svc: svc, repo: repo, saleArea: saleArea, cycle: cycle, shift: shift}
}

func openShift(cycleID, areaID id.ID) *shifts.Shift {
	return shifts.NewShift(cycleID, areaID, "cashier")
}

// --- Tests ---

func TestRecord_Deposit(t *testing.T) {
	cycle := cycles.NewEconomicCycle("owner")
	shift := openShift(cycle.ID, id.New())
	f := newFixture(t, fakeShifts{shift: shift})

	op, err := f.svc.Record(context.Background(), RecordInput{
		Type:        TypeDeposit,
		Amount:      decimal.NewFromInt(100),
		CurrencyISO: "USD",
		AreaID:      f.saleArea.ID,
		CreatedBy:   "cashier",
	})

	require.NoError(t, err)
	assert.Equal(t, TypeDeposit, op.Type)
	assert.Equal(t, shift.ID, op.ShiftID)
	assert.Equal(t, f.cycle.ID, op.CycleID)
	assert.NotEmpty(t, op.Number)
	assert.Len(t, f.repo.created, 1)
}

func TestRecord_RequiresOpenShift(t *testing.T) {
	f := newFixture(t, fakeShifts{err: apperror.NewNotFound("shift", "none")})

	_, err := f.svc.Record(context.Background(), RecordInput{
		Type:        TypeDeposit,
		Amount:      decimal.NewFromInt(100),
		CurrencyISO: "USD",
		AreaID:      f.saleArea.ID,
		CreatedBy:   "cashier",
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestRecord_RejectsUnknownCurrency(t *testing.T) {
	cycle := cycles.NewEconomicCycle("owner")
	f := newFixture(t, fakeShifts{shift: openShift(cycle.ID, id.New())})

	_, err := f.svc.Record(context.Background(), RecordInput{
		Type:        TypeDeposit,
		Amount:      decimal.NewFromInt(100),
		CurrencyISO: "EUR",
		AreaID:      f.saleArea.ID,
		CreatedBy:   "cashier",
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestRecord_RejectsNonSaleArea(t *testing.T) {
	cycle := cycles.NewEconomicCycle("owner")
	f := newFixture(t, fakeShifts{shift: openShift(cycle.ID, id.New())})

	stockArea := area.NewArea("AR-002", "Warehouse", area.TypeStock)
	f.svc.areas = fakeAreas{areas: map[id.ID]*area.Area{stockArea.ID: stockArea}}

	_, err := f.svc.Record(context.Background(), RecordInput{
		Type:        TypeDeposit,
		Amount:      decimal.NewFromInt(100),
		CurrencyISO: "USD",
		AreaID:      stockArea.ID,
		CreatedBy:   "cashier",
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestRecord_RejectsNegativeAmount(t *testing.T) {
	cycle := cycles.NewEconomicCycle("owner")
	f := newFixture(t, fakeShifts{shift: openShift(cycle.ID, id.New())})

	_, err := f.svc.Record(context.Background(), RecordInput{
		Type:        TypeExtraction,
		Amount:      decimal.NewFromInt(-5),
		CurrencyISO: "USD",
		AreaID:      f.saleArea.ID,
		CreatedBy:   "cashier",
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestSignedAmount(t *testing.T) {
	amount := decimal.NewFromInt(50)

	tests := []struct {
		opType OperationType
		want   decimal.Decimal
	}{
		{TypeCashIn, amount},
		{TypeDeposit, amount},
		{TypeTip, amount},
		{TypeCashOut, amount.Neg()},
		{TypeExtraction, amount.Neg()},
	}

	for _, tt := range tests {
		t.Run(string(tt.opType), func(t *testing.T) {
			op := NewCashOperation(tt.opType, amount, "USD", "tester")
			assert.True(t, tt.want.Equal(op.SignedAmount()))
		})
	}
}
