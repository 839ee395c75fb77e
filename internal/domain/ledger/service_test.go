package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poscore/internal/core/apperror"
	"poscore/internal/core/id"
	"poscore/internal/core/security"
	"poscore/internal/core/types"
	"poscore/internal/domain"
	"poscore/internal/domain/catalogs/area"
	"poscore/internal/domain/catalogs/product"
	"poscore/internal/domain/cycles"
	"poscore/internal/domain/shifts"
)

// --- Mocks ---

// memRepo is an in-memory append-only store. Balances are derived from
// the stored rows the same way the SQL implementation sums them.
type memRepo struct {
	rows []*Movement
}

func (r *memRepo) Create(ctx context.Context, m *Movement) error {
	if m.ReversalOfID != nil {
		for _, row := range r.rows {
			if row.ReversalOfID != nil && *row.ReversalOfID == *m.ReversalOfID {
				return apperror.NewConflict("movement already reversed")
			}
		}
	}
	clone := *m
	r.rows = append(r.rows, &clone)
	return nil
}

func (r *memRepo) CreateBatch(ctx context.Context, movements []*Movement) error {
	for _, m := range movements {
		if err := r.Create(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, movementID id.ID) (*Movement, error) {
	for _, row := range r.rows {
		if row.ID == movementID {
			clone := *row
			return &clone, nil
		}
	}
	return nil, apperror.NewNotFound("movement", movementID.String())
}

func (r *memRepo) GetChildren(ctx context.Context, parentID id.ID) ([]*Movement, error) {
	var out []*Movement
	for _, row := range r.rows {
		if row.ParentID != nil && *row.ParentID == parentID {
			clone := *row
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memRepo) HasReversal(ctx context.Context, movementID id.ID) (bool, error) {
	for _, row := range r.rows {
		if row.ReversalOfID != nil && *row.ReversalOfID == movementID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) GetBalance(ctx context.Context, areaID, productID id.ID) (types.Quantity, error) {
	var total types.Quantity
	for _, row := range r.rows {
		if row.AreaID == areaID && row.ProductID == productID {
			total += row.SignedQuantity()
		}
	}
	return total, nil
}

func (r *memRepo) GetBalanceForUpdate(ctx context.Context, areaID, productID id.ID) (types.Quantity, error) {
	return r.GetBalance(ctx, areaID, productID)
}

func (r *memRepo) GetAreaBalances(ctx context.Context, areaID id.ID) ([]Balance, error) {
	byProduct := map[id.ID]types.Quantity{}
	for _, row := range r.rows {
		if row.AreaID == areaID {
			byProduct[row.ProductID] += row.SignedQuantity()
		}
	}
	var out []Balance
	for productID, qty := range byProduct {
		if qty != 0 {
			out = append(out, Balance{AreaID: areaID, ProductID: productID, Quantity: qty})
		}
	}
	return out, nil
}

func (r *memRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Movement], error) {
	return domain.ListResult[*Movement]{Items: r.rows, TotalCount: int64(len(r.rows))}, nil
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

type fakeProducts struct {
	products map[id.ID]*product.Product
}

func (f fakeProducts) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	if p, ok := f.products[productID]; ok {
		return p, nil
	}
	return nil, apperror.NewNotFound("product", productID.String())
}

type fakeCoster struct {
	calls int
}

func (f *fakeCoster) RecalculateAverageCost(ctx context.Context, productID id.ID, currentQty, receivedQty, receivedCost decimal.Decimal) error {
	f.calls++
	return nil
}

type fakeCycleGate struct {
	cycle *cycles.EconomicCycle
	err   error
}

func (f fakeCycleGate) RequireAcceptingCycle(ctx context.Context) (*cycles.EconomicCycle, error) {
	return f.cycle, f.err
}

type fakeShiftResolver struct {
	shift *shifts.Shift
	err   error
}

func (f fakeShiftResolver) RequireOpenShift(ctx context.Context, ar *area.Area) (*shifts.Shift, error) {
	return f.shift, f.err
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- Fixtures ---

type fixture struct {
	svc       *Service
	repo      *memRepo
	coster    *fakeCoster
	stockArea *area.Area
	saleArea  *area.Area
	prod      *product.Product
	cycle     *cycles.EconomicCycle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	stockArea := area.NewArea("AR-001", "Main Warehouse", area.TypeStock)
	saleArea := area.NewArea("AR-002", "Front Store", area.TypeSale)
	prod := product.NewProduct("PRD-001", "Coffee Beans", product.TypeStock)
	cycle := cycles.NewEconomicCycle("owner")

	repo := &memRepo{}
	coster := &fakeCoster{}

	svc := NewService(
		repo,
		fakeAreas{areas: map[id.ID]*area.Area{stockArea.ID: stockArea, saleArea.ID: saleArea}},
		fakeProducts{products: map[id.ID]*product.Product{prod.ID: prod}},
		coster,
		fakeCycleGate{cycle: cycle},
		fakeShiftResolver{},
		security.OpenPolicy{},
		fakeTxManager{},
	)

	return &fixture{
		svc:       svc,
		repo:      repo,
		coster:    coster,
		stockArea: stockArea,
		saleArea:  saleArea,
		prod:      prod,
		cycle:     cycle,
	}
}

func (f *fixture) seedStock(t *testing.T, qty float64) *Movement {
	t.Helper()
	m, err := f.svc.Record(context.Background(), RecordInput{
		Operation: OperationEntry,
		ProductID: f.prod.ID,
		AreaID:    f.stockArea.ID,
		Quantity:  types.NewQuantityFromFloat64(qty),
		CreatedBy: "tester",
	})
	require.NoError(t, err)
	return m
}

// --- Tests ---

func TestRecord_Entry(t *testing.T) {
	f := newFixture(t)

	cost := decimal.NewFromInt(5)
	m, err := f.svc.Record(context.Background(), RecordInput{
		Operation: OperationEntry,
		ProductID: f.prod.ID,
		AreaID:    f.stockArea.ID,
		Quantity:  types.NewQuantityFromFloat64(10),
		UnitCost:  &cost,
		CreatedBy: "tester",
	})

	require.NoError(t, err)
	assert.Equal(t, OperationEntry, m.Operation)
	assert.Equal(t, f.cycle.ID, m.CycleID)
	assert.Nil(t, m.ShiftID)
	assert.Equal(t, 1, f.coster.calls)

	balance, err := f.svc.GetBalance(context.Background(), f.stockArea.ID, f.prod.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(10), balance)
}

func TestRecord_RejectsMoveOperation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Record(context.Background(), RecordInput{
		Operation: OperationMove,
		ProductID: f.prod.ID,
		AreaID:    f.stockArea.ID,
		Quantity:  types.NewQuantityFromFloat64(1),
		CreatedBy: "tester",
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestRecord_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	f.seedStock(t, 5)

	_, err := f.svc.Record(context.Background(), RecordInput{
		Operation: OperationOut,
		ProductID: f.prod.ID,
		AreaID:    f.stockArea.ID,
		Quantity:  types.NewQuantityFromFloat64(8),
		CreatedBy: "tester",
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)

	// Nothing was written
	balance, err := f.svc.GetBalance(context.Background(), f.stockArea.ID, f.prod.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(5), balance)
}

func TestRecord_NegativeStockAllowed(t *testing.T) {
	f := newFixture(t)
	f.stockArea.AllowNegativeStock = true

	_, err := f.svc.Record(context.Background(), RecordInput{
		Operation: OperationOut,
		ProductID: f.prod.ID,
		AreaID:    f.stockArea.ID,
		Quantity:  types.NewQuantityFromFloat64(3),
		CreatedBy: "tester",
	})

	require.NoError(t, err)
	balance, err := f.svc.GetBalance(context.Background(), f.stockArea.ID, f.prod.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(-3), balance)
}

func TestRecord_AdjustAcceptsNegativeQuantity(t *testing.T) {
	f := newFixture(t)
	f.seedStock(t, 10)

	_, err := f.svc.Record(context.Background(), RecordInput{
		Operation: OperationAdjust,
		ProductID: f.prod.ID,
		AreaID:    f.stockArea.ID,
		Quantity:  types.NewQuantityFromFloat64(-4),
		CreatedBy: "tester",
	})

	require.NoError(t, err)
	balance, err := f.svc.GetBalance(context.Background(), f.stockArea.ID, f.prod.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(6), balance)
}

func TestRecord_RejectedWhenCycleClosed(t *testing.T) {
	f := newFixture(t)
	f.svc.cycleGate = fakeCycleGate{err: apperror.NewCycleClosed("no open economic cycle")}

	_, err := f.svc.Record(context.Background(), RecordInput{
		Operation: OperationEntry,
		ProductID: f.prod.ID,
		AreaID:    f.stockArea.ID,
		Quantity:  types.NewQuantityFromFloat64(1),
		CreatedBy: "tester",
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeCycleClosed, appErr.Code)
}

func TestMove_CreatesTwoLinkedRows(t *testing.T) {
	f := newFixture(t)
	f.seedStock(t, 10)

	source, dest, err := f.svc.Move(context.Background(), MoveInput{
		ProductID:  f.prod.ID,
		FromAreaID: f.stockArea.ID,
		ToAreaID:   f.saleArea.ID,
		Quantity:   types.NewQuantityFromFloat64(4),
		CreatedBy:  "tester",
	})
	require.NoError(t, err)

	assert.Equal(t, OperationMove, source.Operation)
	require.NotNil(t, source.MovedToAreaID)
	assert.Equal(t, f.saleArea.ID, *source.MovedToAreaID)

	assert.Equal(t, OperationEntry, dest.Operation)
	require.NotNil(t, dest.ParentID)
	assert.Equal(t, source.ID, *dest.ParentID)

	// Exactly two new rows beyond the seed entry
	assert.Len(t, f.repo.rows, 3)

	fromBalance, _ := f.svc.GetBalance(context.Background(), f.stockArea.ID, f.prod.ID)
	toBalance, _ := f.svc.GetBalance(context.Background(), f.saleArea.ID, f.prod.ID)
	assert.Equal(t, types.NewQuantityFromFloat64(6), fromBalance)
	assert.Equal(t, types.NewQuantityFromFloat64(4), toBalance)
}

func TestMove_RejectsSameArea(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.Move(context.Background(), MoveInput{
		ProductID:  f.prod.ID,
		FromAreaID: f.stockArea.ID,
		ToAreaID:   f.stockArea.ID,
		Quantity:   types.NewQuantityFromFloat64(1),
		CreatedBy:  "tester",
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestMove_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	f.seedStock(t, 2)

	_, _, err := f.svc.Move(context.Background(), MoveInput{
		ProductID:  f.prod.ID,
		FromAreaID: f.stockArea.ID,
		ToAreaID:   f.saleArea.ID,
		Quantity:   types.NewQuantityFromFloat64(5),
		CreatedBy:  "tester",
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
}

func TestReverse_NeverMutatesOriginal(t *testing.T) {
	f := newFixture(t)
	original := f.seedStock(t, 10)

	reversals, err := f.svc.Reverse(context.Background(), original.ID, "supervisor")
	require.NoError(t, err)
	require.Len(t, reversals, 1)

	r := reversals[0]
	assert.Equal(t, original.Operation, r.Operation)
	require.NotNil(t, r.ReversalOfID)
	assert.Equal(t, original.ID, *r.ReversalOfID)
	assert.Equal(t, original.Quantity, r.Quantity)
	assert.Equal(t, original.SignedQuantity().Neg(), r.SignedQuantity())

	// Original row is untouched
	stored, err := f.svc.GetByID(context.Background(), original.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ReversalOfID)
	assert.Equal(t, original.Quantity, stored.Quantity)

	balance, err := f.svc.GetBalance(context.Background(), f.stockArea.ID, f.prod.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestReverse_DoubleReverseConflict(t *testing.T) {
	f := newFixture(t)
	original := f.seedStock(t, 10)

	_, err := f.svc.Reverse(context.Background(), original.ID, "supervisor")
	require.NoError(t, err)

	_, err = f.svc.Reverse(context.Background(), original.ID, "supervisor")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeMovementReversed, appErr.Code)
}

func TestReverse_RejectsMovementFromEarlierCycle(t *testing.T) {
	f := newFixture(t)
	original := f.seedStock(t, 10)

	// A fresh cycle opened after the movement was booked. Reversing now
	// would subtract income the new cycle never earned.
	f.svc.cycleGate = fakeCycleGate{cycle: cycles.NewEconomicCycle("owner")}

	_, err := f.svc.Reverse(context.Background(), original.ID, "supervisor")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestReverse_RejectsReversalRow(t *testing.T) {
	f := newFixture(t)
	original := f.seedStock(t, 10)

	reversals, err := f.svc.Reverse(context.Background(), original.ID, "supervisor")
	require.NoError(t, err)

	_, err = f.svc.Reverse(context.Background(), reversals[0].ID, "supervisor")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestReverse_RejectsTransferDestinationLeg(t *testing.T) {
	f := newFixture(t)
	f.seedStock(t, 10)

	_, dest, err := f.svc.Move(context.Background(), MoveInput{
		ProductID:  f.prod.ID,
		FromAreaID: f.stockArea.ID,
		ToAreaID:   f.saleArea.ID,
		Quantity:   types.NewQuantityFromFloat64(4),
		CreatedBy:  "tester",
	})
	require.NoError(t, err)

	_, err = f.svc.Reverse(context.Background(), dest.ID, "supervisor")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestReverse_TransferReversesBothLegs(t *testing.T) {
	f := newFixture(t)
	f.seedStock(t, 10)

	source, _, err := f.svc.Move(context.Background(), MoveInput{
		ProductID:  f.prod.ID,
		FromAreaID: f.stockArea.ID,
		ToAreaID:   f.saleArea.ID,
		Quantity:   types.NewQuantityFromFloat64(4),
		CreatedBy:  "tester",
	})
	require.NoError(t, err)

	reversals, err := f.svc.Reverse(context.Background(), source.ID, "supervisor")
	require.NoError(t, err)
	assert.Len(t, reversals, 2)

	fromBalance, _ := f.svc.GetBalance(context.Background(), f.stockArea.ID, f.prod.ID)
	toBalance, _ := f.svc.GetBalance(context.Background(), f.saleArea.ID, f.prod.ID)
	assert.Equal(t, types.NewQuantityFromFloat64(10), fromBalance)
	assert.True(t, toBalance.IsZero())
}

func TestBulkEntry(t *testing.T) {
	f := newFixture(t)

	movements, err := f.svc.BulkEntry(context.Background(), []RecordInput{
		{Operation: OperationEntry, ProductID: f.prod.ID, AreaID: f.stockArea.ID, Quantity: types.NewQuantityFromFloat64(5), CreatedBy: "loader"},
		{Operation: OperationEntry, ProductID: f.prod.ID, AreaID: f.stockArea.ID, Quantity: types.NewQuantityFromFloat64(7), CreatedBy: "loader"},
	})
	require.NoError(t, err)
	assert.Len(t, movements, 2)

	balance, err := f.svc.GetBalance(context.Background(), f.stockArea.ID, f.prod.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(12), balance)
}

func TestBulkEntry_RejectsNonEntry(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.BulkEntry(context.Background(), []RecordInput{
		{Operation: OperationOut, ProductID: f.prod.ID, AreaID: f.stockArea.ID, Quantity: types.NewQuantityFromFloat64(5), CreatedBy: "loader"},
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestSignedQuantity(t *testing.T) {
	productID, areaID, cycleID := id.New(), id.New(), id.New()
	qty := types.NewQuantityFromFloat64(5)

	tests := []struct {
		name string
		op   Operation
		qty  types.Quantity
		want types.Quantity
	}{
		{"entry adds", OperationEntry, qty, qty},
		{"out subtracts", OperationOut, qty, qty.Neg()},
		{"waste subtracts", OperationWaste, qty, qty.Neg()},
		{"move subtracts", OperationMove, qty, qty.Neg()},
		{"adjust keeps sign", OperationAdjust, qty.Neg(), qty.Neg()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMovement(tt.op, productID, areaID, cycleID, tt.qty, "tester")
			assert.Equal(t, tt.want, m.SignedQuantity())

			rev := NewMovement(tt.op, productID, areaID, cycleID, tt.qty, "tester")
			rev.ReversalOfID = &m.ID
			assert.Equal(t, tt.want.Neg(), rev.SignedQuantity())
		})
	}
}
