package shifts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poscore/internal/core/apperror"
	"poscore/internal/core/id"
	"poscore/internal/core/numerator"
	"poscore/internal/core/security"
	"poscore/internal/domain"
	"poscore/internal/domain/catalogs/area"
	"poscore/internal/domain/cycles"
)

// --- Mocks ---

type mockRepo struct {
	CreateFunc           func(ctx context.Context, shift *Shift) error
	GetByIDFunc          func(ctx context.Context, shiftID id.ID) (*Shift, error)
	GetByIDForUpdateFunc func(ctx context.Context, shiftID id.ID) (*Shift, error)
	GetOpenByAreaFunc    func(ctx context.Context, areaID id.ID) (*Shift, error)
	UpdateFunc           func(ctx context.Context, shift *Shift) error
}

func (m *mockRepo) Create(ctx context.Context, shift *Shift) error {
	return m.CreateFunc(ctx, shift)
}
func (m *mockRepo) GetByID(ctx context.Context, shiftID id.ID) (*Shift, error) {
	return m.GetByIDFunc(ctx, shiftID)
}
func (m *mockRepo) GetByIDForUpdate(ctx context.Context, shiftID id.ID) (*Shift, error) {
	return m.GetByIDForUpdateFunc(ctx, shiftID)
}
func (m *mockRepo) GetOpenByArea(ctx context.Context, areaID id.ID) (*Shift, error) {
	return m.GetOpenByAreaFunc(ctx, areaID)
}
func (m *mockRepo) CountOpenByCycle(ctx context.Context, cycleID id.ID) (int64, error) {
	return 0, nil
}
func (m *mockRepo) Update(ctx context.Context, shift *Shift) error {
	return m.UpdateFunc(ctx, shift)
}
func (m *mockRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Shift], error) {
	return domain.ListResult[*Shift]{}, nil
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeAreaGetter struct {
	area *area.Area
	err  error
}

func (f fakeAreaGetter) GetByID(ctx context.Context, areaID id.ID) (*area.Area, error) {
	return f.area, f.err
}

type fakeCycleGate struct {
	cycle *cycles.EconomicCycle
	err   error
}

func (f fakeCycleGate) RequireAcceptingCycle(ctx context.Context) (*cycles.EconomicCycle, error) {
	return f.cycle, f.err
}

func saleArea() *area.Area {
	a := area.NewArea("AREA-002", "Punto de Venta", area.TypeSale)
	a.ID = id.New()
	return a
}

func newTestService(repo *mockRepo, areas AreaGetter, gate CycleGate) *Service {
	return NewService(repo, areas, gate, &numerator.MockGenerator{}, fakeTxManager{})
}

// --- Tests ---

func TestOpen_Succeeds(t *testing.T) {
	cycle := cycles.NewEconomicCycle("user-1")
	ar := saleArea()

	var created *Shift
	repo := &mockRepo{
		CreateFunc: func(ctx context.Context, shift *Shift) error {
			created = shift
			return nil
		},
	}

	svc := newTestService(repo, fakeAreaGetter{area: ar}, fakeCycleGate{cycle: cycle})
	shift, err := svc.Open(context.Background(), ar.ID, "user-1")
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, StatusOpen, shift.Status)
	assert.Equal(t, cycle.ID, shift.CycleID)
	assert.Equal(t, ar.ID, shift.AreaID)
	assert.Equal(t, "user-1", shift.OpenedBy)
	assert.NotEmpty(t, shift.Number)
	assert.False(t, shift.OpenDate.IsZero())
}

func TestOpen_RejectedWithoutAcceptingCycle(t *testing.T) {
	repo := &mockRepo{}
	gate := fakeCycleGate{err: apperror.NewCycleClosed("no active economic cycle")}

	svc := newTestService(repo, fakeAreaGetter{area: saleArea()}, gate)
	_, err := svc.Open(context.Background(), id.New(), "user-1")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeCycleClosed, appErr.Code)
}

func TestOpen_RejectedOutsideAllowedAreas(t *testing.T) {
	cycle := cycles.NewEconomicCycle("user-1")
	ar := saleArea()

	svc := newTestService(&mockRepo{}, fakeAreaGetter{area: ar}, fakeCycleGate{cycle: cycle})

	// The user is assigned to a different area.
	ctx := security.WithScope(context.Background(), &security.AccessScope{
		UserID:         "user-1",
		AllowedAreaIDs: []string{id.New().String()},
	})

	_, err := svc.Open(ctx, ar.ID, "user-1")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}

func TestOpen_RejectedInStockArea(t *testing.T) {
	cycle := cycles.NewEconomicCycle("user-1")
	stock := area.NewArea("AREA-001", "Almacén", area.TypeStock)
	stock.ID = id.New()

	svc := newTestService(&mockRepo{}, fakeAreaGetter{area: stock}, fakeCycleGate{cycle: cycle})
	_, err := svc.Open(context.Background(), stock.ID, "user-1")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestOpen_MapsRepoConflictToShiftOpen(t *testing.T) {
	// Losing the race: the shifts partial unique index rejects a second
	// open shift in the same area.
	cycle := cycles.NewEconomicCycle("user-1")
	ar := saleArea()

	repo := &mockRepo{
		CreateFunc: func(ctx context.Context, shift *Shift) error {
			return apperror.NewConflict("duplicate key value violates unique constraint")
		},
	}

	svc := newTestService(repo, fakeAreaGetter{area: ar}, fakeCycleGate{cycle: cycle})
	_, err := svc.Open(context.Background(), ar.ID, "user-1")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeShiftOpen, appErr.Code)
}

func TestClose_Succeeds(t *testing.T) {
	shift := NewShift(id.New(), id.New(), "user-1")

	var updated *Shift
	repo := &mockRepo{
		GetByIDForUpdateFunc: func(ctx context.Context, shiftID id.ID) (*Shift, error) {
			return shift, nil
		},
		UpdateFunc: func(ctx context.Context, s *Shift) error {
			updated = s
			return nil
		},
	}

	obs := "caja cuadrada"
	svc := newTestService(repo, fakeAreaGetter{}, fakeCycleGate{})
	closed, err := svc.Close(context.Background(), shift.ID, "user-2", &obs)
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, StatusClosed, closed.Status)
	require.NotNil(t, closed.CloseDate)
	require.NotNil(t, closed.ClosedBy)
	assert.Equal(t, "user-2", *closed.ClosedBy)
	require.NotNil(t, closed.Observations)
	assert.Equal(t, obs, *closed.Observations)
}

func TestClose_RejectedWhenAlreadyClosed(t *testing.T) {
	shift := NewShift(id.New(), id.New(), "user-1")
	require.NoError(t, shift.Close("user-1", time.Now().UTC()))

	repo := &mockRepo{
		GetByIDForUpdateFunc: func(ctx context.Context, shiftID id.ID) (*Shift, error) {
			return shift, nil
		},
	}

	svc := newTestService(repo, fakeAreaGetter{}, fakeCycleGate{})
	_, err := svc.Close(context.Background(), shift.ID, "user-1", nil)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestRequireOpenShift(t *testing.T) {
	ar := saleArea()
	ar.GiveWorkOnShift = true

	t.Run("returns open shift", func(t *testing.T) {
		shift := NewShift(id.New(), ar.ID, "user-1")
		repo := &mockRepo{
			GetOpenByAreaFunc: func(ctx context.Context, areaID id.ID) (*Shift, error) {
				return shift, nil
			},
		}

		svc := newTestService(repo, fakeAreaGetter{}, fakeCycleGate{})
		got, err := svc.RequireOpenShift(context.Background(), ar)
		require.NoError(t, err)
		assert.Equal(t, shift, got)
	})

	t.Run("rejects demanding area without shift", func(t *testing.T) {
		repo := &mockRepo{
			GetOpenByAreaFunc: func(ctx context.Context, areaID id.ID) (*Shift, error) {
				return nil, apperror.NewNotFound("shift", areaID.String())
			},
		}

		svc := newTestService(repo, fakeAreaGetter{}, fakeCycleGate{})
		_, err := svc.RequireOpenShift(context.Background(), ar)
		require.Error(t, err)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})

	t.Run("tolerant area without shift yields nil", func(t *testing.T) {
		relaxed := saleArea()
		relaxed.GiveWorkOnShift = false

		repo := &mockRepo{
			GetOpenByAreaFunc: func(ctx context.Context, areaID id.ID) (*Shift, error) {
				return nil, apperror.NewNotFound("shift", areaID.String())
			},
		}

		svc := newTestService(repo, fakeAreaGetter{}, fakeCycleGate{})
		got, err := svc.RequireOpenShift(context.Background(), relaxed)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
