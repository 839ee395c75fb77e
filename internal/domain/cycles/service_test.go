package cycles

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poscore/internal/core/apperror"
	"poscore/internal/core/id"
	"poscore/internal/core/numerator"
	"poscore/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	CreateFunc             func(ctx context.Context, c *EconomicCycle) error
	GetByIDFunc            func(ctx context.Context, cycleID id.ID) (*EconomicCycle, error)
	GetActiveFunc          func(ctx context.Context) (*EconomicCycle, error)
	GetActiveForUpdateFunc func(ctx context.Context) (*EconomicCycle, error)
	UpdateFunc             func(ctx context.Context, c *EconomicCycle) error
}

func (m *mockRepo) Create(ctx context.Context, c *EconomicCycle) error {
	return m.CreateFunc(ctx, c)
}
func (m *mockRepo) GetByID(ctx context.Context, cycleID id.ID) (*EconomicCycle, error) {
	return m.GetByIDFunc(ctx, cycleID)
}
func (m *mockRepo) GetActive(ctx context.Context) (*EconomicCycle, error) {
	return m.GetActiveFunc(ctx)
}
func (m *mockRepo) GetActiveForUpdate(ctx context.Context) (*EconomicCycle, error) {
	return m.GetActiveForUpdateFunc(ctx)
}
func (m *mockRepo) Update(ctx context.Context, c *EconomicCycle) error {
	return m.UpdateFunc(ctx, c)
}
func (m *mockRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*EconomicCycle], error) {
	return domain.ListResult[*EconomicCycle]{}, nil
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRates struct {
	rates map[string]decimal.Decimal
}

func (f fakeRates) ExchangeRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	return f.rates, nil
}

type fakeShiftCounter struct {
	open int64
}

func (f fakeShiftCounter) CountOpenByCycle(ctx context.Context, cycleID id.ID) (int64, error) {
	return f.open, nil
}

func newTestService(repo *mockRepo, shifts ShiftCounter) *Service {
	return NewService(
		repo,
		fakeRates{rates: map[string]decimal.Decimal{
			"USD": decimal.NewFromInt(120),
			"CUP": decimal.NewFromInt(1),
		}},
		shifts,
		&numerator.MockGenerator{},
		fakeTxManager{},
	)
}

// --- Tests ---

func TestOpen_Succeeds(t *testing.T) {
	var created *EconomicCycle
	repo := &mockRepo{
		GetActiveFunc: func(ctx context.Context) (*EconomicCycle, error) {
			return nil, apperror.NewNotFound("active cycle", "none")
		},
		CreateFunc: func(ctx context.Context, c *EconomicCycle) error {
			created = c
			return nil
		},
	}

	svc := newTestService(repo, fakeShiftCounter{})
	cycle, err := svc.Open(context.Background(), OpenInput{OpenedBy: "user-1"})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, StatusActive, cycle.Status)
	assert.Equal(t, "user-1", cycle.OpenedBy)
	assert.NotEmpty(t, cycle.Number)
	assert.False(t, cycle.OpenDate.IsZero())

	// Exchange rate snapshot is frozen into the cycle
	assert.Equal(t, "120", cycle.ExchangeRates.GetString("USD"))
	assert.Equal(t, "1", cycle.ExchangeRates.GetString("CUP"))
}

func TestOpen_RejectsSecondActiveCycle(t *testing.T) {
	active := NewEconomicCycle("user-1")
	repo := &mockRepo{
		GetActiveFunc: func(ctx context.Context) (*EconomicCycle, error) {
			return active, nil
		},
	}

	svc := newTestService(repo, fakeShiftCounter{})
	_, err := svc.Open(context.Background(), OpenInput{OpenedBy: "user-2"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeCycleActive, appErr.Code)
}

func TestOpen_MapsRepoConflictToCycleActive(t *testing.T) {
	// Simulates losing the race: pre-check passes, insert hits the
	// partial unique index.
	repo := &mockRepo{
		GetActiveFunc: func(ctx context.Context) (*EconomicCycle, error) {
			return nil, apperror.NewNotFound("active cycle", "none")
		},
		CreateFunc: func(ctx context.Context, c *EconomicCycle) error {
			return apperror.NewConflict("duplicate key value violates unique constraint")
		},
	}

	svc := newTestService(repo, fakeShiftCounter{})
	_, err := svc.Open(context.Background(), OpenInput{OpenedBy: "user-1"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeCycleActive, appErr.Code)
}

func TestClose_Succeeds(t *testing.T) {
	active := NewEconomicCycle("user-1")
	var updated *EconomicCycle
	repo := &mockRepo{
		GetActiveForUpdateFunc: func(ctx context.Context) (*EconomicCycle, error) {
			return active, nil
		},
		UpdateFunc: func(ctx context.Context, c *EconomicCycle) error {
			updated = c
			return nil
		},
	}

	svc := newTestService(repo, fakeShiftCounter{})
	cycle, err := svc.Close(context.Background(), CloseInput{ClosedBy: "user-2"})
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, StatusClosed, cycle.Status)
	require.NotNil(t, cycle.CloseDate)
	require.NotNil(t, cycle.ClosedBy)
	assert.Equal(t, "user-2", *cycle.ClosedBy)
	assert.False(t, cycle.CloseDate.Before(cycle.OpenDate))
}

func TestClose_RejectedWithoutActiveCycle(t *testing.T) {
	repo := &mockRepo{
		GetActiveForUpdateFunc: func(ctx context.Context) (*EconomicCycle, error) {
			return nil, apperror.NewNotFound("active cycle", "none")
		},
	}

	svc := newTestService(repo, fakeShiftCounter{})
	_, err := svc.Close(context.Background(), CloseInput{ClosedBy: "user-1"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeCycleClosed, appErr.Code)
}

func TestClose_RejectedWithOpenShifts(t *testing.T) {
	active := NewEconomicCycle("user-1")
	repo := &mockRepo{
		GetActiveForUpdateFunc: func(ctx context.Context) (*EconomicCycle, error) {
			return active, nil
		},
	}

	svc := newTestService(repo, fakeShiftCounter{open: 2})
	_, err := svc.Close(context.Background(), CloseInput{ClosedBy: "user-1"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeShiftOpen, appErr.Code)
	assert.Equal(t, StatusActive, active.Status)
}

func TestHoldAndResume(t *testing.T) {
	active := NewEconomicCycle("user-1")
	repo := &mockRepo{
		GetActiveForUpdateFunc: func(ctx context.Context) (*EconomicCycle, error) {
			return active, nil
		},
		UpdateFunc: func(ctx context.Context, c *EconomicCycle) error {
			return nil
		},
	}

	svc := newTestService(repo, fakeShiftCounter{})

	cycle, err := svc.Hold(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusOnHold, cycle.Status)
	assert.False(t, cycle.AcceptsOperations())
	assert.True(t, cycle.IsOpen())

	cycle, err = svc.Resume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusActive, cycle.Status)
	assert.True(t, cycle.AcceptsOperations())
}

func TestRequireAcceptingCycle_OnHold(t *testing.T) {
	active := NewEconomicCycle("user-1")
	require.NoError(t, active.Hold())

	repo := &mockRepo{
		GetActiveFunc: func(ctx context.Context) (*EconomicCycle, error) {
			return active, nil
		},
	}

	svc := newTestService(repo, fakeShiftCounter{})
	_, err := svc.RequireAcceptingCycle(context.Background())
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeCycleClosed, appErr.Code)
}

func TestEconomicCycle_CloseValidation(t *testing.T) {
	c := NewEconomicCycle("user-1")
	require.NoError(t, c.Close("user-1", time.Now().UTC()))

	// Closing twice is a conflict
	err := c.Close("user-1", time.Now().UTC())
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeCycleClosed, appErr.Code)
}
