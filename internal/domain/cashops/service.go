package cashops

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"poscore/internal/core/apperror"
	"poscore/internal/core/business"
	"poscore/internal/core/id"
	"poscore/internal/core/numerator"
	"poscore/internal/core/tx"
	"poscore/internal/domain"
	"poscore/internal/domain/catalogs/area"
	"poscore/internal/domain/cycles"
	"poscore/internal/domain/shifts"
	"poscore/pkg/logger"
)

// AreaGetter resolves areas for cash operations.
type AreaGetter interface {
	GetByID(ctx context.Context, id id.ID) (*area.Area, error)
}

// CurrencyChecker validates the operation currency against the catalog.
type CurrencyChecker interface {
	ExistsByISO(ctx context.Context, iso string) (bool, error)
}

// CycleGate supplies the cycle operations are recorded against.
type CycleGate interface {
	RequireAcceptingCycle(ctx context.Context) (*cycles.EconomicCycle, error)
}

// ShiftGetter finds the open shift of an area. Cash operations always
// require one: the register only exists while a shift is open.
type ShiftGetter interface {
	GetOpenByArea(ctx context.Context, areaID id.ID) (*shifts.Shift, error)
}

// Service provides business operations for the cash register.
type Service struct {
	repo       Repository
	areas      AreaGetter
	currencies CurrencyChecker
	cycleGate  CycleGate
	shifts     ShiftGetter
	numerator  numerator.Generator
	txManager  tx.Manager // Optional. If nil, obtained from context.
}

// NewService creates a new cash operations service.
func NewService(
	repo Repository,
	areas AreaGetter,
	currencies CurrencyChecker,
	cycleGate CycleGate,
	shiftGetter ShiftGetter,
	gen numerator.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:       repo,
		areas:      areas,
		currencies: currencies,
		cycleGate:  cycleGate,
		shifts:     shiftGetter,
		numerator:  gen,
		txManager:  txManager,
	}
}

func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return business.GetTxManager(ctx)
}

// RecordInput describes a cash register operation to record.
type RecordInput struct {
	Type         OperationType
	Amount       decimal.Decimal
	CurrencyISO  string
	AreaID       id.ID
	Observations *string
	CreatedBy    string
}

// Record writes one cash register operation. The target area must be a
// sale area with an open shift.
func (s *Service) Record(ctx context.Context, input RecordInput) (*CashOperation, error) {
	cycle, err := s.cycleGate.RequireAcceptingCycle(ctx)
	if err != nil {
		return nil, err
	}

	ar, err := s.areas.GetByID(ctx, input.AreaID)
	if err != nil {
		return nil, err
	}
	if !ar.CanSell() {
		return nil, apperror.NewValidation("area has no cash register").
			WithDetail("area_id", ar.ID.String()).
			WithDetail("type", string(ar.Type))
	}

	shift, err := s.shifts.GetOpenByArea(ctx, ar.ID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewBusinessRule("SHIFT_REQUIRED",
				"cash operations require an open shift").
				WithDetail("area_id", ar.ID.String())
		}
		return nil, err
	}

	if ok, err := s.currencies.ExistsByISO(ctx, input.CurrencyISO); err != nil {
		return nil, err
	} else if !ok {
		return nil, apperror.NewValidation("unknown currency").
			WithDetail("field", "codeCurrency").
			WithDetail("value", input.CurrencyISO)
	}

	op := NewCashOperation(input.Type, input.Amount, input.CurrencyISO, input.CreatedBy)
	op.AreaID = ar.ID
	op.ShiftID = shift.ID
	op.CycleID = cycle.ID
	op.Observations = input.Observations

	if err := op.Validate(ctx); err != nil {
		return nil, err
	}

	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("OPC"), nil, time.Now())
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("operation", "generate_number")
	}
	op.Number = number

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	if err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, op)
	}); err != nil {
		return nil, err
	}

	logger.Info(ctx, "cash operation recorded",
		"operation_id", op.ID,
		"number", op.Number,
		"type", op.Type,
		"amount", op.Amount.String(),
		"currency", op.CurrencyISO)

	return op, nil
}

// GetByID retrieves a cash operation.
func (s *Service) GetByID(ctx context.Context, opID id.ID) (*CashOperation, error) {
	return s.repo.GetByID(ctx, opID)
}

// List retrieves cash operations with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*CashOperation], error) {
	return s.repo.List(ctx, filter)
}

// SumByCycle returns per-type, per-currency totals for a cycle.
func (s *Service) SumByCycle(ctx context.Context, cycleID id.ID, areaID *id.ID) ([]TypeTotal, error) {
	return s.repo.SumByCycle(ctx, cycleID, areaID)
}
