package shifts

import (
	"context"
	"fmt"
	"time"

	"poscore/internal/core/apperror"
	"poscore/internal/core/business"
	"poscore/internal/core/id"
	"poscore/internal/core/numerator"
	"poscore/internal/core/security"
	"poscore/internal/core/tx"
	"poscore/internal/domain"
	"poscore/internal/domain/catalogs/area"
	"poscore/internal/domain/cycles"
	"poscore/pkg/logger"
)

// AreaGetter resolves areas for shift validation.
type AreaGetter interface {
	GetByID(ctx context.Context, id id.ID) (*area.Area, error)
}

// CycleGate supplies the cycle a shift may open against.
type CycleGate interface {
	RequireAcceptingCycle(ctx context.Context) (*cycles.EconomicCycle, error)
}

// Service provides business operations for shifts.
type Service struct {
	repo      Repository
	areas     AreaGetter
	cycleGate CycleGate
	numerator numerator.Generator
	txManager tx.Manager // Optional. If nil, obtained from context.
}

// NewService creates a new shift service.
func NewService(
	repo Repository,
	areas AreaGetter,
	cycleGate CycleGate,
	numerator numerator.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		areas:     areas,
		cycleGate: cycleGate,
		numerator: numerator,
		txManager: txManager,
	}
}

func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return business.GetTxManager(ctx)
}

// Open starts a new shift in a sale area. Requires an active economic
// cycle and no other open shift in the same area.
func (s *Service) Open(ctx context.Context, areaID id.ID, openedBy string) (*Shift, error) {
	cycle, err := s.cycleGate.RequireAcceptingCycle(ctx)
	if err != nil {
		return nil, err
	}

	ar, err := s.areas.GetByID(ctx, areaID)
	if err != nil {
		return nil, err
	}
	if !ar.CanSell() {
		return nil, apperror.NewValidation("shifts can only be opened in active sale areas").
			WithDetail("area_id", areaID.String()).
			WithDetail("type", string(ar.Type))
	}
	if scope := security.GetScope(ctx); !scope.CanAccessArea(areaID.String()) {
		return nil, apperror.NewForbidden("area is outside the user's allowed areas").
			WithDetail("area_id", areaID.String())
	}

	shift := NewShift(cycle.ID, areaID, openedBy)

	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("SHF"), nil, time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}
	shift.Number = number

	if err := shift.Validate(ctx); err != nil {
		return nil, err
	}

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, shift); err != nil {
			if apperror.IsConflict(err) {
				return apperror.NewShiftOpen(areaID.String())
			}
			return fmt.Errorf("create shift: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "shift opened",
		"shift_id", shift.ID,
		"area_id", areaID,
		"cycle_id", cycle.ID)

	return shift, nil
}

// Close finishes an open shift.
func (s *Service) Close(ctx context.Context, shiftID id.ID, closedBy string, observations *string) (*Shift, error) {
	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}

	var shift *Shift
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		shift, err = s.repo.GetByIDForUpdate(ctx, shiftID)
		if err != nil {
			return err
		}
		if observations != nil {
			shift.Observations = observations
		}
		if err := shift.Close(closedBy, time.Now().UTC()); err != nil {
			return err
		}
		return s.repo.Update(ctx, shift)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "shift closed",
		"shift_id", shift.ID,
		"area_id", shift.AreaID)

	return shift, nil
}

// GetByID retrieves a shift by ID.
func (s *Service) GetByID(ctx context.Context, shiftID id.ID) (*Shift, error) {
	return s.repo.GetByID(ctx, shiftID)
}

// GetOpenByArea retrieves the open shift for an area.
func (s *Service) GetOpenByArea(ctx context.Context, areaID id.ID) (*Shift, error) {
	return s.repo.GetOpenByArea(ctx, areaID)
}

// CountOpenByCycle implements cycles.ShiftCounter.
func (s *Service) CountOpenByCycle(ctx context.Context, cycleID id.ID) (int64, error) {
	return s.repo.CountOpenByCycle(ctx, cycleID)
}

// List retrieves shifts with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Shift], error) {
	return s.repo.List(ctx, filter)
}

// RequireOpenShift returns the open shift for an area, or a validation
// error when the area demands a shift and none is open.
func (s *Service) RequireOpenShift(ctx context.Context, ar *area.Area) (*Shift, error) {
	shift, err := s.repo.GetOpenByArea(ctx, ar.ID)
	if err != nil {
		if apperror.IsNotFound(err) && ar.RequiresShift() {
			return nil, apperror.NewValidation("area requires an open shift").
				WithDetail("area_id", ar.ID.String())
		}
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return shift, nil
}

// Ensure interface compliance.
var _ cycles.ShiftCounter = (*Service)(nil)
