package cycles

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"poscore/internal/core/apperror"
	"poscore/internal/core/business"
	"poscore/internal/core/id"
	"poscore/internal/core/numerator"
	"poscore/internal/core/tx"
	"poscore/internal/domain"
	"poscore/pkg/logger"
)

// RateProvider supplies the exchange rate snapshot frozen into a cycle at open time.
type RateProvider interface {
	ExchangeRates(ctx context.Context) (map[string]decimal.Decimal, error)
}

// ShiftCounter reports open shifts for a cycle. Closing a cycle with open
// shifts is rejected.
type ShiftCounter interface {
	CountOpenByCycle(ctx context.Context, cycleID id.ID) (int64, error)
}

// Service provides business operations for economic cycles.
// In Database-per-Business architecture, TxManager is obtained from context.
type Service struct {
	repo      Repository
	rates     RateProvider
	shifts    ShiftCounter
	numerator numerator.Generator
	txManager tx.Manager // Optional. If nil, obtained from context.
	hooks     *domain.HookRegistry[*EconomicCycle]
}

// NewService creates a new cycle service.
func NewService(
	repo Repository,
	rates RateProvider,
	shifts ShiftCounter,
	numerator numerator.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		rates:     rates,
		shifts:    shifts,
		numerator: numerator,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*EconomicCycle](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*EconomicCycle] {
	return s.hooks
}

func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return business.GetTxManager(ctx)
}

// OpenInput holds optional fields for opening a cycle.
type OpenInput struct {
	Name         *string
	Observations *string
	OpenedBy     string
}

// Open creates a new active cycle.
// Fails with a conflict error if another cycle is already open: the
// economic_cycles partial unique index makes the check race-free, the
// pre-check only produces a friendlier error on the common path.
func (s *Service) Open(ctx context.Context, input OpenInput) (*EconomicCycle, error) {
	if existing, err := s.repo.GetActive(ctx); err == nil && existing != nil {
		return nil, apperror.NewCycleActive(business.GetBusinessID(ctx)).
			WithDetail("active_cycle_id", existing.ID.String())
	}

	cycle := NewEconomicCycle(input.OpenedBy)
	cycle.Name = input.Name
	cycle.Observations = input.Observations

	// Generate sequential number
	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("CYC"), nil, time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}
	cycle.Number = number

	// Freeze exchange rates at open time
	if s.rates != nil {
		rates, err := s.rates.ExchangeRates(ctx)
		if err != nil {
			return nil, fmt.Errorf("snapshot exchange rates: %w", err)
		}
		for iso, rate := range rates {
			cycle.ExchangeRates.Set(iso, rate.String())
		}
	}

	if err := cycle.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.hooks.RunBeforeCreate(ctx, cycle); err != nil {
		return nil, err
	}

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, cycle); err != nil {
			// Unique index violation means a concurrent open won the race
			if apperror.IsConflict(err) {
				return apperror.NewCycleActive(business.GetBusinessID(ctx))
			}
			return fmt.Errorf("create cycle: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.RunAfterCreate(ctx, cycle); err != nil {
		logger.Warn(ctx, "after-open hook failed", "error", err)
	}

	logger.Info(ctx, "economic cycle opened",
		"cycle_id", cycle.ID,
		"number", cycle.Number)

	return cycle, nil
}

// CloseInput holds optional fields for closing a cycle.
type CloseInput struct {
	Observations *string
	ClosedBy     string
}

// Close finishes the open cycle. Rejected while shifts remain open.
func (s *Service) Close(ctx context.Context, input CloseInput) (*EconomicCycle, error) {
	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}

	var cycle *EconomicCycle
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		cycle, err = s.repo.GetActiveForUpdate(ctx)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewCycleClosed("no open cycle to close")
			}
			return err
		}

		if s.shifts != nil {
			open, err := s.shifts.CountOpenByCycle(ctx, cycle.ID)
			if err != nil {
				return fmt.Errorf("count open shifts: %w", err)
			}
			if open > 0 {
				return apperror.NewShiftOpen("").
					WithDetail("open_shifts", open).
					WithDetail("cycle_id", cycle.ID.String())
			}
		}

		if input.Observations != nil {
			cycle.Observations = input.Observations
		}
		if err := cycle.Close(input.ClosedBy, time.Now().UTC()); err != nil {
			return err
		}

		return s.repo.Update(ctx, cycle)
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.RunAfterUpdate(ctx, cycle); err != nil {
		logger.Warn(ctx, "after-close hook failed", "error", err)
	}

	logger.Info(ctx, "economic cycle closed",
		"cycle_id", cycle.ID,
		"number", cycle.Number,
		"duration", cycle.Duration().String())

	return cycle, nil
}

// Hold pauses the active cycle. Movements are rejected until Resume.
func (s *Service) Hold(ctx context.Context) (*EconomicCycle, error) {
	return s.transition(ctx, (*EconomicCycle).Hold)
}

// Resume reactivates a cycle on hold.
func (s *Service) Resume(ctx context.Context) (*EconomicCycle, error) {
	return s.transition(ctx, (*EconomicCycle).Resume)
}

func (s *Service) transition(ctx context.Context, apply func(*EconomicCycle) error) (*EconomicCycle, error) {
	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}

	var cycle *EconomicCycle
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		cycle, err = s.repo.GetActiveForUpdate(ctx)
		if err != nil {
			return err
		}
		if err := apply(cycle); err != nil {
			return err
		}
		return s.repo.Update(ctx, cycle)
	})
	if err != nil {
		return nil, err
	}
	return cycle, nil
}

// GetActive returns the currently open cycle.
func (s *Service) GetActive(ctx context.Context) (*EconomicCycle, error) {
	cycle, err := s.repo.GetActive(ctx)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("active cycle", business.GetBusinessID(ctx))
		}
		return nil, err
	}
	return cycle, nil
}

// GetByID retrieves a cycle by ID.
func (s *Service) GetByID(ctx context.Context, cycleID id.ID) (*EconomicCycle, error) {
	return s.repo.GetByID(ctx, cycleID)
}

// List retrieves cycles with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*EconomicCycle], error) {
	return s.repo.List(ctx, filter)
}

// RequireAcceptingCycle returns the active cycle or an error when no cycle
// accepts operations (none open, or the open one is on hold).
func (s *Service) RequireAcceptingCycle(ctx context.Context) (*EconomicCycle, error) {
	cycle, err := s.repo.GetActive(ctx)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewCycleClosed("no open economic cycle")
		}
		return nil, err
	}
	if !cycle.AcceptsOperations() {
		return nil, apperror.NewCycleClosed("economic cycle is on hold").
			WithDetail("cycle_id", cycle.ID.String())
	}
	return cycle, nil
}
