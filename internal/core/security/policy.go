package security

import (
	"context"
	"time"

	"poscore/internal/core/apperror"
)

// MovementPolicy defines rules for recording stock movements.
// Different businesses may have different policies (strict vs flexible).
type MovementPolicy interface {
	// CanRecord checks if a movement can be recorded with given date
	CanRecord(ctx context.Context, movementDate time.Time) error

	// CanReverse checks if a recorded movement can be reversed
	CanReverse(ctx context.Context, movementDate time.Time) error

	// GetClosedPeriod returns the date until which period is closed
	GetClosedPeriod(ctx context.Context) time.Time
}

// StrictPolicy forbids any changes to closed period.
// Used for regulatory compliance.
type StrictPolicy struct {
	closedUntil time.Time
}

// NewStrictPolicy creates policy that forbids changes before closedUntil.
func NewStrictPolicy(closedUntil time.Time) *StrictPolicy {
	return &StrictPolicy{closedUntil: closedUntil}
}

func (p *StrictPolicy) CanRecord(ctx context.Context, movementDate time.Time) error {
	if movementDate.Before(p.closedUntil) {
		return apperror.NewCycleClosed("period closed until " + p.closedUntil.Format("2006-01-02"))
	}
	return nil
}

func (p *StrictPolicy) CanReverse(ctx context.Context, movementDate time.Time) error {
	return p.CanRecord(ctx, movementDate)
}

func (p *StrictPolicy) GetClosedPeriod(ctx context.Context) time.Time {
	return p.closedUntil
}

// FlexiblePolicy allows backdated changes with warnings.
// Suitable for development and small businesses.
type FlexiblePolicy struct {
	warningThreshold time.Duration // Warn if older than this
	closedUntil      time.Time     // Hard limit
}

// NewFlexiblePolicy creates policy with soft warnings.
func NewFlexiblePolicy(warningThreshold time.Duration, closedUntil time.Time) *FlexiblePolicy {
	return &FlexiblePolicy{
		warningThreshold: warningThreshold,
		closedUntil:      closedUntil,
	}
}

func (p *FlexiblePolicy) CanRecord(ctx context.Context, movementDate time.Time) error {
	if !p.closedUntil.IsZero() && movementDate.Before(p.closedUntil) {
		return apperror.NewCycleClosed("period closed until " + p.closedUntil.Format("2006-01-02"))
	}
	// Soft warning would be logged or returned as warning, not error
	return nil
}

func (p *FlexiblePolicy) CanReverse(ctx context.Context, movementDate time.Time) error {
	return p.CanRecord(ctx, movementDate)
}

func (p *FlexiblePolicy) GetClosedPeriod(ctx context.Context) time.Time {
	return p.closedUntil
}

// IsBackdatedWarning checks if operation deserves a warning.
func (p *FlexiblePolicy) IsBackdatedWarning(movementDate time.Time) bool {
	if p.warningThreshold == 0 {
		return false
	}
	return time.Since(movementDate) > p.warningThreshold
}

// OpenPolicy allows all operations (for development/testing).
type OpenPolicy struct{}

func (OpenPolicy) CanRecord(ctx context.Context, movementDate time.Time) error  { return nil }
func (OpenPolicy) CanReverse(ctx context.Context, movementDate time.Time) error { return nil }
func (OpenPolicy) GetClosedPeriod(ctx context.Context) time.Time                { return time.Time{} }
