// Package cycles provides the EconomicCycle operational record.
// An economic cycle is the accounting window of a business: all sales,
// stock movements and cash operations are recorded against the single
// active cycle.
package cycles

import (
	"context"
	"time"

	"poscore/internal/core/apperror"
	"poscore/internal/core/entity"
)

// Status defines the lifecycle state of an economic cycle.
type Status string

const (
	// StatusActive - the cycle accepts operations. At most one per business.
	StatusActive Status = "ACTIVE"
	// StatusOnHold - the cycle is paused; operations are rejected until resumed.
	StatusOnHold Status = "ON_HOLD"
	// StatusClosed - the cycle is finished and immutable.
	StatusClosed Status = "CLOSED"
)

// EconomicCycle represents one accounting window.
type EconomicCycle struct {
	entity.BaseRecord

	// Number is the sequential cycle number (e.g., CYC-2026-00042)
	Number string `db:"number" json:"number"`

	// Name is an optional display name
	Name *string `db:"name" json:"name,omitempty"`

	// Status is the lifecycle state
	Status Status `db:"status" json:"status"`

	// OpenDate is when the cycle was opened
	OpenDate time.Time `db:"open_date" json:"openDate"`

	// CloseDate is when the cycle was closed (nil while open)
	CloseDate *time.Time `db:"close_date" json:"closeDate,omitempty"`

	// OpenedBy / ClosedBy are user IDs
	OpenedBy string  `db:"opened_by" json:"openedBy"`
	ClosedBy *string `db:"closed_by" json:"closedBy,omitempty"`

	// Observations free-form notes
	Observations *string `db:"observations" json:"observations,omitempty"`

	// ExchangeRates is the currency rate snapshot frozen at open time
	// (ISO code -> rate against main currency), stored as JSONB.
	ExchangeRates entity.Attributes `db:"exchange_rates" json:"exchangeRates,omitempty"`
}

// NewEconomicCycle creates a new active cycle opened now.
func NewEconomicCycle(openedBy string) *EconomicCycle {
	return &EconomicCycle{
		BaseRecord: entity.NewBaseRecord(),
		Status:     StatusActive,
		OpenDate:   time.Now().UTC(),
		OpenedBy:   openedBy,
	}
}

// Validate implements entity.Validatable interface.
func (c *EconomicCycle) Validate(ctx context.Context) error {
	if !isValidStatus(c.Status) {
		return apperror.NewValidation("invalid cycle status").
			WithDetail("field", "status").
			WithDetail("value", string(c.Status))
	}

	if c.OpenDate.IsZero() {
		return apperror.NewValidation("open date is required").
			WithDetail("field", "openDate")
	}

	if c.Status == StatusClosed {
		if c.CloseDate == nil {
			return apperror.NewValidation("closed cycle requires close date").
				WithDetail("field", "closeDate")
		}
		if c.CloseDate.Before(c.OpenDate) {
			return apperror.NewValidation("close date cannot precede open date").
				WithDetail("field", "closeDate")
		}
	}

	return nil
}

// IsOpen returns true while the cycle accepts or can resume operations.
func (c *EconomicCycle) IsOpen() bool {
	return c.Status == StatusActive || c.Status == StatusOnHold
}

// AcceptsOperations returns true if movements and cash operations may be recorded.
func (c *EconomicCycle) AcceptsOperations() bool {
	return c.Status == StatusActive
}

// Close transitions the cycle to CLOSED.
func (c *EconomicCycle) Close(closedBy string, at time.Time) error {
	if c.Status == StatusClosed {
		return apperror.NewCycleClosed("cycle is already closed")
	}
	c.Status = StatusClosed
	c.CloseDate = &at
	c.ClosedBy = &closedBy
	c.Touch()
	return nil
}

// Hold pauses an active cycle.
func (c *EconomicCycle) Hold() error {
	if c.Status != StatusActive {
		return apperror.NewBusinessRule("CYCLE_NOT_ACTIVE", "only an active cycle can be put on hold")
	}
	c.Status = StatusOnHold
	c.Touch()
	return nil
}

// Resume reactivates a cycle on hold.
func (c *EconomicCycle) Resume() error {
	if c.Status != StatusOnHold {
		return apperror.NewBusinessRule("CYCLE_NOT_ON_HOLD", "only a cycle on hold can be resumed")
	}
	c.Status = StatusActive
	c.Touch()
	return nil
}

// Duration returns the cycle length, using now for open cycles.
func (c *EconomicCycle) Duration() time.Duration {
	if c.CloseDate != nil {
		return c.CloseDate.Sub(c.OpenDate)
	}
	return time.Since(c.OpenDate)
}

func isValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusOnHold, StatusClosed:
		return true
	}
	return false
}
