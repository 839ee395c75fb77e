// Package shifts provides the work Shift operational record.
// A shift is an attendance window of a sale area inside the active
// economic cycle: sales and manual cash operations require an open shift
// when the area demands it.
package shifts

import (
	"context"
	"time"

	"poscore/internal/core/apperror"
	"poscore/internal/core/entity"
	"poscore/internal/core/id"
)

// Status defines the lifecycle state of a shift.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Shift represents one attendance window of a sale area.
type Shift struct {
	entity.BaseRecord

	// Number is the sequential shift number (e.g., SHF-2026-00108)
	Number string `db:"number" json:"number"`

	// CycleID references the economic cycle the shift belongs to
	CycleID id.ID `db:"cycle_id" json:"cycleId"`

	// AreaID references the sale area being worked
	AreaID id.ID `db:"area_id" json:"areaId"`

	// Status is the lifecycle state
	Status Status `db:"status" json:"status"`

	// OpenDate / CloseDate bound the shift
	OpenDate  time.Time  `db:"open_date" json:"openDate"`
	CloseDate *time.Time `db:"close_date" json:"closeDate,omitempty"`

	// OpenedBy / ClosedBy are user IDs
	OpenedBy string  `db:"opened_by" json:"openedBy"`
	ClosedBy *string `db:"closed_by" json:"closedBy,omitempty"`

	// Observations free-form notes
	Observations *string `db:"observations" json:"observations,omitempty"`
}

// NewShift creates a new open shift.
func NewShift(cycleID, areaID id.ID, openedBy string) *Shift {
	return &Shift{
		BaseRecord: entity.NewBaseRecord(),
		CycleID:    cycleID,
		AreaID:     areaID,
		Status:     StatusOpen,
		OpenDate:   time.Now().UTC(),
		OpenedBy:   openedBy,
	}
}

// Validate implements entity.Validatable interface.
func (s *Shift) Validate(ctx context.Context) error {
	if id.IsNil(s.CycleID) {
		return apperror.NewValidation("cycle is required").
			WithDetail("field", "cycleId")
	}
	if id.IsNil(s.AreaID) {
		return apperror.NewValidation("area is required").
			WithDetail("field", "areaId")
	}
	if s.Status != StatusOpen && s.Status != StatusClosed {
		return apperror.NewValidation("invalid shift status").
			WithDetail("field", "status").
			WithDetail("value", string(s.Status))
	}
	if s.Status == StatusClosed && s.CloseDate == nil {
		return apperror.NewValidation("closed shift requires close date").
			WithDetail("field", "closeDate")
	}
	return nil
}

// IsOpen returns true while the shift accepts operations.
func (s *Shift) IsOpen() bool {
	return s.Status == StatusOpen
}

// Close transitions the shift to CLOSED.
func (s *Shift) Close(closedBy string, at time.Time) error {
	if s.Status == StatusClosed {
		return apperror.NewConflict("shift is already closed").
			WithDetail("shift_id", s.ID.String())
	}
	s.Status = StatusClosed
	s.CloseDate = &at
	s.ClosedBy = &closedBy
	s.Touch()
	return nil
}
