package dto

import (
	"time"

	"poscore/internal/domain/shifts"
)

// --- Request DTOs ---

// OpenShiftRequest is the request body for opening a shift.
type OpenShiftRequest struct {
	AreaID string `json:"areaId" binding:"required,uuid"`
}

// CloseShiftRequest is the request body for closing a shift.
// ShiftID is only read on the body-addressed close route; the
// path-addressed route takes the id from the URL.
type CloseShiftRequest struct {
	ShiftID      string  `json:"shiftId"`
	Observations *string `json:"observations"`
}

// --- Response DTOs ---

// ShiftResponse is the response body for a shift.
type ShiftResponse struct {
	ID           string        `json:"id"`
	Number       string        `json:"number"`
	CycleID      string        `json:"cycleId"`
	AreaID       string        `json:"areaId"`
	Status       shifts.Status `json:"status"`
	OpenDate     time.Time     `json:"openDate"`
	CloseDate    *time.Time    `json:"closeDate,omitempty"`
	OpenedBy     string        `json:"openedBy"`
	ClosedBy     *string       `json:"closedBy,omitempty"`
	Observations *string       `json:"observations,omitempty"`
	Version      int           `json:"version"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// FromShift creates response DTO from domain entity.
func FromShift(s *shifts.Shift) *ShiftResponse {
	return &ShiftResponse{
		ID:           s.ID.String(),
		Number:       s.Number,
		CycleID:      s.CycleID.String(),
		AreaID:       s.AreaID.String(),
		Status:       s.Status,
		OpenDate:     s.OpenDate,
		CloseDate:    s.CloseDate,
		OpenedBy:     s.OpenedBy,
		ClosedBy:     s.ClosedBy,
		Observations: s.Observations,
		Version:      s.Version,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}
