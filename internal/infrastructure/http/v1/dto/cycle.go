package dto

import (
	"time"

	"poscore/internal/core/entity"
	"poscore/internal/domain/cycles"
)

// --- Request DTOs ---

// OpenCycleRequest is the request body for opening an economic cycle.
type OpenCycleRequest struct {
	Name         *string `json:"name"`
	Observations *string `json:"observations"`
}

// CloseCycleRequest is the request body for closing the open cycle.
type CloseCycleRequest struct {
	Observations *string `json:"observations"`
}

// --- Response DTOs ---

// CycleResponse is the response body for an economic cycle.
type CycleResponse struct {
	ID            string            `json:"id"`
	Number        string            `json:"number"`
	Name          *string           `json:"name,omitempty"`
	Status        cycles.Status     `json:"status"`
	OpenDate      time.Time         `json:"openDate"`
	CloseDate     *time.Time        `json:"closeDate,omitempty"`
	OpenedBy      string            `json:"openedBy"`
	ClosedBy      *string           `json:"closedBy,omitempty"`
	Observations  *string           `json:"observations,omitempty"`
	ExchangeRates entity.Attributes `json:"exchangeRates,omitempty"`
	Version       int               `json:"version"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// FromCycle creates response DTO from domain entity.
func FromCycle(c *cycles.EconomicCycle) *CycleResponse {
	return &CycleResponse{
		ID:            c.ID.String(),
		Number:        c.Number,
		Name:          c.Name,
		Status:        c.Status,
		OpenDate:      c.OpenDate,
		CloseDate:     c.CloseDate,
		OpenedBy:      c.OpenedBy,
		ClosedBy:      c.ClosedBy,
		Observations:  c.Observations,
		ExchangeRates: c.ExchangeRates,
		Version:       c.Version,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
