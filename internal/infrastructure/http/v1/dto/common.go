// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"poscore/internal/core/id"
)

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Deletion ---
type SetDeletionMarkRequest struct {
	Marked bool `json:"marked"`
}

// --- Helpers ---

func idPtrToString(v *id.ID) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

func parseIDPtr(v *string) (*id.ID, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	parsed, err := id.Parse(*v)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
