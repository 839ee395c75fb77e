package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"poscore/internal/core/id"
	"poscore/internal/domain/cashops"
)

// --- Request DTOs ---

// RecordCashOperationRequest is the request body for a cash register operation.
type RecordCashOperationRequest struct {
	Type         cashops.OperationType `json:"type" binding:"required"`
	Amount       decimal.Decimal       `json:"amount" binding:"required"`
	CodeCurrency string                `json:"codeCurrency" binding:"required"`
	AreaID       string                `json:"areaId" binding:"required,uuid"`
	Observations *string               `json:"observations"`
}

// ToInput converts DTO to the service input.
func (r *RecordCashOperationRequest) ToInput(createdBy string) (cashops.RecordInput, error) {
	areaID, err := id.Parse(r.AreaID)
	if err != nil {
		return cashops.RecordInput{}, err
	}
	return cashops.RecordInput{
		Type:         r.Type,
		Amount:       r.Amount,
		CurrencyISO:  r.CodeCurrency,
		AreaID:       areaID,
		Observations: r.Observations,
		CreatedBy:    createdBy,
	}, nil
}

// --- Response DTOs ---

// CashOperationResponse is the response body for a cash register operation.
type CashOperationResponse struct {
	ID           string                `json:"id"`
	Number       string                `json:"number"`
	Type         cashops.OperationType `json:"type"`
	Amount       decimal.Decimal       `json:"amount"`
	CodeCurrency string                `json:"codeCurrency"`
	AreaID       string                `json:"areaId"`
	ShiftID      string                `json:"shiftId"`
	CycleID      string                `json:"cycleId"`
	Observations *string               `json:"observations,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
	CreatedBy    string                `json:"createdBy"`
}

// FromCashOperation creates response DTO from domain entity.
func FromCashOperation(o *cashops.CashOperation) *CashOperationResponse {
	return &CashOperationResponse{
		ID:           o.ID.String(),
		Number:       o.Number,
		Type:         o.Type,
		Amount:       o.Amount,
		CodeCurrency: o.CurrencyISO,
		AreaID:       o.AreaID.String(),
		ShiftID:      o.ShiftID.String(),
		CycleID:      o.CycleID.String(),
		Observations: o.Observations,
		CreatedAt:    o.CreatedAt,
		CreatedBy:    o.CreatedBy,
	}
}

// TypeTotalResponse is one per-type, per-currency cash total.
type TypeTotalResponse struct {
	Type         cashops.OperationType `json:"type"`
	CodeCurrency string                `json:"codeCurrency"`
	Amount       decimal.Decimal       `json:"amount"`
}

// FromTypeTotals maps cycle cash totals.
func FromTypeTotals(totals []cashops.TypeTotal) []TypeTotalResponse {
	out := make([]TypeTotalResponse, len(totals))
	for i, t := range totals {
		out[i] = TypeTotalResponse{
			Type:         t.Type,
			CodeCurrency: t.CurrencyISO,
			Amount:       t.Amount,
		}
	}
	return out
}
