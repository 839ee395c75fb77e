package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"poscore/internal/core/id"
	"poscore/internal/core/types"
	"poscore/internal/domain/ledger"
)

// --- Request DTOs ---

// RecordMovementRequest is the request body for recording one ledger row
// (entry, out, waste or adjust). Transfers use MoveStockRequest.
// Operation may be omitted on the per-operation routes, which fix it
// from the path.
type RecordMovementRequest struct {
	Operation    ledger.Operation `json:"operation"`
	ProductID    string           `json:"productId" binding:"required,uuid"`
	AreaID       string           `json:"areaId" binding:"required,uuid"`
	Quantity     float64          `json:"quantity" binding:"required"`
	UnitCost     *decimal.Decimal `json:"unitCost"`
	CostCurrency *string          `json:"costCurrency"`
	Description  *string          `json:"description"`
}

// ToInput converts DTO to the service input.
func (r *RecordMovementRequest) ToInput(createdBy string) (ledger.RecordInput, error) {
	productID, err := id.Parse(r.ProductID)
	if err != nil {
		return ledger.RecordInput{}, err
	}
	areaID, err := id.Parse(r.AreaID)
	if err != nil {
		return ledger.RecordInput{}, err
	}
	return ledger.RecordInput{
		Operation:    r.Operation,
		ProductID:    productID,
		AreaID:       areaID,
		Quantity:     types.NewQuantityFromFloat64(r.Quantity),
		UnitCost:     r.UnitCost,
		CostCurrency: r.CostCurrency,
		Description:  r.Description,
		CreatedBy:    createdBy,
	}, nil
}

// MoveStockRequest is the request body for a transfer between areas.
type MoveStockRequest struct {
	ProductID   string  `json:"productId" binding:"required,uuid"`
	FromAreaID  string  `json:"fromAreaId" binding:"required,uuid"`
	ToAreaID    string  `json:"toAreaId" binding:"required,uuid"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
	Description *string `json:"description"`
}

// ToInput converts DTO to the service input.
func (r *MoveStockRequest) ToInput(createdBy string) (ledger.MoveInput, error) {
	productID, err := id.Parse(r.ProductID)
	if err != nil {
		return ledger.MoveInput{}, err
	}
	fromAreaID, err := id.Parse(r.FromAreaID)
	if err != nil {
		return ledger.MoveInput{}, err
	}
	toAreaID, err := id.Parse(r.ToAreaID)
	if err != nil {
		return ledger.MoveInput{}, err
	}
	return ledger.MoveInput{
		ProductID:   productID,
		FromAreaID:  fromAreaID,
		ToAreaID:    toAreaID,
		Quantity:    types.NewQuantityFromFloat64(r.Quantity),
		Description: r.Description,
		CreatedBy:   createdBy,
	}, nil
}

// BulkEntryRequest records several entries in one transaction.
type BulkEntryRequest struct {
	Items []RecordMovementRequest `json:"items" binding:"required,min=1,dive"`
}

// --- Response DTOs ---

// MovementResponse is the response body for a ledger row.
type MovementResponse struct {
	ID            string           `json:"id"`
	Operation     ledger.Operation `json:"operation"`
	ProductID     string           `json:"productId"`
	AreaID        string           `json:"areaId"`
	CycleID       string           `json:"cycleId"`
	ShiftID       *string          `json:"shiftId,omitempty"`
	Quantity      float64          `json:"quantity"`
	UnitCost      *decimal.Decimal `json:"unitCost,omitempty"`
	CostCurrency  *string          `json:"costCurrency,omitempty"`
	Description   *string          `json:"description,omitempty"`
	ParentID      *string          `json:"parentId,omitempty"`
	MovedToAreaID *string          `json:"movedToAreaId,omitempty"`
	ReversalOfID  *string          `json:"reversalOfId,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	CreatedBy     string           `json:"createdBy"`
}

// FromMovement creates response DTO from domain entity.
func FromMovement(m *ledger.Movement) *MovementResponse {
	return &MovementResponse{
		ID:            m.ID.String(),
		Operation:     m.Operation,
		ProductID:     m.ProductID.String(),
		AreaID:        m.AreaID.String(),
		CycleID:       m.CycleID.String(),
		ShiftID:       idPtrToString(m.ShiftID),
		Quantity:      m.Quantity.Float64(),
		UnitCost:      m.UnitCost,
		CostCurrency:  m.CostCurrency,
		Description:   m.Description,
		ParentID:      idPtrToString(m.ParentID),
		MovedToAreaID: idPtrToString(m.MovedToAreaID),
		ReversalOfID:  idPtrToString(m.ReversalOfID),
		CreatedAt:     m.CreatedAt,
		CreatedBy:     m.CreatedBy,
	}
}

// FromMovements maps a slice of ledger rows.
func FromMovements(ms []*ledger.Movement) []*MovementResponse {
	out := make([]*MovementResponse, len(ms))
	for i, m := range ms {
		out[i] = FromMovement(m)
	}
	return out
}

// BalanceResponse is one area/product stock level.
type BalanceResponse struct {
	AreaID    string  `json:"areaId"`
	ProductID string  `json:"productId"`
	Quantity  float64 `json:"quantity"`
}

// FromBalance creates response DTO from a ledger balance.
func FromBalance(b ledger.Balance) BalanceResponse {
	return BalanceResponse{
		AreaID:    b.AreaID.String(),
		ProductID: b.ProductID.String(),
		Quantity:  b.Quantity.Float64(),
	}
}
