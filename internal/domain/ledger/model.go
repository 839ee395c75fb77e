// Package ledger provides the append-only stock movement ledger.
// Every quantity change in a stock-holding area is a Movement row; rows
// are never updated or deleted. Corrections are expressed as reversal
// rows pointing at the original, transfers as linked source/destination
// pairs.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"poscore/internal/core/apperror"
	"poscore/internal/core/id"
	"poscore/internal/core/types"
)

// Operation defines the kind of stock movement.
type Operation string

const (
	// OperationEntry adds stock to an area (receipt, production output,
	// destination leg of a transfer).
	OperationEntry Operation = "ENTRY"
	// OperationOut removes stock (sale consumption, manufacturing input).
	OperationOut Operation = "OUT"
	// OperationWaste removes stock as loss/spoilage.
	OperationWaste Operation = "WASTE"
	// OperationAdjust corrects stock after a physical count. Quantity is
	// signed: positive raises stock, negative lowers it.
	OperationAdjust Operation = "ADJUST"
	// OperationMove is the source leg of a transfer between areas. The
	// destination leg is an ENTRY with ParentID set to the source row.
	OperationMove Operation = "MOVE"
)

// Movement is one immutable row of the stock ledger.
type Movement struct {
	// ID is the primary key (UUIDv7, time-ordered)
	ID id.ID `db:"id" json:"id"`

	// Operation is the movement kind
	Operation Operation `db:"operation" json:"operation"`

	// ProductID / AreaID are the ledger dimensions
	ProductID id.ID `db:"product_id" json:"productId"`
	AreaID    id.ID `db:"area_id" json:"areaId"`

	// CycleID is the economic cycle the movement was recorded in
	CycleID id.ID `db:"cycle_id" json:"cycleId"`

	// ShiftID is the shift during which the movement happened (optional)
	ShiftID *id.ID `db:"shift_id" json:"shiftId,omitempty"`

	// Quantity is the movement magnitude. Positive for all operations
	// except ADJUST, where the sign carries the correction direction.
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// UnitCost is the per-unit cost for ENTRY movements (optional)
	UnitCost *decimal.Decimal `db:"unit_cost" json:"unitCost,omitempty"`

	// CostCurrency is the ISO code of UnitCost
	CostCurrency *string `db:"cost_currency" json:"costCurrency,omitempty"`

	// Description free-form note
	Description *string `db:"description" json:"description,omitempty"`

	// --- Typed relation fields (movement graph) ---

	// ParentID links the destination leg of a transfer to its source row.
	ParentID *id.ID `db:"parent_id" json:"parentId,omitempty"`

	// MovedToAreaID is set on the source leg of a transfer.
	MovedToAreaID *id.ID `db:"moved_to_area_id" json:"movedToAreaId,omitempty"`

	// ReversalOfID links a reversal row to the movement it cancels.
	// A movement can be reversed at most once (unique index).
	ReversalOfID *id.ID `db:"reversal_of_id" json:"reversalOfId,omitempty"`

	// Audit
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	CreatedBy string    `db:"created_by" json:"createdBy"`
}

// NewMovement creates a ledger row with generated ID and timestamp.
func NewMovement(op Operation, productID, areaID, cycleID id.ID, qty types.Quantity, createdBy string) *Movement {
	return &Movement{
		ID:        id.New(),
		Operation: op,
		ProductID: productID,
		AreaID:    areaID,
		CycleID:   cycleID,
		Quantity:  qty,
		CreatedAt: time.Now().UTC(),
		CreatedBy: createdBy,
	}
}

// Validate implements entity.Validatable interface.
func (m *Movement) Validate(ctx context.Context) error {
	if !isValidOperation(m.Operation) {
		return apperror.NewValidation("invalid movement operation").
			WithDetail("field", "operation").
			WithDetail("value", string(m.Operation))
	}
	if id.IsNil(m.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if id.IsNil(m.AreaID) {
		return apperror.NewValidation("area is required").
			WithDetail("field", "areaId")
	}
	if id.IsNil(m.CycleID) {
		return apperror.NewValidation("cycle is required").
			WithDetail("field", "cycleId")
	}

	switch m.Operation {
	case OperationAdjust:
		if m.Quantity == 0 {
			return apperror.NewValidation("adjust quantity cannot be zero").
				WithDetail("field", "quantity")
		}
	default:
		if !m.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "quantity")
		}
	}

	if m.Operation == OperationMove && m.MovedToAreaID == nil {
		return apperror.NewValidation("transfer source requires destination area").
			WithDetail("field", "movedToAreaId")
	}
	if m.UnitCost != nil && m.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost cannot be negative").
			WithDetail("field", "unitCost")
	}

	return nil
}

// IsReversal returns true for rows that cancel another movement.
func (m *Movement) IsReversal() bool {
	return m.ReversalOfID != nil
}

// IsTransferLeg returns true for destination legs of transfers.
func (m *Movement) IsTransferLeg() bool {
	return m.ParentID != nil
}

// SignedQuantity returns the balance effect of the row.
// ENTRY raises stock, OUT/WASTE/MOVE lower it, ADJUST carries its own
// sign. Reversal rows negate the effect of the original operation.
func (m *Movement) SignedQuantity() types.Quantity {
	var signed types.Quantity
	switch m.Operation {
	case OperationEntry, OperationAdjust:
		signed = m.Quantity
	case OperationOut, OperationWaste, OperationMove:
		signed = m.Quantity.Neg()
	}
	if m.IsReversal() {
		return signed.Neg()
	}
	return signed
}

func isValidOperation(op Operation) bool {
	switch op {
	case OperationEntry, OperationOut, OperationWaste, OperationAdjust, OperationMove:
		return true
	}
	return false
}
