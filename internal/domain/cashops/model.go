// Package cashops manages cash register operations.
//
// Operations are append-only rows tied to an area, an open shift and
// the economic cycle. They feed the per-currency cash buckets of the
// financial reports.
package cashops

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"poscore/internal/core/apperror"
	"poscore/internal/core/id"
)

// OperationType classifies a cash register operation.
type OperationType string

const (
	// TypeCashIn is money put into the register during a sale flow.
	TypeCashIn OperationType = "CASH_IN"
	// TypeCashOut is money taken out of the register during a sale flow.
	TypeCashOut OperationType = "CASH_OUT"
	// TypeDeposit is a manual deposit (opening float, replenishment).
	TypeDeposit OperationType = "DEPOSIT"
	// TypeExtraction is a manual withdrawal (bank run, safe drop).
	TypeExtraction OperationType = "EXTRACTION"
	// TypeTip records tips collected in cash.
	TypeTip OperationType = "TIP"
)

// ValidTypes lists all accepted operation types.
var ValidTypes = []OperationType{TypeCashIn, TypeCashOut, TypeDeposit, TypeExtraction, TypeTip}

// IsValid checks the operation type.
func (t OperationType) IsValid() bool {
	for _, v := range ValidTypes {
		if t == v {
			return true
		}
	}
	return false
}

// IsOutflow reports whether the operation removes money from the register.
func (t OperationType) IsOutflow() bool {
	return t == TypeCashOut || t == TypeExtraction
}

// CashOperation is one immutable cash register row.
type CashOperation struct {
	ID id.ID `db:"id" json:"id"`

	// Number is the human-readable operation number (OPC-...)
	Number string `db:"number" json:"number"`

	Type OperationType `db:"type" json:"type"`

	// Amount is always positive; Type carries the direction.
	Amount decimal.Decimal `db:"amount" json:"amount"`

	// CurrencyISO is the ISO 4217 code of Amount
	CurrencyISO string `db:"currency_iso" json:"codeCurrency"`

	AreaID  id.ID `db:"area_id" json:"areaId"`
	ShiftID id.ID `db:"shift_id" json:"shiftId"`
	CycleID id.ID `db:"cycle_id" json:"cycleId"`

	Observations *string `db:"observations" json:"observations,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	CreatedBy string    `db:"created_by" json:"createdBy"`
}

// NewCashOperation creates an operation with generated ID and timestamp.
func NewCashOperation(opType OperationType, amount decimal.Decimal, currencyISO string, createdBy string) *CashOperation {
	return &CashOperation{
		ID:          id.New(),
		Type:        opType,
		Amount:      amount,
		CurrencyISO: currencyISO,
		CreatedAt:   time.Now().UTC(),
		CreatedBy:   createdBy,
	}
}

// Validate implements entity.Validatable interface.
func (o *CashOperation) Validate(ctx context.Context) error {
	if !o.Type.IsValid() {
		return apperror.NewValidation("invalid cash operation type").
			WithDetail("field", "type").
			WithDetail("value", string(o.Type))
	}
	if !o.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").
			WithDetail("field", "amount")
	}
	if o.CurrencyISO == "" {
		return apperror.NewValidation("currency is required").
			WithDetail("field", "codeCurrency")
	}
	if id.IsNil(o.AreaID) {
		return apperror.NewValidation("area is required").
			WithDetail("field", "areaId")
	}
	if id.IsNil(o.ShiftID) {
		return apperror.NewValidation("shift is required").
			WithDetail("field", "shiftId")
	}
	if id.IsNil(o.CycleID) {
		return apperror.NewValidation("cycle is required").
			WithDetail("field", "cycleId")
	}
	return nil
}

// SignedAmount returns the amount with the direction of the operation.
func (o *CashOperation) SignedAmount() decimal.Decimal {
	if o.Type.IsOutflow() {
		return o.Amount.Neg()
	}
	return o.Amount
}
