// Package area provides the Area catalog.
// Areas represent operational zones of a business: stock rooms, sale points,
// manufacturing zones and access points.
package area

import (
	"context"

	"poscore/internal/core/apperror"
	"poscore/internal/core/entity"
	"poscore/internal/core/id"
)

// AreaType defines the operational kind of an area.
type AreaType string

const (
	TypeStock        AreaType = "STOCK"        // Holds inventory, receives stock movements
	TypeSale         AreaType = "SALE"         // Generates sales, participates in shifts
	TypeManufacturer AreaType = "MANUFACTURER" // Transforms raw products into processed ones
	TypeAccessPoint  AreaType = "ACCESSPOINT"  // Entry control point
)

// Area represents an operational zone within a business.
type Area struct {
	entity.Catalog

	// Type defines the area category
	Type AreaType `db:"type" json:"type"`

	// IsActive indicates if area is operational
	IsActive bool `db:"is_active" json:"isActive"`

	// IsMain indicates the default area of its type
	IsMain bool `db:"is_main" json:"isMain"`

	// AllowNegativeStock indicates if negative stock is allowed (stock areas only)
	AllowNegativeStock bool `db:"allow_negative_stock" json:"allowNegativeStock"`

	// GiveWorkOnShift requires an open shift for operations in this area
	GiveWorkOnShift bool `db:"give_work_on_shift" json:"giveWorkOnShift"`

	// Address is the physical location
	Address *string `db:"address" json:"address,omitempty"`

	// Description
	Description *string `db:"description" json:"description,omitempty"`

	// SalesCurrencyID is the default currency for sales in this area
	SalesCurrencyID *id.ID `db:"sales_currency_id" json:"salesCurrencyId,omitempty"`

	// StockAreaID links a sale area to the stock area it consumes from
	StockAreaID *id.ID `db:"stock_area_id" json:"stockAreaId,omitempty"`
}

// NewArea creates a new Area with required fields.
func NewArea(code, name string, areaType AreaType) *Area {
	return &Area{
		Catalog:  entity.NewCatalog(code, name),
		Type:     areaType,
		IsActive: true,
	}
}

// Validate implements entity.Validatable interface.
func (a *Area) Validate(ctx context.Context) error {
	// Base catalog validation
	if err := a.Catalog.Validate(ctx); err != nil {
		return err
	}

	// Type validation
	if !isValidAreaType(a.Type) {
		return apperror.NewValidation("invalid area type").
			WithDetail("field", "type").
			WithDetail("value", string(a.Type))
	}

	// Negative stock only makes sense for stock areas
	if a.AllowNegativeStock && a.Type != TypeStock {
		return apperror.NewValidation("negative stock is only allowed on stock areas").
			WithDetail("field", "allowNegativeStock")
	}

	// Only sale areas consume from a linked stock area
	if a.StockAreaID != nil && a.Type != TypeSale {
		return apperror.NewValidation("stock area link is only valid on sale areas").
			WithDetail("field", "stockAreaId")
	}

	return nil
}

// HoldsStock returns true if the area keeps inventory.
func (a *Area) HoldsStock() bool {
	return (a.Type == TypeStock || a.Type == TypeManufacturer) && !a.IsFolder
}

// CanSell returns true if the area can register sales.
func (a *Area) CanSell() bool {
	return a.Type == TypeSale && a.IsActive && !a.IsFolder
}

// RequiresShift returns true if operations in this area need an open shift.
func (a *Area) RequiresShift() bool {
	return a.Type == TypeSale && a.GiveWorkOnShift
}

// --- Validation Helpers ---

func isValidAreaType(t AreaType) bool {
	switch t {
	case TypeStock, TypeSale, TypeManufacturer, TypeAccessPoint:
		return true
	}
	return false
}
