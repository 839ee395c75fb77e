// Package product provides the Product catalog.
// Products represent sellable and storable items: raw materials, processed
// goods, menu items and services.
package product

import (
	"context"

	"github.com/shopspring/decimal"

	"poscore/internal/core/apperror"
	"poscore/internal/core/entity"
)

// ProductType defines the type of product.
type ProductType string

const (
	TypeRaw      ProductType = "RAW"      // Raw material, consumed in manufacturing
	TypeStock    ProductType = "STOCK"    // Storable item sold as-is
	TypeMenu     ProductType = "MENU"     // Prepared item composed of raw products
	TypeReady    ProductType = "READY"    // Ready-for-sale processed item
	TypeService  ProductType = "SERVICE"  // Non-physical item (no stock tracking)
	TypeAddon    ProductType = "ADDON"    // Add-on attached to another product
	TypeCombo    ProductType = "COMBO"    // Bundle of other products
	TypeVariable ProductType = "VARIABLE" // Product with variations (size, color)
)

// Measure defines the unit of measure.
type Measure string

const (
	MeasureUnit   Measure = "UNIT"
	MeasureKg     Measure = "KG"
	MeasureGram   Measure = "GRAM"
	MeasureLitre  Measure = "LITRE"
	MeasurePortion Measure = "PORTION"
)

// Product represents a sellable or storable item.
type Product struct {
	entity.Catalog

	// Type defines product category
	Type ProductType `db:"type" json:"type"`

	// Barcode is the product barcode (EAN-13, etc.)
	Barcode *string `db:"barcode" json:"barcode,omitempty"`

	// Measure is the unit of measure for stock tracking
	Measure Measure `db:"measure" json:"measure"`

	// AverageCost is the weighted average cost per unit
	AverageCost decimal.Decimal `db:"average_cost" json:"averageCost"`

	// SalePrice is the default sale price per unit
	SalePrice decimal.Decimal `db:"sale_price" json:"salePrice"`

	// SaleCurrencyID references the currency of SalePrice
	SaleCurrencyID *string `db:"sale_currency_id" json:"saleCurrencyId,omitempty"`

	// ShowForSale marks the product as visible at sale points
	ShowForSale bool `db:"show_for_sale" json:"showForSale"`

	// StockLimit enables low-stock alerts below AlertLimit
	StockLimit bool `db:"stock_limit" json:"stockLimit"`

	// AlertLimit is the threshold quantity for low-stock alerts
	AlertLimit decimal.Decimal `db:"alert_limit" json:"alertLimit"`

	// Description is a detailed description
	Description *string `db:"description" json:"description,omitempty"`

	// ImageURL is the product image URL
	ImageURL *string `db:"image_url" json:"imageUrl,omitempty"`
}

// NewProduct creates a new Product with required fields.
func NewProduct(code, name string, productType ProductType) *Product {
	return &Product{
		Catalog:     entity.NewCatalog(code, name),
		Type:        productType,
		Measure:     MeasureUnit,
		AverageCost: decimal.Zero,
		SalePrice:   decimal.Zero,
		AlertLimit:  decimal.Zero,
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	// Base catalog validation
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	// Type validation
	if !isValidProductType(p.Type) {
		return apperror.NewValidation("invalid product type").
			WithDetail("field", "type").
			WithDetail("value", string(p.Type))
	}

	if !isValidMeasure(p.Measure) {
		return apperror.NewValidation("invalid measure").
			WithDetail("field", "measure").
			WithDetail("value", string(p.Measure))
	}

	// Costs and prices must be non-negative
	if p.AverageCost.IsNegative() {
		return apperror.NewValidation("average cost cannot be negative").
			WithDetail("field", "averageCost")
	}
	if p.SalePrice.IsNegative() {
		return apperror.NewValidation("sale price cannot be negative").
			WithDetail("field", "salePrice")
	}

	// Services are never stock-tracked
	if p.Type == TypeService && p.StockLimit {
		return apperror.NewValidation("services cannot have stock limits").
			WithDetail("field", "stockLimit")
	}

	return nil
}

// IsStockable returns true if product quantities are tracked in stock areas.
func (p *Product) IsStockable() bool {
	switch p.Type {
	case TypeRaw, TypeStock, TypeReady, TypeVariable:
		return true
	}
	return false
}

// IsManufacturable returns true if product is produced from other products.
func (p *Product) IsManufacturable() bool {
	return p.Type == TypeMenu || p.Type == TypeReady
}

// --- Validation Helpers ---

func isValidProductType(t ProductType) bool {
	switch t {
	case TypeRaw, TypeStock, TypeMenu, TypeReady, TypeService, TypeAddon, TypeCombo, TypeVariable:
		return true
	}
	return false
}

func isValidMeasure(m Measure) bool {
	switch m {
	case MeasureUnit, MeasureKg, MeasureGram, MeasureLitre, MeasurePortion:
		return true
	}
	return false
}
