package dto

import (
	"github.com/shopspring/decimal"

	"poscore/internal/core/entity"
	"poscore/internal/domain/catalogs/product"
)

// --- Request DTOs ---

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	Code           string              `json:"code"`
	Name           string              `json:"name" binding:"required"`
	Type           product.ProductType `json:"type" binding:"required"`
	Barcode        *string             `json:"barcode"`
	Measure        product.Measure     `json:"measure"`
	SalePrice      decimal.Decimal     `json:"salePrice"`
	SaleCurrencyID *string             `json:"saleCurrencyId"`
	ShowForSale    bool                `json:"showForSale"`
	StockLimit     bool                `json:"stockLimit"`
	AlertLimit     decimal.Decimal     `json:"alertLimit"`
	Description    *string             `json:"description"`
	ImageURL       *string             `json:"imageUrl"`
	ParentID       *string             `json:"parentId"`
	IsFolder       bool                `json:"isFolder"`
	Attributes     entity.Attributes   `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateProductRequest) ToEntity() *product.Product {
	p := product.NewProduct(r.Code, r.Name, r.Type)
	if r.Measure != "" {
		p.Measure = r.Measure
	}
	p.Barcode = r.Barcode
	p.SalePrice = r.SalePrice
	p.SaleCurrencyID = r.SaleCurrencyID
	p.ShowForSale = r.ShowForSale
	p.StockLimit = r.StockLimit
	p.AlertLimit = r.AlertLimit
	p.Description = r.Description
	p.ImageURL = r.ImageURL
	p.ParentID = r.ParentID
	p.IsFolder = r.IsFolder
	p.Attributes = r.Attributes
	return p
}

// UpdateProductRequest is the request body for updating a product.
// AverageCost is absent on purpose: it is derived from entry movements
// and never set by hand.
type UpdateProductRequest struct {
	Code           string              `json:"code"`
	Name           string              `json:"name" binding:"required"`
	Type           product.ProductType `json:"type" binding:"required"`
	Barcode        *string             `json:"barcode,omitempty"`
	Measure        product.Measure     `json:"measure"`
	SalePrice      decimal.Decimal     `json:"salePrice"`
	SaleCurrencyID *string             `json:"saleCurrencyId,omitempty"`
	ShowForSale    bool                `json:"showForSale"`
	StockLimit     bool                `json:"stockLimit"`
	AlertLimit     decimal.Decimal     `json:"alertLimit"`
	Description    *string             `json:"description,omitempty"`
	ImageURL       *string             `json:"imageUrl,omitempty"`
	ParentID       *string             `json:"parentId,omitempty"`
	IsFolder       bool                `json:"isFolder"`
	Attributes     entity.Attributes   `json:"attributes"`
	Version        int                 `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	p.Code = r.Code
	p.Name = r.Name
	p.Type = r.Type
	p.Barcode = r.Barcode
	if r.Measure != "" {
		p.Measure = r.Measure
	}
	p.SalePrice = r.SalePrice
	p.SaleCurrencyID = r.SaleCurrencyID
	p.ShowForSale = r.ShowForSale
	p.StockLimit = r.StockLimit
	p.AlertLimit = r.AlertLimit
	p.Description = r.Description
	p.ImageURL = r.ImageURL
	p.ParentID = r.ParentID
	p.IsFolder = r.IsFolder
	p.Attributes = r.Attributes
	p.Version = r.Version
}

// --- Response DTOs ---

// ProductResponse is the response body for a product.
type ProductResponse struct {
	ID             string              `json:"id"`
	Code           string              `json:"code"`
	Name           string              `json:"name"`
	Type           product.ProductType `json:"type"`
	Barcode        *string             `json:"barcode,omitempty"`
	Measure        product.Measure     `json:"measure"`
	AverageCost    decimal.Decimal     `json:"averageCost"`
	SalePrice      decimal.Decimal     `json:"salePrice"`
	SaleCurrencyID *string             `json:"saleCurrencyId,omitempty"`
	ShowForSale    bool                `json:"showForSale"`
	StockLimit     bool                `json:"stockLimit"`
	AlertLimit     decimal.Decimal     `json:"alertLimit"`
	Description    *string             `json:"description,omitempty"`
	ImageURL       *string             `json:"imageUrl,omitempty"`
	ParentID       *string             `json:"parentId,omitempty"`
	IsFolder       bool                `json:"isFolder"`
	DeletionMark   bool                `json:"deletionMark"`
	Version        int                 `json:"version"`
	Attributes     entity.Attributes   `json:"attributes,omitempty"`
}

// FromProduct creates response DTO from domain entity.
func FromProduct(p *product.Product) *ProductResponse {
	return &ProductResponse{
		ID:             p.ID.String(),
		Code:           p.Code,
		Name:           p.Name,
		Type:           p.Type,
		Barcode:        p.Barcode,
		Measure:        p.Measure,
		AverageCost:    p.AverageCost,
		SalePrice:      p.SalePrice,
		SaleCurrencyID: p.SaleCurrencyID,
		ShowForSale:    p.ShowForSale,
		StockLimit:     p.StockLimit,
		AlertLimit:     p.AlertLimit,
		Description:    p.Description,
		ImageURL:       p.ImageURL,
		ParentID:       p.ParentID,
		IsFolder:       p.IsFolder,
		DeletionMark:   p.DeletionMark,
		Version:        p.Version,
		Attributes:     p.Attributes,
	}
}
