package dto

import (
	"github.com/shopspring/decimal"

	"poscore/internal/core/entity"
	"poscore/internal/domain/catalogs/currency"
)

// --- Request DTOs ---

// CreateCurrencyRequest is the request body for creating a currency.
type CreateCurrencyRequest struct {
	Code          string            `json:"code"`
	Name          string            `json:"name" binding:"required"`
	ISOCode       *string           `json:"isoCode" binding:"required"`
	Symbol        *string           `json:"symbol" binding:"required"`
	DecimalPlaces *int              `json:"decimalPlaces"`
	IsMain        bool              `json:"isMain"`
	IsActive      bool              `json:"isActive"`
	ExchangeRate  *decimal.Decimal  `json:"exchangeRate"`
	Attributes    entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateCurrencyRequest) ToEntity() *currency.Currency {
	c := currency.NewCurrency(r.Code, r.Name, r.ISOCode, r.Symbol)
	if r.DecimalPlaces != nil {
		c.DecimalPlaces = *r.DecimalPlaces
	}
	c.IsMain = r.IsMain
	c.IsActive = r.IsActive
	if r.ExchangeRate != nil {
		c.ExchangeRate = *r.ExchangeRate
	}
	c.Attributes = r.Attributes
	return c
}

// UpdateCurrencyRequest is the request body for updating a currency.
type UpdateCurrencyRequest struct {
	Code          string            `json:"code"`
	Name          string            `json:"name" binding:"required"`
	ISOCode       *string           `json:"isoCode" binding:"required"`
	Symbol        *string           `json:"symbol" binding:"required"`
	DecimalPlaces int               `json:"decimalPlaces"`
	IsMain        bool              `json:"isMain"`
	IsActive      bool              `json:"isActive"`
	ExchangeRate  decimal.Decimal   `json:"exchangeRate"`
	Attributes    entity.Attributes `json:"attributes"`
	Version       int               `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateCurrencyRequest) ApplyTo(c *currency.Currency) {
	c.Code = r.Code
	c.Name = r.Name
	c.ISOCode = r.ISOCode
	c.Symbol = r.Symbol
	c.DecimalPlaces = r.DecimalPlaces
	c.IsMain = r.IsMain
	c.IsActive = r.IsActive
	c.ExchangeRate = r.ExchangeRate
	c.Attributes = r.Attributes
	c.Version = r.Version
}

// SetExchangeRateRequest updates the rate of a non-main currency.
type SetExchangeRateRequest struct {
	ExchangeRate decimal.Decimal `json:"exchangeRate" binding:"required"`
}

// --- Response DTOs ---

// CurrencyResponse is the response body for a currency.
type CurrencyResponse struct {
	ID            string            `json:"id"`
	Code          string            `json:"code"`
	Name          string            `json:"name"`
	ISOCode       *string           `json:"isoCode"`
	Symbol        *string           `json:"symbol"`
	DecimalPlaces int               `json:"decimalPlaces"`
	IsMain        bool              `json:"isMain"`
	IsActive      bool              `json:"isActive"`
	ExchangeRate  decimal.Decimal   `json:"exchangeRate"`
	DeletionMark  bool              `json:"deletionMark"`
	Version       int               `json:"version"`
	Attributes    entity.Attributes `json:"attributes,omitempty"`
}

// FromCurrency creates response DTO from domain entity.
func FromCurrency(c *currency.Currency) *CurrencyResponse {
	return &CurrencyResponse{
		ID:            c.ID.String(),
		Code:          c.Code,
		Name:          c.Name,
		ISOCode:       c.ISOCode,
		Symbol:        c.Symbol,
		DecimalPlaces: c.DecimalPlaces,
		IsMain:        c.IsMain,
		IsActive:      c.IsActive,
		ExchangeRate:  c.ExchangeRate,
		DeletionMark:  c.DeletionMark,
		Version:       c.Version,
		Attributes:    c.Attributes,
	}
}
