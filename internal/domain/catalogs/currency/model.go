// Package currency provides the Currency catalog.
// Currencies represent monetary units accepted by a business, with exchange
// rates against the main currency.
package currency

import (
	"context"
	"regexp"

	"github.com/shopspring/decimal"

	"poscore/internal/core/apperror"
	"poscore/internal/core/entity"
)

// Currency represents a monetary unit.
type Currency struct {
	entity.Catalog

	// ISOCode is the ISO 4217 alphabetic code (e.g., "USD", "EUR", "CUP")
	ISOCode *string `db:"iso_code" json:"isoCode"`

	// Symbol is the currency symbol (e.g., "$", "€")
	Symbol *string `db:"symbol" json:"symbol"`

	// DecimalPlaces is the number of decimal places
	DecimalPlaces int `db:"decimal_places" json:"decimalPlaces"`

	// IsMain indicates the main (accounting) currency of the business
	IsMain bool `db:"is_main" json:"isMain"`

	// IsActive indicates the currency is accepted for payments
	IsActive bool `db:"is_active" json:"isActive"`

	// ExchangeRate is the rate against the main currency (main currency = 1)
	ExchangeRate decimal.Decimal `db:"exchange_rate" json:"exchangeRate"`
}

// NewCurrency creates a new Currency with required fields.
func NewCurrency(code, name string, isoCode, symbol *string) *Currency {
	return &Currency{
		Catalog:       entity.NewCatalog(code, name),
		ISOCode:       isoCode,
		Symbol:        symbol,
		DecimalPlaces: 2,
		IsActive:      true,
		ExchangeRate:  decimal.NewFromInt(1),
	}
}

// Validate implements entity.Validatable interface.
func (c *Currency) Validate(ctx context.Context) error {
	// Base catalog validation
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	// ISO code is required and must be 3 uppercase letters
	if !isValidISOCode(c.ISOCode) {
		return apperror.NewValidation("ISO code must be 3 uppercase letters").
			WithDetail("field", "isoCode").
			WithDetail("value", c.ISOCode)
	}

	// Symbol is required
	if c.Symbol == nil || *c.Symbol == "" {
		return apperror.NewValidation("symbol is required").
			WithDetail("field", "symbol")
	}

	// Decimal places must be non-negative
	if c.DecimalPlaces < 0 || c.DecimalPlaces > 8 {
		return apperror.NewValidation("decimal places must be between 0 and 8").
			WithDetail("field", "decimalPlaces")
	}

	// Exchange rate must be positive; main currency is always 1
	if !c.ExchangeRate.IsPositive() {
		return apperror.NewValidation("exchange rate must be positive").
			WithDetail("field", "exchangeRate")
	}
	if c.IsMain && !c.ExchangeRate.Equal(decimal.NewFromInt(1)) {
		return apperror.NewValidation("main currency exchange rate must be 1").
			WithDetail("field", "exchangeRate")
	}

	return nil
}

// Format formats an amount according to currency settings.
func (c *Currency) Format(amount decimal.Decimal) string {
	rounded := amount.Round(int32(c.DecimalPlaces))
	formatted := rounded.StringFixed(int32(c.DecimalPlaces))
	return formatted + *c.Symbol
}

// ToMain converts an amount in this currency to the main currency.
func (c *Currency) ToMain(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(c.ExchangeRate)
}

// --- Validation Helpers ---

func isValidISOCode(code *string) bool {
	if code == nil {
		return false
	}
	return regexp.MustCompile(`^[A-Z]{3}$`).MatchString(*code)
}
