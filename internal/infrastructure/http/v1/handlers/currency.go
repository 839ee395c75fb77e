package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"poscore/internal/core/apperror"
	"poscore/internal/core/id"
	"poscore/internal/domain/catalogs/currency"
	"poscore/internal/infrastructure/http/v1/dto"
)

// CurrencyHTTPHandler is a type alias to shorten signatures.
type CurrencyHTTPHandler = CatalogHandler[
	*currency.Currency,
	dto.CreateCurrencyRequest,
	dto.UpdateCurrencyRequest,
]

// NewCurrencyHandler creates a configured generic handler for currencies.
func NewCurrencyHandler(
	base *BaseHandler,
	service *currency.Service,
) *CurrencyHTTPHandler {

	config := CatalogHandlerConfig[
		*currency.Currency,
		dto.CreateCurrencyRequest,
		dto.UpdateCurrencyRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "currency",

		MapCreateDTO: func(req dto.CreateCurrencyRequest) (*currency.Currency, error) {
			return req.ToEntity(), nil
		},

		MapUpdateDTO: func(req dto.UpdateCurrencyRequest, existing *currency.Currency) (*currency.Currency, error) {
			req.ApplyTo(existing)
			return existing, nil
		},

		MapToDTO: func(entity *currency.Currency) any {
			return dto.FromCurrency(entity)
		},
	}

	return NewCatalogHandler(base, config)
}

// CurrencyExtraHandler serves the currency endpoints that fall outside generic CRUD.
type CurrencyExtraHandler struct {
	*BaseHandler
	service *currency.Service
}

// NewCurrencyExtraHandler creates the extra currency handler.
func NewCurrencyExtraHandler(base *BaseHandler, service *currency.Service) *CurrencyExtraHandler {
	return &CurrencyExtraHandler{BaseHandler: base, service: service}
}

// GetMain handles GET /currencies/main
func (h *CurrencyExtraHandler) GetMain(c *gin.Context) {
	curr, err := h.service.GetMain(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromCurrency(curr))
}

// SetExchangeRate handles PUT /currencies/:id/exchange-rate
func (h *CurrencyExtraHandler) SetExchangeRate(c *gin.Context) {
	currencyID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SetExchangeRateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetExchangeRate(c.Request.Context(), currencyID, req.ExchangeRate); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "exchange rate updated")
}
