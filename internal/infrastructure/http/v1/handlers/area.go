package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"poscore/internal/domain/catalogs/area"
	"poscore/internal/infrastructure/http/v1/dto"
)

// AreaHTTPHandler is a type alias to shorten signatures.
type AreaHTTPHandler = CatalogHandler[
	*area.Area,
	dto.CreateAreaRequest,
	dto.UpdateAreaRequest,
]

// NewAreaHandler creates a configured generic handler for areas.
func NewAreaHandler(
	base *BaseHandler,
	service *area.Service,
) *AreaHTTPHandler {

	config := CatalogHandlerConfig[
		*area.Area,
		dto.CreateAreaRequest,
		dto.UpdateAreaRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "area",

		MapCreateDTO: func(req dto.CreateAreaRequest) (*area.Area, error) {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateAreaRequest, existing *area.Area) (*area.Area, error) {
			if err := req.ApplyTo(existing); err != nil {
				return nil, err
			}
			return existing, nil
		},

		MapToDTO: func(entity *area.Area) any {
			return dto.FromArea(entity)
		},
	}

	return NewCatalogHandler(base, config)
}

// AreaExtraHandler serves the area endpoints that fall outside generic CRUD.
type AreaExtraHandler struct {
	*BaseHandler
	service *area.Service
}

// NewAreaExtraHandler creates the extra area handler.
func NewAreaExtraHandler(base *BaseHandler, service *area.Service) *AreaExtraHandler {
	return &AreaExtraHandler{BaseHandler: base, service: service}
}

// ListStock handles GET /areas/stock - active stock-holding areas.
func (h *AreaExtraHandler) ListStock(c *gin.Context) {
	areas, err := h.service.ListStockAreas(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(areas))
	for i, a := range areas {
		items[i] = dto.FromArea(a)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ListSale handles GET /areas/sale - active sale areas.
func (h *AreaExtraHandler) ListSale(c *gin.Context) {
	areas, err := h.service.ListSaleAreas(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(areas))
	for i, a := range areas {
		items[i] = dto.FromArea(a)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
