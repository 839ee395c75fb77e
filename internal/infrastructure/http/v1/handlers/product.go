package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"poscore/internal/domain/catalogs/product"
	"poscore/internal/infrastructure/http/v1/dto"
)

// ProductHTTPHandler is a type alias to shorten signatures.
type ProductHTTPHandler = CatalogHandler[
	*product.Product,
	dto.CreateProductRequest,
	dto.UpdateProductRequest,
]

// NewProductHandler creates a configured generic handler for products.
func NewProductHandler(
	base *BaseHandler,
	service *product.Service,
) *ProductHTTPHandler {

	config := CatalogHandlerConfig[
		*product.Product,
		dto.CreateProductRequest,
		dto.UpdateProductRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "product",

		MapCreateDTO: func(req dto.CreateProductRequest) (*product.Product, error) {
			return req.ToEntity(), nil
		},

		MapUpdateDTO: func(req dto.UpdateProductRequest, existing *product.Product) (*product.Product, error) {
			req.ApplyTo(existing)
			return existing, nil
		},

		MapToDTO: func(entity *product.Product) any {
			return dto.FromProduct(entity)
		},
	}

	return NewCatalogHandler(base, config)
}

// ProductExtraHandler serves the product endpoints that fall outside generic CRUD.
type ProductExtraHandler struct {
	*BaseHandler
	service *product.Service
}

// NewProductExtraHandler creates the extra product handler.
func NewProductExtraHandler(base *BaseHandler, service *product.Service) *ProductExtraHandler {
	return &ProductExtraHandler{BaseHandler: base, service: service}
}

// GetByBarcode handles GET /products/barcode/:barcode
func (h *ProductExtraHandler) GetByBarcode(c *gin.Context) {
	p, err := h.service.GetByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProduct(p))
}
