package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"poscore/internal/core/apperror"
	"poscore/internal/core/id"
	"poscore/internal/domain/cycles"
	"poscore/internal/infrastructure/http/v1/dto"
)

// CycleHandler handles economic cycle endpoints.
type CycleHandler struct {
	*BaseHandler
	service *cycles.Service
}

// NewCycleHandler creates a new cycle handler.
func NewCycleHandler(base *BaseHandler, service *cycles.Service) *CycleHandler {
	return &CycleHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Open handles POST /cycles - open a new economic cycle.
func (h *CycleHandler) Open(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.OpenCycleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cycle, err := h.service.Open(ctx, cycles.OpenInput{
		Name:         req.Name,
		Observations: req.Observations,
		OpenedBy:     h.GetUserID(c),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromCycle(cycle))
}

// Close handles POST /cycles/close - close the open cycle.
func (h *CycleHandler) Close(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CloseCycleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cycle, err := h.service.Close(ctx, cycles.CloseInput{
		Observations: req.Observations,
		ClosedBy:     h.GetUserID(c),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromCycle(cycle))
}

// Hold handles POST /cycles/hold - pause the active cycle.
func (h *CycleHandler) Hold(c *gin.Context) {
	cycle, err := h.service.Hold(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromCycle(cycle))
}

// Resume handles POST /cycles/resume - reactivate the cycle on hold.
func (h *CycleHandler) Resume(c *gin.Context) {
	cycle, err := h.service.Resume(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromCycle(cycle))
}

// GetActive handles GET /cycles/active - the currently open cycle.
func (h *CycleHandler) GetActive(c *gin.Context) {
	cycle, err := h.service.GetActive(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromCycle(cycle))
}

// Get handles GET /cycles/:id
func (h *CycleHandler) Get(c *gin.Context) {
	cycleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	cycle, err := h.service.GetByID(c.Request.Context(), cycleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromCycle(cycle))
}

// List handles GET /cycles
func (h *CycleHandler) List(c *gin.Context) {
	filter := cycles.ListFilter{
		Limit:   h.ParseIntQuery(c, "limit", 50),
		Offset:  h.ParseIntQuery(c, "offset", 0),
		OrderBy: c.Query("orderBy"),
	}

	if status := c.Query("status"); status != "" {
		s := cycles.Status(status)
		filter.Status = &s
	}
	if from, ok := parseTimeQuery(c, "fromDate"); ok {
		filter.FromDate = from
	} else {
		h.Error(c, apperror.NewValidation("invalid fromDate format"))
		return
	}
	if to, ok := parseTimeQuery(c, "toDate"); ok {
		filter.ToDate = to
	} else {
		h.Error(c, apperror.NewValidation("invalid toDate format"))
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, cy := range result.Items {
		items[i] = dto.FromCycle(cy)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// parseTimeQuery reads an optional RFC3339 query parameter.
// The second return value is false only when the parameter is malformed.
func parseTimeQuery(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}
