package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"poscore/internal/core/apperror"
	"poscore/internal/core/id"
	"poscore/internal/domain/shifts"
	"poscore/internal/infrastructure/http/v1/dto"
)

// ShiftHandler handles shift endpoints.
type ShiftHandler struct {
	*BaseHandler
	service *shifts.Service
}

// NewShiftHandler creates a new shift handler.
func NewShiftHandler(base *BaseHandler, service *shifts.Service) *ShiftHandler {
	return &ShiftHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Open handles POST /shifts - open a shift on a sale area.
func (h *ShiftHandler) Open(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.OpenShiftRequest
	if !h.BindJSON(c, &req) {
		return
	}

	areaID, err := id.Parse(req.AreaID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid area id format"))
		return
	}

	shift, err := h.service.Open(ctx, areaID, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromShift(shift))
}

// Close handles POST /shifts/:id/close and POST /shifts/close.
func (h *ShiftHandler) Close(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CloseShiftRequest
	if !h.BindJSON(c, &req) {
		return
	}

	raw := c.Param("id")
	if raw == "" {
		raw = req.ShiftID
	}
	shiftID, err := id.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid shift id format"))
		return
	}

	shift, err := h.service.Close(ctx, shiftID, h.GetUserID(c), req.Observations)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromShift(shift))
}

// Get handles GET /shifts/:id
func (h *ShiftHandler) Get(c *gin.Context) {
	shiftID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	shift, err := h.service.GetByID(c.Request.Context(), shiftID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromShift(shift))
}

// GetOpenByArea handles GET /shifts/open?areaId=...
func (h *ShiftHandler) GetOpenByArea(c *gin.Context) {
	areaID, err := id.Parse(c.Query("areaId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid areaId format"))
		return
	}

	shift, err := h.service.GetOpenByArea(c.Request.Context(), areaID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromShift(shift))
}

// List handles GET /shifts
func (h *ShiftHandler) List(c *gin.Context) {
	filter := shifts.ListFilter{
		Limit:   h.ParseIntQuery(c, "limit", 50),
		Offset:  h.ParseIntQuery(c, "offset", 0),
		OrderBy: c.Query("orderBy"),
	}

	if raw := c.Query("cycleId"); raw != "" {
		cycleID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid cycleId format"))
			return
		}
		filter.CycleID = &cycleID
	}
	if raw := c.Query("areaId"); raw != "" {
		areaID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid areaId format"))
			return
		}
		filter.AreaID = &areaID
	}
	if status := c.Query("status"); status != "" {
		s := shifts.Status(status)
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
	for i, s := range result.Items {
		items[i] = dto.FromShift(s)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
