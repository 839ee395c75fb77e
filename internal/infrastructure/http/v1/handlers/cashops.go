package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"poscore/internal/core/apperror"
	"poscore/internal/core/id"
	"poscore/internal/domain/cashops"
	"poscore/internal/infrastructure/http/v1/dto"
)

// CashOperationHandler handles cash register endpoints.
type CashOperationHandler struct {
	*BaseHandler
	service *cashops.Service
}

// NewCashOperationHandler creates a new cash operation handler.
func NewCashOperationHandler(base *BaseHandler, service *cashops.Service) *CashOperationHandler {
	return &CashOperationHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Record handles POST /cashops - record a cash register operation.
func (h *CashOperationHandler) Record(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RecordCashOperationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput(h.GetUserID(c))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid area id format"))
		return
	}

	op, err := h.service.Record(ctx, input)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromCashOperation(op))
}

// Get handles GET /cashops/:id
func (h *CashOperationHandler) Get(c *gin.Context) {
	opID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	op, err := h.service.GetByID(c.Request.Context(), opID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromCashOperation(op))
}

// List handles GET /cashops
func (h *CashOperationHandler) List(c *gin.Context) {
	filter := cashops.ListFilter{
		Limit:   h.ParseIntQuery(c, "limit", 50),
		Offset:  h.ParseIntQuery(c, "offset", 0),
		OrderBy: c.Query("orderBy"),
	}

	parseIDFilter := func(key string, dst **id.ID) bool {
		raw := c.Query(key)
		if raw == "" {
			return true
		}
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid "+key+" format"))
			return false
		}
		*dst = &parsed
		return true
	}

	if !parseIDFilter("areaId", &filter.AreaID) ||
		!parseIDFilter("shiftId", &filter.ShiftID) ||
		!parseIDFilter("cycleId", &filter.CycleID) {
		return
	}

	if opType := c.Query("type"); opType != "" {
		t := cashops.OperationType(opType)
		filter.Type = &t
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
	for i, op := range result.Items {
		items[i] = dto.FromCashOperation(op)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// SumByCycle handles GET /cashops/totals/:cycleId
func (h *CashOperationHandler) SumByCycle(c *gin.Context) {
	cycleID, err := id.Parse(c.Param("cycleId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid cycleId format"))
		return
	}

	var areaID *id.ID
	if raw := c.Query("areaId"); raw != "" {
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid areaId format"))
			return
		}
		areaID = &parsed
	}

	totals, err := h.service.SumByCycle(c.Request.Context(), cycleID, areaID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": dto.FromTypeTotals(totals)})
}
