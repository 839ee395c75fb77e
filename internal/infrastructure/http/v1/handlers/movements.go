package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"poscore/internal/core/apperror"
	"poscore/internal/core/id"
	"poscore/internal/domain/ledger"
	"poscore/internal/infrastructure/http/v1/dto"
)

// MovementHandler handles stock ledger endpoints.
type MovementHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewMovementHandler creates a new movement handler.
func NewMovementHandler(base *BaseHandler, service *ledger.Service) *MovementHandler {
	return &MovementHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Record handles POST /movements - record an entry, out, waste or adjust.
func (h *MovementHandler) Record(c *gin.Context) {
	h.record(c, "")
}

// RecordAs returns a handler for the per-operation routes
// (POST /movements/entry, /out, /waste, /adjust); the operation comes
// from the path and overrides whatever the body carries.
func (h *MovementHandler) RecordAs(op ledger.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.record(c, op)
	}
}

func (h *MovementHandler) record(c *gin.Context, forced ledger.Operation) {
	ctx := c.Request.Context()

	var req dto.RecordMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if forced != "" {
		req.Operation = forced
	}
	if req.Operation == "" {
		h.Error(c, apperror.NewValidation("operation is required").WithDetail("field", "operation"))
		return
	}

	input, err := req.ToInput(h.GetUserID(c))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid reference id format").WithDetail("error", err.Error()))
		return
	}

	movement, err := h.service.Record(ctx, input)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromMovement(movement))
}

// Move handles POST /movements/move - transfer stock between areas.
func (h *MovementHandler) Move(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.MoveStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput(h.GetUserID(c))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid reference id format").WithDetail("error", err.Error()))
		return
	}

	source, dest, err := h.service.Move(ctx, input)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"source":      dto.FromMovement(source),
		"destination": dto.FromMovement(dest),
	})
}

// BulkEntry handles POST /movements/bulk - record several entries atomically.
func (h *MovementHandler) BulkEntry(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.BulkEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	createdBy := h.GetUserID(c)
	inputs := make([]ledger.RecordInput, len(req.Items))
	for i, item := range req.Items {
		input, err := item.ToInput(createdBy)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid reference id format").WithDetail("error", err.Error()))
			return
		}
		inputs[i] = input
	}

	movements, err := h.service.BulkEntry(ctx, inputs)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"items": dto.FromMovements(movements)})
}

// Reverse handles DELETE /movements/:id - reverse a movement.
// The ledger is append-only: nothing is removed, a compensating row
// (or pair of rows for transfers) is written instead.
func (h *MovementHandler) Reverse(c *gin.Context) {
	ctx := c.Request.Context()

	movementID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	reversals, err := h.service.Reverse(ctx, movementID, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": dto.FromMovements(reversals)})
}

// Get handles GET /movements/:id
func (h *MovementHandler) Get(c *gin.Context) {
	movementID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	movement, err := h.service.GetByID(c.Request.Context(), movementID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromMovement(movement))
}

// GetBalance handles GET /movements/balance?areaId=...&productId=...
func (h *MovementHandler) GetBalance(c *gin.Context) {
	areaID, err := id.Parse(c.Query("areaId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid areaId format"))
		return
	}
	productID, err := id.Parse(c.Query("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	qty, err := h.service.GetBalance(c.Request.Context(), areaID, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		AreaID:    areaID.String(),
		ProductID: productID.String(),
		Quantity:  qty.Float64(),
	})
}

// GetAreaBalances handles GET /movements/balances/:areaId
func (h *MovementHandler) GetAreaBalances(c *gin.Context) {
	areaID, err := id.Parse(c.Param("areaId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid areaId format"))
		return
	}

	balances, err := h.service.GetAreaBalances(c.Request.Context(), areaID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.BalanceResponse, len(balances))
	for i, b := range balances {
		items[i] = dto.FromBalance(b)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// List handles GET /movements
func (h *MovementHandler) List(c *gin.Context) {
	filter := ledger.ListFilter{
		Limit:            h.ParseIntQuery(c, "limit", 50),
		Offset:           h.ParseIntQuery(c, "offset", 0),
		OrderBy:          c.Query("orderBy"),
		IncludeReversals: c.Query("includeReversals") == "true",
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
		!parseIDFilter("productId", &filter.ProductID) ||
		!parseIDFilter("cycleId", &filter.CycleID) ||
		!parseIDFilter("shiftId", &filter.ShiftID) {
		return
	}

	if op := c.Query("operation"); op != "" {
		operation := ledger.Operation(op)
		filter.Operation = &operation
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
	for i, m := range result.Items {
		items[i] = dto.FromMovement(m)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
