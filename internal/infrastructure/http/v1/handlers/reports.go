package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"poscore/internal/core/apperror"
	"poscore/internal/core/id"
	"poscore/internal/domain/reports"
	"poscore/internal/infrastructure/http/v1/dto"
)

// ReportHandler handles financial and stock report endpoints.
type ReportHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportHandler creates a new report handler.
func NewReportHandler(base *BaseHandler, service *reports.Service) *ReportHandler {
	return &ReportHandler{
		BaseHandler: base,
		service:     service,
	}
}

// CycleIncomes handles GET /reports/cycle-incomes/:cycleId
func (h *ReportHandler) CycleIncomes(c *gin.Context) {
	cycleID, err := id.Parse(c.Param("cycleId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid cycleId format"))
		return
	}

	report, err := h.service.GetCycleIncomes(c.Request.Context(), cycleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// StockBalance handles GET /reports/stock-balance
func (h *ReportHandler) StockBalance(c *gin.Context) {
	var req dto.StockBalanceReportRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter := reports.StockBalanceFilter{
		AsOfDate: req.AsOfDate,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	if req.ExcludeZero != nil {
		filter.ExcludeZero = *req.ExcludeZero
	}

	var ok bool
	if filter.AreaIDs, ok = h.parseIDs(c, req.AreaIDs, "areaId"); !ok {
		return
	}
	if filter.ProductIDs, ok = h.parseIDs(c, req.ProductIDs, "productId"); !ok {
		return
	}

	report, err := h.service.GetStockBalance(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromStockBalanceReport(report))
}

// StockTurnover handles GET /reports/stock-turnover
func (h *ReportHandler) StockTurnover(c *gin.Context) {
	var req dto.StockTurnoverReportRequest
	if !h.BindQuery(c, &req) {
		return
	}

	if !req.ToDate.After(req.FromDate) {
		h.Error(c, apperror.NewValidation("toDate must be after fromDate"))
		return
	}

	filter := reports.StockTurnoverFilter{
		FromDate: req.FromDate,
		ToDate:   req.ToDate,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	if req.IncludeZero != nil {
		filter.IncludeZero = *req.IncludeZero
	}

	var ok bool
	if filter.AreaIDs, ok = h.parseIDs(c, req.AreaIDs, "areaId"); !ok {
		return
	}
	if filter.ProductIDs, ok = h.parseIDs(c, req.ProductIDs, "productId"); !ok {
		return
	}

	report, err := h.service.GetStockTurnover(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromStockTurnoverReport(report))
}

// parseIDs converts raw query values to typed IDs, reporting the first bad one.
func (h *ReportHandler) parseIDs(c *gin.Context, raw []string, field string) ([]id.ID, bool) {
	if len(raw) == 0 {
		return nil, true
	}
	out := make([]id.ID, len(raw))
	for i, s := range raw {
		parsed, err := id.Parse(s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid "+field+" format").WithDetail("value", s))
			return nil, false
		}
		out[i] = parsed
	}
	return out, true
}
