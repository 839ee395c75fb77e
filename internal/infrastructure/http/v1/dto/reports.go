package dto

import (
	"time"

	"poscore/internal/domain/reports"
)

// --- Stock Balance Report ---

// StockBalanceReportRequest represents request for stock balance report.
type StockBalanceReportRequest struct {
	AsOfDate    *time.Time `form:"asOfDate"`
	AreaIDs     []string   `form:"areaId"`
	ProductIDs  []string   `form:"productId"`
	ExcludeZero *bool      `form:"excludeZero"`
	Limit       int        `form:"limit"`
	Offset      int        `form:"offset"`
}

// StockBalanceReportResponse represents stock balance report response.
type StockBalanceReportResponse struct {
	AsOfDate      string                           `json:"asOfDate"`
	Items         []StockBalanceReportItemResponse `json:"items"`
	TotalItems    int                              `json:"totalItems"`
	TotalQuantity float64                          `json:"totalQuantity"`
	TotalCost     string                           `json:"totalCost"`
}

// StockBalanceReportItemResponse represents a single item in stock balance report.
type StockBalanceReportItemResponse struct {
	AreaID      string  `json:"areaId"`
	AreaName    string  `json:"areaName"`
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	ProductCode string  `json:"productCode,omitempty"`
	Quantity    float64 `json:"quantity"`
	AverageCost string  `json:"averageCost"`
	TotalCost   string  `json:"totalCost"`
}

// FromStockBalanceReport converts domain report to response DTO.
func FromStockBalanceReport(r *reports.StockBalanceReport) *StockBalanceReportResponse {
	resp := &StockBalanceReportResponse{
		AsOfDate:      r.AsOfDate.Format(time.RFC3339),
		Items:         make([]StockBalanceReportItemResponse, len(r.Items)),
		TotalItems:    r.TotalItems,
		TotalQuantity: r.TotalQuantity,
		TotalCost:     r.TotalCost.String(),
	}

	for i, item := range r.Items {
		resp.Items[i] = StockBalanceReportItemResponse{
			AreaID:      item.AreaID.String(),
			AreaName:    item.AreaName,
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			ProductCode: item.ProductCode,
			Quantity:    item.Quantity,
			AverageCost: item.AverageCost.String(),
			TotalCost:   item.TotalCost.String(),
		}
	}

	return resp
}

// --- Stock Turnover Report ---

// StockTurnoverReportRequest represents request for stock turnover report.
type StockTurnoverReportRequest struct {
	FromDate    time.Time  `form:"fromDate" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	ToDate      time.Time  `form:"toDate" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	AreaIDs     []string   `form:"areaId"`
	ProductIDs  []string   `form:"productId"`
	IncludeZero *bool      `form:"includeZero"`
	Limit       int        `form:"limit"`
	Offset      int        `form:"offset"`
}

// StockTurnoverReportResponse represents stock turnover report response.
type StockTurnoverReportResponse struct {
	FromDate     string                            `json:"fromDate"`
	ToDate       string                            `json:"toDate"`
	Items        []StockTurnoverReportItemResponse `json:"items"`
	TotalItems   int                               `json:"totalItems"`
	TotalEntries float64                           `json:"totalEntries"`
	TotalOuts    float64                           `json:"totalOuts"`
	TotalWaste   float64                           `json:"totalWaste"`
}

// StockTurnoverReportItemResponse represents a single item in turnover report.
type StockTurnoverReportItemResponse struct {
	AreaID         string  `json:"areaId,omitempty"`
	AreaName       string  `json:"areaName,omitempty"`
	ProductID      string  `json:"productId,omitempty"`
	ProductName    string  `json:"productName,omitempty"`
	ProductCode    string  `json:"productCode,omitempty"`
	OpeningBalance float64 `json:"openingBalance"`
	Entries        float64 `json:"entries"`
	Outs           float64 `json:"outs"`
	Waste          float64 `json:"waste"`
	ClosingBalance float64 `json:"closingBalance"`
}

// FromStockTurnoverReport converts domain report to response DTO.
func FromStockTurnoverReport(r *reports.StockTurnoverReport) *StockTurnoverReportResponse {
	resp := &StockTurnoverReportResponse{
		FromDate:     r.FromDate.Format(time.RFC3339),
		ToDate:       r.ToDate.Format(time.RFC3339),
		Items:        make([]StockTurnoverReportItemResponse, len(r.Items)),
		TotalItems:   r.TotalItems,
		TotalEntries: r.TotalEntries,
		TotalOuts:    r.TotalOuts,
		TotalWaste:   r.TotalWaste,
	}

	for i, item := range r.Items {
		resp.Items[i] = StockTurnoverReportItemResponse{
			AreaID:         item.AreaID.String(),
			AreaName:       item.AreaName,
			ProductID:      item.ProductID.String(),
			ProductName:    item.ProductName,
			ProductCode:    item.ProductCode,
			OpeningBalance: item.OpeningBalance,
			Entries:        item.Entries,
			Outs:           item.Outs,
			Waste:          item.Waste,
			ClosingBalance: item.ClosingBalance,
		}
	}

	return resp
}
