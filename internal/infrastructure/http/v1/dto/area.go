package dto

import (
	"poscore/internal/core/entity"
	"poscore/internal/domain/catalogs/area"
)

// --- Request DTOs ---

// CreateAreaRequest is the request body for creating an area.
type CreateAreaRequest struct {
	Code               string            `json:"code"`
	Name               string            `json:"name" binding:"required"`
	Type               area.AreaType     `json:"type" binding:"required"`
	IsActive           bool              `json:"isActive"`
	IsMain             bool              `json:"isMain"`
	AllowNegativeStock bool              `json:"allowNegativeStock"`
	GiveWorkOnShift    bool              `json:"giveWorkOnShift"`
	Address            *string           `json:"address"`
	Description        *string           `json:"description"`
	SalesCurrencyID    *string           `json:"salesCurrencyId"`
	StockAreaID        *string           `json:"stockAreaId"`
	ParentID           *string           `json:"parentId"`
	IsFolder           bool              `json:"isFolder"`
	Attributes         entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateAreaRequest) ToEntity() (*area.Area, error) {
	a := area.NewArea(r.Code, r.Name, r.Type)
	a.IsActive = r.IsActive
	a.IsMain = r.IsMain
	a.AllowNegativeStock = r.AllowNegativeStock
	a.GiveWorkOnShift = r.GiveWorkOnShift
	a.Address = r.Address
	a.Description = r.Description
	a.ParentID = r.ParentID
	a.IsFolder = r.IsFolder
	a.Attributes = r.Attributes

	var err error
	if a.SalesCurrencyID, err = parseIDPtr(r.SalesCurrencyID); err != nil {
		return nil, err
	}
	if a.StockAreaID, err = parseIDPtr(r.StockAreaID); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateAreaRequest is the request body for updating an area.
type UpdateAreaRequest struct {
	Code               string            `json:"code"`
	Name               string            `json:"name" binding:"required"`
	Type               area.AreaType     `json:"type" binding:"required"`
	IsActive           bool              `json:"isActive"`
	IsMain             bool              `json:"isMain"`
	AllowNegativeStock bool              `json:"allowNegativeStock"`
	GiveWorkOnShift    bool              `json:"giveWorkOnShift"`
	Address            *string           `json:"address,omitempty"`
	Description        *string           `json:"description,omitempty"`
	SalesCurrencyID    *string           `json:"salesCurrencyId,omitempty"`
	StockAreaID        *string           `json:"stockAreaId,omitempty"`
	ParentID           *string           `json:"parentId,omitempty"`
	IsFolder           bool              `json:"isFolder"`
	Attributes         entity.Attributes `json:"attributes"`
	Version            int               `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateAreaRequest) ApplyTo(a *area.Area) error {
	a.Code = r.Code
	a.Name = r.Name
	a.Type = r.Type
	a.IsActive = r.IsActive
	a.IsMain = r.IsMain
	a.AllowNegativeStock = r.AllowNegativeStock
	a.GiveWorkOnShift = r.GiveWorkOnShift
	a.Address = r.Address
	a.Description = r.Description
	a.ParentID = r.ParentID
	a.IsFolder = r.IsFolder
	a.Attributes = r.Attributes
	a.Version = r.Version

	var err error
	if a.SalesCurrencyID, err = parseIDPtr(r.SalesCurrencyID); err != nil {
		return err
	}
	if a.StockAreaID, err = parseIDPtr(r.StockAreaID); err != nil {
		return err
	}
	return nil
}

// --- Response DTOs ---

// AreaResponse is the response body for an area.
type AreaResponse struct {
	ID                 string            `json:"id"`
	Code               string            `json:"code"`
	Name               string            `json:"name"`
	Type               area.AreaType     `json:"type"`
	IsActive           bool              `json:"isActive"`
	IsMain             bool              `json:"isMain"`
	AllowNegativeStock bool              `json:"allowNegativeStock"`
	GiveWorkOnShift    bool              `json:"giveWorkOnShift"`
	Address            *string           `json:"address,omitempty"`
	Description        *string           `json:"description,omitempty"`
	SalesCurrencyID    *string           `json:"salesCurrencyId,omitempty"`
	StockAreaID        *string           `json:"stockAreaId,omitempty"`
	ParentID           *string           `json:"parentId,omitempty"`
	IsFolder           bool              `json:"isFolder"`
	DeletionMark       bool              `json:"deletionMark"`
	Version            int               `json:"version"`
	Attributes         entity.Attributes `json:"attributes,omitempty"`
}

// FromArea creates response DTO from domain entity.
func FromArea(a *area.Area) *AreaResponse {
	return &AreaResponse{
		ID:                 a.ID.String(),
		Code:               a.Code,
		Name:               a.Name,
		Type:               a.Type,
		IsActive:           a.IsActive,
		IsMain:             a.IsMain,
		AllowNegativeStock: a.AllowNegativeStock,
		GiveWorkOnShift:    a.GiveWorkOnShift,
		Address:            a.Address,
		Description:        a.Description,
		SalesCurrencyID:    idPtrToString(a.SalesCurrencyID),
		StockAreaID:        idPtrToString(a.StockAreaID),
		ParentID:           a.ParentID,
		IsFolder:           a.IsFolder,
		DeletionMark:       a.DeletionMark,
		Version:            a.Version,
		Attributes:         a.Attributes,
	}
}
