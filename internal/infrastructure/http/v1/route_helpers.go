// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"poscore/internal/core/security"
	"poscore/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler defines the interface for catalog handlers.
// All catalog handlers must implement these methods.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetDeletionMark(c *gin.Context)
	GetTree(c *gin.Context)
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
// This eliminates the need to manually wire up routes for each catalog.
//
// Usage:
//
//	repo := catalog_repo.NewCurrencyRepo()
//	service := currency.NewService(repo, cfg.Numerator)
//	handler := handlers.NewCurrencyHandler(baseHandler, service)
//	RegisterCatalogRoutes(catalogs.Group("/currencies"), handler)
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler) {
	group.GET("", middleware.RequirePermission(string(security.PermissionRead)), handler.List)
	group.POST("", middleware.RequirePermission(string(security.PermissionCreate)), handler.Create)
	group.GET("/:id", middleware.RequirePermission(string(security.PermissionRead)), handler.Get)
	group.PUT("/:id", middleware.RequirePermission(string(security.PermissionUpdate)), handler.Update)
	group.DELETE("/:id", middleware.RequirePermission(string(security.PermissionDelete)), handler.Delete)
	group.POST("/:id/deletion-mark", middleware.RequirePermission(string(security.PermissionDelete)), handler.SetDeletionMark)
	group.GET("/tree", middleware.RequirePermission(string(security.PermissionRead)), handler.GetTree)
}
