package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"poscore/internal/core/apperror"
	"poscore/internal/core/business"
	"poscore/internal/infrastructure/storage/postgres"
	"poscore/pkg/logger"
)

const (
	// BusinessHeader is the HTTP header for business identification.
	BusinessHeader = "X-Business-ID"
)

// BusinessDB middleware resolves business from header and injects database pool into context.
// This middleware MUST run before any database operations.
//
// Flow:
// 1. Extract business UUID from X-Business-ID header
// 2. Get pool from business.Manager
// 3. Create TxManager for this request
// 4. Inject pool, TxManager, and Business into context
func BusinessDB(manager *business.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		// 1. Extract business UUID from header
		rawBusinessID := c.GetHeader(BusinessHeader)
		if rawBusinessID == "" {
			_ = c.Error(
				apperror.NewValidation("business is required").
					WithDetail("header", BusinessHeader),
			)
			c.Abort()
			return
		}

		businessUUID, err := uuid.Parse(rawBusinessID)
		if err != nil {
			_ = c.Error(
				apperror.NewValidation("invalid business id").
					WithDetail("header", BusinessHeader).
					WithDetail("value", rawBusinessID),
			)
			c.Abort()
			return
		}
		businessID := businessUUID.String()

		// 2. Get pool from manager
		managedPool, err := manager.GetPool(ctx, businessID)
		if err != nil {
			logger.Warn(ctx, "business pool error", "business_id", businessID, "error", err)

			switch {
			case errors.Is(err, business.ErrBusinessNotFound):
				_ = c.Error(apperror.NewNotFound("business", businessID))
			case errors.Is(err, business.ErrBusinessNotActive):
				_ = c.Error(apperror.NewForbidden("business is not active").WithDetail("business_id", businessID))
			case errors.Is(err, business.ErrMaxPoolLimit):
				appErr := apperror.NewInternal(err)
				appErr.HTTPStatus = http.StatusServiceUnavailable
				appErr.Message = "service temporarily unavailable"
				_ = c.Error(appErr.WithDetail("business_id", businessID))
			default:
				_ = c.Error(apperror.NewInternal(err).WithDetail("business_id", businessID))
			}
			c.Abort()
			return
		}

		// Track active request for graceful shutdown
		managedPool.AcquireRef()
		defer managedPool.ReleaseRef()

		// 3. Create TxManager for this request
		txManager := postgres.NewTxManagerFromRawPool(managedPool.Pool())

		// 4. Inject into context
		ctx = business.WithPool(ctx, managedPool.Pool())
		ctx = business.WithTxManager(ctx, txManager)
		ctx = business.WithBusiness(ctx, managedPool.Business())

		c.Request = c.Request.WithContext(ctx)

		// Also set in Gin context for handlers that use c.Get()
		c.Set("business_id", managedPool.Business().ID)
		c.Set("tx_manager", txManager)

		c.Next()
	}
}

// GetTxManagerFromContext retrieves TxManager from Gin context.
// Returns nil if not found. Use this in handlers.
func GetTxManagerFromContext(c *gin.Context) *postgres.TxManager {
	if v, exists := c.Get("tx_manager"); exists {
		if txm, ok := v.(*postgres.TxManager); ok {
			return txm
		}
	}
	return nil
}
