// Package v1 provides HTTP API version 1.
package v1

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"poscore/internal/core/business"
	"poscore/internal/core/numerator"
	"poscore/internal/core/security"
	"poscore/internal/domain"
	"poscore/internal/domain/audit"
	"poscore/internal/domain/auth"
	"poscore/internal/domain/cashops"
	"poscore/internal/domain/catalogs/area"
	"poscore/internal/domain/catalogs/currency"
	"poscore/internal/domain/catalogs/product"
	"poscore/internal/domain/cycles"
	"poscore/internal/domain/ledger"
	"poscore/internal/domain/reports"
	"poscore/internal/domain/shifts"
	"poscore/internal/infrastructure/http/v1/handlers"
	"poscore/internal/infrastructure/http/v1/middleware"
	"poscore/internal/infrastructure/storage/postgres"
	"poscore/internal/infrastructure/storage/postgres/cashop_repo"
	"poscore/internal/infrastructure/storage/postgres/catalog_repo"
	"poscore/internal/infrastructure/storage/postgres/cycle_repo"
	"poscore/internal/infrastructure/storage/postgres/ledger_repo"
	"poscore/internal/infrastructure/storage/postgres/report_repo"
	"poscore/pkg/logger"
)

// RouterConfig holds router configuration for the Database-per-Business architecture.
type RouterConfig struct {
	// BusinessManager manages database connections for all businesses
	BusinessManager *business.Manager

	// MetaPool is connection to meta-database (for health checks)
	MetaPool *pgxpool.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// Numerator for record number generation
	Numerator numerator.Generator

	// PlanGate enforces subscription plan limits
	PlanGate *security.PlanGate

	// MovementPolicy governs backdated recording and reversals.
	// Nil means the open policy (no period restrictions).
	MovementPolicy security.MovementPolicy

	// AuditTrail records catalog change history. Nil disables it.
	AuditTrail *postgres.AuditService

	// FeatureFlags toggles optional behavior at runtime. Nil means
	// everything enabled.
	FeatureFlags security.FeatureFlagProvider
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth, no business resolution required)
	healthHandler := handlers.NewHealthHandler(cfg.MetaPool, cfg.BusinessManager)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
		health.GET("/businesses", healthHandler.BusinessStats)
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Auth routes - need BusinessDB middleware BEFORE auth
		registerAuthRoutes(v1, cfg)

		// Protected endpoints - BusinessDB runs first, then Auth
		protected := v1.Group("")
		protected.Use(middleware.BusinessDB(cfg.BusinessManager)) // 1. Resolve business, get DB pool
		protected.Use(middleware.Auth(cfg.JWTValidator))          // 2. Validate JWT
		protected.Use(middleware.UserContext())                   // 3. Add UserID to context for domain layer

		svcs := buildServices(cfg)

		registerCatalogRoutes(protected, svcs)
		registerCycleRoutes(protected, svcs)
		registerShiftRoutes(protected, svcs)
		registerMovementRoutes(protected, svcs)
		registerCashOpRoutes(protected, svcs)
		registerReportRoutes(protected, svcs)
	}

	return router
}

// services holds the domain service graph shared by route groups.
// Services are created once; the TxManager is obtained from context per-request.
type services struct {
	areas      *area.Service
	products   *product.Service
	currencies *currency.Service
	cycles     *cycles.Service
	shifts     *shifts.Service
	ledger     *ledger.Service
	cashops    *cashops.Service
	reports    *reports.Service
}

// buildServices wires repositories into the domain service graph.
// The cycle service counts open shifts through the shift repository
// rather than the shift service: the shift service itself depends on
// the cycle service, and the repo call breaks the loop.
func buildServices(cfg RouterConfig) *services {
	areaRepo := catalog_repo.NewAreaRepo()
	productRepo := catalog_repo.NewProductRepo()
	currencyRepo := catalog_repo.NewCurrencyRepo()
	cycleRepo := cycle_repo.NewCycleRepo()
	shiftRepo := cycle_repo.NewShiftRepo()
	movementRepo := ledger_repo.NewMovementRepo()
	cashopRepo := cashop_repo.NewCashOperationRepo()
	reportRepo := report_repo.NewReportRepo()

	areaService := area.NewService(areaRepo, cfg.Numerator, cfg.PlanGate)
	productService := product.NewService(productRepo, cfg.Numerator, cfg.PlanGate)
	currencyService := currency.NewService(currencyRepo, cfg.Numerator)

	registerAuditHooks(areaService.Hooks())
	registerAuditHooks(productService.Hooks())
	registerAuditHooks(currencyService.Hooks())

	if cfg.AuditTrail != nil {
		registerAuditTrail(areaService.Hooks(), cfg.AuditTrail, "area")
		registerAuditTrail(productService.Hooks(), cfg.AuditTrail, "product")
		registerAuditTrail(currencyService.Hooks(), cfg.AuditTrail, "currency")
	}

	cycleService := cycles.NewService(cycleRepo, currencyService, shiftRepo, cfg.Numerator, nil)
	shiftService := shifts.NewService(shiftRepo, areaService, cycleService, cfg.Numerator, nil)
	ledgerService := ledger.NewService(
		movementRepo,
		areaService,
		productService,
		productService,
		cycleService,
		shiftService,
		cfg.MovementPolicy,
		nil,
	)
	cashopService := cashops.NewService(
		cashopRepo,
		areaService,
		currencyService,
		cycleService,
		shiftService,
		cfg.Numerator,
		nil,
	)
	reportService := reports.NewService(reportRepo, cycleService, currencyService, cfg.PlanGate, cfg.FeatureFlags)

	return &services{
		areas:      areaService,
		products:   productService,
		currencies: currencyService,
		cycles:     cycleService,
		shifts:     shiftService,
		ledger:     ledgerService,
		cashops:    cashopService,
		reports:    reportService,
	}
}

// registerAuditHooks stamps CreatedBy/UpdatedBy from the context user on
// every catalog write.
func registerAuditHooks[T any](hooks *domain.HookRegistry[T]) {
	hooks.OnBeforeCreate(func(ctx context.Context, e T) error {
		return audit.EnrichCreatedBy(ctx, e)
	})
	hooks.OnBeforeUpdate(func(ctx context.Context, e T) error {
		return audit.EnrichUpdatedBy(ctx, e)
	})
}

// catalogAuditor records catalog change history.
type catalogAuditor interface {
	LogEntity(ctx context.Context, entityType string, entity any, action postgres.AuditAction) error
}

// registerAuditTrail writes an audit entry with the post-change entity
// snapshot after every catalog create and update.
func registerAuditTrail[T any](hooks *domain.HookRegistry[T], trail catalogAuditor, entityType string) {
	hooks.OnAfterCreate(func(ctx context.Context, e T) error {
		return trail.LogEntity(ctx, entityType, e, postgres.AuditActionCreate)
	})
	hooks.OnAfterUpdate(func(ctx context.Context, e T) error {
		return trail.LogEntity(ctx, entityType, e, postgres.AuditActionUpdate)
	})
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	// Public auth endpoints (no JWT required, but need business for DB access)
	publicAuth := rg.Group("/auth")
	publicAuth.Use(middleware.BusinessDB(cfg.BusinessManager))

	// Protected auth endpoints (JWT required)
	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.BusinessDB(cfg.BusinessManager))
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))
	protectedAuth.Use(middleware.UserContext())

	authHandler.RegisterRoutes(publicAuth, protectedAuth)
}

// registerCatalogRoutes registers catalog endpoints (areas, products, currencies).
func registerCatalogRoutes(rg *gin.RouterGroup, svcs *services) {
	catalogs := rg.Group("/catalog")
	baseHandler := handlers.NewBaseHandler()

	read := middleware.RequirePermission(string(security.PermissionRead))
	update := middleware.RequirePermission(string(security.PermissionUpdate))

	// --- AREAS ---
	{
		handler := handlers.NewAreaHandler(baseHandler, svcs.areas)
		extra := handlers.NewAreaExtraHandler(baseHandler, svcs.areas)

		areas := catalogs.Group("/areas")
		// Fixed paths must be registered before the generic /:id routes.
		areas.GET("/stock", read, extra.ListStock)
		areas.GET("/sale", read, extra.ListSale)
		RegisterCatalogRoutes(areas, handler)
	}

	// --- PRODUCTS ---
	{
		handler := handlers.NewProductHandler(baseHandler, svcs.products)
		extra := handlers.NewProductExtraHandler(baseHandler, svcs.products)

		products := catalogs.Group("/products")
		products.GET("/barcode/:barcode", read, extra.GetByBarcode)
		RegisterCatalogRoutes(products, handler)
	}

	// --- CURRENCIES ---
	{
		handler := handlers.NewCurrencyHandler(baseHandler, svcs.currencies)
		extra := handlers.NewCurrencyExtraHandler(baseHandler, svcs.currencies)

		currencies := catalogs.Group("/currencies")
		currencies.GET("/main", read, extra.GetMain)
		currencies.PUT("/:id/exchange-rate", update, extra.SetExchangeRate)
		RegisterCatalogRoutes(currencies, handler)
	}
}

// registerCycleRoutes registers economic cycle endpoints.
func registerCycleRoutes(rg *gin.RouterGroup, svcs *services) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewCycleHandler(baseHandler, svcs.cycles)

	read := middleware.RequirePermission(string(security.PermissionRead))
	open := middleware.RequirePermission(string(security.PermissionOpenCycle))
	closePerm := middleware.RequirePermission(string(security.PermissionCloseCycle))

	group := rg.Group("/cycles")
	group.POST("/open", open, handler.Open)
	group.POST("/close", closePerm, handler.Close)
	group.POST("/hold", closePerm, handler.Hold)
	group.POST("/resume", open, handler.Resume)
	group.GET("/active", read, handler.GetActive)
	group.GET("/:id", read, handler.Get)
	group.GET("", read, handler.List)
}

// registerShiftRoutes registers shift endpoints.
func registerShiftRoutes(rg *gin.RouterGroup, svcs *services) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewShiftHandler(baseHandler, svcs.shifts)

	read := middleware.RequirePermission(string(security.PermissionRead))
	open := middleware.RequirePermission(string(security.PermissionOpenShift))
	closePerm := middleware.RequirePermission(string(security.PermissionCloseShift))

	group := rg.Group("/shifts")
	group.POST("/open", open, handler.Open)
	group.POST("/close", closePerm, handler.Close)
	group.POST("/:id/close", closePerm, handler.Close)
	group.GET("/open", read, handler.GetOpenByArea)
	group.GET("/:id", read, handler.Get)
	group.GET("", read, handler.List)
}

// registerMovementRoutes registers stock ledger endpoints.
func registerMovementRoutes(rg *gin.RouterGroup, svcs *services) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewMovementHandler(baseHandler, svcs.ledger)

	read := middleware.RequirePermission(string(security.PermissionRead))
	create := middleware.RequirePermission(string(security.PermissionCreate))
	reverse := middleware.RequirePermission(string(security.PermissionReverse))

	group := rg.Group("/movements")
	group.POST("", create, handler.Record)
	group.POST("/entry", create, handler.RecordAs(ledger.OperationEntry))
	group.POST("/out", create, handler.RecordAs(ledger.OperationOut))
	group.POST("/waste", create, handler.RecordAs(ledger.OperationWaste))
	group.POST("/adjust", create, handler.RecordAs(ledger.OperationAdjust))
	group.POST("/move", create, handler.Move)
	group.POST("/bulk", create, handler.BulkEntry)
	group.DELETE("/:id", reverse, handler.Reverse)
	group.GET("/balance", read, handler.GetBalance)
	group.GET("/balances/:areaId", read, handler.GetAreaBalances)
	group.GET("/:id", read, handler.Get)
	group.GET("", read, handler.List)
}

// registerCashOpRoutes registers cash register endpoints.
func registerCashOpRoutes(rg *gin.RouterGroup, svcs *services) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewCashOperationHandler(baseHandler, svcs.cashops)

	read := middleware.RequirePermission(string(security.PermissionRead))
	create := middleware.RequirePermission(string(security.PermissionCreate))

	group := rg.Group("/cashops")
	group.POST("", create, handler.Record)
	group.GET("/totals/:cycleId", read, handler.SumByCycle)
	group.GET("/:id", read, handler.Get)
	group.GET("", read, handler.List)
}

// registerReportRoutes registers report endpoints.
// Plan-level access to reports is enforced inside the report service.
func registerReportRoutes(rg *gin.RouterGroup, svcs *services) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewReportHandler(baseHandler, svcs.reports)

	read := middleware.RequirePermission(string(security.PermissionRead))

	group := rg.Group("/reports")
	group.GET("/cycle-incomes/:cycleId", read, handler.CycleIncomes)
	group.GET("/stock-balance", read, handler.StockBalance)
	group.GET("/stock-turnover", read, handler.StockTurnover)
}
