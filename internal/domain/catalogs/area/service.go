package area

import (
	"context"
	"fmt"
	"time"

	"poscore/internal/core/business"
	"poscore/internal/core/numerator"
	"poscore/internal/core/security"
	"poscore/internal/domain"
)

// Service provides business logic for Area catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Area] // Embedded for delegation
	repo                          Repository
	numerator                     numerator.Generator
	planGate                      *security.PlanGate
}

// NewService creates a new Area service.
// In Database-per-Business, TxManager is obtained from context.
func NewService(
	repo Repository,
	numerator numerator.Generator,
	planGate *security.PlanGate,
) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Area]{
		Repo:       repo,
		TxManager:  nil, // Will be obtained from context
		Numerator:  numerator,
		EntityName: "area",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      numerator,
		planGate:       planGate,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)

	return svc
}

// prepareForCreate handles code generation, plan limits and main flag.
func (s *Service) prepareForCreate(ctx context.Context, a *Area) error {
	// Subscription plan gate: area count is limited on lower plans
	if s.planGate != nil {
		count, err := s.repo.CountActive(ctx)
		if err != nil {
			return fmt.Errorf("count areas: %w", err)
		}
		plan := string(business.GetPlan(ctx))
		if err := s.planGate.Check(ctx, "max_areas", plan, security.PlanUsage{AreaCount: count}); err != nil {
			return err
		}
	}

	// Generate code if not provided
	if a.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("AR"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		a.Code = code
	}

	// If setting as main, clear other mains of the same type
	if a.IsMain {
		if err := s.repo.ClearMain(ctx, a.Type); err != nil {
			return err
		}
	}

	return nil
}

// prepareForUpdate handles main flag.
func (s *Service) prepareForUpdate(ctx context.Context, a *Area) error {
	if a.IsMain {
		if err := s.repo.ClearMain(ctx, a.Type); err != nil {
			return err
		}
	}

	return nil
}

// --- Entity-specific methods ---

// ListStockAreas returns active stock-holding areas.
func (s *Service) ListStockAreas(ctx context.Context) ([]*Area, error) {
	return s.repo.ListByType(ctx, TypeStock)
}

// ListSaleAreas returns active sale areas.
func (s *Service) ListSaleAreas(ctx context.Context) ([]*Area, error) {
	return s.repo.ListByType(ctx, TypeSale)
}
