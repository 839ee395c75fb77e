package product

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"poscore/internal/core/apperror"
	"poscore/internal/core/business"
	"poscore/internal/core/id"
	"poscore/internal/core/numerator"
	"poscore/internal/core/security"
	"poscore/internal/domain"
)

// Service provides business logic for Product catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Product] // Embedded for delegation
	repo                             Repository
	numerator                        numerator.Generator
	planGate                         *security.PlanGate
}

// NewService creates a new Product service.
// In Database-per-Business, TxManager is obtained from context.
func NewService(
	repo Repository,
	numerator numerator.Generator,
	planGate *security.PlanGate,
) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  nil, // Will be obtained from context
		Numerator:  numerator,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      numerator,
		planGate:       planGate,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

// prepareForCreate handles code generation and plan limits.
func (s *Service) prepareForCreate(ctx context.Context, p *Product) error {
	if s.planGate != nil {
		count, err := s.repo.CountActive(ctx)
		if err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		plan := string(business.GetPlan(ctx))
		if err := s.planGate.Check(ctx, "max_products", plan, security.PlanUsage{ProductCount: count}); err != nil {
			return err
		}
	}

	if p.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("PRD"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		p.Code = code
	}

	return nil
}

// --- Entity-specific methods ---

// GetByBarcode retrieves product by barcode.
func (s *Service) GetByBarcode(ctx context.Context, barcode string) (*Product, error) {
	p, err := s.repo.GetByBarcode(ctx, barcode)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", barcode)
		}
		return nil, err
	}
	return p, nil
}

// RecalculateAverageCost applies a new receipt to the weighted average cost.
//
//	newAvg = (currentQty*currentAvg + receivedQty*receivedCost) / (currentQty + receivedQty)
func (s *Service) RecalculateAverageCost(ctx context.Context, productID id.ID, currentQty, receivedQty, receivedCost decimal.Decimal) error {
	if receivedQty.Sign() <= 0 {
		return apperror.NewValidation("received quantity must be positive").
			WithDetail("field", "receivedQty")
	}

	txm, err := business.GetTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}

	return txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}

		totalQty := currentQty.Add(receivedQty)
		if totalQty.Sign() <= 0 {
			// Nothing on hand after receipt: take the receipt cost as-is
			return s.repo.UpdateAverageCost(ctx, productID, receivedCost)
		}

		newAvg := currentQty.Mul(p.AverageCost).
			Add(receivedQty.Mul(receivedCost)).
			Div(totalQty)

		return s.repo.UpdateAverageCost(ctx, productID, newAvg)
	})
}
