package currency

import (
	"context"

	"github.com/shopspring/decimal"

	"poscore/internal/core/apperror"
	"poscore/internal/core/id"
	"poscore/internal/core/numerator"
	"poscore/internal/domain"
)

// Service provides business logic for Currency catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Currency]
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new Currency service.
// In Database-per-Business, TxManager is obtained from context, so it's optional here.
func NewService(
	repo Repository,
	numerator numerator.Generator,
) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Currency]{
		Repo:       repo,
		TxManager:  nil, // Will be obtained from context
		Numerator:  numerator,
		EntityName: "currency",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      numerator,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)
	base.Hooks().OnBeforeDelete(svc.validateBeforeDelete)

	return svc
}

// prepareForCreate handles code generation and uniqueness checks.
func (s *Service) prepareForCreate(ctx context.Context, curr *Currency) error {
	// Use ISO code as code if not provided
	if curr.Code == "" && curr.ISOCode != nil {
		curr.Code = *curr.ISOCode
	}

	// Check ISO code uniqueness
	if exists, _ := s.checkISOCodeExists(ctx, curr.ISOCode, curr.ID); exists {
		return apperror.NewConflict("currency with this ISO code already exists").
			WithDetail("isoCode", curr.ISOCode)
	}

	// If setting as main, clear other main currencies
	if curr.IsMain {
		if err := s.repo.ClearMain(ctx); err != nil {
			return err
		}
	}

	return nil
}

// prepareForUpdate handles uniqueness checks.
func (s *Service) prepareForUpdate(ctx context.Context, curr *Currency) error {
	if exists, _ := s.checkISOCodeExists(ctx, curr.ISOCode, curr.ID); exists {
		return apperror.NewConflict("currency with this ISO code already exists").
			WithDetail("isoCode", curr.ISOCode)
	}

	if curr.IsMain {
		if err := s.repo.ClearMain(ctx); err != nil {
			return err
		}
	}

	return nil
}

// validateBeforeDelete prevents deletion of main currency.
func (s *Service) validateBeforeDelete(ctx context.Context, curr *Currency) error {
	if curr.IsMain {
		return apperror.NewValidation("cannot delete main currency")
	}
	return nil
}

// --- Entity-specific methods ---

// FindByISOCode retrieves currency by ISO code.
func (s *Service) FindByISOCode(ctx context.Context, isoCode string) (*Currency, error) {
	return s.repo.FindByISOCode(ctx, isoCode)
}

// ExistsByISO reports whether a currency with the ISO code exists.
func (s *Service) ExistsByISO(ctx context.Context, isoCode string) (bool, error) {
	_, err := s.repo.FindByISOCode(ctx, isoCode)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetMain retrieves the main currency.
func (s *Service) GetMain(ctx context.Context) (*Currency, error) {
	return s.repo.GetMain(ctx)
}

// MainISO returns the ISO code of the main currency.
func (s *Service) MainISO(ctx context.Context) (string, error) {
	main, err := s.repo.GetMain(ctx)
	if err != nil {
		return "", err
	}
	if main.ISOCode == nil {
		return "", apperror.NewValidation("main currency has no ISO code")
	}
	return *main.ISOCode, nil
}

// SetExchangeRate updates the exchange rate of a non-main currency.
func (s *Service) SetExchangeRate(ctx context.Context, currencyID id.ID, rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return apperror.NewValidation("exchange rate must be positive").
			WithDetail("field", "exchangeRate")
	}

	curr, err := s.repo.GetByID(ctx, currencyID)
	if err != nil {
		return err
	}
	if curr.IsMain {
		return apperror.NewValidation("cannot change exchange rate of main currency")
	}

	return s.repo.UpdateExchangeRate(ctx, currencyID, rate)
}

// ExchangeRates returns a snapshot of active currency rates keyed by ISO code.
// Used to freeze rates into an economic cycle at open time.
func (s *Service) ExchangeRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	currencies, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	rates := make(map[string]decimal.Decimal, len(currencies))
	for _, c := range currencies {
		if c.ISOCode != nil {
			rates[*c.ISOCode] = c.ExchangeRate
		}
	}
	return rates, nil
}

func (s *Service) checkISOCodeExists(ctx context.Context, isoCode *string, excludeID id.ID) (bool, error) {
	if isoCode == nil || *isoCode == "" {
		return false, nil
	}
	existing, err := s.repo.FindByISOCode(ctx, *isoCode)
	if err != nil {
		return false, nil
	}
	return existing.ID != excludeID, nil
}
