package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"poscore/internal/core/apperror"
	"poscore/internal/core/id"
	"poscore/internal/domain/catalogs/currency"
	"poscore/internal/infrastructure/storage/postgres"
)

const currencyTable = "cat_currencies"

// CurrencyRepo implements currency.Repository.
type CurrencyRepo struct {
	*BaseCatalogRepo[*currency.Currency]
}

// NewCurrencyRepo creates a new currency repository.
func NewCurrencyRepo() *CurrencyRepo {
	return &CurrencyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*currency.Currency](
			currencyTable,
			postgres.ExtractDBColumns[currency.Currency](),
			func() *currency.Currency { return &currency.Currency{} },
		),
	}
}

// FindByISOCode retrieves currency by ISO code.
func (r *CurrencyRepo) FindByISOCode(ctx context.Context, isoCode string) (*currency.Currency, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"iso_code": isoCode}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c currency.Currency
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("currency", isoCode)
		}
		return nil, fmt.Errorf("find by iso code: %w", err)
	}

	return &c, nil
}

// GetMain retrieves the main (accounting) currency.
func (r *CurrencyRepo) GetMain(ctx context.Context) (*currency.Currency, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"is_main": true}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c currency.Currency
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("currency", "main")
		}
		return nil, fmt.Errorf("get main: %w", err)
	}

	return &c, nil
}

// ClearMain clears the main flag on all currencies.
func (r *CurrencyRepo) ClearMain(ctx context.Context) error {
	q := r.Builder().
		Update(currencyTable).
		Set("is_main", false).
		Where(squirrel.Eq{"is_main": true})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	_, err = querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("clear main: %w", err)
	}

	return nil
}

// ListActive retrieves all active currencies.
func (r *CurrencyRepo) ListActive(ctx context.Context) ([]*currency.Currency, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("is_main DESC", "code ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*currency.Currency
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list active: %w", err)
	}

	return items, nil
}

// UpdateExchangeRate updates the exchange rate for a currency.
func (r *CurrencyRepo) UpdateExchangeRate(ctx context.Context, currencyID id.ID, rate decimal.Decimal) error {
	q := r.Builder().
		Update(currencyTable).
		Set("exchange_rate", rate).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": currencyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.getTxManager(ctx).GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update exchange rate: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("currency", currencyID.String())
	}

	return nil
}
