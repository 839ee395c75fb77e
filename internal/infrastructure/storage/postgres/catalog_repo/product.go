package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"poscore/internal/core/apperror"
	"poscore/internal/core/id"
	"poscore/internal/domain/catalogs/product"
	"poscore/internal/infrastructure/storage/postgres"
)

const productTable = "cat_products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo() *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*product.Product](
			productTable,
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

// GetByBarcode retrieves product by barcode.
func (r *ProductRepo) GetByBarcode(ctx context.Context, barcode string) (*product.Product, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"barcode": barcode}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	p, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", barcode)
		}
		return nil, err
	}

	return p, nil
}

// UpdateAverageCost sets the recalculated weighted average cost.
// Bypasses optimistic locking: cost recalculation runs inside the movement
// transaction and must not conflict with concurrent catalog edits.
func (r *ProductRepo) UpdateAverageCost(ctx context.Context, productID id.ID, cost decimal.Decimal) error {
	q := r.Builder().
		Update(productTable).
		Set("average_cost", cost).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.getTxManager(ctx).GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update average cost: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}

	return nil
}

// CountActive returns the number of active non-folder products.
func (r *ProductRepo) CountActive(ctx context.Context) (int64, error) {
	q := r.Builder().
		Select("COUNT(*)").
		From(productTable).
		Where(squirrel.Eq{"is_folder": false}).
		Where(squirrel.Eq{"deletion_mark": false})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int64
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active: %w", err)
	}

	return count, nil
}
