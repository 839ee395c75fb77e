package business

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Registry provides access to business metadata stored in the meta-database.
type Registry interface {
	// GetByID retrieves business by UUID string.
	GetByID(ctx context.Context, businessID string) (*Business, error)

	// ListActive returns all active businesses.
	ListActive(ctx context.Context) ([]*Business, error)

	// ListAll returns all businesses.
	ListAll(ctx context.Context) ([]*Business, error)

	// Create inserts a new business row and populates b.ID.
	Create(ctx context.Context, b *Business) error

	// UpdateStatusByID updates business status by UUID string.
	UpdateStatusByID(ctx context.Context, businessID string, status Status) error

	// UpdatePlanByID changes the subscription plan.
	UpdatePlanByID(ctx context.Context, businessID string, plan Plan) error
}

// PostgresRegistry implements Registry using the meta-database.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{pool: pool}
}

func (r *PostgresRegistry) GetByID(ctx context.Context, businessID string) (*Business, error) {
	var b Business
	err := pgxscan.Get(ctx, r.pool, &b, `
		SELECT id, slug, name, db_name, db_host, db_port,
		       status, plan, created_at, updated_at, settings
		FROM businesses
		WHERE id = $1
	`, businessID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("get business by id: %w", err)
	}
	return &b, nil
}

func (r *PostgresRegistry) ListActive(ctx context.Context) ([]*Business, error) {
	var businesses []*Business
	err := pgxscan.Select(ctx, r.pool, &businesses, `
		SELECT id, slug, name, db_name, db_host, db_port,
		       status, plan, created_at, updated_at, settings
		FROM businesses
		WHERE status = $1
		ORDER BY slug
	`, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active businesses: %w", err)
	}
	return businesses, nil
}

func (r *PostgresRegistry) ListAll(ctx context.Context) ([]*Business, error) {
	var businesses []*Business
	err := pgxscan.Select(ctx, r.pool, &businesses, `
		SELECT id, slug, name, db_name, db_host, db_port,
		       status, plan, created_at, updated_at, settings
		FROM businesses
		ORDER BY slug
	`)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	return businesses, nil
}

func (r *PostgresRegistry) Create(ctx context.Context, b *Business) error {
	if b == nil {
		return fmt.Errorf("business is nil")
	}
	if b.Status == "" {
		b.Status = StatusActive
	}
	if b.Plan == "" {
		b.Plan = PlanFree
	}

	// settings is JSONB with default '{}', but we still pass it explicitly for clarity.
	if b.Settings == nil {
		b.Settings = map[string]any{}
	}

	// Return generated UUID.
	err := r.pool.QueryRow(ctx, `
		INSERT INTO businesses (slug, name, db_name, db_host, db_port, status, plan, settings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, b.Slug, b.Name, b.DBName, b.DBHost, b.DBPort, b.Status, b.Plan, b.Settings).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("create business: %w", err)
	}
	return nil
}

func (r *PostgresRegistry) UpdateStatusByID(ctx context.Context, businessID string, status Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE businesses
		SET status = $2
		WHERE id = $1
	`, businessID, status)
	if err != nil {
		return fmt.Errorf("update business status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBusinessNotFound
	}
	return nil
}

func (r *PostgresRegistry) UpdatePlanByID(ctx context.Context, businessID string, plan Plan) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE businesses
		SET plan = $2
		WHERE id = $1
	`, businessID, plan)
	if err != nil {
		return fmt.Errorf("update business plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBusinessNotFound
	}
	return nil
}

var _ Registry = (*PostgresRegistry)(nil)
