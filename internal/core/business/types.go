// Package business provides multi-tenant database management where every
// business (restaurant or retail company) owns an isolated PostgreSQL database.
package business

import (
	"fmt"
	"strings"
	"time"
)

// Status represents business lifecycle state.
type Status string

const (
	// StatusActive - business can accept requests
	StatusActive Status = "active"

	// StatusSuspended - business is temporarily disabled (e.g., payment issues)
	StatusSuspended Status = "suspended"

	// StatusDeleted - business is marked for deletion
	StatusDeleted Status = "deleted"
)

// Plan represents the subscription plan of a business.
type Plan string

const (
	PlanFree     Plan = "free"
	PlanStandard Plan = "standard"
	PlanFull     Plan = "full"
)

// Business represents a business record from the meta-database.
type Business struct {
	ID        string         `db:"id"`
	Slug      string         `db:"slug"`      // URL-safe identifier
	Name      string         `db:"name"`      // Display name
	DBName    string         `db:"db_name"`   // Database name
	DBHost    string         `db:"db_host"`   // Database host
	DBPort    int            `db:"db_port"`   // Database port
	Status    Status         `db:"status"`
	Plan      Plan           `db:"plan"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
	Settings  map[string]any `db:"settings"` // Additional settings (JSONB)
}

// IsActive returns true if the business can accept requests.
func (b *Business) IsActive() bool {
	return b.Status == StatusActive
}

// DSN builds the PostgreSQL connection string for this business database.
func (b *Business) DSN(user, password string) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		user, password, b.DBHost, b.DBPort, b.DBName,
	)
}

// DSNWithSSL builds the connection string with SSL enabled.
func (b *Business) DSNWithSSL(user, password, sslMode string) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		user, password, b.DBHost, b.DBPort, b.DBName, sslMode,
	)
}

// CreateBusinessInput contains data for provisioning a new business.
type CreateBusinessInput struct {
	Slug   string
	Name   string
	Plan   Plan
	DBHost string // Optional, defaults to localhost
	DBPort int    // Optional, defaults to 5432
}

// Validate checks if input is valid.
func (i *CreateBusinessInput) Validate() error {
	if i.Slug == "" {
		return fmt.Errorf("slug is required")
	}
	i.Slug = strings.ToLower(i.Slug)
	if len(i.Slug) > 63 {
		return fmt.Errorf("slug must be 63 characters or less")
	}
	if i.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// GenerateDBName creates a database name from slug.
// Format: biz_<slug>
func (i *CreateBusinessInput) GenerateDBName() string {
	return "biz_" + i.Slug
}
