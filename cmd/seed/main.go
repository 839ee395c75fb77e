// Package main provides a CLI tool for seeding a business database with initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"poscore/internal/core/business"
	"poscore/internal/core/id"
	"poscore/internal/core/security"
	"poscore/internal/infrastructure/storage/postgres"
	"poscore/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Connect to business database
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	// Seed owner user
	if err := seedOwnerUser(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed owner user", "error", err)
	}

	// Seed demo data if requested
	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedBusinessRegistry(ctx, dbURL, log); err != nil {
			log.Warnw("failed to seed business registry", "error", err)
		}
		if err := seedDemoData(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedOwnerUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	ownerEmail := os.Getenv("OWNER_EMAIL")
	if ownerEmail == "" {
		ownerEmail = "owner@poscore.io"
	}

	ownerPassword := os.Getenv("OWNER_PASSWORD")
	if ownerPassword == "" {
		ownerPassword = "Owner123!"
	}

	// Check if owner already exists
	var existingID id.ID
	err := pool.Pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1 AND deleted_at IS NULL`,
		ownerEmail,
	).Scan(&existingID)
	if err == nil {
		log.Infow("owner user already exists", "email", ownerEmail, "user_id", existingID)
		return nil
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check owner exists: %w", err)
	}

	// Hash password
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(ownerPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	now := time.Now()

	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name,
			role, is_active, is_owner, created_at, updated_at, version
		) VALUES ($1, $2, $3, 'Business', 'Owner', $4, true, true, $5, $5, 1)
	`, userID, ownerEmail, string(passwordHash), security.RoleOwner, now)
	if err != nil {
		return fmt.Errorf("insert owner user: %w", err)
	}

	log.Infow("owner user created",
		"email", ownerEmail,
		"user_id", userID,
	)

	return nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	log.Info("seeding demo data...")

	// 1. Seed Currencies
	// CUP is the accounting currency; others carry an exchange rate against it.
	currencies := []struct {
		name          string
		isoCode       string
		symbol        string
		decimalPlaces int
		isMain        bool
		exchangeRate  string
	}{
		{"Peso Cubano", "CUP", "$", 2, true, "1"},
		{"Dólar Estadounidense", "USD", "US$", 2, false, "120"},
		{"Euro", "EUR", "€", 2, false, "125"},
	}

	for i, c := range currencies {
		currID := id.New()
		code := fmt.Sprintf("CUR-%03d", i+1)
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO cat_currencies (
				id, code, name, iso_code, symbol,
				decimal_places, is_main, is_active, exchange_rate,
				version, deletion_mark, attributes, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, true, $8, 1, false, '{}', now(), now())
			ON CONFLICT (iso_code) WHERE deletion_mark = FALSE DO NOTHING
		`, currID, code, c.name, c.isoCode, c.symbol, c.decimalPlaces, c.isMain, c.exchangeRate)
		if err != nil {
			log.Warnw("failed to seed currency", "name", c.name, "error", err)
		}
	}

	// 2. Seed Areas
	// One main stock plus a sale point wired to it.
	stockAreaID := id.New()
	stockCode := "AREA-001"
	commandTag, err := pool.Pool.Exec(ctx, `
		INSERT INTO cat_areas (
			id, code, name, type, is_active, is_main,
			allow_negative_stock, give_work_on_shift,
			version, deletion_mark, attributes, created_at, updated_at
		)
		VALUES ($1, $2, 'Almacén Principal', 'STOCK', true, true, false, false, 1, false, '{}', now(), now())
		ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
	`, stockAreaID, stockCode)
	if err != nil {
		log.Warnw("failed to seed stock area", "error", err)
	} else if commandTag.RowsAffected() == 0 {
		err = pool.Pool.QueryRow(ctx, `
			SELECT id FROM cat_areas WHERE code = $1 AND deletion_mark = FALSE
		`, stockCode).Scan(&stockAreaID)
		if err != nil {
			log.Warnw("failed to fetch existing stock area", "code", stockCode, "error", err)
		}
	}

	saleAreaID := id.New()
	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO cat_areas (
			id, code, name, type, is_active, is_main,
			allow_negative_stock, give_work_on_shift, stock_area_id,
			version, deletion_mark, attributes, created_at, updated_at
		)
		VALUES ($1, 'AREA-002', 'Punto de Venta', 'SALE', true, false, false, true, $2, 1, false, '{}', now(), now())
		ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
	`, saleAreaID, stockAreaID)
	if err != nil {
		log.Warnw("failed to seed sale area", "error", err)
	}

	// 3. Seed Products
	products := []struct {
		name    string
		ptype   string
		measure string
		barcode string
	}{
		{"Harina de Trigo", "RAW", "KG", ""},
		{"Aceite Vegetal 1L", "STOCK", "UNIT", "7500000000011"},
		{"Refresco de Cola 355ml", "STOCK", "UNIT", "7500000000028"},
		{"Pizza Napolitana", "MENU", "PORTION", ""},
		{"Servicio de Mesa", "SERVICE", "UNIT", ""},
	}

	for i, p := range products {
		prodID := id.New()
		code := fmt.Sprintf("PRD-%05d", i+1)

		var barcode any
		if p.barcode != "" {
			barcode = p.barcode
		}

		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO cat_products (
				id, code, name, type, measure, barcode,
				average_cost, sale_price, alert_limit,
				show_for_sale, stock_limit,
				version, deletion_mark, attributes, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, 0, 0, 0, $7, false, 1, false, '{}', now(), now())
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, prodID, code, p.name, p.ptype, p.measure, barcode, p.ptype != "RAW")
		if err != nil {
			log.Warnw("failed to seed product", "name", p.name, "error", err)
		}
	}

	log.Info("demo data seeded successfully")
	return nil
}

func seedBusinessRegistry(ctx context.Context, dbURL string, log *logger.Logger) error {
	metaDSN := os.Getenv("META_DATABASE_URL")
	if metaDSN == "" {
		log.Warn("META_DATABASE_URL is not set; skipping business registry seed")
		return nil
	}

	metaPool, err := pgxpool.New(ctx, metaDSN)
	if err != nil {
		return fmt.Errorf("connect meta database: %w", err)
	}
	defer metaPool.Close()

	if err := metaPool.Ping(ctx); err != nil {
		return fmt.Errorf("ping meta database: %w", err)
	}

	businessSlug := os.Getenv("BUSINESS_SLUG")
	if businessSlug == "" {
		businessSlug = "demo"
	}

	businessName := os.Getenv("BUSINESS_NAME")
	if businessName == "" {
		businessName = "Demo Business"
	}

	businessPlan := os.Getenv("BUSINESS_PLAN")
	if businessPlan == "" {
		businessPlan = string(business.PlanStandard)
	}

	dbConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return fmt.Errorf("parse business database url: %w", err)
	}

	dbHost := dbConfig.ConnConfig.Host
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := int(dbConfig.ConnConfig.Port)
	if dbPort == 0 {
		dbPort = 5432
	}

	dbName := dbConfig.ConnConfig.Database
	if dbName == "" {
		dbName = "poscore"
	}

	var existingID string
	err = metaPool.QueryRow(ctx, `SELECT id FROM businesses WHERE slug = $1`, businessSlug).Scan(&existingID)
	if err == nil {
		log.Infow("business already exists in registry", "slug", businessSlug, "business_id", existingID)
		return nil
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check business exists: %w", err)
	}

	registry := business.NewPostgresRegistry(metaPool)
	newBusiness := &business.Business{
		Slug:     businessSlug,
		Name:     businessName,
		DBName:   dbName,
		DBHost:   dbHost,
		DBPort:   dbPort,
		Status:   business.StatusActive,
		Plan:     business.Plan(businessPlan),
		Settings: map[string]any{},
	}

	if err := registry.Create(ctx, newBusiness); err != nil {
		return fmt.Errorf("create business: %w", err)
	}

	log.Infow("business seeded in registry", "slug", businessSlug, "business_id", newBusiness.ID)
	return nil
}
