// Package main provides CLI for business management.
// Usage: business create --slug bistro --name "La Bodeguita"
//        business list
//        business migrate --all
//        business suspend <business-id>
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"poscore/internal/core/business"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "create":
		createBusiness(ctx)
	case "list":
		listBusinesses(ctx)
	case "migrate":
		migrateBusinesses(ctx)
	case "suspend":
		suspendBusiness(ctx)
	case "activate":
		activateBusiness(ctx)
	case "set-plan":
		setPlan(ctx)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Poscore Business Management CLI

Usage:
  business <command> [options]

Commands:
  create    Create a new business
  list      List all businesses
  migrate   Run migrations for business(es)
  suspend   Suspend a business
  activate  Activate a suspended business
  set-plan  Change the subscription plan of a business
  help      Show this help

Environment Variables:
  META_DATABASE_URL      Connection string for meta database (required)
  BUSINESS_DB_USER       Username for business databases (required)
  BUSINESS_DB_PASSWORD   Password for business databases (required)
  POSTGRES_ADMIN_URL     Admin connection for creating databases

Examples:
  business create --slug bistro --name "La Bodeguita" --plan standard
  business list
  business migrate --all
  business migrate --id <business-uuid>
  business suspend <business-uuid>
  business activate <business-uuid>
  business set-plan <business-uuid> full`)
}

func getMetaPool(ctx context.Context) *pgxpool.Pool {
	metaDSN := os.Getenv("META_DATABASE_URL")
	if metaDSN == "" {
		fmt.Println("Error: META_DATABASE_URL environment variable is required")
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, metaDSN)
	if err != nil {
		fmt.Printf("Error connecting to meta database: %v\n", err)
		os.Exit(1)
	}

	return pool
}

func createBusiness(ctx context.Context) {
	var slug, name, plan string

	// Parse arguments
	for i := 2; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--slug":
			if i+1 < len(os.Args) {
				slug = os.Args[i+1]
				i++
			}
		case "--name":
			if i+1 < len(os.Args) {
				name = os.Args[i+1]
				i++
			}
		case "--plan":
			if i+1 < len(os.Args) {
				plan = os.Args[i+1]
				i++
			}
		}
	}

	if slug == "" || name == "" {
		fmt.Println("Error: --slug and --name are required")
		fmt.Println("Usage: business create --slug <slug> --name <name> [--plan free|standard|full]")
		os.Exit(1)
	}

	if plan == "" {
		plan = string(business.PlanFree)
	}

	metaPool := getMetaPool(ctx)
	defer metaPool.Close()

	registry := business.NewPostgresRegistry(metaPool)

	// Generate database name
	dbName := "pos_" + strings.ToLower(slug)

	fmt.Printf("Creating business '%s'...\n", slug)

	// 1. Create database
	adminDSN := os.Getenv("POSTGRES_ADMIN_URL")
	if adminDSN == "" {
		// Try to construct from META_DATABASE_URL
		adminDSN = os.Getenv("META_DATABASE_URL")
		// Replace database name with 'postgres'
		adminDSN = strings.Replace(adminDSN, "/poscore_meta", "/postgres", 1)
	}

	if adminDSN != "" {
		fmt.Printf("  Creating database %s...\n", dbName)
		adminPool, err := pgxpool.New(ctx, adminDSN)
		if err != nil {
			fmt.Printf("  Warning: Could not connect as admin: %v\n", err)
			fmt.Println("  You may need to create the database manually.")
		} else {
			defer adminPool.Close()
			_, err = adminPool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", dbName))
			if err != nil {
				if strings.Contains(err.Error(), "already exists") {
					fmt.Println("  Database already exists")
				} else {
					fmt.Printf("  Warning: Could not create database: %v\n", err)
				}
			} else {
				fmt.Println("  Database created")
			}
		}
	}

	// 2. Run migrations
	dbUser := os.Getenv("BUSINESS_DB_USER")
	dbPassword := os.Getenv("BUSINESS_DB_PASSWORD")
	if dbUser != "" && dbPassword != "" {
		fmt.Println("  Running migrations...")
		businessDSN := fmt.Sprintf("postgres://%s:%s@localhost:5432/%s?sslmode=disable",
			dbUser, dbPassword, dbName)

		cmd := exec.Command("goose", "-dir", "db/migrations", "postgres", businessDSN, "up")
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			fmt.Printf("  Warning: Migrations failed: %v\n", err)
			fmt.Println("  You may need to run migrations manually.")
		} else {
			fmt.Println("  Migrations completed")
		}
	}

	// 3. Register in meta database
	fmt.Println("  Registering business...")

	b := &business.Business{
		Slug:   slug,
		Name:   name,
		DBName: dbName,
		DBHost: "localhost",
		DBPort: 5432,
		Status: business.StatusActive,
		Plan:   business.Plan(plan),
	}

	if err := registry.Create(ctx, b); err != nil {
		fmt.Printf("Error registering business: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n✓ Business '%s' created successfully!\n", slug)
	fmt.Printf("  Business ID: %s\n", b.ID)
	fmt.Printf("  Database: %s\n", dbName)
	fmt.Printf("  Status: active\n")
	fmt.Printf("  Plan: %s\n", plan)
}

func listBusinesses(ctx context.Context) {
	metaPool := getMetaPool(ctx)
	defer metaPool.Close()

	registry := business.NewPostgresRegistry(metaPool)
	businesses, err := registry.ListAll(ctx)
	if err != nil {
		fmt.Printf("Error listing businesses: %v\n", err)
		os.Exit(1)
	}

	if len(businesses) == 0 {
		fmt.Println("No businesses found")
		return
	}

	fmt.Printf("%-36s %-20s %-30s %-15s %-10s %-10s\n", "BUSINESS_ID", "SLUG", "NAME", "DATABASE", "PLAN", "STATUS")
	fmt.Println(strings.Repeat("-", 130))

	for _, b := range businesses {
		fmt.Printf("%-36s %-20s %-30s %-15s %-10s %-10s\n",
			truncate(b.ID, 36),
			truncate(b.Slug, 20),
			truncate(b.Name, 30),
			truncate(b.DBName, 15),
			b.Plan,
			b.Status,
		)
	}
}

func migrateBusinesses(ctx context.Context) {
	var targetID string
	var all bool

	for i := 2; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--id":
			if i+1 < len(os.Args) {
				targetID = os.Args[i+1]
				i++
			}
		case "--all":
			all = true
		}
	}

	if !all && targetID == "" {
		fmt.Println("Error: specify --id <business-uuid> or --all")
		os.Exit(1)
	}

	metaPool := getMetaPool(ctx)
	defer metaPool.Close()

	registry := business.NewPostgresRegistry(metaPool)

	var businesses []*business.Business
	var err error

	if all {
		businesses, err = registry.ListActive(ctx)
	} else {
		b, e := registry.GetByID(ctx, targetID)
		if e != nil {
			fmt.Printf("Error: business '%s' not found\n", targetID)
			os.Exit(1)
		}
		businesses = []*business.Business{b}
		err = e
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	dbUser := os.Getenv("BUSINESS_DB_USER")
	dbPassword := os.Getenv("BUSINESS_DB_PASSWORD")

	if dbUser == "" || dbPassword == "" {
		fmt.Println("Error: BUSINESS_DB_USER and BUSINESS_DB_PASSWORD are required")
		os.Exit(1)
	}

	for _, b := range businesses {
		fmt.Printf("Migrating %s (%s)...\n", b.Slug, b.DBName)

		dsn := b.DSN(dbUser, dbPassword)
		cmd := exec.Command("goose", "-dir", "db/migrations", "postgres", dsn, "up")
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			fmt.Printf("  ✗ Failed: %v\n", err)
		} else {
			fmt.Printf("  ✓ Done\n")
		}
	}
}

func suspendBusiness(ctx context.Context) {
	if len(os.Args) < 3 {
		fmt.Println("Usage: business suspend <business-uuid>")
		os.Exit(1)
	}

	businessID := os.Args[2]

	metaPool := getMetaPool(ctx)
	defer metaPool.Close()

	registry := business.NewPostgresRegistry(metaPool)
	if err := registry.UpdateStatusByID(ctx, businessID, business.StatusSuspended); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Business '%s' suspended\n", businessID)
}

func activateBusiness(ctx context.Context) {
	if len(os.Args) < 3 {
		fmt.Println("Usage: business activate <business-uuid>")
		os.Exit(1)
	}

	businessID := os.Args[2]

	metaPool := getMetaPool(ctx)
	defer metaPool.Close()

	registry := business.NewPostgresRegistry(metaPool)
	if err := registry.UpdateStatusByID(ctx, businessID, business.StatusActive); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Business '%s' activated\n", businessID)
}

func setPlan(ctx context.Context) {
	if len(os.Args) < 4 {
		fmt.Println("Usage: business set-plan <business-uuid> <free|standard|full>")
		os.Exit(1)
	}

	businessID := os.Args[2]
	plan := business.Plan(os.Args[3])

	switch plan {
	case business.PlanFree, business.PlanStandard, business.PlanFull:
	default:
		fmt.Printf("Error: unknown plan '%s'\n", plan)
		os.Exit(1)
	}

	metaPool := getMetaPool(ctx)
	defer metaPool.Close()

	registry := business.NewPostgresRegistry(metaPool)
	if err := registry.UpdatePlanByID(ctx, businessID, plan); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Business '%s' moved to plan '%s'\n", businessID, plan)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
