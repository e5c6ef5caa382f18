package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"qms/internal/auth"
	"qms/internal/config"
	"qms/internal/domain"
	qmsModels "qms/internal/domain/models/qms"
	qmsSvc "qms/internal/domain/services/qms"
	"qms/internal/repository/postgres"
	postgresQMS "qms/internal/repository/postgres/qms"
	serviceQMS "qms/internal/service/qms"
	"qms/internal/templates"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema and templates, no demo data")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	log.Printf("Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	log.Println("Ensuring database schema is up to date...")
	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}

	registry, err := templates.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load template schemas: %v", err)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	templateRepo := postgresQMS.NewTemplateRepository(repoConfig)
	for _, tmpl := range registry.Templates() {
		if err := templateRepo.Upsert(ctx, &tmpl); err != nil {
			log.Fatalf("Failed to upsert template %s: %v", tmpl.Type, err)
		}
		log.Printf("  template %s (%s)", tmpl.Name, tmpl.Type)
	}

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	catalog := serviceQMS.NewCatalogService(serviceQMS.Stores{
		Templates:     templateRepo,
		Products:      postgresQMS.NewProductRepository(repoConfig),
		Suppliers:     postgresQMS.NewSupplierRepository(repoConfig),
		Notifications: postgresQMS.NewNotificationRepository(repoConfig),
	}, registry, logger)

	if err := seedCatalog(ctx, catalog); err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}

	if cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "" {
		log.Println("Skipping demo staff accounts (SUPABASE_URL or SUPABASE_SERVICE_ROLE_KEY not set)")
	} else if err := seedStaff(ctx, auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseServiceKey)); err != nil {
		log.Fatalf("Failed to seed staff accounts: %v", err)
	}

	log.Println("Seeding complete!")
}

var demoProducts = []qmsSvc.CreateProductRequest{
	{Name: "Vitamin D3 5000 IU Softgels", SKU: "VD3-5000-120", Description: "Cholecalciferol in olive oil, 120 count"},
	{Name: "Magnesium Glycinate Capsules", SKU: "MAG-GLY-90", Description: "200 mg elemental magnesium, 90 count"},
	{Name: "Ashwagandha Root Powder", SKU: "ASH-PWD-250", Description: "KSM-66 extract, 250 g pouch"},
}

var demoSuppliers = []qmsSvc.CreateSupplierRequest{
	{Name: "Northfield Botanicals", ContactEmail: "qa@northfield.example", Status: qmsModels.SupplierApproved},
	{Name: "Pacific Gelatin Co.", ContactEmail: "quality@pacificgel.example", Status: qmsModels.SupplierApproved},
	{Name: "Redwood Minerals", ContactEmail: "compliance@redwood.example"},
}

var demoStaff = []auth.StaffUser{
	{Email: "qa.manager@example.com", Password: "change-me-qa", FullName: "QA Manager"},
	{Email: "reviewer@example.com", Password: "change-me-review", FullName: "QA Reviewer"},
}

// seedCatalog creates the demo products and suppliers. Existing SKUs are
// left alone so the command can be re-run.
func seedCatalog(ctx context.Context, catalog qmsSvc.CatalogService) error {
	for i := range demoProducts {
		p, err := catalog.CreateProduct(ctx, &demoProducts[i])
		if errors.Is(err, domain.ErrConflict) {
			log.Printf("  product %s exists", demoProducts[i].SKU)
			continue
		}
		if err != nil {
			return err
		}
		log.Printf("  product %s (ID: %s)", p.SKU, p.ID)
	}

	existing, err := catalog.ListSuppliers(ctx)
	if err != nil {
		return err
	}
	names := make(map[string]bool, len(existing))
	for _, s := range existing {
		names[s.Name] = true
	}
	for i := range demoSuppliers {
		if names[demoSuppliers[i].Name] {
			log.Printf("  supplier %s exists", demoSuppliers[i].Name)
			continue
		}
		s, err := catalog.CreateSupplier(ctx, &demoSuppliers[i])
		if err != nil {
			return err
		}
		log.Printf("  supplier %s (ID: %s, status: %s)", s.Name, s.ID, s.Status)
	}
	return nil
}

func seedStaff(ctx context.Context, admin *auth.AdminClient) error {
	for _, u := range demoStaff {
		id, err := admin.EnsureUser(ctx, u)
		if err != nil {
			return err
		}
		log.Printf("  staff %s (ID: %s)", u.Email, id)
	}
	return nil
}

// dropAllTables drops every QMS table, dependents first
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	for _, stmt := range postgres.DropStatements(tables) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
