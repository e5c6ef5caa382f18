package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"qms/internal/auth"
	"qms/internal/config"
	qmsSvc "qms/internal/domain/services/qms"
	"qms/internal/handler"
	"qms/internal/middleware"
	"qms/internal/notify"
	"qms/internal/repository/memory"
	"qms/internal/repository/postgres"
	postgresQMS "qms/internal/repository/postgres/qms"
	serviceLLM "qms/internal/service/llm"
	serviceQMS "qms/internal/service/qms"
	"qms/internal/service/qms/richtext"
	"qms/internal/storage"
	"qms/internal/templates"
)

// askBurst is how many AI questions a user may send back to back
const askBurst = 3

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"store", cfg.StoreBackend,
		"storage", cfg.StorageBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := templates.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load template schemas: %v", err)
	}

	stores, closeStores, err := openStores(ctx, cfg, registry, logger)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}
	defer closeStores()

	objects, err := openObjectStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open object storage: %v", err)
	}

	verifier, err := newVerifier(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create token verifier: %v", err)
	}
	defer verifier.Close()

	// Services
	sanitizer := richtext.NewSanitizer()
	dispatcher := serviceQMS.NewNotificationDispatcher(newNotifier(cfg, stores, logger), logger)
	workflow := serviceQMS.NewWorkflowService(stores, registry, objects, dispatcher, sanitizer, logger)
	buffer := serviceQMS.NewEditBuffer(workflow, cfg.EditFlushInterval, logger)
	buffer.Start()

	answerer, err := newAnswerer(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to set up LLM provider: %v", err)
	}
	search := serviceQMS.NewSearchService(stores, answerer, richtext.NewRenderer(sanitizer), logger)

	logger.Info("services initialized")

	mux := handler.NewRouter(handler.Handlers{
		Documents: handler.NewDocumentHandler(workflow, buffer, logger),
		Reviews:   handler.NewReviewHandler(workflow, logger),
		Files:     handler.NewFileHandler(serviceQMS.NewFileService(stores, objects, logger), logger),
		Catalog:   handler.NewCatalogHandler(serviceQMS.NewCatalogService(stores, registry, logger), logger),
		Search:    handler.NewSearchHandler(search, logger),
		AskLimit:  middleware.RateLimit(middleware.NewRateLimiter(cfg.AskRatePerMin, askBurst), logger),
	})

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → RequestID → RequestLogger → Recovery → Auth → Routes
	var h http.Handler = mux
	h = middleware.Auth(verifier, logger, "/health")(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestLogger(logger)(h)
	h = middleware.RequestID(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second, // Uploads up to the file size limit
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	// Staged edits are saved before the store closes
	buffer.Stop(shutdownCtx)
	dispatcher.Wait()

	logger.Info("server stopped")
}

// openStores returns the repositories for the configured backend. The
// memory backend is seeded with the template catalog on every start.
func openStores(ctx context.Context, cfg *config.Config, registry *templates.Registry, logger *slog.Logger) (serviceQMS.Stores, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		repos := memory.New()
		if err := repos.SeedTemplates(ctx, registry.Templates()); err != nil {
			return serviceQMS.Stores{}, nil, err
		}
		logger.Warn("using in-memory document store; data is lost on restart")
		return serviceQMS.Stores{
			Tx:            repos.Tx,
			Documents:     repos.Documents,
			Approvals:     repos.Approvals,
			Versions:      repos.Versions,
			Files:         repos.Files,
			Templates:     repos.Templates,
			Products:      repos.Products,
			Suppliers:     repos.Suppliers,
			Notifications: repos.Notifications,
		}, func() {}, nil

	case config.BackendPostgres:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
		if err != nil {
			return serviceQMS.Stores{}, nil, err
		}
		logger.Info("database connected", "max_conns", pool.Config().MaxConns, "min_conns", pool.Config().MinConns)

		tables := postgres.NewTableNames(cfg.TablePrefix)
		if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
			pool.Close()
			return serviceQMS.Stores{}, nil, err
		}
		return postgresStores(pool, tables, logger), pool.Close, nil
	}
	return serviceQMS.Stores{}, nil, errors.New("unknown STORE_BACKEND " + cfg.StoreBackend)
}

func postgresStores(pool *pgxpool.Pool, tables *postgres.TableNames, logger *slog.Logger) serviceQMS.Stores {
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	return serviceQMS.Stores{
		Tx:            postgres.NewTransactionManager(pool, logger),
		Documents:     postgresQMS.NewDocumentRepository(repoConfig),
		Approvals:     postgresQMS.NewApprovalRepository(repoConfig),
		Versions:      postgresQMS.NewVersionRepository(repoConfig),
		Files:         postgresQMS.NewFileRepository(repoConfig),
		Templates:     postgresQMS.NewTemplateRepository(repoConfig),
		Products:      postgresQMS.NewProductRepository(repoConfig),
		Suppliers:     postgresQMS.NewSupplierRepository(repoConfig),
		Notifications: postgresQMS.NewNotificationRepository(repoConfig),
	}
}

func openObjectStorage(ctx context.Context, cfg *config.Config) (qmsSvc.ObjectStorage, error) {
	if cfg.StorageBackend != config.BackendMinio {
		return storage.NewMemoryStorage("memory://" + cfg.StorageBucket), nil
	}
	s, err := storage.NewMinioStorage(storage.MinioConfig{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		Bucket:    cfg.StorageBucket,
		UseSSL:    cfg.StorageUseSSL,
		PublicURL: cfg.StoragePublicURL,
	})
	if err != nil {
		return nil, err
	}
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newNotifier(cfg *config.Config, stores serviceQMS.Stores, logger *slog.Logger) qmsSvc.Notifier {
	logNotifier := notify.NewLogNotifier(logger)
	if cfg.Notifier == config.NotifierLog {
		return logNotifier
	}
	return notify.NewMultiNotifier(notify.NewInAppNotifier(stores.Notifications), logNotifier)
}

// newAnswerer returns nil when no provider is configured; /api/ask then
// only lists matching documents.
func newAnswerer(cfg *config.Config, logger *slog.Logger) (qmsSvc.Answerer, error) {
	if cfg.LLMProvider == "" {
		logger.Info("AI answers disabled")
		return nil, nil
	}
	factory := serviceLLM.NewProviderFactory(cfg)
	provider, err := factory.GetProvider(cfg.LLMProvider)
	if err != nil {
		return nil, err
	}
	model := factory.Model(cfg.LLMProvider)
	answerer, err := serviceLLM.NewProviderAnswerer(provider, model)
	if err != nil {
		return nil, err
	}
	logger.Info("AI answers enabled", "provider", cfg.LLMProvider, "model", model)
	return answerer, nil
}

// newVerifier accepts Supabase JWTs when a project URL is configured and,
// in dev only, the DEV_AUTH_TOKEN shortcut.
func newVerifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) (auth.TokenVerifier, error) {
	var chain auth.ChainVerifier
	if cfg.SupabaseJWKSURL != "" {
		v, err := auth.NewJWTVerifier(ctx, cfg.SupabaseJWKSURL, logger)
		if err != nil {
			return nil, err
		}
		chain = append(chain, v)
	}
	if cfg.Environment == "dev" && cfg.DevAuthToken != "" {
		logger.Warn("DEBUG MODE: dev auth tokens accepted (NEVER use in production!)")
		chain = append(chain, auth.NewDevTokenVerifier(cfg.DevAuthToken))
	}
	if len(chain) == 0 {
		return nil, errors.New("no token verifier configured: set SUPABASE_URL or DEV_AUTH_TOKEN")
	}
	return chain, nil
}
