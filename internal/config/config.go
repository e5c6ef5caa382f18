package config

import (
	"os"
	"strconv"
	"time"
)

// Store and storage backends selectable through configuration.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendMinio    = "minio"

	NotifierInApp = "inapp"
	NotifierLog   = "log"
)

type Config struct {
	Port            string
	Environment     string
	SupabaseURL     string
	SupabaseDBURL   string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	CORSOrigins     string
	TablePrefix     string
	LogDir          string
	LogMaxFiles     int

	// Persistence
	StoreBackend string // postgres | memory

	// Object storage
	StorageBackend   string // minio | memory
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageUseSSL    bool
	StoragePublicURL string // Optional override for public object URLs

	// Notifications
	Notifier string // inapp | log

	// Pending edit buffer
	EditFlushInterval time.Duration

	// AI-assisted search
	LLMProvider     string
	LLMModel        string
	AnthropicAPIKey string
	AskRatePerMin   int // Per-user budget for AI answers

	// DevAuthToken is accepted as a bearer token in dev only.
	DevAuthToken string

	// SupabaseServiceKey calls the auth admin API; only cmd/seed uses it.
	SupabaseServiceKey string
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)
	supabaseURL := getEnv("SUPABASE_URL", "")

	// Construct JWKS URL from Supabase URL
	jwksURL := ""
	if supabaseURL != "" {
		jwksURL = supabaseURL + "/auth/v1/.well-known/jwks.json"
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     env,
		SupabaseURL:     supabaseURL,
		SupabaseDBURL:   getEnv("SUPABASE_DB_URL", ""),
		SupabaseJWKSURL: jwksURL,
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:     tablePrefix,
		LogDir:          getEnv("LOG_DIR", ""),
		LogMaxFiles:     getEnvInt("LOG_MAX_FILES", 10),

		StoreBackend: getEnv("STORE_BACKEND", getDefaultStoreBackend(env)),

		StorageBackend:   getEnv("STORAGE_BACKEND", BackendMemory),
		StorageEndpoint:  getEnv("STORAGE_ENDPOINT", "localhost:9000"),
		StorageAccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
		StorageSecretKey: getEnv("STORAGE_SECRET_KEY", ""),
		StorageBucket:    getEnv("STORAGE_BUCKET", "qms-documents"),
		StorageUseSSL:    getEnv("STORAGE_USE_SSL", "false") == "true",
		StoragePublicURL: getEnv("STORAGE_PUBLIC_URL", ""),

		Notifier: getEnv("NOTIFIER", NotifierInApp),

		EditFlushInterval: getEnvDuration("EDIT_FLUSH_INTERVAL", 2*time.Second),

		LLMProvider:     getEnv("LLM_PROVIDER", "lorem"),
		LLMModel:        getEnv("LLM_MODEL", "claude-haiku-4-5-20251001"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AskRatePerMin:   getEnvInt("ASK_RATE_PER_MINUTE", 10),

		DevAuthToken: getEnv("DEV_AUTH_TOKEN", ""),

		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
	}
}

// getDefaultStoreBackend keeps dev runnable without a database.
func getDefaultStoreBackend(env string) string {
	if env == "prod" {
		return BackendPostgres
	}
	if os.Getenv("SUPABASE_DB_URL") != "" {
		return BackendPostgres
	}
	return BackendMemory
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
