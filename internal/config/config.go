// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server, logging,
// backend selection (queue, store, search index, email, dialog engine),
// business API and observability settings.
//
// Load only validates settings every command needs. Backend-specific
// requirements (queue URL, table name, credentials) are checked by the
// Require* methods so that each command fails fast on exactly what it uses.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "dining-concierge")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// AWSConfig holds settings shared by every AWS client.
type AWSConfig struct {
	Region          string // AWS_REGION
	Endpoint        string // AWS_ENDPOINT_URL (localstack etc.)
	AccessKeyID     string // AWS_ACCESS_KEY_ID, optional (default chain otherwise)
	SecretAccessKey string // AWS_SECRET_ACCESS_KEY
	SessionToken    string // AWS_SESSION_TOKEN
}

// QueueConfig selects and configures the request queue.
type QueueConfig struct {
	Backend       string        // sqs|redis
	SQSURL        string        // SQS_QUEUE_URL
	RedisAddr     string        // REDIS_ADDR
	RedisPassword string        // REDIS_PASSWORD
	RedisDB       int           // REDIS_DB
	RedisKey      string        // REDIS_QUEUE_KEY
	Wait          time.Duration // QUEUE_WAIT (short poll wait)
	Visibility    time.Duration // QUEUE_VISIBILITY (redis in-flight timeout)
}

// StoreConfig selects and configures the restaurant key-value store.
type StoreConfig struct {
	Backend     string // sqlite|postgres|dynamodb
	DBPath      string // DB_PATH (sqlite)
	DSN         string // DATABASE_URL (postgres)
	DynamoTable string // DYNAMODB_TABLE
	ScanPage    int    // STORE_SCAN_PAGE
}

// SearchConfig selects and configures the cuisine search index.
type SearchConfig struct {
	Backend   string   // memory|opensearch
	Addresses []string // OPENSEARCH_ADDRESSES (CSV)
	Index     string   // OPENSEARCH_INDEX
	Username  string   // OPENSEARCH_USERNAME
	Password  string   // OPENSEARCH_PASSWORD
	SigV4     bool     // OPENSEARCH_SIGV4 (sign with AWS credentials)
}

// NotifyConfig selects and configures the email transport.
type NotifyConfig struct {
	Backend string // ses|log
	Sender  string // SES_SENDER_EMAIL
}

// DialogConfig selects the dialog engine used by the chat front end.
type DialogConfig struct {
	Engine     string // lex|local
	BotID      string // LEX_BOT_ID
	BotAliasID string // LEX_BOT_ALIAS_ID
	LocaleID   string // LEX_LOCALE_ID
}

// YelpConfig configures the third-party business API used by ingestion.
type YelpConfig struct {
	APIKey          string        // YELP_API_KEY
	BaseURL         string        // YELP_API_URL
	PageSize        int           // YELP_PAGE_SIZE
	MaxOffset       int           // YELP_MAX_OFFSET
	PageDelay       time.Duration // YELP_PAGE_DELAY
	DefaultLocation string        // INGEST_LOCATION
	Timeout         time.Duration // YELP_TIMEOUT
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes
	AdminEnabled   bool   // mount ingestion/admin routes

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Worker
	PollInterval time.Duration // pause between consumer invocations
	DedupeTTL    time.Duration // how long a notified message id is remembered

	// Backends
	AWS    AWSConfig
	Queue  QueueConfig
	Store  StoreConfig
	Search SearchConfig
	Notify NotifyConfig
	Dialog DialogConfig
	Yelp   YelpConfig

	// Observability
	OTEL OTELConfig
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding the process environment. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),
		AdminEnabled:   getbool("ADMIN_ENABLED", false),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Worker
		PollInterval: getdur("POLL_INTERVAL", 5*time.Second),
		DedupeTTL:    getdur("DEDUPE_TTL", 24*time.Hour),

		AWS: AWSConfig{
			Region:          getenv("AWS_REGION", "us-east-1"),
			Endpoint:        getenv("AWS_ENDPOINT_URL", ""),
			AccessKeyID:     getenv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getenv("AWS_SECRET_ACCESS_KEY", ""),
			SessionToken:    getenv("AWS_SESSION_TOKEN", ""),
		},
		Queue: QueueConfig{
			Backend:       strings.ToLower(getenv("QUEUE_BACKEND", "redis")),
			SQSURL:        getenv("SQS_QUEUE_URL", ""),
			RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getint("REDIS_DB", 0),
			RedisKey:      getenv("REDIS_QUEUE_KEY", "dining:requests"),
			Wait:          getdur("QUEUE_WAIT", 2*time.Second),
			Visibility:    getdur("QUEUE_VISIBILITY", 30*time.Second),
		},
		Store: StoreConfig{
			Backend:     strings.ToLower(getenv("STORE_BACKEND", "sqlite")),
			DBPath:      getenv("DB_PATH", "concierge.db"),
			DSN:         getenv("DATABASE_URL", ""),
			DynamoTable: getenv("DYNAMODB_TABLE", "yelp-restaurants"),
			ScanPage:    getint("STORE_SCAN_PAGE", 100),
		},
		Search: SearchConfig{
			Backend:   strings.ToLower(getenv("SEARCH_BACKEND", "memory")),
			Addresses: splitCSV(getenv("OPENSEARCH_ADDRESSES", "")),
			Index:     getenv("OPENSEARCH_INDEX", "restaurants"),
			Username:  getenv("OPENSEARCH_USERNAME", ""),
			Password:  getenv("OPENSEARCH_PASSWORD", ""),
			SigV4:     getbool("OPENSEARCH_SIGV4", false),
		},
		Notify: NotifyConfig{
			Backend: strings.ToLower(getenv("NOTIFY_BACKEND", "log")),
			Sender:  getenv("SES_SENDER_EMAIL", ""),
		},
		Dialog: DialogConfig{
			Engine:     strings.ToLower(getenv("DIALOG_ENGINE", "local")),
			BotID:      getenv("LEX_BOT_ID", ""),
			BotAliasID: getenv("LEX_BOT_ALIAS_ID", ""),
			LocaleID:   getenv("LEX_LOCALE_ID", "en_US"),
		},
		Yelp: YelpConfig{
			APIKey:          getenv("YELP_API_KEY", ""),
			BaseURL:         getenv("YELP_API_URL", "https://api.yelp.com/v3/businesses/search"),
			PageSize:        getint("YELP_PAGE_SIZE", 50),
			MaxOffset:       getint("YELP_MAX_OFFSET", 190),
			PageDelay:       getdur("YELP_PAGE_DELAY", time.Second),
			DefaultLocation: getenv("INGEST_LOCATION", "New York"),
			Timeout:         getdur("YELP_TIMEOUT", 10*time.Second),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "dining-concierge"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.PollInterval <= 0 {
		return cfg, errors.New("POLL_INTERVAL must be > 0")
	}
	if cfg.DedupeTTL <= 0 {
		return cfg, errors.New("DEDUPE_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	switch cfg.Queue.Backend {
	case "sqs", "redis":
	default:
		return cfg, errors.New("QUEUE_BACKEND must be one of: sqs, redis")
	}
	if cfg.Queue.Wait < 0 || cfg.Queue.Wait > 20*time.Second {
		return cfg, errors.New("QUEUE_WAIT must be between 0s and 20s")
	}
	switch cfg.Store.Backend {
	case "sqlite", "postgres", "dynamodb":
	default:
		return cfg, errors.New("STORE_BACKEND must be one of: sqlite, postgres, dynamodb")
	}
	if cfg.Store.ScanPage < 1 {
		return cfg, errors.New("STORE_SCAN_PAGE must be >= 1")
	}
	switch cfg.Search.Backend {
	case "memory", "opensearch":
	default:
		return cfg, errors.New("SEARCH_BACKEND must be one of: memory, opensearch")
	}
	switch cfg.Notify.Backend {
	case "ses", "log":
	default:
		return cfg, errors.New("NOTIFY_BACKEND must be one of: ses, log")
	}
	switch cfg.Dialog.Engine {
	case "lex", "local":
	default:
		return cfg, errors.New("DIALOG_ENGINE must be one of: lex, local")
	}
	if cfg.Yelp.PageSize < 1 || cfg.Yelp.MaxOffset < 0 || cfg.Yelp.PageDelay < 0 {
		return cfg, errors.New("YELP_PAGE_SIZE must be >= 1, YELP_MAX_OFFSET and YELP_PAGE_DELAY >= 0")
	}

	return cfg, nil
}

// RequireQueue checks the settings of the selected queue backend.
func (c Config) RequireQueue() error {
	switch c.Queue.Backend {
	case "sqs":
		if strings.TrimSpace(c.Queue.SQSURL) == "" {
			return errors.New("SQS_QUEUE_URL is required for QUEUE_BACKEND=sqs")
		}
	case "redis":
		if strings.TrimSpace(c.Queue.RedisAddr) == "" || strings.TrimSpace(c.Queue.RedisKey) == "" {
			return errors.New("REDIS_ADDR and REDIS_QUEUE_KEY are required for QUEUE_BACKEND=redis")
		}
	}
	return nil
}

// RequireStore checks the settings of the selected key-value store.
func (c Config) RequireStore() error {
	switch c.Store.Backend {
	case "sqlite":
		if strings.TrimSpace(c.Store.DBPath) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(c.Store.DSN) == "" {
			return errors.New("DATABASE_URL is required for STORE_BACKEND=postgres")
		}
	case "dynamodb":
		if strings.TrimSpace(c.Store.DynamoTable) == "" {
			return errors.New("DYNAMODB_TABLE is required for STORE_BACKEND=dynamodb")
		}
	}
	return nil
}

// RequireSearch checks the settings of the selected search index.
func (c Config) RequireSearch() error {
	if c.Search.Backend != "opensearch" {
		return nil
	}
	if len(c.Search.Addresses) == 0 {
		return errors.New("OPENSEARCH_ADDRESSES is required for SEARCH_BACKEND=opensearch")
	}
	if strings.TrimSpace(c.Search.Index) == "" {
		return errors.New("OPENSEARCH_INDEX must not be empty")
	}
	return nil
}

// RequireNotify checks the settings of the selected email transport.
func (c Config) RequireNotify() error {
	if c.Notify.Backend == "ses" && strings.TrimSpace(c.Notify.Sender) == "" {
		return errors.New("SES_SENDER_EMAIL is required for NOTIFY_BACKEND=ses")
	}
	return nil
}

// RequireDialog checks the settings of the selected dialog engine.
func (c Config) RequireDialog() error {
	if c.Dialog.Engine == "lex" && (c.Dialog.BotID == "" || c.Dialog.BotAliasID == "") {
		return errors.New("LEX_BOT_ID and LEX_BOT_ALIAS_ID are required for DIALOG_ENGINE=lex")
	}
	return nil
}

// RequireYelp checks the business API credentials.
func (c Config) RequireYelp() error {
	if strings.TrimSpace(c.Yelp.APIKey) == "" {
		return errors.New("YELP_API_KEY is required for source ingestion")
	}
	return nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
