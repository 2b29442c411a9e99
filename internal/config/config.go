// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, both data stores, token secrets, rate
// limiting, messaging and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/LulDrako/playmarket-docker/internal/sysutil"
)

// Application environments recognised by APP_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "playmarket-api")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig describes the relational store connection.
type DBConfig struct {
	Driver          string        // postgres|sqlite|mysql
	DSN             string        // DATABASE_URL (postgres/mysql)
	Path            string        // DB_PATH (sqlite)
	MaxOpenConns    int           // DB_MAX_OPEN_CONNS
	MaxIdleConns    int           // DB_MAX_IDLE_CONNS
	ConnMaxIdleTime time.Duration // DB_CONN_MAX_IDLE_TIME
	ConnMaxLifetime time.Duration // DB_CONN_MAX_LIFETIME
	ConnectTimeout  time.Duration // DB_CONNECT_TIMEOUT
	AutoMigrate     bool          // DB_AUTO_MIGRATE
}

// MongoConfig describes the document store connection.
type MongoConfig struct {
	URI            string        // MONGODB_URI
	Database       string        // MONGODB_DATABASE
	ConnectTimeout time.Duration // MONGODB_CONNECT_TIMEOUT
	MaxPoolSize    uint64        // MONGODB_MAX_POOL_SIZE
}

// JWTConfig holds the signing material for access and refresh tokens.
type JWTConfig struct {
	AccessSecret  string        // JWT_SECRET
	RefreshSecret string        // JWT_REFRESH_SECRET
	AccessTTL     time.Duration // JWT_ACCESS_TTL
	RefreshTTL    time.Duration // JWT_REFRESH_TTL
	Issuer        string        // JWT_ISSUER
}

// WindowLimit expresses a "Max requests per Window" budget.
type WindowLimit struct {
	Max    int
	Window time.Duration
}

// TLSConfig points at the optional certificate material.
type TLSConfig struct {
	CertFile string // TLS_CERT_FILE
	KeyFile  string // TLS_KEY_FILE
	CAFile   string // TLS_CA_FILE
}

// Enabled reports whether both certificate and key were configured.
func (t TLSConfig) Enabled() bool { return t.CertFile != "" && t.KeyFile != "" }

// AMQPConfig configures order event publishing over RabbitMQ.
type AMQPConfig struct {
	URL             string // AMQP_URL (empty disables publishing)
	Exchange        string // AMQP_EXCHANGE
	Queue           string // AMQP_ACTIVITY_QUEUE
	ConsumerEnabled bool   // AMQP_CONSUMER_ENABLED
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	DSN              string  // SENTRY_DSN
	TracesSampleRate float64 // SENTRY_TRACES_SAMPLE_RATE
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Env               string        // development|production|test
	Version           string        // APP_VERSION
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // e.g. 10s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test
	TLS               TLSConfig

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes
	StaticDir      string // optional SPA build directory

	// Stores
	DB    DBConfig
	Mongo MongoConfig

	// Auth
	JWT        JWTConfig
	BcryptCost int

	// Rate limiting
	RateRPS        float64 // tokens per second (>= 0)
	RateBurst      int     // bucket size (>= 1)
	AuthRate       WindowLimit
	RefreshRate    WindowLimit
	OrderRateRPS   float64
	OrderRateBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Messaging
	AMQP AMQPConfig

	// Observability
	OTEL   OTELConfig
	Sentry SentryConfig
}

// IsProduction reports whether the service runs with production posture
// (secure cookies, strict CORS, tight rate limits).
func (c Config) IsProduction() bool { return c.Env == EnvProduction }

// IsDevelopment reports whether development conveniences are enabled.
func (c Config) IsDevelopment() bool { return c.Env == EnvDevelopment }

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
	env := strings.ToLower(strings.TrimSpace(getenv("APP_ENV", EnvDevelopment)))
	prod := env == EnvProduction

	// Rate budgets differ between production and development.
	globalMax, authMax, refreshMax := 1000, 100, 100
	if prod {
		globalMax, authMax, refreshMax = 100, 5, 10
	}
	window := getdur("RATE_WINDOW", 15*time.Minute)

	cfg := Config{
		// Server
		Env:               env,
		Version:           getenv("APP_VERSION", "dev"),
		Port:              getenv("PORT", "3000"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		TLS: TLSConfig{
			CertFile: getenv("TLS_CERT_FILE", ""),
			KeyFile:  getenv("TLS_KEY_FILE", ""),
			CAFile:   getenv("TLS_CA_FILE", ""),
		},

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", !prod),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),
		StaticDir:      getenv("STATIC_DIR", ""),

		// Stores
		DB: DBConfig{
			Driver:          strings.ToLower(getenv("DB_DRIVER", "postgres")),
			DSN:             getenv("DATABASE_URL", ""),
			Path:            getenv("DB_PATH", "playmarket.db"),
			MaxOpenConns:    getint("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getint("DB_MAX_IDLE_CONNS", 10),
			ConnMaxIdleTime: getdur("DB_CONN_MAX_IDLE_TIME", 30*time.Second),
			ConnMaxLifetime: getdur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnectTimeout:  getdur("DB_CONNECT_TIMEOUT", 2*time.Second),
			AutoMigrate:     getbool("DB_AUTO_MIGRATE", true),
		},
		Mongo: MongoConfig{
			URI:            getenv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getenv("MONGODB_DATABASE", "playmarket"),
			ConnectTimeout: getdur("MONGODB_CONNECT_TIMEOUT", 2*time.Second),
			MaxPoolSize:    uint64(getint("MONGODB_MAX_POOL_SIZE", 20)),
		},

		// Auth
		JWT: JWTConfig{
			AccessSecret:  getenv("JWT_SECRET", ""),
			RefreshSecret: getenv("JWT_REFRESH_SECRET", ""),
			AccessTTL:     getdur("JWT_ACCESS_TTL", 15*time.Minute),
			RefreshTTL:    getdur("JWT_REFRESH_TTL", 7*24*time.Hour),
			Issuer:        getenv("JWT_ISSUER", "playmarket"),
		},
		BcryptCost: getint("BCRYPT_COST", 10),

		// Rate limiting
		RateRPS:        getfloat("RATE_RPS", float64(globalMax)/window.Seconds()),
		RateBurst:      getint("RATE_BURST", globalMax),
		AuthRate:       WindowLimit{Max: getint("AUTH_RATE_MAX", authMax), Window: window},
		RefreshRate:    WindowLimit{Max: getint("REFRESH_RATE_MAX", refreshMax), Window: window},
		OrderRateRPS:   getfloat("ORDER_RATE_RPS", 1),
		OrderRateBurst: getint("ORDER_RATE_BURST", 5),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(sysutil.FirstNonEmpty(os.Getenv("CORS_ALLOWED_ORIGINS"), os.Getenv("ALLOWED_ORIGINS"))),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", prod),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Messaging
		AMQP: AMQPConfig{
			URL:             getenv("AMQP_URL", ""),
			Exchange:        getenv("AMQP_EXCHANGE", "playmarket.events"),
			Queue:           getenv("AMQP_ACTIVITY_QUEUE", "playmarket.activity.purchases"),
			ConsumerEnabled: getbool("AMQP_CONSUMER_ENABLED", true),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "playmarket-api"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
		Sentry: SentryConfig{
			DSN:              getenv("SENTRY_DSN", ""),
			TracesSampleRate: getfloat("SENTRY_TRACES_SAMPLE_RATE", 0.2),
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
	if cfg.DB.Driver == "postgresql" {
		cfg.DB.Driver = "postgres"
	}

	// --- validation ---
	switch cfg.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return cfg, errors.New("APP_ENV must be one of: development, production, test")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if (cfg.TLS.CertFile == "") != (cfg.TLS.KeyFile == "") {
		return cfg, errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	switch cfg.DB.Driver {
	case "postgres", "mysql":
		if strings.TrimSpace(cfg.DB.DSN) == "" {
			return cfg, errors.New("DATABASE_URL must not be empty for DB_DRIVER=" + cfg.DB.Driver)
		}
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: postgres, sqlite, mysql")
	}
	if cfg.DB.MaxOpenConns < 1 || cfg.DB.MaxIdleConns < 0 {
		return cfg, errors.New("DB pool sizes must be positive")
	}
	if strings.TrimSpace(cfg.Mongo.URI) == "" || strings.TrimSpace(cfg.Mongo.Database) == "" {
		return cfg, errors.New("MONGODB_URI and MONGODB_DATABASE must not be empty")
	}
	if cfg.JWT.AccessSecret == "" || cfg.JWT.RefreshSecret == "" {
		return cfg, errors.New("JWT_SECRET and JWT_REFRESH_SECRET are required")
	}
	if cfg.JWT.AccessSecret == cfg.JWT.RefreshSecret {
		return cfg, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if cfg.JWT.AccessTTL <= 0 || cfg.JWT.RefreshTTL <= 0 {
		return cfg, errors.New("token TTLs must be positive durations")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return cfg, errors.New("BCRYPT_COST must be between 4 and 31")
	}
	if cfg.RateRPS < 0 || cfg.OrderRateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 || cfg.OrderRateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.AuthRate.Max < 1 || cfg.RefreshRate.Max < 1 || window <= 0 {
		return cfg, errors.New("auth rate limits must be positive")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
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
		if sysutil.IsTruthy(v) {
			return true
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
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
