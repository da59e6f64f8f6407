package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers for the document store
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Redis       RedisConfig      `mapstructure:"redis"`
	JWT         JWTConfig        `mapstructure:"jwt"`
	Auth        AuthConfig       `mapstructure:"auth"`
	Security    SecurityConfig   `mapstructure:"security"`
	Withdrawal  WithdrawalConfig `mapstructure:"withdrawal"`
	Analytics   AnalyticsConfig  `mapstructure:"analytics"`
	Email       EmailConfig      `mapstructure:"email"`
	Tracing     TracingConfig    `mapstructure:"tracing"`
	Widgets     WidgetsConfig    `mapstructure:"widgets"`
}

type ServerConfig struct {
	Port            int      `mapstructure:"port"`
	Host            string   `mapstructure:"host"`
	ReadTimeout     int      `mapstructure:"read_timeout"`
	WriteTimeout    int      `mapstructure:"write_timeout"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	RateLimitPerMin int      `mapstructure:"rate_limit_per_min"`
	// UserRateLimitPerMin caps authenticated calls per user; 0 disables it
	UserRateLimitPerMin int `mapstructure:"user_rate_limit_per_min"`
}

type DatabaseConfig struct {
	Driver          string      `mapstructure:"driver"` // postgres, mongo, memory
	URL             string      `mapstructure:"url"`
	Host            string      `mapstructure:"host"`
	Port            int         `mapstructure:"port"`
	Name            string      `mapstructure:"name"`
	User            string      `mapstructure:"user"`
	Password        string      `mapstructure:"password"`
	SSLMode         string      `mapstructure:"ssl_mode"`
	MaxOpenConns    int         `mapstructure:"max_open_conns"`
	MaxIdleConns    int         `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int         `mapstructure:"conn_max_lifetime"`
	Mongo           MongoConfig `mapstructure:"mongo"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
	Timeout  int    `mapstructure:"timeout"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret    string `mapstructure:"secret"`
	AccessTTL int    `mapstructure:"access_token_ttl"`
	Issuer    string `mapstructure:"issuer"`
}

// AuthConfig controls sign-up
type AuthConfig struct {
	AdminEmails       []string `mapstructure:"admin_emails"`
	PasswordMinLength int      `mapstructure:"password_min_length"`
	AllowSignup       bool     `mapstructure:"allow_signup"`
}

type SecurityConfig struct {
	AuditSecret string `mapstructure:"audit_secret"`
}

// WithdrawalConfig holds the withdrawal policy
type WithdrawalConfig struct {
	CommissionRate         string `mapstructure:"commission_rate"`
	MinimumAmount          string `mapstructure:"minimum_amount"`
	CommissionAtSubmission bool   `mapstructure:"commission_at_submission"`
	CommissionAtApproval   bool   `mapstructure:"commission_at_approval"`
	RestoreBalanceOnReject bool   `mapstructure:"restore_balance_on_reject"`
	SettleLedgerOnDecision bool   `mapstructure:"settle_ledger_on_decision"`
}

type AnalyticsConfig struct {
	TopCountries     int    `mapstructure:"top_countries"`
	TopPerformers    int    `mapstructure:"top_performers"`
	SnapshotSchedule string `mapstructure:"snapshot_schedule"`
}

type EmailConfig struct {
	Provider    string `mapstructure:"provider"` // "sendgrid"
	APIKey      string `mapstructure:"api_key"`
	FromEmail   string `mapstructure:"from_email"`
	FromName    string `mapstructure:"from_name"`
	BaseURL     string `mapstructure:"base_url"`
	Environment string `mapstructure:"environment"` // "development", "staging", "production"
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// WidgetsConfig holds the market-data embed options keyed by widget name
type WidgetsConfig struct {
	Theme   string                  `mapstructure:"theme"`
	Locale  string                  `mapstructure:"locale"`
	Widgets map[string]WidgetConfig `mapstructure:"items"`
}

type WidgetConfig struct {
	Script  string   `mapstructure:"script"`
	Symbols []string `mapstructure:"symbols"`
	Width   string   `mapstructure:"width"`
	Height  string   `mapstructure:"height"`
	Theme   string   `mapstructure:"theme"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	overrideFromEnv(v)

	return build(v)
}

func build(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if config.Database.Driver == DriverPostgres && config.Database.URL == "" {
		config.Database.URL = fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s",
			config.Database.User,
			config.Database.Password,
			config.Database.Host,
			config.Database.Port,
			config.Database.Name,
			config.Database.SSLMode,
		)
	}
	for i, email := range config.Auth.AdminEmails {
		config.Auth.AdminEmails[i] = strings.ToLower(strings.TrimSpace(email))
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.rate_limit_per_min", 100)
	v.SetDefault("server.user_rate_limit_per_min", 60)

	// Database defaults
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "backoffice")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("database.mongo.database", "backoffice")
	v.SetDefault("database.mongo.timeout", 10)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// JWT defaults
	v.SetDefault("jwt.access_token_ttl", 3600) // 1 hour
	v.SetDefault("jwt.issuer", "backoffice")

	// Auth defaults
	v.SetDefault("auth.admin_emails", []string{})
	v.SetDefault("auth.password_min_length", 8)
	v.SetDefault("auth.allow_signup", true)

	// Withdrawal policy defaults
	v.SetDefault("withdrawal.commission_rate", "15")
	v.SetDefault("withdrawal.minimum_amount", "100")
	v.SetDefault("withdrawal.commission_at_submission", true)
	v.SetDefault("withdrawal.commission_at_approval", true)
	v.SetDefault("withdrawal.restore_balance_on_reject", false)
	v.SetDefault("withdrawal.settle_ledger_on_decision", false)

	// Analytics defaults
	v.SetDefault("analytics.top_countries", 5)
	v.SetDefault("analytics.top_performers", 5)
	v.SetDefault("analytics.snapshot_schedule", "@every 5m")

	// Email defaults
	v.SetDefault("email.provider", "sendgrid")
	v.SetDefault("email.from_email", "no-reply@backoffice.local")
	v.SetDefault("email.from_name", "Investor Back Office")
	v.SetDefault("email.environment", "development")
	v.SetDefault("email.base_url", "http://localhost:3000")

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.service_name", "backoffice")
	v.SetDefault("tracing.sample_rate", 1.0)

	// Widget defaults
	v.SetDefault("widgets.theme", "dark")
	v.SetDefault("widgets.locale", "en")
	v.SetDefault("widgets.items", map[string]interface{}{
		"ticker-tape": map[string]interface{}{
			"script":  "embed-widget-ticker-tape.js",
			"symbols": []string{"FOREXCOM:SPXUSD", "FX:EURUSD", "BITSTAMP:BTCUSD", "OANDA:XAUUSD"},
			"width":   "100%",
			"height":  "46",
		},
		"market-overview": map[string]interface{}{
			"script":  "embed-widget-market-overview.js",
			"symbols": []string{"FX:EURUSD", "FX:GBPUSD", "FX:USDJPY"},
			"width":   "100%",
			"height":  "400",
		},
	})
}

func overrideFromEnv(v *viper.Viper) {
	// Server
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			v.Set("server.port", p)
		}
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		v.Set("server.allowed_origins", splitList(origins))
	}

	// Database
	if driver := os.Getenv("DATABASE_DRIVER"); driver != "" {
		v.Set("database.driver", strings.ToLower(driver))
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		v.Set("database.url", dbURL)
	}
	if mongoURI := os.Getenv("MONGO_URI"); mongoURI != "" {
		v.Set("database.mongo.uri", mongoURI)
	}
	if mongoDB := os.Getenv("MONGO_DATABASE"); mongoDB != "" {
		v.Set("database.mongo.database", mongoDB)
	}

	// Redis
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		v.Set("redis.url", redisURL)
		v.Set("redis.enabled", true)
	}

	// JWT
	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		v.Set("jwt.secret", jwtSecret)
	}

	// Auth
	if admins := os.Getenv("ADMIN_EMAILS"); admins != "" {
		v.Set("auth.admin_emails", splitList(admins))
	}

	// Audit
	if auditSecret := os.Getenv("AUDIT_SECRET"); auditSecret != "" {
		v.Set("security.audit_secret", auditSecret)
	}

	// Email Service
	if apiKey := os.Getenv("SENDGRID_API_KEY"); apiKey != "" {
		v.Set("email.api_key", apiKey)
		v.Set("email.provider", "sendgrid")
	}
	if fromEmail := os.Getenv("EMAIL_FROM_EMAIL"); fromEmail != "" {
		v.Set("email.from_email", fromEmail)
	}
	if fromName := os.Getenv("EMAIL_FROM_NAME"); fromName != "" {
		v.Set("email.from_name", fromName)
	}
	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		v.Set("email.base_url", baseURL)
	}

	// Tracing
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		v.Set("tracing.endpoint", endpoint)
		v.Set("tracing.enabled", true)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func validate(config *Config) error {
	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	switch config.Database.Driver {
	case DriverPostgres:
		if config.Database.URL == "" && (config.Database.Host == "" || config.Database.Name == "") {
			return fmt.Errorf("database configuration is incomplete")
		}
	case DriverMongo:
		if config.Database.Mongo.URI == "" || config.Database.Mongo.Database == "" {
			return fmt.Errorf("mongo configuration is incomplete")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", config.Database.Driver)
	}

	if config.Auth.PasswordMinLength < 6 {
		return fmt.Errorf("password minimum length must be at least 6")
	}

	return nil
}
