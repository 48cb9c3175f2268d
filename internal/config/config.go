package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"retail-cockpit-api/internal/adapters/storage"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	CORS        CORSConfig
	RateLimit   RateLimitConfig
	RecordStore RecordStoreConfig
	Storage     storage.Config
	Retry       storage.RetryConfig
	Analytics   AnalyticsConfig
	Logging     LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	Mode            string // gin mode: debug, release or test
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	SlowRequest     time.Duration
}

// Addr is the listen address
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// AuthConfig holds JWT and account configuration
type AuthConfig struct {
	JWTSecret     string
	TokenDuration time.Duration
	Issuer        string
	BcryptCost    int

	// bootstrap admin created on start when the email is unknown
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         time.Duration
}

// RateLimitConfig holds per-client request limits. Zero disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// RecordStore sources
const (
	SourceSQLite    = "sqlite"
	SourceFirestore = "firestore"
)

// RecordStoreConfig selects where dashboard datasets are read from
type RecordStoreConfig struct {
	Source          string
	ProjectID       string
	CredentialsJSON string
	CredentialsFile string
	RefreshInterval time.Duration
	Watch           bool

	EmployeesCollection      string
	StoresCollection         string
	DailyMetricsCollection   string
	TransactionsCollection   string
	KingDuvetSalesCollection string
}

// AnalyticsConfig tunes dashboard aggregation
type AnalyticsConfig struct {
	TrendDays     int
	TopProducts   int
	TopPerformers int
}

// LoggingConfig holds logrus settings
type LoggingConfig struct {
	Level  string
	Format string // json or text
}

// Load loads configuration from a .env file, an optional config file and
// environment variables. Nested keys map to upper-case env names with
// underscores, e.g. server.port is SERVER_PORT.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8081")
	v.SetDefault("server.mode", "")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.max_body_bytes", 10*1024*1024)
	v.SetDefault("server.slow_request", "1s")

	db := DefaultDatabaseConfig()
	v.SetDefault("database.path", db.Path)
	v.SetDefault("database.wal", db.WALMode)
	v.SetDefault("database.busy_timeout", db.BusyTimeout.String())
	v.SetDefault("database.max_open_conns", db.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", db.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", db.ConnMaxLifetime.String())
	v.SetDefault("database.auto_migrate", db.AutoMigrate)
	v.SetDefault("database.backup_enabled", db.BackupEnabled)
	v.SetDefault("database.stats_interval", "0s")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_duration", "24h")
	v.SetDefault("auth.issuer", "retail-cockpit-api")
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.admin_name", "Administrator")
	v.SetDefault("auth.admin_email", "")
	v.SetDefault("auth.admin_password", "")

	v.SetDefault("cors.allowed_origins", "*")
	v.SetDefault("cors.max_age", "12h")

	v.SetDefault("ratelimit.rps", 100)
	v.SetDefault("ratelimit.burst", 200)

	v.SetDefault("recordstore.source", SourceSQLite)
	v.SetDefault("recordstore.project_id", "")
	v.SetDefault("recordstore.credentials_json", "")
	v.SetDefault("recordstore.credentials_file", "")
	v.SetDefault("recordstore.refresh_interval", "5m")
	v.SetDefault("recordstore.watch", true)
	v.SetDefault("recordstore.collections.employees", "employees")
	v.SetDefault("recordstore.collections.stores", "stores")
	v.SetDefault("recordstore.collections.daily_metrics", "dailyMetrics")
	v.SetDefault("recordstore.collections.transactions", "salesTransactions")
	v.SetDefault("recordstore.collections.king_duvet_sales", "kingDuvetSales")

	v.SetDefault("storage.type", string(storage.StorageTypeLocal))
	v.SetDefault("storage.base_path", "./data/exports")
	v.SetDefault("storage.base_url", "")
	v.SetDefault("storage.retry.max_attempts", 3)
	v.SetDefault("storage.retry.initial_delay", "100ms")
	v.SetDefault("storage.retry.max_delay", "5s")

	v.SetDefault("analytics.trend_days", 30)
	v.SetDefault("analytics.top_products", 5)
	v.SetDefault("analytics.top_performers", 5)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Environment: v.GetString("environment"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetString("server.port"),
			Mode:            v.GetString("server.mode"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			MaxBodyBytes:    v.GetInt64("server.max_body_bytes"),
			SlowRequest:     v.GetDuration("server.slow_request"),
		},
		Database: DatabaseConfig{
			Path:            v.GetString("database.path"),
			WALMode:         v.GetBool("database.wal"),
			BusyTimeout:     v.GetDuration("database.busy_timeout"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
			BackupEnabled:   v.GetBool("database.backup_enabled"),
			StatsInterval:   v.GetDuration("database.stats_interval"),
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("auth.jwt_secret"),
			TokenDuration: v.GetDuration("auth.token_duration"),
			Issuer:        v.GetString("auth.issuer"),
			BcryptCost:    v.GetInt("auth.bcrypt_cost"),
			AdminName:     v.GetString("auth.admin_name"),
			AdminEmail:    v.GetString("auth.admin_email"),
			AdminPassword: v.GetString("auth.admin_password"),
		},
		CORS: CORSConfig{
			AllowedOrigins: SplitList(v.GetString("cors.allowed_origins")),
			MaxAge:         v.GetDuration("cors.max_age"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("ratelimit.rps"),
			Burst:             v.GetInt("ratelimit.burst"),
		},
		RecordStore: RecordStoreConfig{
			Source:                   strings.ToLower(v.GetString("recordstore.source")),
			ProjectID:                v.GetString("recordstore.project_id"),
			CredentialsJSON:          v.GetString("recordstore.credentials_json"),
			CredentialsFile:          v.GetString("recordstore.credentials_file"),
			RefreshInterval:          v.GetDuration("recordstore.refresh_interval"),
			Watch:                    v.GetBool("recordstore.watch"),
			EmployeesCollection:      v.GetString("recordstore.collections.employees"),
			StoresCollection:         v.GetString("recordstore.collections.stores"),
			DailyMetricsCollection:   v.GetString("recordstore.collections.daily_metrics"),
			TransactionsCollection:   v.GetString("recordstore.collections.transactions"),
			KingDuvetSalesCollection: v.GetString("recordstore.collections.king_duvet_sales"),
		},
		Storage: storage.Config{
			Type:     v.GetString("storage.type"),
			BasePath: v.GetString("storage.base_path"),
			BaseURL:  v.GetString("storage.base_url"),
		},
		Retry: storage.RetryConfig{
			MaxAttempts:   v.GetInt("storage.retry.max_attempts"),
			InitialDelay:  v.GetDuration("storage.retry.initial_delay"),
			MaxDelay:      v.GetDuration("storage.retry.max_delay"),
			BackoffFactor: 2.0,
			Jitter:        true,
		},
		Analytics: AnalyticsConfig{
			TrendDays:     v.GetInt("analytics.trend_days"),
			TopProducts:   v.GetInt("analytics.top_products"),
			TopPerformers: v.GetInt("analytics.top_performers"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: strings.ToLower(v.GetString("logging.format")),
		},
	}
}

// Validate checks values that would otherwise fail at first use
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if c.IsProduction() && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least 32 characters in production")
	}
	if c.Auth.TokenDuration <= 0 {
		return fmt.Errorf("auth token duration must be positive")
	}
	if (c.Auth.AdminEmail == "") != (c.Auth.AdminPassword == "") {
		return fmt.Errorf("AUTH_ADMIN_EMAIL and AUTH_ADMIN_PASSWORD must be set together")
	}

	switch c.RecordStore.Source {
	case SourceSQLite:
	case SourceFirestore:
		if c.RecordStore.ProjectID == "" {
			return fmt.Errorf("RECORDSTORE_PROJECT_ID is required for the firestore source")
		}
	default:
		return fmt.Errorf("unknown record store source %q (want sqlite or firestore)", c.RecordStore.Source)
	}

	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

// IsProduction reports whether the environment is production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Credentials returns the Firestore service account JSON, reading the
// credentials file when no inline JSON is configured
func (r RecordStoreConfig) Credentials() (string, error) {
	if r.CredentialsJSON != "" || r.CredentialsFile == "" {
		return r.CredentialsJSON, nil
	}
	data, err := os.ReadFile(r.CredentialsFile)
	if err != nil {
		return "", fmt.Errorf("failed to read firestore credentials: %w", err)
	}
	return string(data), nil
}

// NewLogger builds a logrus logger from the logging section
func (l LoggingConfig) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if l.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}
	return logger
}

// SplitList splits a comma separated setting, dropping blanks
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetEnv gets an environment variable with a fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvAsBool gets an environment variable as boolean with a fallback value
func GetEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
