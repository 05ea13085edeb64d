package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Log       LogConfig
	HTTP      HTTPConfig
	NetSuite  NetSuiteConfig
	Sync      SyncConfig
	Scheduler SchedulerConfig
	Notify    NotifyConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig holds trigger-endpoint authentication settings
type AuthConfig struct {
	// JWTSecret validates operator access tokens issued by the portal's
	// session service (which lives outside this repository).
	JWTSecret string
	// JWTIssuer is the expected token issuer.
	JWTIssuer string
	// WebhookToken is the pre-shared bearer token accepted on the
	// single-record sync endpoint for ERP-initiated calls.
	WebhookToken string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	TrustedProxies    []string
	CORSAllowOrigins  []string
}

// NetSuiteCredentials is one token-based auth credential set. The portal
// keeps one set per environment and the active environment selects between
// them at the start of every sync run.
type NetSuiteCredentials struct {
	AccountID      string
	ConsumerKey    string
	ConsumerSecret string
	TokenID        string
	TokenSecret    string
	BaseURL        string
}

// NetSuiteConfig holds the ERP connection settings
type NetSuiteConfig struct {
	// Environment selects the active credential set: "production" or "sandbox".
	Environment string
	Production  NetSuiteCredentials
	Sandbox     NetSuiteCredentials

	RequestTimeout time.Duration
	MaxRetries     int
	// RequestsPerMinute caps outbound calls in any 60s window.
	RequestsPerMinute int
	// MinRequestInterval is the floor between consecutive requests, enforced
	// even when under the per-minute cap.
	MinRequestInterval time.Duration
}

// SyncConfig holds sync-run behavior settings
type SyncConfig struct {
	// PageSize is the ERP listing page size.
	PageSize int
	// MaxPages caps paging per run to guard against pagination bugs.
	MaxPages int
	// RunTimeout bounds one sync run end to end.
	RunTimeout time.Duration
	// OpenPOStatuses are the NetSuite status codes pulled by a purchase
	// order sync; closed statuses the business no longer tracks are skipped.
	OpenPOStatuses []string
	// VendorEditableStatuses are the status codes during which vendors may
	// edit logistics fields (consumed by the excluded CRUD layer, validated
	// here so both layers share one source).
	VendorEditableStatuses []string
	// BuyerApprovalRequired gates vendor edits behind buyer approval before
	// they flow back to the ERP.
	BuyerApprovalRequired bool
}

// SchedulerConfig holds the periodic sync trigger settings
type SchedulerConfig struct {
	Enabled              bool
	AccountsInterval     time.Duration
	ItemsInterval        time.Duration
	PurchaseOrdsInterval time.Duration
}

// NotifyConfig holds outbound notification settings
type NotifyConfig struct {
	// BuyerWebhookURL receives chat-card alerts when vendors edit orders.
	BuyerWebhookURL string
	// VendorWebhookURL receives approval confirmations, relayed to the
	// vendor by the portal's notification service.
	VendorWebhookURL string
	Timeout          time.Duration
}

// TelemetryConfig holds OpenTelemetry and profiler configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	ProfilerEnabled   bool
	ProfilerAddress   string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with PORTAL_ prefix (e.g., PORTAL_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Auth: AuthConfig{
			JWTSecret:    v.GetString("auth.jwt_secret"),
			JWTIssuer:    v.GetString("auth.jwt_issuer"),
			WebhookToken: v.GetString("auth.webhook_token"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
		},
		NetSuite: NetSuiteConfig{
			Environment: v.GetString("netsuite.environment"),
			Production: NetSuiteCredentials{
				AccountID:      v.GetString("netsuite.production.account_id"),
				ConsumerKey:    v.GetString("netsuite.production.consumer_key"),
				ConsumerSecret: v.GetString("netsuite.production.consumer_secret"),
				TokenID:        v.GetString("netsuite.production.token_id"),
				TokenSecret:    v.GetString("netsuite.production.token_secret"),
				BaseURL:        v.GetString("netsuite.production.base_url"),
			},
			Sandbox: NetSuiteCredentials{
				AccountID:      v.GetString("netsuite.sandbox.account_id"),
				ConsumerKey:    v.GetString("netsuite.sandbox.consumer_key"),
				ConsumerSecret: v.GetString("netsuite.sandbox.consumer_secret"),
				TokenID:        v.GetString("netsuite.sandbox.token_id"),
				TokenSecret:    v.GetString("netsuite.sandbox.token_secret"),
				BaseURL:        v.GetString("netsuite.sandbox.base_url"),
			},
			RequestTimeout:     v.GetDuration("netsuite.request_timeout"),
			MaxRetries:         v.GetInt("netsuite.max_retries"),
			RequestsPerMinute:  v.GetInt("netsuite.requests_per_minute"),
			MinRequestInterval: v.GetDuration("netsuite.min_request_interval"),
		},
		Sync: SyncConfig{
			PageSize:               v.GetInt("sync.page_size"),
			MaxPages:               v.GetInt("sync.max_pages"),
			RunTimeout:             v.GetDuration("sync.run_timeout"),
			OpenPOStatuses:         v.GetStringSlice("sync.open_po_statuses"),
			VendorEditableStatuses: v.GetStringSlice("sync.vendor_editable_statuses"),
			BuyerApprovalRequired:  v.GetBool("sync.buyer_approval_required"),
		},
		Scheduler: SchedulerConfig{
			Enabled:              v.GetBool("scheduler.enabled"),
			AccountsInterval:     v.GetDuration("scheduler.accounts_interval"),
			ItemsInterval:        v.GetDuration("scheduler.items_interval"),
			PurchaseOrdsInterval: v.GetDuration("scheduler.purchase_orders_interval"),
		},
		Notify: NotifyConfig{
			BuyerWebhookURL:  v.GetString("notify.buyer_webhook_url"),
			VendorWebhookURL: v.GetString("notify.vendor_webhook_url"),
			Timeout:          v.GetDuration("notify.timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			ProfilerEnabled:   v.GetBool("telemetry.profiler_enabled"),
			ProfilerAddress:   v.GetString("telemetry.profiler_address"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "vendorportal-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "vendorportal"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Auth.JWTIssuer == "" {
		cfg.Auth.JWTIssuer = "vendorportal"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB, sync triggers carry tiny bodies
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.NetSuite.Environment == "" {
		cfg.NetSuite.Environment = "sandbox"
	}
	if cfg.NetSuite.RequestTimeout == 0 {
		cfg.NetSuite.RequestTimeout = 30 * time.Second
	}
	if cfg.NetSuite.MaxRetries == 0 {
		cfg.NetSuite.MaxRetries = 3
	}
	if cfg.NetSuite.RequestsPerMinute == 0 {
		cfg.NetSuite.RequestsPerMinute = 30
	}
	if cfg.NetSuite.MinRequestInterval == 0 {
		cfg.NetSuite.MinRequestInterval = 500 * time.Millisecond
	}
	if cfg.Sync.PageSize == 0 {
		cfg.Sync.PageSize = 100
	}
	if cfg.Sync.MaxPages == 0 {
		cfg.Sync.MaxPages = 500
	}
	if cfg.Sync.RunTimeout == 0 {
		cfg.Sync.RunTimeout = 10 * time.Minute
	}
	if len(cfg.Sync.OpenPOStatuses) == 0 {
		// NetSuite transaction status codes: Pending Supervisor Approval,
		// Pending Receipt, Partially Received, Pending Bill/Partially Billed.
		cfg.Sync.OpenPOStatuses = []string{"A", "B", "D", "E", "F"}
	}
	if len(cfg.Sync.VendorEditableStatuses) == 0 {
		cfg.Sync.VendorEditableStatuses = []string{"B", "D", "E"}
	}
	if cfg.Scheduler.AccountsInterval == 0 {
		cfg.Scheduler.AccountsInterval = 12 * time.Hour
	}
	if cfg.Scheduler.ItemsInterval == 0 {
		cfg.Scheduler.ItemsInterval = 6 * time.Hour
	}
	if cfg.Scheduler.PurchaseOrdsInterval == 0 {
		cfg.Scheduler.PurchaseOrdsInterval = time.Hour
	}
	if cfg.Notify.Timeout == 0 {
		cfg.Notify.Timeout = 10 * time.Second
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "vendorportal-backend"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.NetSuite.Environment != "production" && c.NetSuite.Environment != "sandbox" {
		return fmt.Errorf("netsuite.environment must be 'production' or 'sandbox', got %q", c.NetSuite.Environment)
	}
	if c.NetSuite.RequestsPerMinute <= 0 {
		return fmt.Errorf("netsuite.requests_per_minute must be positive")
	}
	if c.Sync.MaxPages <= 0 {
		return fmt.Errorf("sync.max_pages must be positive")
	}

	if c.App.Env == "production" {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required in production")
		}
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("auth.jwt_secret must be at least 32 characters in production")
		}
		if c.Auth.WebhookToken != "" && len(c.Auth.WebhookToken) < 32 {
			return fmt.Errorf("auth.webhook_token must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// ActiveCredentials returns the credential set selected by Environment.
func (n *NetSuiteConfig) ActiveCredentials() NetSuiteCredentials {
	if n.Environment == "production" {
		return n.Production
	}
	return n.Sandbox
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
