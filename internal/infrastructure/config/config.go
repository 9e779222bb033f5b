package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Swagger   SwaggerConfig
	Telemetry TelemetryConfig
	QRLogin   QRLoginConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite file path
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings.
// When Enabled is false the in-memory stores are used.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// SwaggerConfig holds API documentation endpoint configuration
type SwaggerConfig struct {
	Enabled    bool     // Whether to serve /swagger
	AllowedIPs []string // IP whitelist, CIDR notation supported, empty = allow all
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	TracingEnabled    bool
	SamplingRatio     float64 // 0.0 to 1.0
	MetricsEnabled    bool
	CollectorEndpoint string // OTEL Collector endpoint (e.g., "localhost:4317")
	ServiceName       string
	Insecure          bool
	ExportInterval    time.Duration
}

// QRLoginConfig holds the login orchestration settings
type QRLoginConfig struct {
	AttemptTTL      time.Duration // lifetime of an unfinished login attempt
	PollInterval    time.Duration // delay between blocking poll rounds
	RequestTimeout  time.Duration // per upstream request
	HTTPWaitTimeout time.Duration // cap on one /account/qrcode/wait request; the CLI waits the whole TTL
	QRImageSize     int
	Doudian         DoudianConfig
	Qianfan         QianfanConfig
}

// DoudianConfig overrides the Doudian driver endpoints
type DoudianConfig struct {
	SSOURL           string
	FxgURL           string
	VerifyMarker     string
	SendCodePath     string
	ValidateCodePath string
	UserAgent        string
}

// QianfanConfig overrides the Qianfan driver endpoints
type QianfanConfig struct {
	CustomerURL   string
	ArkURL        string
	VerifyMarker  string
	SendCodePath  string
	CheckCodePath string
	UserAgent     string
	Signer        SignerConfig
}

// SignerConfig configures the headless browser that signs Qianfan requests.
// An empty ScriptPath disables the Qianfan driver.
type SignerConfig struct {
	ScriptPath string
	RemoteURL  string
	Timeout    time.Duration
	NoSandbox  bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with DVD_ prefix (e.g., DVD_DATABASE_PASSWORD)
// 2. .env file in the working directory
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	// .env never overrides variables already present in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("DVD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Swagger: SwaggerConfig{
			Enabled:    v.GetBool("swagger.enabled"),
			AllowedIPs: v.GetStringSlice("swagger.allowed_ips"),
		},
		Telemetry: TelemetryConfig{
			TracingEnabled:    v.GetBool("telemetry.tracing_enabled"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			ExportInterval:    v.GetDuration("telemetry.export_interval"),
		},
		QRLogin: QRLoginConfig{
			AttemptTTL:      v.GetDuration("qrlogin.attempt_ttl"),
			PollInterval:    v.GetDuration("qrlogin.poll_interval"),
			RequestTimeout:  v.GetDuration("qrlogin.request_timeout"),
			HTTPWaitTimeout: v.GetDuration("qrlogin.http_wait_timeout"),
			QRImageSize:     v.GetInt("qrlogin.qr_image_size"),
			Doudian: DoudianConfig{
				SSOURL:           v.GetString("qrlogin.doudian.sso_url"),
				FxgURL:           v.GetString("qrlogin.doudian.fxg_url"),
				VerifyMarker:     v.GetString("qrlogin.doudian.verify_marker"),
				SendCodePath:     v.GetString("qrlogin.doudian.send_code_path"),
				ValidateCodePath: v.GetString("qrlogin.doudian.validate_code_path"),
				UserAgent:        v.GetString("qrlogin.doudian.user_agent"),
			},
			Qianfan: QianfanConfig{
				CustomerURL:   v.GetString("qrlogin.qianfan.customer_url"),
				ArkURL:        v.GetString("qrlogin.qianfan.ark_url"),
				VerifyMarker:  v.GetString("qrlogin.qianfan.verify_marker"),
				SendCodePath:  v.GetString("qrlogin.qianfan.send_code_path"),
				CheckCodePath: v.GetString("qrlogin.qianfan.check_code_path"),
				UserAgent:     v.GetString("qrlogin.qianfan.user_agent"),
				Signer: SignerConfig{
					ScriptPath: v.GetString("qrlogin.qianfan.signer.script_path"),
					RemoteURL:  v.GetString("qrlogin.qianfan.signer.remote_url"),
					Timeout:    v.GetDuration("qrlogin.qianfan.signer.timeout"),
					NoSandbox:  v.GetBool("qrlogin.qianfan.signer.no_sandbox"),
				},
			},
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
		cfg.App.Name = "dvd-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
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
		cfg.Database.DBName = "dvd"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "dvd.db"
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
	// blocking status checks hold the connection until the attempt settles
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 6 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	// NOTE: CORS origins have no wildcard fallback; an empty list allows no cross-origin requests.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 30 * time.Second
	}
	if cfg.QRLogin.AttemptTTL == 0 {
		cfg.QRLogin.AttemptTTL = 5 * time.Minute
	}
	if cfg.QRLogin.PollInterval == 0 {
		cfg.QRLogin.PollInterval = 500 * time.Millisecond
	}
	if cfg.QRLogin.RequestTimeout == 0 {
		cfg.QRLogin.RequestTimeout = 15 * time.Second
	}
	if cfg.QRLogin.HTTPWaitTimeout == 0 {
		cfg.QRLogin.HTTPWaitTimeout = 60 * time.Second
	}
	if cfg.QRLogin.QRImageSize == 0 {
		cfg.QRLogin.QRImageSize = 256
	}
	if cfg.QRLogin.Qianfan.Signer.Timeout == 0 {
		cfg.QRLogin.Qianfan.Signer.Timeout = 10 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be 'postgres' or 'sqlite', got %q", c.Database.Driver)
	}

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

	if c.QRLogin.AttemptTTL < 0 {
		return fmt.Errorf("qrlogin.attempt_ttl cannot be negative")
	}
	if c.QRLogin.PollInterval < 0 {
		return fmt.Errorf("qrlogin.poll_interval cannot be negative")
	}
	if c.QRLogin.PollInterval >= c.QRLogin.AttemptTTL {
		return fmt.Errorf("qrlogin.poll_interval (%s) must be shorter than qrlogin.attempt_ttl (%s)",
			c.QRLogin.PollInterval, c.QRLogin.AttemptTTL)
	}
	if c.QRLogin.HTTPWaitTimeout < 0 {
		return fmt.Errorf("qrlogin.http_wait_timeout cannot be negative")
	}
	if c.QRLogin.HTTPWaitTimeout >= c.HTTP.WriteTimeout {
		return fmt.Errorf("qrlogin.http_wait_timeout (%s) must be shorter than http.write_timeout (%s)",
			c.QRLogin.HTTPWaitTimeout, c.HTTP.WriteTimeout)
	}

	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0 and 1, got %v", c.Telemetry.SamplingRatio)
	}

	if c.App.Env == "production" {
		if c.Database.Driver == "sqlite" {
			return fmt.Errorf("database.driver cannot be 'sqlite' in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		// several replicas must share attempts and ticket claims
		if !c.Redis.Enabled {
			return fmt.Errorf("redis.enabled must be true in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Swagger.Enabled && len(c.Swagger.AllowedIPs) == 0 {
			return fmt.Errorf("swagger endpoint must be disabled or restricted by swagger.allowed_ips in production")
		}
	}

	return nil
}

// IsProduction reports whether the application runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
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

// Addr returns the host:port of the Redis server
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
