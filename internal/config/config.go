package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"closet-rental-backend/internal/lifecycle"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Lock      LockConfig      `yaml:"lock"`
	JWT       JWTConfig       `yaml:"jwt"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	Firebase  FirebaseConfig  `yaml:"firebase"`
	Log       LogConfig       `yaml:"log"`
	Lifecycle LifecycleConfig `yaml:"lifecycle"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	Migrate  bool   `yaml:"migrate"`
}

// RedisConfig is optional; without an address locks are process-local.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LockConfig struct {
	TTLSeconds  int `yaml:"ttl_seconds"`
	WaitMillis  int `yaml:"wait_millis"`
	RetryMillis int `yaml:"retry_millis"`
}

// JWTConfig contains access token validation settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	Issuer            string `yaml:"issuer"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// SendGridConfig enables dispute e-mails when APIKey is set.
type SendGridConfig struct {
	APIKey     string `yaml:"api_key"`
	FromEmail  string `yaml:"from_email"`
	FromName   string `yaml:"from_name"`
	AdminEmail string `yaml:"admin_email"`
}

// FirebaseConfig enables push notifications when CredentialsFile is set.
type FirebaseConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// LifecycleConfig tunes the rental engine. Money values are decimal strings.
type LifecycleConfig struct {
	QCWindowMinutes      int    `yaml:"qc_window_minutes"`
	MaxNights            int    `yaml:"max_nights"`
	Timezone             string `yaml:"timezone"`
	PlatformFeePerNight  string `yaml:"platform_fee_per_night"`
	DeliveryFee          string `yaml:"delivery_fee"`
	ReturnDeliveryFee    string `yaml:"return_delivery_fee"`
	RestrictIssueReports bool   `yaml:"restrict_issue_reports"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	AutoApproveQC string `yaml:"auto_approve_qc"`
	QCSweepBatch  int    `yaml:"qc_sweep_batch"`
}

// Load reads configuration from a YAML file. A .env file next to the
// process, if present, is loaded first so its values act as env overrides.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	envString("SERVER_HOST", &c.Server.Host)
	envInt("SERVER_PORT", &c.Server.Port)

	envString("DB_HOST", &c.Database.Host)
	envInt("DB_PORT", &c.Database.Port)
	envString("DB_USER", &c.Database.User)
	envString("DB_PASSWORD", &c.Database.Password)
	envString("DB_NAME", &c.Database.Database)
	envString("DB_SSL_MODE", &c.Database.SSLMode)
	envBool("DB_MIGRATE", &c.Database.Migrate)

	envString("REDIS_ADDR", &c.Redis.Addr)
	envString("REDIS_PASSWORD", &c.Redis.Password)
	envInt("REDIS_DB", &c.Redis.DB)

	envString("JWT_SECRET", &c.JWT.Secret)
	envString("JWT_ISSUER", &c.JWT.Issuer)

	envString("SENDGRID_API_KEY", &c.SendGrid.APIKey)
	envString("SENDGRID_FROM_EMAIL", &c.SendGrid.FromEmail)
	envString("ADMIN_EMAIL", &c.SendGrid.AdminEmail)

	envString("FIREBASE_CREDENTIALS_FILE", &c.Firebase.CredentialsFile)

	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_FORMAT", &c.Log.Format)

	envInt("QC_WINDOW_MINUTES", &c.Lifecycle.QCWindowMinutes)
	envInt("MAX_RENTAL_NIGHTS", &c.Lifecycle.MaxNights)
	envString("RENTAL_TIMEZONE", &c.Lifecycle.Timezone)
	envBool("RESTRICT_ISSUE_REPORTS", &c.Lifecycle.RestrictIssueReports)
}

// Validate checks required settings and fills defaults.
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 15
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "closet-auth"
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	if c.SendGrid.APIKey != "" && (c.SendGrid.FromEmail == "" || c.SendGrid.AdminEmail == "") {
		return fmt.Errorf("sendgrid from_email and admin_email are required when api_key is set")
	}
	if c.SendGrid.FromName == "" {
		c.SendGrid.FromName = "Closet Rentals"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Lock.TTLSeconds == 0 {
		c.Lock.TTLSeconds = 10
	}
	if c.Lock.WaitMillis == 0 {
		c.Lock.WaitMillis = 2000
	}
	if c.Lock.RetryMillis == 0 {
		c.Lock.RetryMillis = 50
	}

	if c.Lifecycle.QCWindowMinutes == 0 {
		c.Lifecycle.QCWindowMinutes = 30
	}
	if c.Lifecycle.QCWindowMinutes < 0 {
		return fmt.Errorf("invalid QC window: %d minutes", c.Lifecycle.QCWindowMinutes)
	}
	if c.Lifecycle.MaxNights == 0 {
		c.Lifecycle.MaxNights = lifecycle.DefaultMaxNights
	}
	if c.Lifecycle.MaxNights < 0 {
		return fmt.Errorf("invalid max nights: %d", c.Lifecycle.MaxNights)
	}
	if c.Lifecycle.Timezone == "" {
		c.Lifecycle.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(c.Lifecycle.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Lifecycle.Timezone, err)
	}
	if c.Lifecycle.PlatformFeePerNight == "" {
		c.Lifecycle.PlatformFeePerNight = "10"
	}
	if c.Lifecycle.DeliveryFee == "" {
		c.Lifecycle.DeliveryFee = "25"
	}
	if c.Lifecycle.ReturnDeliveryFee == "" {
		c.Lifecycle.ReturnDeliveryFee = "25"
	}
	if _, err := c.Lifecycle.Fees(); err != nil {
		return err
	}

	if c.Scheduler.AutoApproveQC == "" {
		c.Scheduler.AutoApproveQC = "0 * * * * *" // every minute
	}
	if c.Scheduler.QCSweepBatch == 0 {
		c.Scheduler.QCSweepBatch = 100
	}

	return nil
}

// Fees parses the configured fee schedule.
func (l LifecycleConfig) Fees() (lifecycle.FeeSchedule, error) {
	var fees lifecycle.FeeSchedule
	parsed := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"platform_fee_per_night", l.PlatformFeePerNight, &fees.PlatformFeePerNight},
		{"delivery_fee", l.DeliveryFee, &fees.DeliveryFee},
		{"return_delivery_fee", l.ReturnDeliveryFee, &fees.ReturnDeliveryFee},
	}
	for _, p := range parsed {
		v, err := decimal.NewFromString(p.raw)
		if err != nil {
			return fees, fmt.Errorf("invalid %s %q: %w", p.name, p.raw, err)
		}
		if v.IsNegative() {
			return fees, fmt.Errorf("invalid %s: must not be negative", p.name)
		}
		*p.dst = v
	}
	return fees, nil
}

// EngineConfig builds the lifecycle engine settings. Call after Validate.
func (c *Config) EngineConfig() (lifecycle.Config, error) {
	loc, err := time.LoadLocation(c.Lifecycle.Timezone)
	if err != nil {
		return lifecycle.Config{}, err
	}
	fees, err := c.Lifecycle.Fees()
	if err != nil {
		return lifecycle.Config{}, err
	}
	return lifecycle.Config{
		QCWindow:             time.Duration(c.Lifecycle.QCWindowMinutes) * time.Minute,
		MaxNights:            c.Lifecycle.MaxNights,
		Location:             loc,
		Fees:                 &fees,
		RestrictIssueReports: c.Lifecycle.RestrictIssueReports,
	}, nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
