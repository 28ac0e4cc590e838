package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Tax      TaxConfig      `mapstructure:"tax"`
	Exchange ExchangeConfig `mapstructure:"exchange"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port    int    `mapstructure:"port"`
	GinMode string `mapstructure:"gin_mode"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	User                   string `mapstructure:"user"`
	Password               string `mapstructure:"password"`
	Name                   string `mapstructure:"name"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxConnLifetimeSeconds int    `mapstructure:"max_conn_lifetime_seconds"`
	AutoMigrate            bool   `mapstructure:"auto_migrate"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// TaxConfig controls VAT resolution defaults and the product tax cache
type TaxConfig struct {
	DefaultVATRate  string        `mapstructure:"default_vat_rate"`
	DefaultCountry  string        `mapstructure:"default_country"`
	ProductCacheTTL time.Duration `mapstructure:"product_cache_ttl"` // 0 = keep for the process lifetime
}

// ExchangeConfig describes the exchange-rate provider and local memoisation
type ExchangeConfig struct {
	BaseCurrency string        `mapstructure:"base_currency"`
	ProviderURL  string        `mapstructure:"provider_url"`
	APIKey       string        `mapstructure:"api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryMax     int           `mapstructure:"retry_max"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// envBindings keeps the plain variable names used by existing deployments
var envBindings = map[string][]string{
	"server.port":       {"PORT", "SERVER_PORT"},
	"server.gin_mode":   {"GIN_MODE"},
	"database.host":     {"DB_HOST"},
	"database.port":     {"DB_PORT"},
	"database.user":     {"DB_USER"},
	"database.password": {"DB_PASSWORD"},
	"database.name":     {"DB_NAME"},
	"database.sslmode":  {"DB_SSLMODE"},
	"auth.jwt_secret":   {"JWT_SECRET"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.gin_mode", "debug")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_conn_lifetime_seconds", 3600)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("tax.default_vat_rate", "7.50")
	v.SetDefault("tax.default_country", "Nigeria")
	v.SetDefault("tax.product_cache_ttl", "0s")

	v.SetDefault("exchange.base_currency", "NGN")
	v.SetDefault("exchange.provider_url", "https://open.er-api.com/v6/latest")
	v.SetDefault("exchange.api_key", "")
	v.SetDefault("exchange.timeout", "10s")
	v.SetDefault("exchange.retry_max", 3)
	v.SetDefault("exchange.cache_ttl", "5m")

	v.SetDefault("logging.level", "info")
}

// Load reads configs/.env (when present) and the process environment into a Config
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{"configs/.env"}
	}
	// Missing env files are fine; the process environment still applies
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Comma separated origins arrive as a single string from the environment
	if len(cfg.CORS.AllowedOrigins) == 1 && strings.Contains(cfg.CORS.AllowedOrigins[0], ",") {
		cfg.CORS.AllowedOrigins = parseCommaSeparated(cfg.CORS.AllowedOrigins[0])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that all required configuration is present and sane
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Server.GinMode == "release" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in release mode")
	}

	rate, err := decimal.NewFromString(c.Tax.DefaultVATRate)
	if err != nil {
		return fmt.Errorf("invalid default VAT rate %q: %w", c.Tax.DefaultVATRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("default VAT rate must be between 0 and 100, got %s", rate.String())
	}
	if c.Tax.ProductCacheTTL < 0 {
		return fmt.Errorf("product cache ttl cannot be negative")
	}

	if len(c.Exchange.BaseCurrency) != 3 {
		return fmt.Errorf("exchange base currency must be a 3-letter code, got %q", c.Exchange.BaseCurrency)
	}
	if c.Exchange.RetryMax < 0 {
		return fmt.Errorf("exchange retry max cannot be negative")
	}
	return nil
}

// DefaultVATRate returns the validated fallback rate as a decimal
func (c *Config) DefaultVATRate() decimal.Decimal {
	return decimal.RequireFromString(c.Tax.DefaultVATRate)
}

// DSN builds the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// JWTSecretBytes falls back to a development secret outside release mode
func (c *Config) JWTSecretBytes() []byte {
	if c.Auth.JWTSecret == "" {
		return []byte("default_super_secret_key") // Development fallback only
	}
	return []byte(c.Auth.JWTSecret)
}

func parseCommaSeparated(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
