package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	ConcurrencySerialized = "serialized"
	ConcurrencyLegacy     = "legacy"
)

type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type LedgerConfig struct {
	Concurrency     string
	NearExpiryRatio float64
}

type ExportConfig struct {
	Enabled  bool
	Schedule string
	Dir      string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Ledger      LedgerConfig
	Export      ExportConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	v.SetDefault("EXPORT_ENABLED", true)

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Ledger: LedgerConfig{
			Concurrency:     strings.ToLower(strings.TrimSpace(v.GetString("LEDGER_CONCURRENCY"))),
			NearExpiryRatio: v.GetFloat64("CONTRACTS_NEAR_EXPIRY_RATIO"),
		},
		Export: ExportConfig{
			Enabled:  v.GetBool("EXPORT_ENABLED"),
			Schedule: v.GetString("EXPORT_CRON"),
			Dir:      v.GetString("EXPORT_DIR"),
		},
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{"*"}
	}
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = "file:contracts.db?_foreign_keys=on"
	}
	if cfg.IsSQLite() {
		// sqlite serializes writers; a single connection avoids SQLITE_BUSY
		// between concurrent transactions.
		if cfg.DB.MaxOpenConns == 0 {
			cfg.DB.MaxOpenConns = 1
		}
		if cfg.DB.MaxIdleConns == 0 {
			cfg.DB.MaxIdleConns = 1
		}
	}
	if cfg.Ledger.Concurrency == "" {
		cfg.Ledger.Concurrency = ConcurrencySerialized
	}
	if cfg.Ledger.NearExpiryRatio == 0 {
		cfg.Ledger.NearExpiryRatio = 0.8
	}
	if cfg.Export.Schedule == "" {
		cfg.Export.Schedule = "0 2 * * *"
	}
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = "./exports"
	}
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.HTTP.Port < 0 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT %d is out of range", cfg.HTTP.Port)
	}
	if cfg.DB.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(cfg.DB.ConnMaxLifetime); err != nil {
			return fmt.Errorf("DB_CONN_MAX_LIFETIME: %w", err)
		}
	}
	switch cfg.Ledger.Concurrency {
	case ConcurrencySerialized, ConcurrencyLegacy:
	default:
		return fmt.Errorf("LEDGER_CONCURRENCY must be %q or %q, got %q",
			ConcurrencySerialized, ConcurrencyLegacy, cfg.Ledger.Concurrency)
	}
	if cfg.Ledger.NearExpiryRatio <= 0 || cfg.Ledger.NearExpiryRatio > 1 {
		return fmt.Errorf("CONTRACTS_NEAR_EXPIRY_RATIO must be in (0, 1], got %v", cfg.Ledger.NearExpiryRatio)
	}
	if cfg.Export.Enabled {
		if _, err := cron.ParseStandard(cfg.Export.Schedule); err != nil {
			return fmt.Errorf("EXPORT_CRON: %w", err)
		}
	}
	return nil
}

// IsSQLite reports whether the DSN targets SQLite rather than PostgreSQL.
func (c *Config) IsSQLite() bool {
	return !IsPostgresDSN(c.DB.DSN)
}

func (c *Config) IsProduction() bool {
	return IsProductionEnv(c.Environment)
}

// IsProductionEnv accepts both "prod" and "production", in any case.
func IsProductionEnv(environment string) bool {
	switch strings.ToLower(strings.TrimSpace(environment)) {
	case "prod", "production":
		return true
	}
	return false
}

func IsPostgresDSN(dsn string) bool {
	dsn = strings.TrimSpace(dsn)
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.HasPrefix(dsn, "host=")
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
