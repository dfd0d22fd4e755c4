package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultEnvFiles are loaded, when present, before the environment is parsed.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Config holds process configuration.
type Config struct {
	DatabaseDriver     string        `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseURL        string        `env:"DATABASE_URL" envDefault:"file:database/asset.db?_pragma=foreign_keys(1)"`
	HTTPAddr           string        `env:"HTTP_ADDR" envDefault:":8009"`
	AdminPassword      string        `env:"ADMIN_PASSWORD" envDefault:"admin123"`
	JWTSecret          string        `env:"AUTH_JWT_SECRET"`
	TokenTTL           time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"12h"`
	RedisURL           string        `env:"REDIS_URL"`
	ChainCacheTTL      time.Duration `env:"CHAIN_CACHE_TTL" envDefault:"10m"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat          string        `env:"LOG_FORMAT" envDefault:"text"`
	ImportMaxRows      int           `env:"IMPORT_MAX_ROWS" envDefault:"5000"`
	MaxUploadBytes     int64         `env:"MAX_UPLOAD_BYTES" envDefault:"33554432"`
	LifecycleRulesFile string        `env:"LIFECYCLE_RULES_FILE"`
	ExportFontFile     string        `env:"EXPORT_FONT_FILE"`
}

// LoadEnv loads the env files that exist and returns how many were found.
func LoadEnv(files []string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, file := range files {
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads env files and parses the environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = DefaultEnvFiles
	}
	if _, err := LoadEnv(files); err != nil {
		return nil, fmt.Errorf("config: env files: %w", err)
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	switch strings.ToLower(c.DatabaseDriver) {
	case "sqlite", "pgx", "postgres":
	default:
		return fmt.Errorf("config: unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL is required")
	}
	if c.AdminPassword == "" {
		return errors.New("config: ADMIN_PASSWORD must not be empty")
	}
	if c.ImportMaxRows <= 0 {
		return errors.New("config: IMPORT_MAX_ROWS must be positive")
	}
	if c.TokenTTL <= 0 {
		return errors.New("config: AUTH_TOKEN_TTL must be positive")
	}
	return nil
}

// RuleSeed is one lifecycle rule in the seed file.
type RuleSeed struct {
	DeviceType     string `yaml:"device_type"`
	LifecycleYears int    `yaml:"lifecycle_years"`
	WarningMonths  *int   `yaml:"warning_months"`
	Description    string `yaml:"description"`
	Active         *bool  `yaml:"active"`
}

// RuleSeedFile is the yaml document listing default lifecycle rules.
type RuleSeedFile struct {
	Rules []RuleSeed `yaml:"rules"`
}

// LoadRuleSeeds reads a yaml rule seed file. An empty path yields no seeds.
func LoadRuleSeeds(path string) ([]RuleSeed, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read rule seeds: %w", err)
	}
	return ParseRuleSeeds(data)
}

// ParseRuleSeeds decodes a yaml rule seed document.
func ParseRuleSeeds(data []byte) ([]RuleSeed, error) {
	var file RuleSeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: parse rule seeds: %w", err)
	}
	for i, seed := range file.Rules {
		if strings.TrimSpace(seed.DeviceType) == "" {
			return nil, fmt.Errorf("config: rule seed %d: empty device_type", i)
		}
		if seed.LifecycleYears <= 0 {
			return nil, fmt.Errorf("config: rule seed %q: lifecycle_years must be positive", seed.DeviceType)
		}
	}
	return file.Rules, nil
}
