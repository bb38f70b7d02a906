package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverRedis    = "redis"
	DriverValkey   = "valkey"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultMenuName is the explore menu label when none is configured.
const DefaultMenuName = "Query by Keyword"

// Config holds the kwsearch API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Explore  ExploreConfig  `yaml:"explore"`
	Registry RegistryConfig `yaml:"registry"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: determined by env)
	Format string `yaml:"format"` // json or console (default: determined by env)
}

// AuthConfig maps bearer tokens to principals.
type AuthConfig struct {
	Tokens []TokenConfig `yaml:"tokens"`
}

// TokenConfig is a single bearer token entry.
type TokenConfig struct {
	Token  string `yaml:"token"`
	UserID string `yaml:"user_id"`
	Staff  bool   `yaml:"staff"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
// addrs/username/password/db apply to redis and valkey; dsn and the pool apply to postgres and sqlite.
type DatabaseConfig struct {
	Driver             string   `yaml:"driver"` // redis, valkey, postgres, sqlite (default: valkey)
	Addrs              []string `yaml:"addrs"`
	Username           string   `yaml:"username"`
	Password           string   `yaml:"password"`
	DB                 int      `yaml:"db"`
	DSN                string   `yaml:"dsn"`
	MaxOpenConns       int      `yaml:"max_open_conns"`
	MaxIdleConns       int      `yaml:"max_idle_conns"`
	ConnMaxLifetimeSec int      `yaml:"conn_max_lifetime_sec"`
	SlowQueryMs        int      `yaml:"slow_query_ms"`
	AutoMigrate        *bool    `yaml:"auto_migrate"` // default: true
	ReadinessTimeout   int      `yaml:"readiness_timeout_sec"`
}

// IsRelational reports whether the driver is backed by gorm.
func (d DatabaseConfig) IsRelational() bool {
	return d.Driver == DriverPostgres || d.Driver == DriverSQLite
}

// ExploreConfig holds the settings shown to keyword-search clients.
type ExploreConfig struct {
	MenuName        string            `yaml:"menu_name"`
	Extras          map[string]string `yaml:"extras"`
	TextCompanion   *bool             `yaml:"text_companion"` // default: true
	AnonymousAccess bool              `yaml:"anonymous_access"`
}

// RegistryConfig holds search operator registry settings.
type RegistryConfig struct {
	CacheTTLSec int `yaml:"cache_ttl_sec"` // 0 disables the lookup cache
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.SlowQueryMs <= 0 {
		c.Database.SlowQueryMs = 200
	}
	if c.Database.AutoMigrate == nil {
		c.Database.AutoMigrate = boolPtr(true)
	}
	if c.Explore.MenuName == "" {
		c.Explore.MenuName = DefaultMenuName
	}
	if c.Explore.TextCompanion == nil {
		c.Explore.TextCompanion = boolPtr(true)
	}
	if c.Explore.Extras == nil {
		c.Explore.Extras = map[string]string{}
	}
	if c.Registry.CacheTTLSec < 0 {
		c.Registry.CacheTTLSec = 0
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "kwsearch:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverRedis, DriverValkey:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
	case DriverPostgres, DriverSQLite:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be one of redis, valkey, postgres, sqlite, got %q", c.Database.Driver)
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	seen := make([]string, 0, len(c.Auth.Tokens))
	for i, t := range c.Auth.Tokens {
		if t.Token == "" || t.UserID == "" {
			return fmt.Errorf("auth.tokens[%d]: token and user_id are required", i)
		}
		if slices.Contains(seen, t.Token) {
			return fmt.Errorf("auth.tokens[%d]: duplicate token", i)
		}
		seen = append(seen, t.Token)
	}
	return nil
}

func boolPtr(v bool) *bool { return &v }

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
