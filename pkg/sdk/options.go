package kwsearch

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey", "redis", "postgres" or "sqlite"
	addrs    []string
	password string
	dsn      string

	keyPrefix       string
	cacheTTL        time.Duration
	textCompanion   bool
	anonymousAccess bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		keyPrefix:     "kwsearch:",
		textCompanion: true,
	}
}

// WithValkey configures the client to connect to a Valkey instance with valkey-json.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance with JSON support.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithPostgres stores operators and queries in PostgreSQL. The schema is migrated on connect.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "postgres"
		c.dsn = dsn
	})
}

// WithSQLite stores operators and queries in an embedded SQLite database.
func WithSQLite(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "sqlite"
		c.dsn = dsn
	})
}

// WithKeyPrefix namespaces Valkey/Redis keys. Default: "kwsearch:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithOperatorCache caches operator lookups for ttl. Zero disables the cache (default).
func WithOperatorCache(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithTextCompanion toggles the ".#text" companion clauses in built filters. Default: true.
func WithTextCompanion(enabled bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.textCompanion = enabled
	})
}

// WithAnonymousAccess lets anonymous callers create queries and read anonymous ones.
func WithAnonymousAccess(enabled bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.anonymousAccess = enabled
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
