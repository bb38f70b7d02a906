package kwsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kwsearch/internal/db/gormdb"
	dbRedis "github.com/kailas-cloud/kwsearch/internal/db/redis"
	"github.com/kailas-cloud/kwsearch/internal/domain/access"
	domop "github.com/kailas-cloud/kwsearch/internal/domain/operator"
	"github.com/kailas-cloud/kwsearch/internal/domain/persisted"
	"github.com/kailas-cloud/kwsearch/internal/domain/query"
	"github.com/kailas-cloud/kwsearch/internal/repository/opcache"
	operatorrepo "github.com/kailas-cloud/kwsearch/internal/repository/operator"
	pqrepo "github.com/kailas-cloud/kwsearch/internal/repository/persistentquery"
	"github.com/kailas-cloud/kwsearch/internal/repository/relational"
	healthuc "github.com/kailas-cloud/kwsearch/internal/usecase/health"
	keyworduc "github.com/kailas-cloud/kwsearch/internal/usecase/keyword"
	operatoruc "github.com/kailas-cloud/kwsearch/internal/usecase/operator"
	pquc "github.com/kailas-cloud/kwsearch/internal/usecase/persistentquery"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, replaced by mocks in tests.
type operatorUseCase interface {
	Register(ctx context.Context, name string, fieldPaths []string) (domop.Operator, error)
	Update(ctx context.Context, id string, patch operatoruc.Patch) (domop.Operator, error)
	Get(ctx context.Context, id string) (domop.Operator, error)
	GetByName(ctx context.Context, name string) (domop.Operator, error)
	List(ctx context.Context) ([]domop.Operator, error)
	Delete(ctx context.Context, id string) error
}

type codecUseCase interface {
	Build(ctx context.Context, tokens []string) (query.Document, error)
	Tokens(ctx context.Context, doc query.Document) []string
}

type queryUseCase interface {
	Create(ctx context.Context, p access.Principal, in pquc.CreateInput) (persisted.Query, error)
	CreateFromKeywords(ctx context.Context, p access.Principal, keywords string, in pquc.CreateInput) (persisted.Query, error)
	Get(ctx context.Context, p access.Principal, id string) (persisted.Query, error)
	GetByName(ctx context.Context, p access.Principal, name string) (persisted.Query, error)
	Keywords(ctx context.Context, p access.Principal, id string) ([]string, error)
	List(ctx context.Context, p access.Principal) ([]persisted.Query, error)
	ListMine(ctx context.Context, p access.Principal) ([]persisted.Query, error)
	Update(ctx context.Context, p access.Principal, id string, patch persisted.Patch) (persisted.Query, error)
	Delete(ctx context.Context, p access.Principal, id string) error
}

// backend is an opened storage driver with its repositories.
type backend struct {
	operators operatoruc.Repository
	queries   pquc.Repository
	pinger    healthuc.Pinger
	close     func()
}

// Client is the kwsearch SDK entry point.
type Client struct {
	backend   backend
	cache     *opcache.Repo
	opSvc     operatorUseCase
	codec     codecUseCase
	querySvc  queryUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a kwsearch Client and connects to the database.
// The provided context is used for the readiness check and the schema migration.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 && cfg.dsn == "" {
		return nil, errors.New("kwsearch: storage required (use WithValkey, WithRedis, WithPostgres or WithSQLite)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return wireClient(be, cfg, obs), nil
}

func openBackend(ctx context.Context, cfg *clientConfig) (backend, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Engine:     dbRedis.Engine(cfg.driver),
			Addrs:      cfg.addrs,
			Password:   cfg.password,
			ClientName: "kwsearch-sdk",
		})
		if err != nil {
			return backend{}, fmt.Errorf("kwsearch: create %s store: %w", cfg.driver, err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return backend{}, fmt.Errorf("kwsearch: database not ready: %w", err)
		}
		return backend{
			operators: operatorrepo.New(s, cfg.keyPrefix),
			queries:   pqrepo.New(s, cfg.keyPrefix),
			pinger:    s,
			close:     s.Close,
		}, nil
	case "postgres", "sqlite":
		gdb, err := gormdb.Open(gormdb.Config{Driver: cfg.driver, DSN: cfg.dsn}, zap.NewNop())
		if err != nil {
			return backend{}, fmt.Errorf("kwsearch: %w", err)
		}
		pinger := gormdb.Pinger{DB: gdb}
		if err := pinger.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			_ = gormdb.Close(gdb)
			return backend{}, fmt.Errorf("kwsearch: database not ready: %w", err)
		}
		if err := relational.Migrate(gdb.WithContext(ctx)); err != nil {
			_ = gormdb.Close(gdb)
			return backend{}, fmt.Errorf("kwsearch: migrate: %w", err)
		}
		return backend{
			operators: relational.NewOperatorRepo(gdb),
			queries:   relational.NewQueryRepo(gdb),
			pinger:    pinger,
			close:     func() { _ = gormdb.Close(gdb) },
		}, nil
	default:
		return backend{}, fmt.Errorf("kwsearch: unknown driver %q", cfg.driver)
	}
}

func wireClient(be backend, cfg *clientConfig, obs *observer) *Client {
	cache := opcache.New(be.operators, cfg.cacheTTL)
	go cache.Start()

	opSvc := operatoruc.New(cache)
	codec := keyworduc.New(opSvc, keyworduc.WithTextCompanion(cfg.textCompanion))
	querySvc := pquc.New(be.queries, access.Policy{AnonymousAccess: cfg.anonymousAccess}, codec)

	return &Client{
		backend:   be,
		cache:     cache,
		opSvc:     opSvc,
		codec:     codec,
		querySvc:  querySvc,
		healthSvc: healthuc.New(healthuc.Component{Name: "database", Pinger: be.pinger}),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.Stop()
	}
	if c.backend.close != nil {
		c.backend.close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.backend.pinger.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Operators returns the search operator registry.
func (c *Client) Operators() *OperatorService {
	return &OperatorService{svc: c.opSvc, obs: c.obs}
}

// Keywords returns the keyword codec.
func (c *Client) Keywords() *KeywordService {
	return &KeywordService{codec: c.codec, obs: c.obs}
}

// Queries returns the persistent query service acting as p.
func (c *Client) Queries(p Principal) *QueryService {
	return &QueryService{
		principal: access.Principal{UserID: p.UserID, Staff: p.Staff},
		svc:       c.querySvc,
		obs:       c.obs,
	}
}
