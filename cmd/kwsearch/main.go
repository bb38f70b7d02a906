package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kwsearch/internal/config"
	"github.com/kailas-cloud/kwsearch/internal/db/gormdb"
	dbRedis "github.com/kailas-cloud/kwsearch/internal/db/redis"
	"github.com/kailas-cloud/kwsearch/internal/domain/access"
	logpkg "github.com/kailas-cloud/kwsearch/internal/logger"
	"github.com/kailas-cloud/kwsearch/internal/metrics"
	"github.com/kailas-cloud/kwsearch/internal/repository/opcache"
	operatorrepo "github.com/kailas-cloud/kwsearch/internal/repository/operator"
	pqrepo "github.com/kailas-cloud/kwsearch/internal/repository/persistentquery"
	"github.com/kailas-cloud/kwsearch/internal/repository/relational"
	chiTransport "github.com/kailas-cloud/kwsearch/internal/transport/chi"
	healthuc "github.com/kailas-cloud/kwsearch/internal/usecase/health"
	keyworduc "github.com/kailas-cloud/kwsearch/internal/usecase/keyword"
	operatoruc "github.com/kailas-cloud/kwsearch/internal/usecase/operator"
	pquc "github.com/kailas-cloud/kwsearch/internal/usecase/persistentquery"
	"github.com/kailas-cloud/kwsearch/internal/version"
)

// backend bundles the repositories of one storage driver.
type backend struct {
	operators operatoruc.Repository
	queries   pquc.Repository
	pinger    healthuc.Pinger
	close     func()
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, logpkg.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Version: version.Version,
	})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting kwsearch API server",
		zap.String("commit", version.Commit),
		zap.String("build_date", version.Date),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// Register codec metrics explicitly (no init())
	metrics.RegisterCodecMetrics()

	ctx := context.Background()
	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage backend", zap.Error(err))
	}
	defer be.close()
	logger.Info("Connected to database")

	// Operator registry with a read-through lookup cache.
	opRepo := opcache.New(be.operators, time.Duration(cfg.Registry.CacheTTLSec)*time.Second)
	go opRepo.Start()
	defer opRepo.Stop()

	opSvc := operatoruc.New(opRepo)
	codec := keyworduc.New(opSvc, keyworduc.WithTextCompanion(*cfg.Explore.TextCompanion))
	querySvc := pquc.New(be.queries, access.Policy{AnonymousAccess: cfg.Explore.AnonymousAccess}, codec)
	healthSvc := healthuc.New(healthuc.Component{Name: "database", Pinger: be.pinger})

	server := chiTransport.NewServer(opSvc, codec, querySvc, healthSvc, chiTransport.Settings{
		MenuName:        cfg.Explore.MenuName,
		Extras:          cfg.Explore.Extras,
		TextCompanion:   *cfg.Explore.TextCompanion,
		AnonymousAccess: cfg.Explore.AnonymousAccess,
	})

	tokens := make([]chiTransport.Token, len(cfg.Auth.Tokens))
	for i, t := range cfg.Auth.Tokens {
		tokens[i] = chiTransport.Token{Token: t.Token, UserID: t.UserID, Staff: t.Staff}
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, tokens, logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openBackend connects the configured driver and builds its repositories.
func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (backend, error) {
	if cfg.Database.IsRelational() {
		return openRelational(ctx, cfg.Database, logger)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Engine:     dbRedis.Engine(cfg.Database.Driver),
		Addrs:      cfg.Database.Addrs,
		Username:   cfg.Database.Username,
		Password:   cfg.Database.Password,
		DB:         cfg.Database.DB,
		ClientName: "kwsearch",
	})
	if err != nil {
		return backend{}, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
	}

	// Wait for database to be ready
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return backend{}, fmt.Errorf("database not ready: %w", err)
	}

	logger.Info("Document store ready",
		zap.String("engine", string(store.Engine())),
		zap.Strings("addrs", cfg.Database.Addrs))

	return backend{
		operators: operatorrepo.New(store, cfg.Storage.KeyPrefix),
		queries:   pqrepo.New(store, cfg.Storage.KeyPrefix),
		pinger:    store,
		close:     store.Close,
	}, nil
}

func openRelational(ctx context.Context, dbCfg config.DatabaseConfig, logger *zap.Logger) (backend, error) {
	gdb, err := gormdb.Open(gormdb.Config{
		Driver:          dbCfg.Driver,
		DSN:             dbCfg.DSN,
		MaxOpenConns:    dbCfg.MaxOpenConns,
		MaxIdleConns:    dbCfg.MaxIdleConns,
		ConnMaxLifetime: time.Duration(dbCfg.ConnMaxLifetimeSec) * time.Second,
		SlowThreshold:   time.Duration(dbCfg.SlowQueryMs) * time.Millisecond,
	}, logger.Named("gorm"))
	if err != nil {
		return backend{}, err
	}
	closeDB := func() {
		if err := gormdb.Close(gdb); err != nil {
			logger.Warn("close database", zap.Error(err))
		}
	}

	pinger := gormdb.Pinger{DB: gdb}
	if err := pinger.WaitForReady(ctx, time.Duration(dbCfg.ReadinessTimeout)*time.Second); err != nil {
		closeDB()
		return backend{}, fmt.Errorf("database not ready: %w", err)
	}

	if *dbCfg.AutoMigrate {
		if err := relational.Migrate(gdb.WithContext(ctx)); err != nil {
			closeDB()
			return backend{}, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("Schema migrated")
	}

	return backend{
		operators: relational.NewOperatorRepo(gdb),
		queries:   relational.NewQueryRepo(gdb),
		pinger:    pinger,
		close:     closeDB,
	}, nil
}
