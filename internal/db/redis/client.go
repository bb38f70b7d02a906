package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/kwsearch/internal/db"
)

var _ db.Store = (*Store)(nil)

// Engine names the server flavour behind a Store. Both speak the same
// JSON, KV and SCAN commands.
type Engine string

const (
	EngineRedis  Engine = "redis"
	EngineValkey Engine = "valkey"
)

// Config holds connection parameters for a Redis or Valkey store.
type Config struct {
	Engine   Engine
	Addrs    []string
	Username string
	Password string
	DB       int
	// ClientName is sent with CLIENT SETNAME so the registry shows up in CLIENT LIST.
	ClientName string
}

// Store implements db.Store via rueidis. JSON.* commands are required
// (Redis 8+, Redis Stack, or Valkey with valkey-json).
type Store struct {
	client rueidis.Client
	engine Engine
}

// NewStore creates a store via rueidis. An empty Engine means valkey.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis store: at least one address is required")
	}
	engine := cfg.Engine
	if engine == "" {
		engine = EngineValkey
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		ClientName:   cfg.ClientName,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", engine, err)
	}

	return &Store{client: client, engine: engine}, nil
}

// Engine reports which server flavour the store was opened for.
func (s *Store) Engine() Engine { return s.engine }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping %s: %w", s.engine, err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

const (
	readyFirstBackoff = 50 * time.Millisecond
	readyMaxBackoff   = time.Second
)

// WaitForReady pings right away, then retries with doubling backoff
// until the store answers or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backoff := readyFirstBackoff
	var lastErr error
	for {
		if lastErr = s.Ping(ctx); lastErr == nil {
			return nil
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("timeout waiting for %s (last error: %v): %w", s.engine, lastErr, ctx.Err())
		case <-timer.C:
		}
		backoff = min(backoff*2, readyMaxBackoff)
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}
