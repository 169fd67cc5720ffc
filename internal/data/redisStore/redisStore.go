package redisStore

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 3 * time.Second

type Store struct {
	client *redis.Client
	Type   int
	logger *logger_i.Logger
}

// NewRedisStore connects to one of redis' numbered databases and checks it
// is reachable. The client is closed when ctx is done.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig, dbType int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  cfg.Addr,
		Password:              cfg.Password,
		DB:                    dbType,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis at %s is offline: %w", cfg.Addr, err)
	}

	s := FromClient(client)
	s.Type = dbType
	s.logger.Info("Redis store connected", "addr", cfg.Addr, "db", dbType)
	go s.closeOnDone(ctx)
	return s, nil
}

// FromClient wraps an existing client, e.g. one pointed at miniredis.
func FromClient(client *redis.Client) *Store {
	return &Store{
		client: client,
		logger: logger_i.NewLogger("Redis Store"),
	}
}

func (s *Store) closeOnDone(ctx context.Context) {
	<-ctx.Done()
	s.logger.Info("Closing Redis Store", "db", s.Type)
	if err := s.client.Close(); err != nil {
		s.logger.Error("Error closing redis client", "error", err)
	}
}
