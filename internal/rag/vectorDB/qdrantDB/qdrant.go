package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

type ClientHolder struct {
	QObj       *qdrant.Client
	collection string
	cutoff     float32
	logger     *logger_i.Logger

	mu      sync.Mutex
	created bool
}

func clientConfig(cfg config.CacheConfig) *qdrant.Config {
	return &qdrant.Config{
		Host:          cfg.Host,
		Port:          cfg.Port,
		UseTLS:        config.QdrantUseTLS,
		PoolSize:      uint(config.QdrantPoolSize),
		KeepAliveTime: int(config.QdrantKeepAliveTimeout / time.Second),
	}
}

// NewSemanticCache connects to Qdrant. The cache collection is created on
// first write, sized to the embedder's vectors.
func NewSemanticCache(ctx context.Context, cfg config.CacheConfig) (*ClientHolder, error) {
	client, err := qdrant.NewClient(clientConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("could not instantiate qdrant client: %w", err)
	}

	db := &ClientHolder{
		QObj:       client,
		collection: cfg.Collection,
		cutoff:     cfg.Cutoff,
		logger:     logger_i.NewLogger("Qdrant"),
	}
	db.logger.Info("Qdrant client created", "host", cfg.Host, "port", cfg.Port, "collection", cfg.Collection)
	go db.closeQdrant(ctx)
	return db, nil
}

func (db *ClientHolder) closeQdrant(ctx context.Context) {
	<-ctx.Done()
	db.logger.Info("Shutting down Qdrant")
	if err := db.QObj.Close(); err != nil {
		db.logger.Error("could not close Qdrant", "error", err)
	}
}

func (db *ClientHolder) ensureCollection(ctx context.Context, dimension int) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.created {
		return nil
	}
	if err := createCollection(ctx, db.QObj, db.collection, uint64(dimension)); err != nil {
		return err
	}
	db.created = true
	return nil
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string, dimension uint64) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}
	if dimension == 0 {
		return errors.New("collection dimension must be positive")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}
