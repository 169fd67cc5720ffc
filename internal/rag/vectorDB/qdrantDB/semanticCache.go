package qdrantDB

import (
	"context"
	"time"

	"github.com/akolanti/GoRAG/internal/adapter/utils"
	"github.com/qdrant/go-client/qdrant"
)

func (db *ClientHolder) GetCachedAnswer(ctx context.Context, corpus string, queryVector []float32) (string, bool, error) {
	log := db.logger.WithTrace(ctx)

	db.mu.Lock()
	created := db.created
	db.mu.Unlock()
	if !created {
		exists, err := db.QObj.CollectionExists(ctx, db.collection)
		if err != nil || !exists {
			return "", false, err
		}
	}

	searchResult, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: db.collection,
		Query:          qdrant.NewQuery(queryVector...),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("corpus", corpus)},
		},
		Limit:       qdrant.PtrOf(uint64(1)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		log.Error("Cache Query failed", "error", err)
		return "", false, err
	}
	if len(searchResult) == 0 {
		return "", false, nil
	}

	log.Debug("Closest cached answer", "semantic similarity score", searchResult[0].Score)
	if searchResult[0].Score < db.cutoff {
		return "", false, nil
	}

	log.Info("Semantic cache hit")
	return searchResult[0].Payload["answer"].GetStringValue(), true, nil
}

func (db *ClientHolder) SaveToCache(ctx context.Context, corpus string, queryVector []float32, answer string) error {
	log := db.logger.WithTrace(ctx)

	if err := db.ensureCollection(ctx, len(queryVector)); err != nil {
		log.Error("Semantic cache collection creation failed", "error", err)
		return err
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: db.collection,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(utils.GetNewUUID()),
				Vectors: qdrant.NewVectors(queryVector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"answer":    answer,
					"corpus":    corpus,
					"timestamp": time.Now().Unix(),
				}),
			},
		},
	})
	if err != nil {
		log.Error("Saving answer to cache failed", "error", err)
	}
	return err
}
