package pageindex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
)

// ContextSeparator joins retrieved chunks into a single context string.
const ContextSeparator = "\n\n"

// Retrieval is the context assembled for one query and the hits it came from.
type Retrieval struct {
	Context string `json:"context"`
	Hits    []Hit  `json:"hits"`
}

// Retrieve embeds query and returns the k nearest chunks, nearest first.
// An empty store yields an empty Retrieval without calling the embedder.
func Retrieve(ctx context.Context, store *Store, embedder embedding.Embedder, query string, k int) (Retrieval, error) {
	if store.Len() == 0 || k <= 0 {
		return Retrieval{}, nil
	}

	start := time.Now()
	q, err := embedder.GetEmbedding(ctx, query)
	metrics.CaptureExecutionMetrics("embedding", time.Since(start))
	if err != nil {
		return Retrieval{}, fmt.Errorf("embedding query: %w", err)
	}

	return RetrieveVector(store, q, k)
}

// RetrieveVector is Retrieve for a query that is already embedded.
func RetrieveVector(store *Store, q []float32, k int) (Retrieval, error) {
	if store.Len() == 0 || k <= 0 {
		return Retrieval{}, nil
	}

	start := time.Now()
	hits, err := store.Search(q, k)
	metrics.CaptureExecutionMetrics("vector_search", time.Since(start))
	if err != nil {
		return Retrieval{}, err
	}

	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = store.Chunk(h.Position)
	}
	return Retrieval{
		Context: strings.Join(texts, ContextSeparator),
		Hits:    hits,
	}, nil
}
