package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/GoRAG/internal/config"
)

type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	BatchEmbedding(ctx context.Context, chunks []string, isHugeDataSet bool) ([][]float32, error)
}

// hugeDataSetThreshold switches providers that support it to their async batch APIs
const hugeDataSetThreshold = 1000000

var ErrVectorCountMismatch = errors.New("embedder returned a different number of vectors than texts")

// EmbedAll embeds texts in batches of config.EmbeddingBatchSize and returns one
// vector per text, in order. Any batch that comes back short is an error so
// callers can rely on len(result) == len(texts).
func EmbedAll(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	isHugeDataSet := len(texts) > hugeDataSetThreshold

	result := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += config.EmbeddingBatchSize {
		end := min(i+config.EmbeddingBatchSize, len(texts))

		vectors, err := e.BatchEmbedding(ctx, texts[i:end], isHugeDataSet)
		if err != nil {
			return nil, fmt.Errorf("embedding batch [%d:%d] failed: %w", i, end, err)
		}
		if len(vectors) != end-i {
			return nil, fmt.Errorf("batch [%d:%d]: got %d vectors: %w", i, end, len(vectors), ErrVectorCountMismatch)
		}
		for j, v := range vectors {
			if len(v) == 0 {
				return nil, fmt.Errorf("empty vector for text %d", i+j)
			}
		}
		result = append(result, vectors...)
	}
	return result, nil
}
