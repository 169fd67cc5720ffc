package openaiEmbedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/customHttpClient"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// openAIMaxBatch is the most inputs the embeddings endpoint accepts per request
const openAIMaxBatch = 2048

type client struct {
	api       *openai.Client
	model     string
	dimension int
	logger    *logger_i.Logger
}

// NewOpenAIEmbedder works against OpenAI or any compatible endpoint set in cfg.BaseURL.
func NewOpenAIEmbedder(cfg config.EmbedderConfig) (embedding.Embedder, error) {
	apiKey := cfg.APIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("openai embedder: %s is not set", cfg.APIKeyEnv)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(customHttpClient.NewClient(config.LLMRequestTimeout)),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	api := openai.NewClient(opts...)

	return &client{
		api:       &api,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		logger:    logger_i.NewLogger("openai_embedding"),
	}, nil
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.callAPI(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string, _ bool) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	result := make([][]float32, 0, len(chunks))
	for i := 0; i < len(chunks); i += openAIMaxBatch {
		end := min(i+openAIMaxBatch, len(chunks))
		vectors, err := c.callAPI(ctx, chunks[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", i, end, err)
		}
		result = append(result, vectors...)
	}
	return result, nil
}

func (c *client) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	log := c.logger.WithTrace(ctx)
	params := openai.EmbeddingNewParams{
		Model:          c.model,
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}
	if c.dimension > 0 {
		params.Dimensions = openai.Int(int64(c.dimension))
	}

	resp, err := c.api.Embeddings.New(ctx, params)
	if err != nil {
		log.Error("Error getting Embeddings from OpenAI", "error", err)
		return nil, err
	}

	// the API may return items out of order, Index says where each belongs
	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= int64(len(texts)) {
			return nil, fmt.Errorf("unexpected embedding index %d for batch size %d", item.Index, len(texts))
		}
		vectors[item.Index] = toFloat32(item.Embedding)
	}
	for i, v := range vectors {
		if v == nil {
			return nil, errors.Join(embedding.ErrVectorCountMismatch, fmt.Errorf("missing embedding for index %d", i))
		}
	}
	return vectors, nil
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
