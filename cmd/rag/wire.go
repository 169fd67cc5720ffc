package main

import (
	"context"
	"fmt"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/rag"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/GoRAG/internal/rag/embedding/ollamaEmbedding"
	"github.com/akolanti/GoRAG/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/GoRAG/internal/rag/ingest"
	"github.com/akolanti/GoRAG/internal/rag/llm"
	"github.com/akolanti/GoRAG/internal/rag/llm/gemini"
	"github.com/akolanti/GoRAG/internal/rag/llm/ollama"
	"github.com/akolanti/GoRAG/internal/rag/llm/openaiChat"
	"github.com/akolanti/GoRAG/internal/rag/pageindex"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

func newEmbedder(ctx context.Context, cfg config.EmbedderConfig) (embedding.Embedder, error) {
	switch cfg.Type {
	case "ollama":
		return ollamaEmbedding.NewOllamaEmbedder(cfg), nil
	case "openai":
		return openaiEmbedding.NewOpenAIEmbedder(cfg)
	case "gemini":
		return googleEmbedding.NewGoogleEmbedder(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown embedder type %q", cfg.Type)
	}
}

func newGenerator(ctx context.Context, cfg config.GeneratorConfig) (llm.Provider, error) {
	switch cfg.Type {
	case "ollama":
		return ollama.NewOllama(cfg), nil
	case "openai":
		return openaiChat.NewOpenAIChat(cfg)
	case "gemini":
		return gemini.NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown generator type %q", cfg.Type)
	}
}

// newCache returns nil when the cache is disabled. An unreachable Qdrant is
// logged and skipped since answers still work without it.
func newCache(ctx context.Context, cfg config.CacheConfig) vectorDB.AnswerCache {
	if !cfg.Enabled {
		return nil
	}
	holder, err := qdrantDB.NewSemanticCache(ctx, cfg)
	if err != nil {
		logger_i.NewLogger("main").Warn("Semantic cache unavailable, continuing without it", "error", err)
		return nil
	}
	return holder
}

type serviceOptions struct {
	generator bool
	cache     bool
}

func newRagService(ctx context.Context, cfg *config.AppConfig, opts serviceOptions) (rag.Service, error) {
	embedder, err := newEmbedder(ctx, cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	ragOpts := rag.Options{
		Manager:   pageindex.NewManager(ingest.NewFileLoader(), embedder, cfg.Index.ChunkWords, cfg.Source.Extensions),
		Embedder:  embedder,
		SourceDir: cfg.Source.Dir,
		StorePath: cfg.Index.Path,
		TopK:      cfg.Index.TopK,
	}
	if opts.generator {
		if ragOpts.Generator, err = newGenerator(ctx, cfg.Generator); err != nil {
			return nil, fmt.Errorf("generator: %w", err)
		}
	}
	if opts.cache {
		ragOpts.Cache = newCache(ctx, cfg.Cache)
	}
	return rag.NewService(ragOpts), nil
}
