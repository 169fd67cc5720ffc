package config

import (
	"log/slog"
	"time"
)

const (
	IS_PROD                         = false
	LOG_LEVEL_PROD                  = slog.LevelInfo
	TRACE_ID_KEY                    = "traceId"
	FALLBACK_REDIS_TO_INTERNALSTORE = true //if redis init fails, serve mode falls back to the in-memory job store

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//page index
	PDF_DIR     = "docs"
	PAGE_FILE   = "page.file"
	CHUNK_WORDS = 180 // ≈ short paragraph, 150-220 works well
	TOPK        = 5
	SnippetLen  = 80

	//prompt sent to every generation backend
	PromptTemplate = "Answer based on context:\n%s\n\nQuestion: %s\nAnswer:"
	ModelContext   = "You are a helpful assistant. Answer only from the provided context. If you don't know the answer, say you dont know"

	//embeddings
	EmbeddingBatchSize                  = 100
	EmbeddingOutputDimensionality int32 = 768
	GoogleEmbeddingModel                = "gemini-embedding-001"
	OpenAIEmbeddingModel                = "text-embedding-3-small"
	OllamaEmbeddingModel                = "nomic-embed-text"

	//llm
	OllamaBaseURL     = "http://localhost:11434"
	OllamaModelName   = "llama3.2:latest"
	OpenAIModelName   = "gpt-4"
	GeminiModelName   = "gemini-2.5-flash-lite-preview-09-2025"
	LLMRequestTimeout = 120 * time.Second

	ModelTemperature float32 = 0.7

	//semantic cache
	CacheSimilarityCutoff   = 0.97
	SemanticCacheCollection = "semantic-cache"

	//vectorDB
	QdrantHost             = "localhost"
	QdrantGrpcPort         = 6334
	QdrantUseTLS           = false
	QdrantPoolSize         = 1                //2-5 is preferred for prod according to documentation
	QdrantKeepAliveTimeout = 30 * time.Second //5 * time.Minute for prod maybe- fine tune for performance

	//worker pool
	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute
	JobTimeout                      = 5 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 10 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//uploads
	MaxUploadSize = 32 << 20 //32mb

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost     = "127.0.0.1"
	redisPort     = "6379"
	RedisAddr     = redisHost + ":" + redisPort
	RedisPassword = ""

	//redis has 16 DB we can use
	RedisJobStore = 0

	RedisJobStoreTTL = 24 * time.Hour
)
