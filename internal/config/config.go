package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceConfig points at the directory of documents to index.
type SourceConfig struct {
	Dir        string   `yaml:"dir"`
	Extensions []string `yaml:"extensions"`
}

// IndexConfig controls chunking, the page file location and retrieval depth.
type IndexConfig struct {
	Path       string `yaml:"path"`
	ChunkWords int    `yaml:"chunk_words"`
	TopK       int    `yaml:"top_k"`
}

// EmbedderConfig selects and configures the embedding backend.
type EmbedderConfig struct {
	Type      string `yaml:"type"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dimension int    `yaml:"dimension"`
}

// GeneratorConfig selects and configures the generation backend.
type GeneratorConfig struct {
	Type        string `yaml:"type"`
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	Trim        bool   `yaml:"trim"`
}

// CacheConfig configures the optional Qdrant-backed semantic answer cache.
type CacheConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Host       string  `yaml:"host"`
	Port       int     `yaml:"port"`
	Collection string  `yaml:"collection"`
	Cutoff     float32 `yaml:"cutoff"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
}

type ServerConfig struct {
	ListenAddr   string `yaml:"listen_addr"`
	AuthToken    string `yaml:"auth_token"`
	NoAuthBypass bool   `yaml:"no_auth_bypass"`
	RateLimit    bool   `yaml:"rate_limit"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// AppConfig is the root configuration loaded from rag.yaml.
type AppConfig struct {
	Source    SourceConfig    `yaml:"source"`
	Index     IndexConfig     `yaml:"index"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Generator GeneratorConfig `yaml:"generator"`
	Cache     CacheConfig     `yaml:"cache"`
	Redis     RedisConfig     `yaml:"redis"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// Load reads a config from path. A missing file yields the defaults.
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}
	applyEnvOverrides(cfg)
	applyConfigDefaults(cfg)
	return cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func Default() *AppConfig {
	return &AppConfig{
		Source:    SourceConfig{Dir: PDF_DIR, Extensions: []string{".pdf"}},
		Index:     IndexConfig{Path: PAGE_FILE, ChunkWords: CHUNK_WORDS, TopK: TOPK},
		Embedder:  EmbedderConfig{Type: "ollama"},
		Generator: GeneratorConfig{Type: "ollama"},
		Cache:     CacheConfig{Enabled: false},
		Redis:     RedisConfig{Addr: RedisAddr, Password: RedisPassword},
		Server:    ServerConfig{ListenAddr: ServerListenAddr},
		Log:       LogConfig{Level: "info"},
	}
}

// APIKey resolves the embedder key from the environment variable named in the config.
func (c EmbedderConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

func (c GeneratorConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// ApplyDefaults fills every empty field, e.g. after a flag switched backends.
func ApplyDefaults(cfg *AppConfig) {
	applyConfigDefaults(cfg)
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("QDRANT_HOST"); v != "" {
		cfg.Cache.Host = v
	}
	if port, err := strconv.Atoi(os.Getenv("QDRANT_PORT")); err == nil {
		cfg.Cache.Port = port
	}
	if v := os.Getenv("RAG_AUTH_TOKEN"); v != "" {
		cfg.Server.AuthToken = v
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Source.Dir == "" {
		cfg.Source.Dir = PDF_DIR
	}
	if len(cfg.Source.Extensions) == 0 {
		cfg.Source.Extensions = []string{".pdf"}
	}
	for i, ext := range cfg.Source.Extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Source.Extensions[i] = ext
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = PAGE_FILE
	}
	if cfg.Index.ChunkWords <= 0 {
		cfg.Index.ChunkWords = CHUNK_WORDS
	}
	if cfg.Index.TopK <= 0 {
		cfg.Index.TopK = TOPK
	}

	switch cfg.Embedder.Type {
	case "", "ollama":
		cfg.Embedder.Type = "ollama"
		setDefault(&cfg.Embedder.Model, OllamaEmbeddingModel)
		setDefault(&cfg.Embedder.BaseURL, OllamaBaseURL)
	case "openai":
		setDefault(&cfg.Embedder.Model, OpenAIEmbeddingModel)
		setDefault(&cfg.Embedder.APIKeyEnv, "OPENAI_API_KEY")
	case "gemini":
		setDefault(&cfg.Embedder.Model, GoogleEmbeddingModel)
		setDefault(&cfg.Embedder.APIKeyEnv, "GEMINI_API_KEY")
		if cfg.Embedder.Dimension <= 0 {
			cfg.Embedder.Dimension = int(EmbeddingOutputDimensionality)
		}
	}

	switch cfg.Generator.Type {
	case "", "ollama":
		cfg.Generator.Type = "ollama"
		setDefault(&cfg.Generator.Model, OllamaModelName)
		setDefault(&cfg.Generator.BaseURL, OllamaBaseURL)
	case "openai":
		setDefault(&cfg.Generator.Model, OpenAIModelName)
		setDefault(&cfg.Generator.APIKeyEnv, "OPENAI_API_KEY")
	case "gemini":
		setDefault(&cfg.Generator.Model, GeminiModelName)
		setDefault(&cfg.Generator.APIKeyEnv, "GEMINI_API_KEY")
	}
	if cfg.Generator.TimeoutSecs <= 0 {
		cfg.Generator.TimeoutSecs = int(LLMRequestTimeout.Seconds())
	}

	setDefault(&cfg.Cache.Host, QdrantHost)
	setDefault(&cfg.Cache.Collection, SemanticCacheCollection)
	if cfg.Cache.Port == 0 {
		cfg.Cache.Port = QdrantGrpcPort
	}
	if cfg.Cache.Cutoff <= 0 {
		cfg.Cache.Cutoff = CacheSimilarityCutoff
	}

	setDefault(&cfg.Redis.Addr, RedisAddr)
	setDefault(&cfg.Server.ListenAddr, ServerListenAddr)
	setDefault(&cfg.Log.Level, "info")
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
