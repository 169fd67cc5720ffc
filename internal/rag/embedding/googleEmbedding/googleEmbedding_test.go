package googleEmbedding

import (
	"context"
	"testing"

	"github.com/akolanti/GoRAG/internal/config"
)

func TestNewGoogleEmbedder(t *testing.T) {
	t.Setenv("GORAG_TEST_GOOGLE_KEY", "test-key")

	tests := []struct {
		name    string
		cfg     config.EmbedderConfig
		wantDim int32
		wantErr bool
	}{
		{
			name:    "configured dimension",
			cfg:     config.EmbedderConfig{Model: "gemini-embedding-001", APIKeyEnv: "GORAG_TEST_GOOGLE_KEY", Dimension: 256},
			wantDim: 256,
		},
		{
			name:    "default dimension",
			cfg:     config.EmbedderConfig{Model: "gemini-embedding-001", APIKeyEnv: "GORAG_TEST_GOOGLE_KEY"},
			wantDim: config.EmbeddingOutputDimensionality,
		},
		{
			name:    "key missing",
			cfg:     config.EmbedderConfig{APIKeyEnv: "GORAG_TEST_GOOGLE_UNSET"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			e, err := NewGoogleEmbedder(ctx, tt.cfg)
			cancel()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error for a missing API key")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewGoogleEmbedder: %v", err)
			}
			c := e.(*client)
			if c.genAi == nil {
				t.Fatal("genai client not set")
			}
			if c.dimension != tt.wantDim {
				t.Errorf("dimension = %d, want %d", c.dimension, tt.wantDim)
			}
		})
	}
}
