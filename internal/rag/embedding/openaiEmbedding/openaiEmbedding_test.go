package openaiEmbedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akolanti/GoRAG/internal/config"
)

type embItem struct {
	Object    string    `json:"object"`
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// newFakeServer answers like the embeddings endpoint, returning items in
// reverse order to check they are put back by index.
func newFakeServer(t *testing.T, gotModel *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		*gotModel = req.Model

		data := make([]embItem, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, embItem{Object: "embedding", Index: i, Embedding: []float64{float64(i), 0.5}})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func newTestEmbedder(t *testing.T, url string) *client {
	t.Helper()
	t.Setenv("TEST_OPENAI_KEY", "test-key")
	e, err := NewOpenAIEmbedder(config.EmbedderConfig{
		Type:      "openai",
		Model:     "text-embedding-3-small",
		BaseURL:   url,
		APIKeyEnv: "TEST_OPENAI_KEY",
	})
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder failed: %v", err)
	}
	return e.(*client)
}

func TestBatchEmbedding_OrdersByIndex(t *testing.T) {
	var model string
	srv := newFakeServer(t, &model)
	defer srv.Close()

	vectors, err := newTestEmbedder(t, srv.URL).BatchEmbedding(context.Background(), []string{"a", "b", "c"}, false)
	if err != nil {
		t.Fatalf("BatchEmbedding failed: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("Expected 3 vectors, got %d", len(vectors))
	}
	for i, v := range vectors {
		if v[0] != float32(i) {
			t.Errorf("vector %d = %v; out of order", i, v)
		}
	}
	if model != "text-embedding-3-small" {
		t.Errorf("model sent = %q", model)
	}
}

func TestGetEmbedding(t *testing.T) {
	var model string
	srv := newFakeServer(t, &model)
	defer srv.Close()

	v, err := newTestEmbedder(t, srv.URL).GetEmbedding(context.Background(), "query")
	if err != nil {
		t.Fatalf("GetEmbedding failed: %v", err)
	}
	if len(v) != 2 || v[1] != 0.5 {
		t.Errorf("unexpected vector %v", v)
	}
}

func TestNewOpenAIEmbedder_MissingKey(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "")
	if _, err := NewOpenAIEmbedder(config.EmbedderConfig{APIKeyEnv: "TEST_OPENAI_KEY"}); err == nil {
		t.Error("Expected error when the API key is not set")
	}
}
