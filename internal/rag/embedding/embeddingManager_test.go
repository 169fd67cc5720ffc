package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/akolanti/GoRAG/internal/config"
)

type stubEmbedder struct {
	batches [][]string
	short   bool
	err     error
}

func (s *stubEmbedder) GetEmbedding(context.Context, string) ([]float32, error) {
	return []float32{1}, nil
}

func (s *stubEmbedder) BatchEmbedding(_ context.Context, chunks []string, _ bool) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.batches = append(s.batches, chunks)
	n := len(chunks)
	if s.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(len(s.batches)), float32(i)}
	}
	return out, nil
}

func TestEmbedAll_Batches(t *testing.T) {
	texts := make([]string, config.EmbeddingBatchSize*2+3)
	for i := range texts {
		texts[i] = "t"
	}
	stub := &stubEmbedder{}

	vectors, err := EmbedAll(context.Background(), stub, texts)
	if err != nil {
		t.Fatalf("EmbedAll failed: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("got %d vectors for %d texts", len(vectors), len(texts))
	}
	if len(stub.batches) != 3 || len(stub.batches[2]) != 3 {
		t.Errorf("unexpected batching: %d batches", len(stub.batches))
	}
	// order is preserved across batches
	if vectors[config.EmbeddingBatchSize][0] != 2 || vectors[config.EmbeddingBatchSize][1] != 0 {
		t.Errorf("vector %d = %v, want first of batch 2", config.EmbeddingBatchSize, vectors[config.EmbeddingBatchSize])
	}
}

func TestEmbedAll_Errors(t *testing.T) {
	if _, err := EmbedAll(context.Background(), &stubEmbedder{short: true}, []string{"a", "b"}); !errors.Is(err, ErrVectorCountMismatch) {
		t.Errorf("Expected ErrVectorCountMismatch, got %v", err)
	}

	backendErr := errors.New("down")
	if _, err := EmbedAll(context.Background(), &stubEmbedder{err: backendErr}, []string{"a"}); !errors.Is(err, backendErr) {
		t.Errorf("Expected backend error to be wrapped, got %v", err)
	}

	stub := &stubEmbedder{}
	vectors, err := EmbedAll(context.Background(), stub, nil)
	if err != nil || vectors != nil || len(stub.batches) != 0 {
		t.Errorf("empty input should not call the embedder")
	}
}
