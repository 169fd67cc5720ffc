package rag_test

import (
	"context"
	"sync"
)

// MockCache implements vectorDB.AnswerCache
type MockCache struct {
	OnGetCachedAnswer func(ctx context.Context, corpus string, queryVector []float32) (string, bool, error)
	OnSaveToCache     func(ctx context.Context, corpus string, vector []float32, answer string) error

	mu    sync.Mutex
	saved []string
	done  chan struct{}
}

func (m *MockCache) GetCachedAnswer(ctx context.Context, corpus string, v []float32) (string, bool, error) {
	if m.OnGetCachedAnswer != nil {
		return m.OnGetCachedAnswer(ctx, corpus, v)
	}
	return "", false, nil
}

func (m *MockCache) SaveToCache(ctx context.Context, corpus string, v []float32, a string) error {
	m.mu.Lock()
	m.saved = append(m.saved, a)
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	if m.OnSaveToCache != nil {
		return m.OnSaveToCache(ctx, corpus, v, a)
	}
	return nil
}

type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, text string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, chunks []string, isHuge bool) ([][]float32, error)

	mu         sync.Mutex
	queryCalls int
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, chunks []string, isHuge bool) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, chunks, isHuge)
	}
	out := make([][]float32, len(chunks))
	for i, c := range chunks {
		out[i] = vectorFor(c)
	}
	return out, nil
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	m.mu.Lock()
	m.queryCalls++
	m.mu.Unlock()
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query)
	}
	return vectorFor(query), nil
}

// vectorFor maps identical text to identical vectors
func vectorFor(text string) []float32 {
	v := make([]float32, 3)
	for i, r := range text {
		v[i%3] += float32(r % 13)
	}
	return v
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnGenerate func(ctx context.Context, prompt string) (string, error)

	prompts []string
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, prompt)
	}
	return "mocked llm response", nil
}
