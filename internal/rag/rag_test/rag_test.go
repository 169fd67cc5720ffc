package rag_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/rag"
	"github.com/akolanti/GoRAG/internal/rag/ingest"
	"github.com/akolanti/GoRAG/internal/rag/ingest/ingesttest"
	"github.com/akolanti/GoRAG/internal/rag/pageindex"
)

type fixture struct {
	dir       string
	storePath string
	embedder  *MockEmbedder
	llm       *MockLLM
	cache     *MockCache
	service   rag.Service
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	f := &fixture{
		dir:       t.TempDir(),
		storePath: filepath.Join(t.TempDir(), "page.file"),
		embedder:  &MockEmbedder{},
		llm:       &MockLLM{},
		cache:     &MockCache{},
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(f.dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	f.build()
	return f
}

func (f *fixture) build() {
	f.service = rag.NewService(rag.Options{
		Manager:   pageindex.NewManager(ingest.NewFileLoader(), f.embedder, 180, []string{".txt"}),
		Embedder:  f.embedder,
		Generator: f.llm,
		Cache:     f.cache,
		SourceDir: f.dir,
		StorePath: f.storePath,
		TopK:      2,
	})
}

var corpus = map[string]string{
	"cocomo.txt": "COCOMO is a software cost estimation model " + ingesttest.Words("c", 200),
	"other.txt":  ingesttest.Words("o", 20),
}

func TestProcessRequest_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(e *MockEmbedder, c *MockCache, l *MockLLM)
		expectedStep   jobModel.InternalStatus
		expectedStatus jobModel.JobStatus
		expectedAnswer string
		expectedReason string
	}{
		{
			name: "Success_Full_Flow",
			setupMocks: func(e *MockEmbedder, c *MockCache, l *MockLLM) {
				l.OnGenerate = func(ctx context.Context, prompt string) (string, error) {
					return "final answer", nil
				}
			},
			expectedStep:   jobModel.Complete,
			expectedStatus: jobModel.JobStatusQueued,
			expectedAnswer: "final answer",
		},
		{
			name: "Success_Cache_Hit",
			setupMocks: func(e *MockEmbedder, c *MockCache, l *MockLLM) {
				c.OnGetCachedAnswer = func(ctx context.Context, corpus string, emb []float32) (string, bool, error) {
					return "cached answer", true, nil
				}
				l.OnGenerate = func(ctx context.Context, prompt string) (string, error) {
					return "", errors.New("llm must not be called on a cache hit")
				}
			},
			expectedStep:   jobModel.Complete,
			expectedStatus: jobModel.JobStatusQueued,
			expectedAnswer: "cached answer",
		},
		{
			name: "Cache_Failure_Falls_Through",
			setupMocks: func(e *MockEmbedder, c *MockCache, l *MockLLM) {
				c.OnGetCachedAnswer = func(ctx context.Context, corpus string, emb []float32) (string, bool, error) {
					return "", false, errors.New("qdrant down")
				}
			},
			expectedStep:   jobModel.Complete,
			expectedStatus: jobModel.JobStatusQueued,
			expectedAnswer: "mocked llm response",
		},
		{
			name: "Failure_Embedding",
			setupMocks: func(e *MockEmbedder, c *MockCache, l *MockLLM) {
				e.OnGetEmbedding = func(ctx context.Context, text string) ([]float32, error) {
					return nil, errors.New("api limit")
				}
			},
			expectedStep:   jobModel.Error,
			expectedStatus: jobModel.JobStatusError,
			expectedReason: jobModel.ReasonEmbedding,
		},
		{
			name: "Failure_Vector_Search",
			setupMocks: func(e *MockEmbedder, c *MockCache, l *MockLLM) {
				e.OnGetEmbedding = func(ctx context.Context, text string) ([]float32, error) {
					return []float32{1, 2}, nil
				}
			},
			expectedStep:   jobModel.Error,
			expectedStatus: jobModel.JobStatusError,
			expectedReason: jobModel.ReasonVectorSearch,
		},
		{
			name: "Failure_LLM",
			setupMocks: func(e *MockEmbedder, c *MockCache, l *MockLLM) {
				l.OnGenerate = func(ctx context.Context, prompt string) (string, error) {
					return "", errors.New("model not loaded")
				}
			},
			expectedStep:   jobModel.Error,
			expectedStatus: jobModel.JobStatusError,
			expectedReason: jobModel.ReasonLLMGeneration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, corpus)
			if _, err := f.service.Refresh(context.Background()); err != nil {
				t.Fatalf("Refresh failed: %v", err)
			}
			tt.setupMocks(f.embedder, f.cache, f.llm)

			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
			job := jobModel.Job{
				Id:         "job-1",
				JobType:    jobModel.JobTypeQuery,
				Status:     jobModel.JobStatusQueued,
				JobPayload: jobModel.JobPayload{Question: "What is COCOMO?"},
			}

			result := f.service.ProcessRequest(ctx, job)

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}
			if result.CurrentStep != tt.expectedStep {
				t.Errorf("Step got %v, want %v", result.CurrentStep, tt.expectedStep)
			}
			if tt.expectedAnswer != "" && result.JobPayload.Answer != tt.expectedAnswer {
				t.Errorf("Answer got %q, want %q", result.JobPayload.Answer, tt.expectedAnswer)
			}
			if tt.expectedReason != "" {
				if result.Error.Reason != tt.expectedReason {
					t.Errorf("Reason got %q, want %q", result.Error.Reason, tt.expectedReason)
				}
				if result.Error.Code != http.StatusInternalServerError {
					t.Errorf("Error Code got %d, want %d", result.Error.Code, http.StatusInternalServerError)
				}
			}
			if tt.expectedStatus != jobModel.JobStatusError && len(result.JobPayload.Sources) != 2 {
				t.Errorf("Expected 2 sources, got %d", len(result.JobPayload.Sources))
			}
		})
	}
}

func TestAsk_PromptAndSources(t *testing.T) {
	f := newFixture(t, corpus)

	res, err := f.service.Ask(context.Background(), "What is COCOMO?", 3)
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if len(res.Sources) != 3 {
		t.Fatalf("Expected 3 sources, got %d", len(res.Sources))
	}
	for i, s := range res.Sources {
		if s.Rank != i+1 {
			t.Errorf("source %d has rank %d", i, s.Rank)
		}
		if i > 0 && s.Distance < res.Sources[i-1].Distance {
			t.Errorf("sources are not sorted by distance")
		}
		if len([]rune(s.Snippet)) > config.SnippetLen {
			t.Errorf("snippet longer than %d", config.SnippetLen)
		}
	}

	wantPrefix := "Answer based on context:\n"
	wantSuffix := "\n\nQuestion: What is COCOMO?\nAnswer:"
	if !strings.HasPrefix(res.Prompt, wantPrefix) || !strings.HasSuffix(res.Prompt, wantSuffix) {
		t.Errorf("unexpected prompt %q", res.Prompt)
	}
	if got := strings.Count(res.Context, "\n\n"); got != 2 {
		t.Errorf("context should join 3 chunks with 2 separators, got %d", got)
	}
	if len(f.llm.prompts) != 1 || f.llm.prompts[0] != res.Prompt {
		t.Errorf("generator did not receive the built prompt")
	}
}

func TestAsk_SavesAnswerToCache(t *testing.T) {
	f := newFixture(t, corpus)
	f.cache.done = make(chan struct{}, 1)

	if _, err := f.service.Ask(context.Background(), "What is COCOMO?", 0); err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	select {
	case <-f.cache.done:
	case <-time.After(2 * time.Second):
		t.Fatal("answer was not saved to the cache")
	}
	if len(f.cache.saved) != 1 || f.cache.saved[0] != "mocked llm response" {
		t.Errorf("unexpected cache writes %v", f.cache.saved)
	}
}

func TestFlush_WaitsForSlowCacheWrite(t *testing.T) {
	f := newFixture(t, corpus)
	var finished atomic.Bool
	f.cache.OnSaveToCache = func(ctx context.Context, corpus string, vector []float32, answer string) error {
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
		return nil
	}

	if _, err := f.service.Ask(context.Background(), "What is COCOMO?", 0); err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	f.service.Flush()

	if !finished.Load() {
		t.Error("Flush returned before the cache write finished")
	}
}

func TestFlush_NothingPending(t *testing.T) {
	f := newFixture(t, corpus)
	done := make(chan struct{})
	go func() {
		f.service.Flush()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Flush blocked with no pending writes")
	}
}

func TestAsk_EmptyIndex(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.service.Ask(context.Background(), "anything?", 5)
	if err != nil {
		t.Fatalf("Ask on an empty index failed: %v", err)
	}
	if len(res.Sources) != 0 || res.Context != "" {
		t.Errorf("expected no sources and empty context, got %+v", res)
	}
	if f.embedder.queryCalls != 0 {
		t.Error("embedder should not be called for an empty index")
	}
	if res.Prompt != "Answer based on context:\n\n\nQuestion: anything?\nAnswer:" {
		t.Errorf("unexpected prompt %q", res.Prompt)
	}
}

func TestSearch_WithoutGenerator(t *testing.T) {
	f := newFixture(t, corpus)
	f.service = rag.NewService(rag.Options{
		Manager:   pageindex.NewManager(ingest.NewFileLoader(), f.embedder, 180, []string{".txt"}),
		Embedder:  f.embedder,
		SourceDir: f.dir,
		StorePath: f.storePath,
	})

	res, err := f.service.Search(context.Background(), "What is COCOMO?", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(res.Sources) != 3 || res.Answer != "" {
		t.Errorf("Search should return all 3 chunks and no answer, got %d sources", len(res.Sources))
	}

	if _, err := f.service.Ask(context.Background(), "q", 1); !errors.Is(err, rag.ErrNoGenerator) {
		t.Errorf("Expected ErrNoGenerator, got %v", err)
	}
}

func TestAsk_ReasonOnFailure(t *testing.T) {
	f := newFixture(t, corpus)
	f.llm.OnGenerate = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("connection refused")
	}

	_, err := f.service.Ask(context.Background(), "q", 1)
	if err == nil {
		t.Fatal("Expected error")
	}
	if rag.Reason(err) != jobModel.ReasonLLMGeneration {
		t.Errorf("Reason got %q", rag.Reason(err))
	}
}

func TestReindex_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		prepare        func(t *testing.T, f *fixture)
		expectedAction string
		expectedStatus jobModel.JobStatus
	}{
		{
			name:           "First_Build",
			prepare:        func(t *testing.T, f *fixture) {},
			expectedAction: string(pageindex.ActionBuild),
			expectedStatus: jobModel.JobStatusRunning,
		},
		{
			name: "No_Changes",
			prepare: func(t *testing.T, f *fixture) {
				if _, err := f.service.Refresh(context.Background()); err != nil {
					t.Fatal(err)
				}
			},
			expectedAction: string(pageindex.ActionNoOp),
			expectedStatus: jobModel.JobStatusRunning,
		},
		{
			name: "Deleted_Source",
			prepare: func(t *testing.T, f *fixture) {
				if _, err := f.service.Refresh(context.Background()); err != nil {
					t.Fatal(err)
				}
				os.Remove(filepath.Join(f.dir, "other.txt"))
			},
			expectedAction: string(pageindex.ActionRebuild),
			expectedStatus: jobModel.JobStatusRunning,
		},
		{
			name: "Corrupt_Page_File",
			prepare: func(t *testing.T, f *fixture) {
				os.WriteFile(f.storePath, []byte("garbage"), 0o644)
			},
			expectedStatus: jobModel.JobStatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, corpus)
			tt.prepare(t, f)

			job := jobModel.Job{Id: "reindex-1", JobType: jobModel.JobTypeReindex, Status: jobModel.JobStatusRunning}
			result := f.service.Reindex(context.Background(), job)

			if result.Status != tt.expectedStatus {
				t.Fatalf("Status got %v, want %v (%+v)", result.Status, tt.expectedStatus, result.Error)
			}
			if tt.expectedStatus == jobModel.JobStatusError {
				if result.Error.Reason != jobModel.ReasonIndex || result.Error.Retry {
					t.Errorf("unexpected error %+v", result.Error)
				}
				return
			}
			if result.JobPayload.Index == nil || result.JobPayload.Index.Action != tt.expectedAction {
				t.Errorf("Index summary got %+v, want action %s", result.JobPayload.Index, tt.expectedAction)
			}
			if stats := f.service.Stats(); stats.Chunks != result.JobPayload.Index.TotalChunks {
				t.Errorf("Stats chunks %d, summary %d", stats.Chunks, result.JobPayload.Index.TotalChunks)
			}
		})
	}
}
