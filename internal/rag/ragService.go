package rag

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/akolanti/GoRAG/internal/adapter/utils"
	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/internal/rag/llm"
	"github.com/akolanti/GoRAG/internal/rag/pageindex"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

var ErrNoGenerator = errors.New("no generation backend configured")

// Service is what the CLI, the worker pool and the MCP server call. The
// index, embedder and generator behind it stay private.
type Service interface {
	ProcessRequest(ctx context.Context, job jobModel.Job) jobModel.Job
	Reindex(ctx context.Context, job jobModel.Job) jobModel.Job

	// Refresh brings the page file up to date and swaps it in.
	Refresh(ctx context.Context) (pageindex.EnsureResult, error)
	Search(ctx context.Context, question string, k int) (Result, error)
	Ask(ctx context.Context, question string, k int) (Result, error)
	Stats() Stats

	// Flush blocks until background cache writes have finished.
	Flush()
}

// Result is a retrieval, and for Ask also the prompt and the answer.
type Result struct {
	Question string            `json:"question"`
	Context  string            `json:"context"`
	Sources  []jobModel.Source `json:"sources"`
	Prompt   string            `json:"prompt,omitempty"`
	Answer   string            `json:"answer,omitempty"`
	Cached   bool              `json:"cached,omitempty"`
}

type Stats struct {
	Chunks    int `json:"chunks"`
	Sources   int `json:"sources"`
	Dimension int `json:"dimension"`
}

// Options wires a service. Generator and Cache may be nil.
type Options struct {
	Manager   *pageindex.Manager
	Embedder  embedding.Embedder
	Generator llm.Provider
	Cache     vectorDB.AnswerCache
	SourceDir string
	StorePath string
	TopK      int
}

type service struct {
	manager     *pageindex.Manager
	embedder    embedding.Embedder
	llmProvider llm.Provider
	cache       vectorDB.AnswerCache
	sourceDir   string
	storePath   string
	topK        int
	logger      *logger_i.Logger

	// refreshMu serializes index maintenance, mu guards the store pointer
	refreshMu sync.Mutex
	mu        sync.RWMutex
	store     *pageindex.Store

	pendingSaves sync.WaitGroup
}

func NewService(opts Options) Service {
	topK := opts.TopK
	if topK <= 0 {
		topK = config.TOPK
	}
	return &service{
		manager:     opts.Manager,
		embedder:    opts.Embedder,
		llmProvider: opts.Generator,
		cache:       opts.Cache,
		sourceDir:   opts.SourceDir,
		storePath:   opts.StorePath,
		topK:        topK,
		logger:      logger_i.NewLogger("RAG Service"),
	}
}

func (s *service) Refresh(ctx context.Context) (pageindex.EnsureResult, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	store, res, err := s.manager.EnsureIndex(ctx, s.sourceDir, s.storePath)
	if err != nil {
		return pageindex.EnsureResult{}, err
	}

	s.mu.Lock()
	s.store = store
	s.mu.Unlock()

	s.logger.WithTrace(ctx).Info("Index ready", "action", res.Action, "chunks", res.TotalChunks, "added", len(res.Added), "deleted", len(res.Deleted))
	return res, nil
}

func (s *service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return Stats{}
	}
	return Stats{
		Chunks:    s.store.Len(),
		Sources:   len(s.store.Manifest()),
		Dimension: s.store.Dim(),
	}
}

func (s *service) Search(ctx context.Context, question string, k int) (Result, error) {
	job := s.newQueryJob(ctx, question, k)
	res, stepErr := s.answer(ctx, &job, false)
	if stepErr != nil {
		return Result{}, stepErr
	}
	return res, nil
}

func (s *service) Ask(ctx context.Context, question string, k int) (Result, error) {
	if s.llmProvider == nil {
		return Result{}, ErrNoGenerator
	}
	job := s.newQueryJob(ctx, question, k)
	res, stepErr := s.answer(ctx, &job, true)
	if stepErr != nil {
		return Result{}, stepErr
	}
	return res, nil
}

func (s *service) ProcessRequest(ctx context.Context, jobt jobModel.Job) jobModel.Job {
	processContext, cancel := context.WithTimeout(ctx, config.JobTimeout)
	defer cancel()

	jobt.CurrentStep = jobModel.RAGCall
	if s.llmProvider == nil {
		return s.jobError(ctx, jobt, &stepError{reason: jobModel.ReasonLLMGeneration, err: ErrNoGenerator})
	}

	res, stepErr := s.answer(processContext, &jobt, true)
	if stepErr != nil {
		return s.jobError(ctx, jobt, stepErr)
	}

	jobt.JobPayload.Sources = res.Sources
	jobt.JobPayload.Cached = res.Cached
	return returnOutput(jobt, res.Answer)
}

func (s *service) Reindex(ctx context.Context, jobt jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureJobMetrics("reindex", time.Since(start)) }()

	jobt.CurrentStep = jobModel.ReindexProcessing
	res, err := s.Refresh(ctx)
	if err != nil {
		return s.jobError(ctx, jobt, &stepError{reason: jobModel.ReasonIndex, err: err})
	}

	jobt.JobPayload.Index = &jobModel.IndexSummary{
		Action:      string(res.Action),
		Added:       res.Added,
		Deleted:     res.Deleted,
		Failed:      res.Failed,
		ChunksAdded: res.ChunksAdded,
		TotalChunks: res.TotalChunks,
	}
	jobt.CurrentStep = jobModel.Complete
	return jobt
}

// answer runs embed, cache check, search and, when generate is set,
// generation. The job records the step reached.
func (s *service) answer(ctx context.Context, job *jobModel.Job, generate bool) (Result, *stepError) {
	log := s.logger.WithTrace(ctx).With("JobId", job.Id)

	store, err := s.currentStore(ctx)
	if err != nil {
		return Result{}, &stepError{reason: jobModel.ReasonIndex, err: err}
	}

	question := job.JobPayload.Question
	k := job.JobPayload.K
	if k <= 0 {
		k = s.topK
	}
	res := Result{Question: question}

	// an empty index answers from an empty context without touching the embedder
	var retrieval pageindex.Retrieval
	if store.Len() > 0 {
		queryVector, err := s.executeEmbeddingStep(ctx, log, job)
		if err != nil {
			return Result{}, &stepError{reason: jobModel.ReasonEmbedding, err: err}
		}

		corpus := store.Manifest().Digest()
		if generate {
			if cached, found := s.executeCacheCheckStep(ctx, log, job, corpus, queryVector); found {
				res.Answer = cached
				res.Cached = true
			}
		}

		retrieval, err = s.executeVectorSearchStep(log, job, store, queryVector, k)
		if err != nil {
			return Result{}, &stepError{reason: jobModel.ReasonVectorSearch, err: err}
		}
		res.Sources = toSources(store, retrieval.Hits)
		res.Context = retrieval.Context

		if generate && !res.Cached {
			defer s.saveToCache(ctx, log, corpus, queryVector, &res)
		}
	}

	if !generate {
		return res, nil
	}
	res.Prompt = llm.BuildPrompt(res.Context, question)
	if res.Cached {
		return res, nil
	}

	answer, err := s.executeLLMStep(ctx, log, job, res.Prompt)
	if err != nil {
		return Result{}, &stepError{reason: jobModel.ReasonLLMGeneration, err: err}
	}
	res.Answer = answer
	return res, nil
}

func (s *service) saveToCache(ctx context.Context, log *logger_i.Logger, corpus string, queryVector []float32, res *Result) {
	if s.cache == nil || res.Answer == "" {
		return
	}
	answer := res.Answer
	// the request context may be gone by the time the write happens
	saveCtx := context.WithoutCancel(ctx)
	s.pendingSaves.Add(1)
	go func() {
		defer s.pendingSaves.Done()
		if err := s.cache.SaveToCache(saveCtx, corpus, queryVector, answer); err != nil {
			log.Warn("Failed to save to cache", "error", err)
		}
	}()
}

func (s *service) Flush() {
	s.pendingSaves.Wait()
}

func (s *service) currentStore(ctx context.Context) (*pageindex.Store, error) {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store != nil {
		return store, nil
	}

	if _, err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store, nil
}

func (s *service) newQueryJob(ctx context.Context, question string, k int) jobModel.Job {
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return jobModel.Job{
		Id:          utils.GetNewUUID(),
		TraceId:     trace,
		JobType:     jobModel.JobTypeQuery,
		JobPayload:  jobModel.JobPayload{Question: question, K: k},
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusRunning,
		CurrentStep: jobModel.UserQueryInit,
	}
}

type stepError struct {
	reason string
	err    error
}

func (e *stepError) Error() string {
	return e.reason + ": " + e.err.Error()
}

func (e *stepError) Unwrap() error {
	return e.err
}

// Reason returns the failure reason code of an error from Search or Ask.
func Reason(err error) string {
	var se *stepError
	if errors.As(err, &se) {
		return se.reason
	}
	return ""
}

func errorCode(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
