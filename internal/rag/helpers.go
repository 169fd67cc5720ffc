package rag

import (
	"context"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/pageindex"
	"github.com/akolanti/GoRAG/internal/rag/report"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

func returnOutput(job jobModel.Job, ans string) jobModel.Job {
	job.JobPayload.Answer = ans
	job.CurrentStep = jobModel.Complete
	return job
}

func logOutput(job jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = status
	log.Debug("ProcessRequest", "Current Status", job.CurrentStep)
	return job
}

func (s *service) jobError(ctx context.Context, job jobModel.Job, se *stepError) jobModel.Job {
	s.logger.WithTrace(ctx).Error(se.reason, "JobId", job.Id, "step", job.CurrentStep, "error", se.err)

	job.Error = jobModel.JobError{
		Code:    errorCode(se.err),
		Reason:  se.reason,
		Message: se.err.Error(),
		Retry:   se.reason != jobModel.ReasonIndex,
	}
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	return job
}

func toSources(store *pageindex.Store, hits []pageindex.Hit) []jobModel.Source {
	sources := make([]jobModel.Source, len(hits))
	for i, h := range hits {
		meta := store.Meta(h.Position)
		sources[i] = jobModel.Source{
			Rank:         i + 1,
			Position:     h.Position,
			Distance:     h.Distance,
			Document:     meta.Document,
			Page:         meta.Page,
			ChunkOrdinal: meta.ChunkOrdinal,
			Snippet:      report.Snippet(store.Chunk(h.Position), config.SnippetLen),
		}
	}
	return sources
}

func (s *service) executeEmbeddingStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job) ([]float32, error) {
	*job = logOutput(*job, jobModel.EmbeddingAPICall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	return s.embedder.GetEmbedding(ctx, job.JobPayload.Question)
}

func (s *service) executeCacheCheckStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, corpus string, emb []float32) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	*job = logOutput(*job, jobModel.CacheCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("cache_lookup", time.Since(start)) }()

	ans, found, err := s.cache.GetCachedAnswer(ctx, corpus, emb)
	if err != nil {
		// a broken cache only costs the shortcut
		log.Warn("Cache lookup failed", "error", err)
		return "", false
	}
	return ans, found
}

func (s *service) executeVectorSearchStep(log *logger_i.Logger, job *jobModel.Job, store *pageindex.Store, emb []float32, k int) (pageindex.Retrieval, error) {
	*job = logOutput(*job, jobModel.IndexSearch, log)
	return pageindex.RetrieveVector(store, emb, k)
}

func (s *service) executeLLMStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, prompt string) (string, error) {
	*job = logOutput(*job, jobModel.LLMCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return s.llmProvider.Generate(ctx, prompt)
}
