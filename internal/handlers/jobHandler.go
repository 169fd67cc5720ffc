package handlers

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/job"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

// Handlers serves the HTTP API. Queries and reindexing go through the job
// queue, search and stats call the RAG service directly.
type Handlers struct {
	service    *job.Service
	ragService rag.Service
	sourceDir  string
	extensions []string
	logger     *logger_i.Logger
}

func NewHandlers(jobService *job.Service, ragService rag.Service, sourceDir string, extensions []string) *Handlers {
	h := &Handlers{
		service:    jobService,
		ragService: ragService,
		sourceDir:  sourceDir,
		extensions: extensions,
		logger:     logger_i.NewLogger("Handlers"),
	}
	h.logger.Info("Starting job handler")
	return h
}

type newJobData struct {
	id       string
	traceId  string
	jobType  jobModel.JobType
	question string
	k        int
}

func (h *Handlers) CreateNewJob(ctx context.Context, newJob newJobData) {
	h.logger.WithTrace(ctx).Info("To create new job", "jobId", newJob.id, "type", newJob.jobType)
	h.pushToJobChannel(ctx, newJob)
}

func (h *Handlers) GetJobStatus(ctx context.Context, id string) (result jobModel.Job, isFound bool) {
	return h.service.JobStore.GetJob(ctx, id)
}

func (h *Handlers) pushToJobChannel(ctx context.Context, newJob newJobData) {
	log := h.logger.WithTrace(ctx)

	_job := jobModel.Job{}
	_job.Id = newJob.id
	_job.CreatedTime = time.Now()
	_job.TraceId = newJob.traceId
	_job.Status = jobModel.JobStatusQueued
	_job.JobType = newJob.jobType

	if newJob.jobType == jobModel.JobTypeReindex {
		_job.CurrentStep = jobModel.ReindexInit
	} else {
		_job.JobPayload.Question = newJob.question
		_job.JobPayload.K = newJob.k
		_job.CurrentStep = jobModel.UserQueryInit
	}

	// queued jobs are visible on /status before a worker picks them up
	if err := h.service.JobStore.SaveJob(ctx, _job); err != nil {
		log.Warn("Failed to save queued job", "jobId", _job.Id, "error", err)
	}

	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- _job //blocking send keeps the queue bounded
	log.Info("Created new job", "jobId", _job.Id)

	// a new worker every RequestsPerNewWorkerCount requests, and for every
	// reindex since embedding a folder keeps a worker busy for a while
	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || _job.JobType == jobModel.JobTypeReindex {
		log.Debug("Signalling dispatcher", "requestCount", accurateCount)
		select {
		case h.service.DispatcherChannel <- true:
		default:
			log.Debug("Dispatcher busy, skipping signal")
		}
	}
}
