package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/metrics"
)

func (p *Pool) executeJob(job jobModel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, p.jobTimeout)
	defer cancel()

	log := p.logger.WithTrace(ctx).With("jobId", job.Id, "type", job.JobType)
	log.Debug("Processing job")

	job.Status = jobModel.JobStatusRunning
	p.saveJobState(ctx, job)

	switch job.JobType {
	case jobModel.JobTypeReindex:
		job = p.ragService.Reindex(ctx, job)
	default:
		job = p.ragService.ProcessRequest(ctx, job)
	}

	if job.Status != jobModel.JobStatusError {
		job.Status = jobModel.JobStatusComplete
	}
	job.EndTime = time.Now()
	p.saveJobState(context.WithoutCancel(ctx), job)
	log.Info("Job finished", "status", job.Status, "took", time.Since(start))
}

// removeWorker is called by a worker on its way out. counted is true when
// the caller already took the worker off the count, as tryRetire does.
func (p *Pool) removeWorker(reason string, counted bool) {
	if !counted {
		atomic.AddInt64(&p.currentWorkerCount, -1)
	}
	p.workerWaitGroup.Done()
	metrics.DecrementActiveWorkerCount()
	p.logger.Info("Removed worker", "reason", reason, "workerCount", p.WorkerCount())
}

func (p *Pool) saveJobState(ctx context.Context, job jobModel.Job) {
	if err := p.jobService.JobStore.SaveJob(ctx, job); err != nil {
		p.logger.Error("Failed to update job state", "jobId", job.Id, "error", err)
	}
}
