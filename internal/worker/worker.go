package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/job"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

// Pool runs queued jobs. It starts with one worker, grows by one on every
// dispatcher signal up to MaxWorkerCount and retires idle workers down to
// the minimum.
type Pool struct {
	jobService         *job.Service
	ragService         rag.Service
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	currentWorkerCount int64
	minWorkerCount     int64
	maxWorkerCount     int64
	idleTimeout        time.Duration
	jobTimeout         time.Duration
	logger             *logger_i.Logger
}

func NewPool(jobService *job.Service, ragService rag.Service, stopWorkerChan chan bool, waitGroup *sync.WaitGroup) *Pool {
	return &Pool{
		jobService:        jobService,
		ragService:        ragService,
		stopWorkerChannel: stopWorkerChan,
		workerWaitGroup:   waitGroup,
		minWorkerCount:    config.MinWorkerCount,
		maxWorkerCount:    config.MaxWorkerCount,
		idleTimeout:       config.IdleWorkerTimeout,
		jobTimeout:        config.JobTimeout,
		logger:            logger_i.NewLogger("WorkerPool"),
	}
}

// Start launches the dispatcher and the first worker.
func (p *Pool) Start() {
	p.logger.Info("Initializing worker pool")
	p.createWorker()
	go p.dispatcher()
}

func (p *Pool) WorkerCount() int64 {
	return atomic.LoadInt64(&p.currentWorkerCount)
}

func (p *Pool) dispatcher() {
	p.logger.Info("Dispatcher started")
	for {
		select {
		case _, ok := <-p.jobService.DispatcherChannel:
			if !ok {
				return
			}
			metrics.StartDispatcherSignalCount()
			if p.WorkerCount() < p.maxWorkerCount {
				p.logger.Debug("Creating new worker", "workerCount", p.WorkerCount())
				p.createWorker()
			}
		case <-p.stopWorkerChannel:
			return
		}
	}
}

func (p *Pool) createWorker() {
	p.workerWaitGroup.Add(1)
	atomic.AddInt64(&p.currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	go p.worker()
}

func (p *Pool) worker() {
	idle := time.NewTimer(p.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case currentJob := <-p.jobService.JobChannel:
			p.executeJob(currentJob)
			metrics.DecrementJobsInQueue()
			idle.Reset(p.idleTimeout)

		case <-p.stopWorkerChannel:
			p.removeWorker("Stop worker signal received", false)
			return

		case <-idle.C:
			if p.tryRetire() {
				p.removeWorker("Idle worker timeout", true)
				return
			}
			idle.Reset(p.idleTimeout)
		}
	}
}

// tryRetire claims a slot to retire without dropping below the minimum.
func (p *Pool) tryRetire() bool {
	for {
		current := atomic.LoadInt64(&p.currentWorkerCount)
		if current <= p.minWorkerCount {
			return false
		}
		if atomic.CompareAndSwapInt64(&p.currentWorkerCount, current, current-1) {
			return true
		}
	}
}
