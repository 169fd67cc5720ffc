package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/job"
	"github.com/akolanti/GoRAG/internal/rag"
	"github.com/akolanti/GoRAG/internal/rag/pageindex"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

// MockRagService tracks which entry point ran each job
type MockRagService struct {
	QueryCount   int32
	ReindexCount int32
	FailQueries  bool
}

func (m *MockRagService) ProcessRequest(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.QueryCount, 1)
	if m.FailQueries {
		j.Status = jobModel.JobStatusError
		j.Error = jobModel.JobError{Code: 500, Message: "boom"}
		return j
	}
	j.JobPayload.Answer = "answer for " + j.JobPayload.Question
	return j
}

func (m *MockRagService) Reindex(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.ReindexCount, 1)
	j.JobPayload.Index = &jobModel.IndexSummary{Action: string(pageindex.ActionBuild)}
	return j
}

func (m *MockRagService) Refresh(ctx context.Context) (pageindex.EnsureResult, error) {
	return pageindex.EnsureResult{}, nil
}

func (m *MockRagService) Search(ctx context.Context, q string, k int) (rag.Result, error) {
	return rag.Result{}, nil
}

func (m *MockRagService) Ask(ctx context.Context, q string, k int) (rag.Result, error) {
	return rag.Result{}, nil
}

func (m *MockRagService) Stats() rag.Stats { return rag.Stats{} }
func (m *MockRagService) Flush() {}

type MockJobStore struct {
	mu    sync.Mutex
	saved []jobModel.Job
}

func (m *MockJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].Id == jobId {
			return m.saved[i], true
		}
	}
	return jobModel.Job{}, false
}

func (m *MockJobStore) DeleteJob(ctx context.Context, jobID string) {}

func (m *MockJobStore) SaveJob(ctx context.Context, j jobModel.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, j)
	return nil
}

func newTestPool(store *MockJobStore, ragSvc rag.Service, idle time.Duration, minWorkers int64) (*Pool, *job.Service, chan bool, *sync.WaitGroup) {
	jobSvc := job.InitJobService(job.ServiceConfig{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 10),
		JobStore:          store,
	})
	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}
	p := &Pool{
		jobService:        jobSvc,
		ragService:        ragSvc,
		stopWorkerChannel: stopChan,
		workerWaitGroup:   wg,
		minWorkerCount:    minWorkers,
		maxWorkerCount:    3,
		idleTimeout:       idle,
		jobTimeout:        time.Second,
		logger:            logger_i.NewLogger("TestWorkerPool"),
	}
	return p, jobSvc, stopChan, wg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWorkerPool_Flow(t *testing.T) {
	store := &MockJobStore{}
	mockRag := &MockRagService{}
	p, jobSvc, stopChan, wg := newTestPool(store, mockRag, time.Minute, 1)
	p.Start()

	t.Run("Dispatcher creates worker on signal", func(t *testing.T) {
		jobSvc.DispatcherChannel <- true
		waitFor(t, func() bool { return p.WorkerCount() == 2 })
	})

	t.Run("Dispatcher respects the maximum", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			jobSvc.DispatcherChannel <- true
		}
		time.Sleep(50 * time.Millisecond)
		if got := p.WorkerCount(); got != 3 {
			t.Errorf("Expected 3 workers, got %d", got)
		}
	})

	t.Run("Query job is answered and completed", func(t *testing.T) {
		jobSvc.JobChannel <- jobModel.Job{Id: "q-1", JobType: jobModel.JobTypeQuery, JobPayload: jobModel.JobPayload{Question: "why"}}
		waitFor(t, func() bool {
			j, ok := store.GetJob(context.Background(), "q-1")
			return ok && j.Status == jobModel.JobStatusComplete
		})
		j, _ := store.GetJob(context.Background(), "q-1")
		if j.JobPayload.Answer != "answer for why" {
			t.Errorf("unexpected answer %q", j.JobPayload.Answer)
		}
		if j.EndTime.IsZero() {
			t.Error("EndTime should be set")
		}
	})

	t.Run("Reindex job goes to Reindex", func(t *testing.T) {
		jobSvc.JobChannel <- jobModel.Job{Id: "r-1", JobType: jobModel.JobTypeReindex}
		waitFor(t, func() bool {
			j, ok := store.GetJob(context.Background(), "r-1")
			return ok && j.Status == jobModel.JobStatusComplete
		})
		if atomic.LoadInt32(&mockRag.ReindexCount) != 1 {
			t.Errorf("Expected 1 reindex, got %d", mockRag.ReindexCount)
		}
		j, _ := store.GetJob(context.Background(), "r-1")
		if j.JobPayload.Index == nil || j.JobPayload.Index.Action != "build" {
			t.Errorf("missing index summary: %+v", j.JobPayload.Index)
		}
	})

	t.Run("Stop signal retires workers", func(t *testing.T) {
		close(stopChan)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("Workers did not stop within timeout")
		}
		if got := p.WorkerCount(); got != 0 {
			t.Errorf("Expected 0 workers after stop, got %d", got)
		}
	})
}

func TestWorker_FailedJobKeepsErrorStatus(t *testing.T) {
	store := &MockJobStore{}
	p, _, _, _ := newTestPool(store, &MockRagService{FailQueries: true}, time.Minute, 1)

	p.executeJob(jobModel.Job{Id: "bad", JobType: jobModel.JobTypeQuery})

	j, ok := store.GetJob(context.Background(), "bad")
	if !ok {
		t.Fatal("job was not saved")
	}
	if j.Status != jobModel.JobStatusError || j.Error.Code != 500 {
		t.Errorf("expected error status, got %+v", j)
	}
	if store.saved[0].Status != jobModel.JobStatusRunning {
		t.Errorf("first save should mark the job running, got %s", store.saved[0].Status)
	}
}

func TestWorker_IdleTimeout(t *testing.T) {
	p, _, stopChan, wg := newTestPool(&MockJobStore{}, &MockRagService{}, 50*time.Millisecond, 1)

	p.createWorker()
	p.createWorker()
	p.createWorker()

	// idle workers retire down to the minimum and no further
	waitFor(t, func() bool { return p.WorkerCount() == 1 })
	time.Sleep(150 * time.Millisecond)
	if got := p.WorkerCount(); got != 1 {
		t.Errorf("Expected the minimum of 1 worker to survive, got %d", got)
	}

	close(stopChan)
	wg.Wait()
}

func TestRemoveWorker(t *testing.T) {
	tests := []struct {
		name      string
		counted   bool
		wantCount int64
	}{
		{name: "stop signal takes the worker off the count", counted: false, wantCount: 1},
		{name: "retired worker was already counted out", counted: true, wantCount: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, _, wg := newTestPool(&MockJobStore{}, &MockRagService{}, time.Minute, 1)
			p.currentWorkerCount = 2
			wg.Add(1)

			p.removeWorker("test", tt.counted)

			if got := p.WorkerCount(); got != tt.wantCount {
				t.Errorf("WorkerCount() = %d, want %d", got, tt.wantCount)
			}
			wg.Wait()
		})
	}
}
