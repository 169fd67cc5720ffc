package jobModel

import (
	"context"
	"time"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	UserQueryInit    InternalStatus = "Init"
	CacheCall        InternalStatus = "CacheCall"
	RAGCall          InternalStatus = "RAG"
	LLMCall          InternalStatus = "LLM"
	IndexSearch      InternalStatus = "IndexSearch"
	EmbeddingAPICall InternalStatus = "EmbeddingAPI"

	ReindexInit       InternalStatus = "ReindexInit"
	ReindexProcessing InternalStatus = "ReindexProcessing"
	Error             InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeQuery   JobType = "Query"
	JobTypeReindex JobType = "Reindex"
)

// Failure reasons reported in JobError.Reason.
const (
	ReasonEmbedding     = "EMBEDDING_FAILURE"
	ReasonVectorSearch  = "VECTOR_SEARCH_FAILURE"
	ReasonLLMGeneration = "LLM_GENERATION_FAILURE"
	ReasonIndex         = "INDEX_FAILURE"
)

type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	Question string   `json:"question,omitempty"`
	K        int      `json:"k,omitempty"`
	Answer   string   `json:"answer,omitempty"`
	Cached   bool     `json:"cached,omitempty"`
	Sources  []Source `json:"sources,omitempty"`

	Index *IndexSummary `json:"index,omitempty"`
}

// Source is one retrieved chunk, ranked from 1 (nearest).
type Source struct {
	Rank         int     `json:"rank"`
	Position     int     `json:"position"`
	Distance     float32 `json:"distance"`
	Document     string  `json:"document"`
	Page         int     `json:"page"`
	ChunkOrdinal int     `json:"chunk_ordinal"`
	Snippet      string  `json:"snippet"`
}

// IndexSummary reports the outcome of a reindex job.
type IndexSummary struct {
	Action      string   `json:"action"`
	Added       []string `json:"added,omitempty"`
	Deleted     []string `json:"deleted,omitempty"`
	Failed      []string `json:"failed,omitempty"`
	ChunksAdded int      `json:"chunks_added"`
	TotalChunks int      `json:"total_chunks"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
