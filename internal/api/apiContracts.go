package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	Type      string            `json:"type,omitempty" example:"Query"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Reason  string `json:"reason,omitempty" example:"EMBEDDING_FAILURE"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type Source struct {
	Rank         int     `json:"rank" example:"1"`
	Position     int     `json:"idx" example:"42"`
	Distance     float32 `json:"l2_squared" example:"0.1234"`
	Document     string  `json:"document" example:"manual.pdf"`
	Page         int     `json:"page" example:"3"`
	ChunkOrdinal int     `json:"chunk" example:"1"`
	Snippet      string  `json:"snippet"`
}

type RAGResponse struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Cached   bool     `json:"cached,omitempty"`
	Sources  []Source `json:"sources"`
}

type IndexResponse struct {
	Action      string   `json:"action" example:"append"`
	Added       []string `json:"added,omitempty"`
	Deleted     []string `json:"deleted,omitempty"`
	Failed      []string `json:"failed,omitempty"`
	ChunksAdded int      `json:"chunks_added"`
	TotalChunks int      `json:"total_chunks"`
}

type Result struct {
	Status              string         `json:"status"`
	Step                string         `json:"step,omitempty"`
	RAGExternalResponse *RAGResponse   `json:"rag_response,omitempty"`
	Index               *IndexResponse `json:"index,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type SearchResponse struct {
	Question string   `json:"question"`
	Context  string   `json:"context"`
	Sources  []Source `json:"sources"`
}

type StatsResponse struct {
	Chunks    int `json:"chunks"`
	Sources   int `json:"sources"`
	Dimension int `json:"dimension"`
}

// requests---------------------

type QueryRequest struct {
	Question string `json:"question" validate:"required" example:"How do I reset the device?"`
	K        int    `json:"k,omitempty" example:"5"`
}

type JobStatusRequest struct {
	JobId string `json:"job_id" validate:"required"`
}
