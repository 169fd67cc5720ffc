package adapter

import (
	"fmt"
	"time"

	"github.com/akolanti/GoRAG/internal/api"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/rag"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Reason:  job.Error.Reason,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status:              string(job.Status),
		Step:                string(job.CurrentStep),
		RAGExternalResponse: ToRAGExternalStatus(job.JobPayload),
		Index:               ToIndexResponse(job.JobPayload.Index),
	}

	return api.JobResponse{
		Id:        job.Id,
		Type:      string(job.JobType),
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func ToRAGExternalStatus(ragData jobModel.JobPayload) *api.RAGResponse {
	if ragData.Answer == "" && len(ragData.Sources) == 0 {
		return nil
	}

	return &api.RAGResponse{
		Question: ragData.Question,
		Answer:   ragData.Answer,
		Cached:   ragData.Cached,
		Sources:  ToSources(ragData.Sources),
	}
}

func ToIndexResponse(summary *jobModel.IndexSummary) *api.IndexResponse {
	if summary == nil {
		return nil
	}
	return &api.IndexResponse{
		Action:      summary.Action,
		Added:       summary.Added,
		Deleted:     summary.Deleted,
		Failed:      summary.Failed,
		ChunksAdded: summary.ChunksAdded,
		TotalChunks: summary.TotalChunks,
	}
}

func ToSources(sources []jobModel.Source) []api.Source {
	out := make([]api.Source, len(sources))
	for i, s := range sources {
		out[i] = api.Source{
			Rank:         s.Rank,
			Position:     s.Position,
			Distance:     s.Distance,
			Document:     s.Document,
			Page:         s.Page,
			ChunkOrdinal: s.ChunkOrdinal,
			Snippet:      s.Snippet,
		}
	}
	return out
}

func ToSearchResponse(res rag.Result) api.SearchResponse {
	return api.SearchResponse{
		Question: res.Question,
		Context:  res.Context,
		Sources:  ToSources(res.Sources),
	}
}

func ToStatsResponse(stats rag.Stats) api.StatsResponse {
	return api.StatsResponse{
		Chunks:    stats.Chunks,
		Sources:   stats.Sources,
		Dimension: stats.Dimension,
	}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
