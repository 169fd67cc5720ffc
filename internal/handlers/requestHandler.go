package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/akolanti/GoRAG/internal/adapter"
	"github.com/akolanti/GoRAG/internal/adapter/utils"
	"github.com/akolanti/GoRAG/internal/api"
	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
)

func (h *Handlers) GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) decodeQuery(w http.ResponseWriter, r *http.Request) (api.QueryRequest, bool) {
	var requestData api.QueryRequest
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			h.logger.Error("Couldn't close the request body", "error", err)
		}
	}(r.Body)

	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil || requestData.Question == "" || requestData.K < 0 {
		h.logger.WithTrace(r.Context()).Warn("Bad query request", "error", err, "request data", requestData)
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return requestData, false
	}
	return requestData, true
}

// QueryHandler godoc
// @Summary      Ask a question
// @Description  Queues a retrieval and generation job over the page index and returns a job ID to track status.
// @Tags         Query
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      api.QueryRequest     true  "Question and optional top-k"
// @Success      202      {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400      {object}  api.JobResponse      "Invalid request data"
// @Router       /query [post]
func (h *Handlers) QueryHandler(w http.ResponseWriter, r *http.Request) {
	if !h.validateContext(r.Context()) {
		h.logger.Warn("Invalid Context by request", "remote", r.RemoteAddr)
		return
	}
	requestData, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}
	h.enqueue(w, r, jobModel.JobTypeQuery, requestData.Question, requestData.K)
}

// SearchHandler godoc
// @Summary      Search the page index
// @Description  Embeds the question and returns the nearest chunks with their context, without generation.
// @Tags         Query
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      api.QueryRequest    true  "Question and optional top-k"
// @Success      200      {object}  api.SearchResponse  "Ranked chunks"
// @Failure      400      {object}  api.JobResponse     "Invalid request data"
// @Failure      500      {object}  api.JobResponse     "Index or embedding failure"
// @Router       /search [post]
func (h *Handlers) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !h.validateContext(r.Context()) {
		return
	}
	requestData, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}
	res, err := h.ragService.Search(r.Context(), requestData.Question, requestData.K)
	if err != nil {
		h.logger.WithTrace(r.Context()).Error("Search failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", err.Error())
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToSearchResponse(res))
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a query or reindex job using its ID.
// @Tags         Job Status
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse   "The current status of the job"
// @Failure      404  {object}  api.JobResponse   "Job not found"
// @Router       /status/{id} [get]
func (h *Handlers) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !h.validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	h.logger.WithTrace(r.Context()).Debug("Get Status Request", "path", r.URL.Path)

	result, isFound := h.validateId(r.Context(), idString)
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// ReindexHandler godoc
// @Summary      Refresh the page index
// @Description  Queues a job that brings the page file up to date with the document folder.
// @Tags         Index
// @Produce      json
// @Security     BearerAuth
// @Success      202  {object}  api.InitJobResponse  "Job successfully created"
// @Router       /reindex [post]
func (h *Handlers) ReindexHandler(w http.ResponseWriter, r *http.Request) {
	if !h.validateContext(r.Context()) {
		return
	}
	h.enqueue(w, r, jobModel.JobTypeReindex, "", 0)
}

// StatsHandler godoc
// @Summary      Page index statistics
// @Description  Reports the chunk count, the number of tracked files and the vector dimension of the loaded index.
// @Tags         Index
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  api.StatsResponse
// @Router       /stats [get]
func (h *Handlers) StatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, adapter.ToStatsResponse(h.ragService.Stats()))
}

// PostIngestHandler godoc
// @Summary      Upload a document
// @Description  Saves a document into the indexed folder and queues a reindex job.
// @Tags         Index
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        document_name  formData  string  false  "File name to store the document under"
// @Param        document       formData  file    true   "The document to upload"
// @Success      202  {object}  api.InitJobResponse "Accepted"
// @Failure      400  {object}  api.JobResponse "Missing file, unsupported type or file too large"
// @Failure      500  {object}  api.JobResponse "Storage or write error"
// @Router       /ingest [post]
func (h *Handlers) PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if !h.validateContext(r.Context()) {
		return
	}
	log := h.logger.WithTrace(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	name, err := h.uploadName(r.FormValue("document_name"), fileMetadata.Filename)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", err.Error())
		return
	}

	path, err := h.storeUpload(fileReader, name)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteErrorResponse(w, http.StatusBadRequest, name, "File too large")
			return
		}
		log.Error("Failed to store upload", "name", name, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, name, "Storage error")
		return
	}
	log.Info("Stored upload", "path", path)
	h.enqueue(w, r, jobModel.JobTypeReindex, "", 0)
}
