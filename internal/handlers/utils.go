package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/akolanti/GoRAG/internal/adapter"
	"github.com/akolanti/GoRAG/internal/adapter/utils"
	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are already out, all we can do is log
		logger_i.NewLogger("Handlers").Error("Error encoding response", "error", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

func (h *Handlers) validateId(ctx context.Context, id string) (result jobModel.Job, isFound bool) {
	if id == "" {
		h.logger.WithTrace(ctx).Warn("Empty Job ID")
		return jobModel.Job{}, false
	}
	return h.GetJobStatus(ctx, id)
}

func (h *Handlers) validateContext(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		h.logger.WithTrace(ctx).Warn("context error", "error", err)
		return false
	}
	return true
}

func traceFrom(ctx context.Context) string {
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return trace
}

func (h *Handlers) enqueue(w http.ResponseWriter, r *http.Request, jobType jobModel.JobType, question string, k int) {
	newJob := newJobData{
		id:       utils.GetNewUUID(),
		traceId:  traceFrom(r.Context()),
		jobType:  jobType,
		question: question,
		k:        k,
	}
	h.CreateNewJob(r.Context(), newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
}

// uploadName picks the file name an upload is stored under. Only the base
// name survives and the extension must be one the index reads.
func (h *Handlers) uploadName(requested, uploaded string) (string, error) {
	name := requested
	if name == "" {
		name = uploaded
	}
	name = filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, `\`, "/")))
	if name == "/" || name == "." || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid document name %q", requested+uploaded)
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !slices.Contains(h.extensions, ext) {
		return "", fmt.Errorf("unsupported document type %q", ext)
	}
	return name, nil
}

// storeUpload writes src into the source folder under name through a temp
// file, so a half written upload is never indexed.
func (h *Handlers) storeUpload(src io.Reader, name string) (string, error) {
	if err := os.MkdirAll(h.sourceDir, 0o750); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(h.sourceDir, ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	target := filepath.Join(h.sourceDir, name)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", err
	}
	return target, nil
}
