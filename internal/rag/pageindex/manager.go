package pageindex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/internal/rag/ingest"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

type Action string

const (
	ActionBuild   Action = "build"
	ActionRebuild Action = "rebuild"
	ActionAppend  Action = "append"
	ActionNoOp    Action = "noop"
)

// EnsureResult reports what EnsureIndex did.
type EnsureResult struct {
	Action      Action   `json:"action"`
	Added       []string `json:"added,omitempty"`
	Deleted     []string `json:"deleted,omitempty"`
	Failed      []string `json:"failed,omitempty"`
	ChunksAdded int      `json:"chunks_added"`
	TotalChunks int      `json:"total_chunks"`
}

// Manager keeps a page file in sync with a directory of source documents.
type Manager struct {
	loader     ingest.Loader
	embedder   embedding.Embedder
	chunkWords int
	extensions []string
	logger     *logger_i.Logger
}

func NewManager(loader ingest.Loader, embedder embedding.Embedder, chunkWords int, extensions []string) *Manager {
	return &Manager{
		loader:     loader,
		embedder:   embedder,
		chunkWords: chunkWords,
		extensions: extensions,
		logger:     logger_i.NewLogger("Index Manager"),
	}
}

// EnsureIndex brings the page file at storePath up to date with sourceDir
// and returns the resulting store.
//
// With no page file everything is built. Any deleted source forces a full
// rebuild because positions cannot be removed from the index. When nothing
// changed the loaded store is returned without writing. Otherwise only the
// changed or added files are chunked, embedded and appended.
func (m *Manager) EnsureIndex(ctx context.Context, sourceDir, storePath string) (*Store, EnsureResult, error) {
	paths, err := ingest.ListSources(sourceDir, m.extensions)
	if err != nil {
		return nil, EnsureResult{}, err
	}
	current, err := ScanManifest(paths)
	if err != nil {
		return nil, EnsureResult{}, err
	}

	existing, err := LoadStore(storePath)
	if errors.Is(err, os.ErrNotExist) {
		m.logger.Info("No page file found, building index", "path", storePath, "sources", len(paths))
		return m.build(ctx, ActionBuild, paths, current, nil, storePath)
	}
	if err != nil {
		return nil, EnsureResult{}, err
	}

	changes := Diff(current, existing.manifest)
	switch {
	case len(changes.Deleted) > 0:
		m.logger.Info("Sources deleted, rebuilding index", "deleted", changes.Deleted)
		return m.build(ctx, ActionRebuild, paths, current, changes.Deleted, storePath)

	case changes.Empty():
		m.logger.Debug("Index is up to date", "chunks", existing.Len())
		existing.manifest = current
		metrics.CaptureIndexAction(string(ActionNoOp), existing.Len())
		return existing, EnsureResult{Action: ActionNoOp, TotalChunks: existing.Len()}, nil

	default:
		m.logger.Info("Appending changed sources", "files", changes.ChangedOrAdded)
		return m.appendFiles(ctx, existing, changes.ChangedOrAdded, current, storePath)
	}
}

func (m *Manager) build(ctx context.Context, action Action, paths []string, current Manifest, deleted []string, storePath string) (*Store, EnsureResult, error) {
	start := time.Now()
	store := newStore()

	added, failed, err := m.ingestFiles(ctx, store, paths)
	if err != nil {
		return nil, EnsureResult{}, fmt.Errorf("%s index: %w", action, err)
	}
	store.manifest = current
	if err := store.Save(storePath); err != nil {
		return nil, EnsureResult{}, err
	}
	metrics.CaptureExecutionMetrics("index_build", time.Since(start))
	metrics.CaptureIndexAction(string(action), store.Len())

	return store, EnsureResult{
		Action:      action,
		Added:       paths,
		Deleted:     deleted,
		Failed:      failed,
		ChunksAdded: added,
		TotalChunks: store.Len(),
	}, nil
}

// appendFiles grows a loaded store in place. Changed files are appended
// again without removing their earlier chunks.
func (m *Manager) appendFiles(ctx context.Context, store *Store, files []string, current Manifest, storePath string) (*Store, EnsureResult, error) {
	start := time.Now()

	added, failed, err := m.ingestFiles(ctx, store, files)
	if err != nil {
		return nil, EnsureResult{}, fmt.Errorf("append index: %w", err)
	}
	store.manifest = current
	if err := store.Save(storePath); err != nil {
		return nil, EnsureResult{}, err
	}
	metrics.CaptureExecutionMetrics("index_append", time.Since(start))
	metrics.CaptureIndexAction(string(ActionAppend), store.Len())

	return store, EnsureResult{
		Action:      ActionAppend,
		Added:       files,
		Failed:      failed,
		ChunksAdded: added,
		TotalChunks: store.Len(),
	}, nil
}

// ingestFiles chunks every file in order and appends the chunks to store
// with their vectors. A file that cannot be parsed contributes no chunks
// but stays in the manifest, so it is not retried until it changes.
func (m *Manager) ingestFiles(ctx context.Context, store *Store, files []string) (int, []string, error) {
	var chunks []commonModels.DocChunk
	var failed []string

	for _, path := range files {
		pages, err := m.loader.Load(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return 0, nil, ctx.Err()
			}
			m.logger.Warn("Skipping unreadable source", "path", path, "error", err)
			failed = append(failed, path)
			continue
		}
		docChunks := ingest.PrepareChunks(pages, filepath.Base(path), m.chunkWords)
		m.logger.Debug("Chunked source", "path", path, "pages", len(pages), "chunks", len(docChunks))
		chunks = append(chunks, docChunks...)
	}
	if len(chunks) == 0 {
		return 0, failed, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	start := time.Now()
	vectors, err := embedding.EmbedAll(ctx, m.embedder, texts)
	metrics.CaptureExecutionMetrics("embedding", time.Since(start))
	if err != nil {
		return 0, nil, err
	}
	if err := store.appendChunks(chunks, vectors); err != nil {
		return 0, nil, err
	}
	return len(chunks), failed, nil
}
