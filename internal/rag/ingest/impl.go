package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

// Loader turns one source file into its non-blank pages.
type Loader interface {
	Load(ctx context.Context, path string) ([]commonModels.Page, error)
}

// FileLoader extracts pages from PDFs and, for office and text formats, a
// single page holding the whole document.
type FileLoader struct {
	logger *logger_i.Logger
}

func NewFileLoader() *FileLoader {
	return &FileLoader{logger: logger_i.NewLogger("Document Loader")}
}

func (l *FileLoader) Load(ctx context.Context, path string) ([]commonModels.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docType := getDocType(path)
	if docType == commonModels.ERR {
		return nil, fmt.Errorf("unsupported document type: %s", filepath.Ext(path))
	}
	l.logger.Debug("Loading document", "path", path, "type", docType)
	return l.extractText(path, docType)
}

// ListSources returns the regular files directly inside dir whose extension
// is in exts (case-insensitive), sorted by path. A missing directory is an
// empty source set.
func ListSources(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading source dir %s: %w", dir, err)
	}

	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		allowed[strings.ToLower(ext)] = true
	}

	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if !allowed[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
