package pageindex

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/vmihailenco/msgpack/v5"
)

var ErrCorruptStore = errors.New("page file is corrupt")

// Store is the persisted RAG index: the vector index plus, for every
// position, the chunk text and its provenance, and the manifest of source
// files it was built from. Only the Manager changes a Store.
type Store struct {
	index    *FlatL2
	chunks   []string
	metadata []commonModels.ChunkMeta
	manifest Manifest
}

// pageFile is the on-disk record. vector_matrix duplicates the index rows so
// the file can be inspected or re-indexed without the index encoding.
type pageFile struct {
	Index        *FlatL2                  `msgpack:"index"`
	VectorMatrix [][]float32              `msgpack:"vector_matrix"`
	Chunks       []string                 `msgpack:"chunks"`
	Metadata     []commonModels.ChunkMeta `msgpack:"metadata"`
	Manifest     Manifest                 `msgpack:"manifest"`
}

func newStore() *Store {
	return &Store{
		index:    NewFlatL2(0),
		manifest: Manifest{},
	}
}

func (s *Store) Len() int {
	return len(s.chunks)
}

func (s *Store) Dim() int {
	return s.index.Dim
}

func (s *Store) Chunk(i int) string {
	return s.chunks[i]
}

func (s *Store) Meta(i int) commonModels.ChunkMeta {
	return s.metadata[i]
}

// Chunks returns a copy of the chunk texts in position order.
func (s *Store) Chunks() []string {
	return slices.Clone(s.chunks)
}

// Metadata returns a copy of the chunk metadata in position order.
func (s *Store) Metadata() []commonModels.ChunkMeta {
	return slices.Clone(s.metadata)
}

func (s *Store) Vector(i int) []float32 {
	return s.index.Vector(i)
}

// Manifest returns a copy of the source manifest.
func (s *Store) Manifest() Manifest {
	return s.manifest.Clone()
}

func (s *Store) Search(q []float32, k int) ([]Hit, error) {
	return s.index.Search(q, k)
}

// appendChunks adds chunks and their vectors at the end of the store.
// Either everything is appended or nothing is.
func (s *Store) appendChunks(chunks []commonModels.DocChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%d chunks but %d vectors", len(chunks), len(vectors))
	}
	if err := s.index.Add(vectors); err != nil {
		return err
	}
	for _, c := range chunks {
		s.chunks = append(s.chunks, c.Text)
		s.metadata = append(s.metadata, c.Meta)
	}
	return nil
}

func (s *Store) consistent() bool {
	return s.index.valid() &&
		s.index.Len() == len(s.chunks) &&
		len(s.chunks) == len(s.metadata)
}

// Save writes the store to path through a temporary file in the same
// directory, so a crash never leaves a half-written page file behind.
func (s *Store) Save(path string) (err error) {
	if !s.consistent() {
		return fmt.Errorf("refusing to save: index has %d vectors, %d chunks, %d metadata",
			s.index.Len(), len(s.chunks), len(s.metadata))
	}

	record := pageFile{
		Index:        s.index,
		VectorMatrix: make([][]float32, s.index.Len()),
		Chunks:       s.chunks,
		Metadata:     s.metadata,
		Manifest:     s.manifest,
	}
	for i := range record.VectorMatrix {
		record.VectorMatrix[i] = s.index.Vector(i)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating page file dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("creating temp page file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	if err = msgpack.NewEncoder(w).Encode(&record); err != nil {
		return fmt.Errorf("encoding page file: %w", err)
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("writing page file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing page file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing page file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing page file: %w", err)
	}
	return nil
}

// LoadStore reads a page file. A missing file returns an error matching
// os.ErrNotExist; anything unreadable or inconsistent is ErrCorruptStore.
func LoadStore(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var record pageFile
	if err := msgpack.NewDecoder(bufio.NewReader(f)).Decode(&record); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, ErrCorruptStore)
	}

	s := &Store{
		index:    record.Index,
		chunks:   record.Chunks,
		metadata: record.Metadata,
		manifest: record.Manifest,
	}
	if s.index == nil {
		// older files may only carry the matrix
		s.index = NewFlatL2(0)
		if err := s.index.Add(record.VectorMatrix); err != nil {
			return nil, fmt.Errorf("%s: rebuilding index: %v: %w", path, err, ErrCorruptStore)
		}
	} else if !s.index.valid() || !matrixMatches(s.index, record.VectorMatrix) {
		return nil, fmt.Errorf("%s: vector_matrix has %d rows but the index holds %d vectors: %w",
			path, len(record.VectorMatrix), s.index.Len(), ErrCorruptStore)
	}
	if s.manifest == nil {
		s.manifest = Manifest{}
	}
	if !s.consistent() {
		return nil, fmt.Errorf("%s: index has %d vectors, %d chunks, %d metadata: %w",
			path, s.index.Len(), len(s.chunks), len(s.metadata), ErrCorruptStore)
	}
	return s, nil
}

// matrixMatches reports whether the stored matrix is row for row the index.
func matrixMatches(index *FlatL2, matrix [][]float32) bool {
	if len(matrix) != index.Len() {
		return false
	}
	for i, row := range matrix {
		if !slices.Equal(row, index.Vector(i)) {
			return false
		}
	}
	return true
}
