package ingest

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/rag/ingest/ingesttest"
)

func TestGetDocType(t *testing.T) {
	tests := []struct {
		path     string
		expected commonModels.DocType
	}{
		{"test.pdf", commonModels.PDF},
		{"REPORT.PDF", commonModels.PDF},
		{"DOC.DOCX", commonModels.DOCX},
		{"notes.txt", commonModels.TXT},
		{"image.png", commonModels.ERR},
	}

	for _, tt := range tests {
		if got := getDocType(tt.path); got != tt.expected {
			t.Errorf("getDocType(%s) = %v; want %v", tt.path, got, tt.expected)
		}
	}
}

func TestChunkWords(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		n          int
		wantChunks int
		wantLast   int
	}{
		{"360 words in two windows", ingesttest.Words("w", 360), 180, 2, 180},
		{"remainder window", ingesttest.Words("w", 200), 180, 2, 20},
		{"short text", "just a few words", 180, 1, 4},
		{"blank text", "  \n\t ", 180, 0, 0},
		{"zero window falls back to one", "a b c", 0, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := ChunkWords(tt.text, tt.n)
			if len(chunks) != tt.wantChunks {
				t.Fatalf("got %d chunks, want %d", len(chunks), tt.wantChunks)
			}
			if tt.wantChunks == 0 {
				return
			}
			if got := len(strings.Fields(chunks[len(chunks)-1])); got != tt.wantLast {
				t.Errorf("last chunk has %d words, want %d", got, tt.wantLast)
			}
		})
	}
}

func TestChunkWords_Boundaries(t *testing.T) {
	chunks := ChunkWords(ingesttest.Words("w", 360), 180)

	first := strings.Fields(chunks[0])
	second := strings.Fields(chunks[1])
	if first[0] != "w1" || first[179] != "w180" {
		t.Errorf("first chunk spans %s..%s, want w1..w180", first[0], first[179])
	}
	if second[0] != "w181" || second[179] != "w360" {
		t.Errorf("second chunk spans %s..%s, want w181..w360", second[0], second[179])
	}
}

func TestChunkWords_Deterministic(t *testing.T) {
	text := "line one\nline two\n\n" + ingesttest.Words("x", 500)
	a := ChunkWords(text, 180)
	b := ChunkWords(text, 180)
	if !reflect.DeepEqual(a, b) {
		t.Error("chunking the same text twice produced different chunks")
	}
}

func TestPrepareChunks(t *testing.T) {
	pages := []commonModels.Page{
		{Number: 1, Content: ingesttest.Words("a", 5)},
		{Number: 3, Content: ingesttest.Words("b", 7)},
	}

	chunks := PrepareChunks(pages, "manual.pdf", 3)

	// 5 words -> 2 chunks, 7 words -> 3 chunks
	if len(chunks) != 5 {
		t.Fatalf("Expected 5 chunks, got %d", len(chunks))
	}

	want := []commonModels.ChunkMeta{
		{Document: "manual.pdf", Page: 1, ChunkOrdinal: 1},
		{Document: "manual.pdf", Page: 1, ChunkOrdinal: 2},
		{Document: "manual.pdf", Page: 3, ChunkOrdinal: 1},
		{Document: "manual.pdf", Page: 3, ChunkOrdinal: 2},
		{Document: "manual.pdf", Page: 3, ChunkOrdinal: 3},
	}
	for i, c := range chunks {
		if c.Meta != want[i] {
			t.Errorf("chunk %d meta = %+v; want %+v", i, c.Meta, want[i])
		}
	}
	if chunks[0].Text != "a1 a2 a3" {
		t.Errorf("chunk 0 text = %q", chunks[0].Text)
	}
}

func TestListSources(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.PDF", "notes.txt", "c.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := ListSources(dir, []string{".pdf"})
	if err != nil {
		t.Fatalf("ListSources failed: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.PDF"),
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "c.pdf"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListSources = %v; want %v", got, want)
	}

	missing, err := ListSources(filepath.Join(dir, "missing"), []string{".pdf"})
	if err != nil || len(missing) != 0 {
		t.Errorf("missing dir should be empty, got %v, %v", missing, err)
	}
}

func TestLoad_PDFSkipsEmptyPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "two-pages.pdf")
	if err := ingesttest.WritePDF(path, []string{ingesttest.Words("p", 12), ""}); err != nil {
		t.Fatal(err)
	}

	pages, err := NewFileLoader().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("Expected 1 non-empty page, got %d", len(pages))
	}
	if pages[0].Number != 1 {
		t.Errorf("page number = %d; want 1", pages[0].Number)
	}
	if got := strings.Fields(pages[0].Content); len(got) != 12 || got[0] != "p1" {
		t.Errorf("unexpected page text %q", pages[0].Content)
	}

	chunks := PrepareChunks(pages, filepath.Base(path), 180)
	if len(chunks) != 1 || chunks[0].Meta.Page != 1 {
		t.Errorf("expected a single page-1 chunk, got %+v", chunks)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	loader := NewFileLoader()

	broken := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(broken, []byte("definitely not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loader.Load(context.Background(), broken); err == nil {
		t.Error("expected error for a broken pdf")
	}

	if _, err := loader.Load(context.Background(), filepath.Join(dir, "image.png")); err == nil {
		t.Error("expected error for an unsupported type")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := loader.Load(ctx, broken); err == nil {
		t.Error("expected error for a cancelled context")
	}
}

func TestLoad_PlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("plain text notes"), 0o644); err != nil {
		t.Fatal(err)
	}

	pages, err := NewFileLoader().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(pages) != 1 || pages[0].Number != 1 || !strings.Contains(pages[0].Content, "plain text notes") {
		t.Errorf("unexpected pages %+v", pages)
	}
}
