package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
)

//splitter

// ChunkWords splits text on whitespace into consecutive windows of at most n
// words. The last window holds the remainder. Blank text yields no chunks.
func ChunkWords(text string, n int) []string {
	if n <= 0 {
		n = 1
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(words)+n-1)/n)
	for i := 0; i < len(words); i += n {
		end := min(i+n, len(words))
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}

// PrepareChunks chunks every page of one document, in page order, and tags
// each chunk with its document name, page number and 1-based ordinal.
func PrepareChunks(pages []commonModels.Page, docName string, chunkWords int) []commonModels.DocChunk {
	var allChunks []commonModels.DocChunk

	for _, page := range pages {
		stringChunks := ChunkWords(page.Content, chunkWords)

		for i, text := range stringChunks {
			allChunks = append(allChunks, commonModels.DocChunk{
				Text: text,
				Meta: commonModels.ChunkMeta{
					Document:     docName,
					Page:         page.Number,
					ChunkOrdinal: i + 1,
				},
			})
		}
	}

	return allChunks
}

func getDocType(docPath string) commonModels.DocType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".odt", ".rtf":
		return commonModels.DOCX
	case ".txt", ".md":
		return commonModels.TXT
	default:
		return commonModels.ERR
	}
}

func (l *FileLoader) extractText(path string, contentType commonModels.DocType) ([]commonModels.Page, error) {
	switch contentType {
	case commonModels.PDF:
		return l.extractPDF(path)
	case commonModels.DOCX:
		return l.extractdocxTxtRtf(path)
	case commonModels.TXT:
		return l.extractPlainText(path)

	default:
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}
}
