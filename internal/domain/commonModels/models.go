package commonModels

// Page is the extracted text of one 1-based page of a source document.
type Page struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

// ChunkMeta is the provenance of a chunk: which document, which page and
// where on that page the chunk sits (1-based).
type ChunkMeta struct {
	Document     string `json:"document" msgpack:"document"`
	Page         int    `json:"page" msgpack:"page"`
	ChunkOrdinal int    `json:"chunk_ordinal" msgpack:"chunk_ordinal"`
}

type DocChunk struct {
	Text string    `json:"content"`
	Meta ChunkMeta `json:"meta"`
}

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var ERR DocType = "ERROR"
