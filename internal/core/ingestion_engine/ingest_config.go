package ingestion_engine

import (
	"errors"

	"github.com/markdave123-py/docsearch/internal/core"
)

var (
	ErrNoDocuments = errors.New("no documents found")
	ErrNoPages     = errors.New("no pages with metadata were stored")
)

// IngestConfig tunes the streaming pipeline.
//
// TargetTokens:   split pages longer than this into chunks (0 keeps whole pages).
// OverlapTokens:  token overlap between consecutive chunks of the same page.
// BatchSize:      how many pages to embed/write in one batch (e.g., 16).
type IngestConfig struct {
	TargetTokens  int
	OverlapTokens int
	BatchSize     int
}

// Report summarizes one ingestion run.
type Report struct {
	Documents      int
	Pages          int
	SkippedNoMeta  int
	SkippedEmpty   int
	Stored         int
	IndexedObjects int
}

// DocumentIngestor loads documents, attaches metadata and writes
// embedded pages to the index:
//
// writer:    page index being filled.
// embedder:  embedding provider (Gemini or the local hash embedder).
// extractor: splits raw documents into pages.
// cfg:       runtime tuning knobs for the pipeline.
type DocumentIngestor struct {
	writer    core.IndexWriter
	embedder  core.EmbeddingProvider
	extractor core.PageExtractor
	cfg       *IngestConfig
}

// chunk is one unit flowing from the chunker to the embedder.
type chunk struct {
	Page     int
	Text     string
	TokenCnt int
}
