package ingestion_engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/docsearch/internal/core"
	"github.com/markdave123-py/docsearch/internal/models"
)

func NewDocumentIngestor(writer core.IndexWriter, emb core.EmbeddingProvider, extractor core.PageExtractor, cfg *IngestConfig) *DocumentIngestor {
	if cfg == nil {
		cfg = &IngestConfig{}
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	return &DocumentIngestor{writer: writer, embedder: emb, extractor: extractor, cfg: cfg}
}

// Store loads every document from src, joins pages with table, provisions
// the index schema and uploads the embedded pages in batches.
func (i *DocumentIngestor) Store(ctx context.Context, src DocumentSource, table MetadataTable) (*Report, error) {
	names, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if len(names) == 0 {
		return nil, ErrNoDocuments
	}
	slog.Info("documents found", "count", len(names))

	if err := i.writer.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	report := &Report{Documents: len(names)}

	g, gctx := errgroup.WithContext(ctx)

	// documents -> pages with metadata.
	pageCh := i.loadPages(gctx, g, src, names, table, report)

	// pages -> chunks.
	chunkCh := i.streamChunk(gctx, g, pageCh, i.cfg.TargetTokens, i.cfg.OverlapTokens)

	// chunks -> embed + persist.
	g.Go(func() error {
		n, err := i.embedAndPersist(gctx, chunkCh, i.cfg.BatchSize)
		report.Stored = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if report.Stored == 0 {
		return nil, ErrNoPages
	}

	total, err := i.writer.CountPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("count pages: %w", err)
	}
	report.IndexedObjects = total

	slog.Info("ingestion finished",
		"documents", report.Documents,
		"pages", report.Pages,
		"skipped_no_metadata", report.SkippedNoMeta,
		"skipped_empty", report.SkippedEmpty,
		"stored", report.Stored,
		"indexed_objects", report.IndexedObjects,
	)
	return report, nil
}

func (i *DocumentIngestor) loadPages(
	ctx context.Context,
	g *errgroup.Group,
	src DocumentSource,
	names []string,
	table MetadataTable,
	report *Report,
) <-chan models.DocumentPage {
	out := make(chan models.DocumentPage, 32)

	g.Go(func() error {
		defer close(out)
		for _, name := range names {
			data, err := src.Read(ctx, name)
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			pages, err := i.extractor.ExtractPages(ctx, data, ContentTypeFor(name))
			if err != nil {
				return fmt.Errorf("extract %s: %w", name, err)
			}

			meta, ok := table.Lookup(name)
			for _, p := range pages {
				report.Pages++
				if p.Text == "" {
					report.SkippedEmpty++
					continue
				}
				if !ok {
					report.SkippedNoMeta++
					continue
				}
				select {
				case out <- models.DocumentPage{Text: p.Text, Page: p.Page, Source: name, Metadata: meta}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if !ok {
				slog.Warn("no metadata for document, pages skipped", "source", name)
			}
		}
		return nil
	})

	return out
}

// embedAndPersist consumes pages, embeds them in batches and writes them to
// the index. It returns how many pages were written.
func (i *DocumentIngestor) embedAndPersist(ctx context.Context, in <-chan models.DocumentPage, batchSize int) (int, error) {
	batch := make([]models.DocumentPage, 0, batchSize)
	stored := 0

	flush := func(items []models.DocumentPage) error {
		if len(items) == 0 {
			return nil
		}

		texts := make([]string, len(items))
		for idx := range items {
			texts[idx] = embeddingInput(items[idx])
		}

		vecs, err := i.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed: %w", err)
		}
		if len(vecs) != len(items) {
			return fmt.Errorf("embed size mismatch: got %d want %d", len(vecs), len(items))
		}
		for k := range items {
			items[k].Embedding = vecs[k]
		}

		if err := i.writer.InsertPages(ctx, items); err != nil {
			return fmt.Errorf("insert pages: %w", err)
		}
		stored += len(items)
		slog.Debug("batch stored", "size", len(items), "stored", stored)
		return nil
	}

	for p := range in {
		batch = append(batch, p)
		if len(batch) == batchSize {
			if err := flush(batch); err != nil {
				return stored, err
			}
			batch = make([]models.DocumentPage, 0, batchSize)
		}
	}
	if err := flush(batch); err != nil {
		return stored, err
	}
	return stored, nil
}

// embeddingInput joins the text with the metadata fields marked as vectorized.
func embeddingInput(p models.DocumentPage) string {
	parts := []string{p.Text}
	for _, prop := range models.IndexSchema {
		if !prop.Vectorized || prop.Name == "text" {
			continue
		}
		var v string
		switch prop.Name {
		case "shortname":
			v = p.Metadata.Shortname
		case "issuer_name":
			v = p.Metadata.IssuerName
		case "industry":
			v = p.Metadata.Industry
		}
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}
