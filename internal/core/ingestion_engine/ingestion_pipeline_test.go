package ingestion_engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/markdave123-py/docsearch/internal/core"
	"github.com/markdave123-py/docsearch/internal/core/filters"
	"github.com/markdave123-py/docsearch/internal/core/llm"
	"github.com/markdave123-py/docsearch/internal/core/memstore"
	"github.com/markdave123-py/docsearch/internal/models"
)

// fakeExtractor treats a form feed as a page break.
type fakeExtractor struct{}

func (fakeExtractor) ExtractPages(_ context.Context, data []byte, _ string) ([]core.PageText, error) {
	var out []core.PageText
	for i, p := range strings.Split(string(data), "\f") {
		out = append(out, core.PageText{Page: i, Text: strings.TrimSpace(p)})
	}
	return out, nil
}

type memSource map[string]string

func (m memSource) List(context.Context) ([]string, error) {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out, nil
}

func (m memSource) Read(_ context.Context, name string) ([]byte, error) {
	return []byte(m[name]), nil
}

const metadataCSV = `link,shortname,isin,issuer_name,filename,industry,risk_type,green
https://x/a.pdf,Alpha 24,NO1,Alpha ASA,a.pdf,Energy,High,Yes
https://x/b.pdf,Beta 25,NO2,Beta AS,b.pdf,Real Estate,Low,No
`

func TestStoreJoinsMetadataAndSkips(t *testing.T) {
	ctx := context.Background()
	table, err := LoadMetadataCSV(strings.NewReader(metadataCSV))
	if err != nil {
		t.Fatal(err)
	}
	idx := memstore.NewPageIndex()
	ing := NewDocumentIngestor(idx, llm.NewHashEmbedder(16), fakeExtractor{}, &IngestConfig{BatchSize: 2})

	src := memSource{
		"docs/a.pdf":       "wind power\f\fsolar power\fhydro",
		"docs/b.pdf":       "offices",
		"docs/unknown.pdf": "orphan page",
	}
	rep, err := ing.Store(ctx, src, table)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Documents != 3 || rep.Stored != 4 || rep.SkippedEmpty != 1 || rep.SkippedNoMeta != 1 || rep.IndexedObjects != 4 {
		t.Fatalf("report = %+v", rep)
	}

	where := filters.Build([]models.Filter{{PropertyName: models.PropertyISIN, Values: []string{"NO1"}}})
	hits, _ := idx.SimilaritySearch(ctx, make([]float32, 16), where, 10)
	if len(hits) != 3 {
		t.Fatalf("expected 3 pages for NO1, got %d", len(hits))
	}
	pages := map[int]bool{}
	for _, h := range hits {
		pages[h.Page] = true
		if h.Metadata.Shortname != "Alpha 24" || h.Source != "docs/a.pdf" {
			t.Fatalf("hit = %+v", h)
		}
	}
	if !pages[0] || pages[1] || !pages[2] || !pages[3] {
		t.Fatalf("page numbers = %v", pages)
	}
}

func TestStoreFailsFastWithoutDocuments(t *testing.T) {
	idx := memstore.NewPageIndex()
	ing := NewDocumentIngestor(idx, llm.NewHashEmbedder(8), fakeExtractor{}, nil)
	_, err := ing.Store(context.Background(), memSource{}, MetadataTable{})
	if !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("err = %v", err)
	}
	if props, _ := idx.DescribeSchema(context.Background()); props != nil {
		t.Fatal("schema must not be provisioned when there is nothing to ingest")
	}
}

func TestStoreFailsWhenNothingMatchesMetadata(t *testing.T) {
	ing := NewDocumentIngestor(memstore.NewPageIndex(), llm.NewHashEmbedder(8), fakeExtractor{}, nil)
	_, err := ing.Store(context.Background(), memSource{"x.pdf": "text"}, MetadataTable{})
	if !errors.Is(err, ErrNoPages) {
		t.Fatalf("err = %v", err)
	}
}

type failingEmbedder struct{}

func (failingEmbedder) EmbedTexts(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("quota exceeded")
}

func TestStorePropagatesEmbedFailure(t *testing.T) {
	table, _ := LoadMetadataCSV(strings.NewReader(metadataCSV))
	ing := NewDocumentIngestor(memstore.NewPageIndex(), failingEmbedder{}, fakeExtractor{}, nil)
	_, err := ing.Store(context.Background(), memSource{"a.pdf": "p1\fp2"}, table)
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("err = %v", err)
	}
}

func TestStoreChunksLongPages(t *testing.T) {
	table, _ := LoadMetadataCSV(strings.NewReader(metadataCSV))
	idx := memstore.NewPageIndex()
	ing := NewDocumentIngestor(idx, llm.NewHashEmbedder(8), fakeExtractor{}, &IngestConfig{TargetTokens: 5, BatchSize: 4})

	long := strings.Repeat("a line of text here\n", 6)
	rep, err := ing.Store(context.Background(), memSource{"a.pdf": long}, table)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Stored != 6 {
		t.Fatalf("stored = %d", rep.Stored)
	}
}

func TestEmbeddingInputUsesVectorizedFields(t *testing.T) {
	got := embeddingInput(models.DocumentPage{
		Text:     "body",
		Metadata: models.PageMetadata{Shortname: "S", IssuerName: "I", Industry: "N", ISIN: "NO1", Green: "Yes"},
	})
	if got != "body\nS\nI\nN" {
		t.Fatalf("got %q", got)
	}
}

func TestDirSourceListsSupportedFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.pdf", "b.PDF", ".hidden.pdf", "notes.bin", "sub/c.pdf"} {
		p := filepath.Join(dir, name)
		_ = os.MkdirAll(filepath.Dir(p), 0o755)
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	names, err := DirSource{Root: dir}.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 3 {
		t.Fatalf("names = %v", names)
	}
}
