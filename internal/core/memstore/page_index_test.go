package memstore

import (
	"context"
	"reflect"
	"testing"

	"github.com/markdave123-py/docsearch/internal/core/filters"
	"github.com/markdave123-py/docsearch/internal/models"
)

func seedIndex(t *testing.T) *PageIndex {
	t.Helper()
	x := NewPageIndex()
	err := x.InsertPages(context.Background(), []models.DocumentPage{
		{Text: "solar", Page: 0, Source: "a.pdf", Metadata: models.PageMetadata{ISIN: "NO1", Industry: "Energy"}, Embedding: []float32{1, 0}},
		{Text: "wind", Page: 1, Source: "a.pdf", Metadata: models.PageMetadata{ISIN: "NO1", Industry: "Energy"}, Embedding: []float32{0.9, 0.1}},
		{Text: "offices", Page: 0, Source: "b.pdf", Metadata: models.PageMetadata{ISIN: "NO2", Industry: "Real Estate"}, Embedding: []float32{0, 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return x
}

func TestPageIndexRanksByDistance(t *testing.T) {
	x := seedIndex(t)
	hits, err := x.SimilaritySearch(context.Background(), []float32{1, 0}, filters.Predicate{}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 || hits[0].Content != "solar" || hits[1].Content != "wind" {
		t.Fatalf("hits = %+v", hits)
	}
	if hits[0].Distance > 1e-9 || hits[0].Certainty < 0.999 {
		t.Fatalf("exact match scores = %v/%v", hits[0].Distance, hits[0].Certainty)
	}
}

func TestPageIndexAppliesPredicate(t *testing.T) {
	x := seedIndex(t)
	where := filters.Build([]models.Filter{{PropertyName: models.PropertyISIN, Values: []string{"NO2"}}})
	hits, _ := x.SimilaritySearch(context.Background(), []float32{1, 0}, where, 4)
	if len(hits) != 1 || hits[0].Metadata.ISIN != "NO2" {
		t.Fatalf("hits = %+v", hits)
	}
}

func TestPageIndexDistinctValues(t *testing.T) {
	x := seedIndex(t)
	got, _ := x.DistinctValues(context.Background(), models.PropertyIndustry)
	if !reflect.DeepEqual(got, []string{"Energy", "Real Estate"}) {
		t.Fatalf("got %v", got)
	}
	got, _ = x.DistinctValues(context.Background(), models.PropertyGreen)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestPageIndexDropSchema(t *testing.T) {
	x := seedIndex(t)
	_ = x.DropSchema(context.Background())
	n, _ := x.CountPages(context.Background())
	if n != 0 {
		t.Fatalf("count after drop = %d", n)
	}
	props, _ := x.DescribeSchema(context.Background())
	if props != nil {
		t.Fatalf("schema after drop = %v", props)
	}
}
