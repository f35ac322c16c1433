package memstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/markdave123-py/docsearch/internal/core"
	"github.com/markdave123-py/docsearch/internal/core/filters"
	"github.com/markdave123-py/docsearch/internal/models"
)

var (
	_ core.VectorIndex = (*PageIndex)(nil)
	_ core.IndexWriter = (*PageIndex)(nil)
)

// PageIndex is a brute-force cosine index over ingested pages.
type PageIndex struct {
	mu      sync.RWMutex
	pages   []models.DocumentPage
	created bool
}

func NewPageIndex() *PageIndex {
	return &PageIndex{}
}

func (x *PageIndex) EnsureSchema(context.Context) error {
	x.mu.Lock()
	x.created = true
	x.mu.Unlock()
	return nil
}

func (x *PageIndex) DropSchema(context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.pages = nil
	x.created = false
	return nil
}

func (x *PageIndex) DescribeSchema(context.Context) ([]models.IndexProperty, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if !x.created {
		return nil, nil
	}
	return append([]models.IndexProperty(nil), models.IndexSchema...), nil
}

func (x *PageIndex) InsertPages(_ context.Context, pages []models.DocumentPage) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.created = true
	for _, p := range pages {
		p.Embedding = append([]float32(nil), p.Embedding...)
		x.pages = append(x.pages, p)
	}
	return nil
}

func (x *PageIndex) CountPages(context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.pages), nil
}

// SimilaritySearch ranks matching pages by cosine distance. Certainty is
// reported as 1 - distance/2 so it stays within [0,1].
func (x *PageIndex) SimilaritySearch(ctx context.Context, vec []float32, where filters.Predicate, limit int) ([]models.Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	x.mu.RLock()
	defer x.mu.RUnlock()

	hits := make([]models.Passage, 0, len(x.pages))
	for _, p := range x.pages {
		if !filters.Match(where, p.Metadata) {
			continue
		}
		d := cosineDistance(vec, p.Embedding)
		hits = append(hits, models.Passage{
			Content:   p.Text,
			Page:      p.Page,
			Source:    p.Source,
			Metadata:  p.Metadata,
			Distance:  d,
			Certainty: 1 - d/2,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// DistinctValues returns the sorted set of non-empty values for prop.
func (x *PageIndex) DistinctValues(_ context.Context, prop models.FilterProperty) ([]string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	seen := make(map[string]struct{})
	out := []string{}
	for _, p := range x.pages {
		v := p.Metadata.Value(prop)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
