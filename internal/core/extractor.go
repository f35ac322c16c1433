package core

import "context"

// PageText is the text of a single page; Page is zero-based.
type PageText struct {
	Page int
	Text string
}

// PageExtractor splits a document into per-page text.
// The contentType hint selects the parsing strategy.
type PageExtractor interface {
	ExtractPages(ctx context.Context, data []byte, contentType string) ([]PageText, error)
}
