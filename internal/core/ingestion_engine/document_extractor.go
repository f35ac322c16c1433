package ingestion_engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"

	"github.com/markdave123-py/docsearch/internal/core"
)

const pdfContentType = "application/pdf"

var _ core.PageExtractor = (*DocconvExtractor)(nil)

// DocconvExtractor splits PDFs per page with ledongthuc/pdf and hands every
// other format to docconv, which yields a single page.
type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

func (e *DocconvExtractor) ExtractPages(ctx context.Context, data []byte, contentType string) ([]core.PageText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if contentType == pdfContentType {
		return extractPDFPages(ctx, data)
	}

	res, err := docconv.Convert(bytes.NewReader(data), contentType, e.useReadability)
	if err != nil {
		return nil, fmt.Errorf("docconv %s: %w", contentType, err)
	}
	text := strings.TrimSpace(res.Body)
	if text == "" {
		return nil, nil
	}
	return []core.PageText{{Page: 0, Text: text}}, nil
}

// extractPDFPages returns one entry per PDF page, zero-based. Pages whose
// text cannot be decoded are kept empty so numbering stays aligned.
func extractPDFPages(ctx context.Context, data []byte) ([]core.PageText, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	n := r.NumPage()
	out := make([]core.PageText, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			out = append(out, core.PageText{Page: i - 1})
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			slog.Warn("pdf page text extraction failed", "page", i-1, "error", err)
		}
		out = append(out, core.PageText{Page: i - 1, Text: strings.TrimSpace(text)})
	}
	return out, nil
}

// ContentTypeFor guesses a document's MIME type from its file name.
func ContentTypeFor(name string) string {
	if strings.EqualFold(extOf(name), ".pdf") {
		return pdfContentType
	}
	return docconv.MimeTypeByExtension(name)
}

func extOf(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}
