package ingestion_engine

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/docsearch/internal/models"
)

// streamChunk splits long pages into token-bounded chunks with optional
// overlap. Each chunk keeps the page number and metadata of its page. With
// targetTokens <= 0 pages pass through untouched.
func (i *DocumentIngestor) streamChunk(
	ctx context.Context,
	g *errgroup.Group,
	pages <-chan models.DocumentPage,
	targetTokens int,
	overlapTokens int,
) <-chan models.DocumentPage {
	out := make(chan models.DocumentPage, 8)

	g.Go(func() error {
		defer close(out)

		emit := func(p models.DocumentPage) error {
			select {
			case out <- p:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		for page := range pages {
			if targetTokens <= 0 || approxTokens(page.Text) <= targetTokens {
				if err := emit(page); err != nil {
					return err
				}
				continue
			}
			chunks := chunkText(page.Page, strings.Split(page.Text, "\n"), targetTokens, overlapTokens)
			slog.Debug("page chunked", "source", page.Source, "page", page.Page, "chunks", len(chunks))
			for _, ch := range chunks {
				p := page
				p.Text = ch.Text
				if err := emit(p); err != nil {
					return err
				}
			}
		}
		return nil
	})

	return out
}

// chunkText groups lines into chunks of about targetTokens, seeding each
// chunk with a tail of the previous one worth about overlapTokens.
func chunkText(page int, lines []string, targetTokens, overlapTokens int) []chunk {
	var (
		out    []chunk
		buf    []string
		tokSum int
	)

	flush := func() {
		if tokSum == 0 {
			return
		}
		out = append(out, chunk{Page: page, Text: strings.Join(buf, "\n"), TokenCnt: tokSum})

		if overlapTokens <= 0 {
			buf = buf[:0]
			tokSum = 0
			return
		}
		keep := []string{}
		remain := overlapTokens
		for j := len(buf) - 1; j >= 0 && remain > 0; j-- {
			keep = append([]string{buf[j]}, keep...)
			remain -= approxTokens(buf[j])
		}
		buf = keep
		tokSum = 0
		for _, s := range buf {
			tokSum += approxTokens(s)
		}
	}

	fresh := 0
	for _, line := range lines {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		t := approxTokens(line)
		buf = append(buf, line)
		tokSum += t
		fresh += t
		if tokSum >= targetTokens {
			flush()
			fresh = 0
		}
	}
	// the remaining buffer is only overlap when nothing new arrived since the last flush
	if fresh > 0 {
		flush()
	}
	return out
}

// approxTokens is a cheap token estimator (~4 chars ≈ 1 token).
func approxTokens(s string) int {
	n := len([]rune(s))
	if n <= 0 {
		return 0
	}
	return (n + 3) / 4
}
