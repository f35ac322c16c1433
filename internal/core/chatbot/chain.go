// Package chatbot implements the retrieval augmented answering chain:
// condense the question with history, retrieve filtered passages, generate
// an answer grounded on them and report the sources used.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/markdave123-py/docsearch/internal/core"
	"github.com/markdave123-py/docsearch/internal/core/filters"
	"github.com/markdave123-py/docsearch/internal/models"
	"github.com/markdave123-py/docsearch/internal/observability"
)

type Config struct {
	NumSources int
	// MaxHistoryLength bounds the exchanges fed to condensation.
	// Negative keeps all of them, zero disables condensation.
	MaxHistoryLength int
	LLMTimeout       time.Duration
	RetrievalTimeout time.Duration
	Verbose          bool
}

func DefaultConfig() Config {
	return Config{
		NumSources:       4,
		MaxHistoryLength: 4,
		LLMTimeout:       60 * time.Second,
		RetrievalTimeout: 15 * time.Second,
	}
}

// Chain is stateless; one instance serves every request.
type Chain struct {
	condenser core.LLMProvider
	answerer  core.LLMProvider
	embedder  core.EmbeddingProvider
	index     core.VectorIndex
	cfg       Config
}

func NewChain(condenser, answerer core.LLMProvider, embedder core.EmbeddingProvider, index core.VectorIndex, cfg Config) *Chain {
	if cfg.NumSources <= 0 {
		cfg.NumSources = DefaultConfig().NumSources
	}
	return &Chain{condenser: condenser, answerer: answerer, embedder: embedder, index: index, cfg: cfg}
}

// Answer runs the full pipeline. Every failure is returned as *core.AnsweringError.
func (c *Chain) Answer(ctx context.Context, question string, history []models.Exchange, fs []models.Filter) (*models.Answer, error) {
	log := observability.LoggerFromContext(ctx)

	history = truncateHistory(history, c.cfg.MaxHistoryLength)

	standalone := question
	if len(history) > 0 {
		prompt := condensePrompt(history, question)
		if c.cfg.Verbose {
			log.Debug("condense prompt", "prompt", prompt)
		}
		out, err := c.generate(ctx, c.condenser, prompt)
		if err != nil {
			return nil, c.fail(ctx, "condense", fmt.Errorf("condense question: %w", err))
		}
		if s := strings.TrimSpace(out); s != "" {
			standalone = s
		}
		log.Debug("condensed question", "exchanges", len(history), "standalone", standalone)
	}

	where := filters.Build(fs)

	passages, err := c.retrieve(ctx, standalone, where)
	if err != nil {
		return nil, c.fail(ctx, "retrieve", err)
	}
	log.Debug("retrieved passages", "count", len(passages), "filtered", !where.IsEmpty())

	prompt := answerPrompt(passages, standalone)
	if c.cfg.Verbose {
		log.Debug("answer prompt", "prompt", prompt)
	}
	text, err := c.generate(ctx, c.answerer, prompt)
	if err != nil {
		return nil, c.fail(ctx, "generate", err)
	}

	return &models.Answer{Text: strings.TrimSpace(text), Sources: extractSources(passages)}, nil
}

func (c *Chain) generate(ctx context.Context, llm core.LLMProvider, prompt string) (string, error) {
	callCtx, cancel := withTimeout(ctx, c.cfg.LLMTimeout)
	defer cancel()
	return llm.Generate(callCtx, "", prompt)
}

func (c *Chain) retrieve(ctx context.Context, query string, where filters.Predicate) ([]models.Passage, error) {
	callCtx, cancel := withTimeout(ctx, c.cfg.RetrievalTimeout)
	defer cancel()

	vecs, err := c.embedder.EmbedTexts(callCtx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vecs) != 1 {
		return nil, errors.New("embed question: embedder returned no vector")
	}
	passages, err := c.index.SimilaritySearch(callCtx, vecs[0], where, c.cfg.NumSources)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return passages, nil
}

func (c *Chain) fail(ctx context.Context, stage string, err error) error {
	aerr := core.NewAnsweringError(err)
	log := observability.LoggerFromContext(ctx)
	if aerr.Transient {
		log.Warn("transient failure while answering", "stage", stage, "transient", true, "error", err)
	} else {
		log.Error("answering failed", "stage", stage, "error", err)
	}
	return aerr
}

func truncateHistory(history []models.Exchange, max int) []models.Exchange {
	if max < 0 || len(history) <= max {
		return history
	}
	return history[len(history)-max:]
}

func extractSources(passages []models.Passage) []models.Source {
	out := make([]models.Source, 0, len(passages))
	for _, p := range passages {
		out = append(out, models.Source{
			ISIN:      p.Metadata.ISIN,
			Shortname: p.Metadata.Shortname,
			Link:      p.Metadata.Link,
			Page:      p.Page,
			Certainty: round3(p.Certainty),
			Distance:  round3(p.Distance),
		})
	}
	return out
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
