package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/markdave123-py/docsearch/internal/core"
)

// Call is one recorded request made to a MockLLM.
type Call struct {
	SystemPrompt string
	UserPrompt   string
}

// MockLLM replays scripted replies and records every prompt it receives.
// With no script it echoes the last line of the prompt.
type MockLLM struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   []Call
}

func NewMockLLM(replies ...string) *MockLLM {
	return &MockLLM{replies: replies}
}

// FailWith makes the next calls return errs in order.
func (m *MockLLM) FailWith(errs ...error) *MockLLM {
	m.mu.Lock()
	m.errs = append(m.errs, errs...)
	m.mu.Unlock()
	return m
}

func (m *MockLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{SystemPrompt: systemPrompt, UserPrompt: userPrompt})
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if len(m.replies) > 0 {
		r := m.replies[0]
		m.replies = m.replies[1:]
		return r, nil
	}
	lines := strings.Split(strings.TrimSpace(userPrompt), "\n")
	return fmt.Sprintf("mock answer to %q", lines[len(lines)-1]), nil
}

// Calls returns a copy of the prompts seen so far.
func (m *MockLLM) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// HashEmbedder produces deterministic bag-of-words vectors so that texts
// sharing words end up close together. Used in local mode and tests.
type HashEmbedder struct {
	Dim int
}

func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 64
	}
	return &HashEmbedder{Dim: dim}
}

func (h *HashEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec := make([]float32, h.Dim)
		words := strings.FieldsFunc(strings.ToLower(t), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, w := range words {
			f := fnv.New32a()
			_, _ = f.Write([]byte(w))
			vec[int(f.Sum32()%uint32(h.Dim))]++
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if norm > 0 {
			n := float32(math.Sqrt(norm))
			for j := range vec {
				vec[j] /= n
			}
		}
		out[i] = vec
	}
	return out, nil
}

var (
	_ core.LLMProvider       = (*MockLLM)(nil)
	_ core.EmbeddingProvider = (*HashEmbedder)(nil)
)
