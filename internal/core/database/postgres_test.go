package db

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/docsearch/internal/core"
	"github.com/markdave123-py/docsearch/internal/core/filters"
	"github.com/markdave123-py/docsearch/internal/models"
)

// openTestClient connects to TEST_DATABASE_URL or skips.
func openTestClient(t *testing.T) *DatabaseClient {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	conn, err := sql.Open("pgx", url)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := EnsureBootstrapped(ctx, conn); err != nil {
		t.Fatal(err)
	}
	c := newClient(conn, "test_pages_"+uuid.NewString()[:8], 3)
	t.Cleanup(func() {
		_ = c.DropSchema(ctx)
		_ = c.Close()
	})
	return c
}

func TestPostgresConversationStore(t *testing.T) {
	c := openTestClient(t)
	ctx := context.Background()
	user := "user-" + uuid.NewString()
	t.Cleanup(func() { _ = c.ClearConversations(ctx, user) })

	if conv, err := c.GetLatestConversation(ctx, user); err != nil || conv != nil {
		t.Fatalf("expected absent, got %+v, %v", conv, err)
	}
	err := c.AddToLatestConversation(ctx, user, models.Message{Role: models.RoleUser}, models.Message{Role: models.RoleAssistant})
	if !errors.Is(err, core.ErrConversationNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	t0 := time.Now().UTC().Truncate(time.Millisecond)
	_ = c.AddConversation(ctx, user, models.Conversation{CreatedAt: t0})
	_ = c.AddConversation(ctx, user, models.Conversation{CreatedAt: t0.Add(time.Second)})

	if err := c.AddToLatestConversation(ctx, user,
		models.Message{Role: models.RoleUser, Text: "Hello"},
		models.Message{Role: models.RoleAssistant, Text: "Hi", Sources: []models.Source{{ISIN: "NO1", Page: 2}}}); err != nil {
		t.Fatal(err)
	}
	conv, err := c.GetLatestConversation(ctx, user)
	if err != nil {
		t.Fatal(err)
	}
	if !conv.CreatedAt.Equal(t0.Add(time.Second)) || len(conv.Messages) != 2 || conv.Messages[1].Sources[0].Page != 2 {
		t.Fatalf("latest = %+v", conv)
	}

	if err := c.ClearConversations(ctx, user); err != nil {
		t.Fatal(err)
	}
	if conv, _ := c.GetLatestConversation(ctx, user); conv != nil {
		t.Fatal("clear must remove every conversation")
	}
}

func TestPostgresPageIndex(t *testing.T) {
	c := openTestClient(t)
	ctx := context.Background()

	if err := c.EnsureSchema(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.EnsureSchema(ctx); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}
	err := c.InsertPages(ctx, []models.DocumentPage{
		{Text: "a", Page: 0, Source: "a.pdf", Metadata: models.PageMetadata{ISIN: "NO1", Industry: "Energy"}, Embedding: []float32{1, 0, 0}},
		{Text: "b", Page: 1, Source: "b.pdf", Metadata: models.PageMetadata{ISIN: "NO2", Industry: "Energy"}, Embedding: []float32{0, 1, 0}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := c.CountPages(ctx); n != 2 {
		t.Fatalf("count = %d", n)
	}

	where := filters.Build([]models.Filter{{PropertyName: models.PropertyISIN, Values: []string{"NO2"}}})
	hits, err := c.SimilaritySearch(ctx, []float32{1, 0, 0}, where, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Metadata.ISIN != "NO2" {
		t.Fatalf("hits = %+v", hits)
	}

	vals, _ := c.DistinctValues(ctx, models.PropertyIndustry)
	if len(vals) != 1 || vals[0] != "Energy" {
		t.Fatalf("distinct = %v", vals)
	}
	props, _ := c.DescribeSchema(ctx)
	if len(props) != len(models.IndexSchema) {
		t.Fatalf("schema = %v", props)
	}
}
