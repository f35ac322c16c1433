package services

import (
	"context"
	"errors"
	"testing"

	"github.com/markdave123-py/docsearch/internal/core"
	"github.com/markdave123-py/docsearch/internal/core/memstore"
	"github.com/markdave123-py/docsearch/internal/models"
)

type fakeAnswerer struct {
	answer      *models.Answer
	err         error
	gotHistory  []models.Exchange
	gotQuestion string
}

func (f *fakeAnswerer) Answer(_ context.Context, q string, h []models.Exchange, _ []models.Filter) (*models.Answer, error) {
	f.gotQuestion = q
	f.gotHistory = h
	return f.answer, f.err
}

func TestAskRecordsExchange(t *testing.T) {
	ctx := context.Background()
	convs := newConversationService()
	chain := &fakeAnswerer{answer: &models.Answer{Text: "Hi", Sources: []models.Source{{ISIN: "NO1"}}}}
	svc := NewChatbotService(chain, memstore.NewPageIndex(), convs)

	if _, err := svc.Ask(ctx, "alice", "Hello", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Ask(ctx, "alice", "Again", nil); err != nil {
		t.Fatal(err)
	}
	if len(chain.gotHistory) != 1 || chain.gotHistory[0].Question != "Hello" {
		t.Fatalf("history passed to chain = %+v", chain.gotHistory)
	}

	conv, _ := convs.GetLatestConversation(ctx, "alice")
	if len(conv.Messages) != 4 {
		t.Fatalf("messages = %+v", conv.Messages)
	}
	if conv.Messages[1].Role != models.RoleAssistant || conv.Messages[1].Sources[0].ISIN != "NO1" {
		t.Fatalf("assistant message = %+v", conv.Messages[1])
	}
}

func TestAskDoesNotRecordOnFailure(t *testing.T) {
	ctx := context.Background()
	convs := newConversationService()
	chain := &fakeAnswerer{err: core.NewAnsweringError(errors.New("too long"))}
	svc := NewChatbotService(chain, memstore.NewPageIndex(), convs)

	_, err := svc.Ask(ctx, "alice", "q", nil)
	var aerr *core.AnsweringError
	if !errors.As(err, &aerr) {
		t.Fatalf("err = %v", err)
	}
	conv, _ := convs.GetLatestConversation(ctx, "alice")
	if len(conv.Messages) != 0 {
		t.Fatal("failed answers must not be persisted")
	}
}

func TestAvailableFiltersListsEveryProperty(t *testing.T) {
	ctx := context.Background()
	idx := memstore.NewPageIndex()
	_ = idx.InsertPages(ctx, []models.DocumentPage{
		{Metadata: models.PageMetadata{ISIN: "NO1", Industry: "Energy"}},
		{Metadata: models.PageMetadata{ISIN: "NO2", Industry: "Energy"}},
	})
	svc := NewChatbotService(&fakeAnswerer{}, idx, newConversationService())

	got, err := svc.AvailableFilters(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(models.FilterProperties) {
		t.Fatalf("keys = %v", got)
	}
	if len(got["isin"]) != 2 || len(got["industry"]) != 1 || len(got["green"]) != 0 {
		t.Fatalf("values = %v", got)
	}
}
