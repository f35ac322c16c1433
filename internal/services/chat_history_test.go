package services

import (
	"reflect"
	"testing"

	"github.com/markdave123-py/docsearch/internal/models"
)

func msgs(roleText ...string) []models.Message {
	var out []models.Message
	for i := 0; i+1 < len(roleText); i += 2 {
		out = append(out, models.Message{Role: models.Role(roleText[i]), Text: roleText[i+1]})
	}
	return out
}

func TestConversationToExchanges(t *testing.T) {
	conv := &models.Conversation{Messages: msgs("user", "Hello", "assistant", "Hi")}
	got := ConversationToExchanges(conv)
	want := []models.Exchange{{Question: "Hello", Answer: "Hi"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v", got)
	}
}

func TestConversationToExchangesPairsPositionally(t *testing.T) {
	conv := &models.Conversation{Messages: msgs("user", "q0", "assistant", "a0", "user", "q1", "assistant", "a1", "user", "q2")}
	got := ConversationToExchanges(conv)
	if len(got) != 2 {
		t.Fatalf("expected trailing message dropped, got %d exchanges", len(got))
	}
	if got[1] != (models.Exchange{Question: "q1", Answer: "a1"}) {
		t.Fatalf("got %+v", got[1])
	}
	if len(ConversationToExchanges(&models.Conversation{})) != 0 {
		t.Fatal("empty conversation should give no exchanges")
	}
}

func TestConversationToExchangesStrict(t *testing.T) {
	good := &models.Conversation{Messages: msgs("user", "q", "assistant", "a")}
	if _, err := ConversationToExchangesStrict(good); err != nil {
		t.Fatal(err)
	}
	swapped := &models.Conversation{Messages: msgs("assistant", "a", "user", "q")}
	if _, err := ConversationToExchangesStrict(swapped); err == nil {
		t.Fatal("expected role error")
	}
	odd := &models.Conversation{Messages: msgs("user", "q")}
	if _, err := ConversationToExchangesStrict(odd); err == nil {
		t.Fatal("expected unpaired error")
	}
}
