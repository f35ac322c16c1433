package services

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/markdave123-py/docsearch/internal/core"
	"github.com/markdave123-py/docsearch/internal/core/memstore"
	"github.com/markdave123-py/docsearch/internal/models"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newConversationService(opts ...ConversationOption) *ConversationService {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]ConversationOption{WithClock(clock.Now)}, opts...)
	return NewConversationService(memstore.NewConversationStore(), opts...)
}

func TestGetLatestCreatesWhenAbsent(t *testing.T) {
	ctx := context.Background()
	svc := newConversationService()

	first, err := svc.GetLatestConversation(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if first.Messages == nil || len(first.Messages) != 0 {
		t.Fatalf("expected empty messages, got %#v", first.Messages)
	}

	second, err := svc.GetLatestConversation(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("read after create should be idempotent: %+v vs %+v", first, second)
	}
}

func TestCreateNewConversationBecomesLatest(t *testing.T) {
	ctx := context.Background()
	svc := newConversationService()

	_, _ = svc.GetLatestConversation(ctx, "alice")
	_ = svc.AddToLatestConversation(ctx, "alice",
		models.Message{Role: models.RoleUser, Text: "Hello"},
		models.Message{Role: models.RoleAssistant, Text: "Hi"})

	fresh, err := svc.CreateNewConversation(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	latest, _ := svc.GetLatestConversation(ctx, "alice")
	if !latest.CreatedAt.Equal(fresh.CreatedAt) || len(latest.Messages) != 0 {
		t.Fatalf("latest = %+v", latest)
	}
}

func TestClearThenGetLatestCreatesFresh(t *testing.T) {
	ctx := context.Background()
	svc := newConversationService()

	old, _ := svc.GetLatestConversation(ctx, "alice")
	_ = svc.AddToLatestConversation(ctx, "alice",
		models.Message{Role: models.RoleUser, Text: "q"},
		models.Message{Role: models.RoleAssistant, Text: "a"})

	msg, err := svc.ClearConversations(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if msg != "Conversations deleted for user alice" {
		t.Fatalf("message = %q", msg)
	}

	fresh, _ := svc.GetLatestConversation(ctx, "alice")
	if len(fresh.Messages) != 0 || !fresh.CreatedAt.After(old.CreatedAt) {
		t.Fatalf("expected a freshly created conversation, got %+v", fresh)
	}
}

func TestAddToLatestPropagatesNotFound(t *testing.T) {
	svc := newConversationService()
	err := svc.AddToLatestConversation(context.Background(), "ghost",
		models.Message{Role: models.RoleUser}, models.Message{Role: models.RoleAssistant})
	var nf *core.ConversationNotFoundError
	if !errors.As(err, &nf) || nf.Username != "ghost" {
		t.Fatalf("expected not found for ghost, got %v", err)
	}
}

func TestLockUserSerializesWhenEnabled(t *testing.T) {
	svc := newConversationService(WithUserSerialization(true))
	unlock := svc.LockUser("alice")

	acquired := make(chan struct{})
	go func() {
		defer close(acquired)
		svc.LockUser("alice")()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while the first was held")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	<-acquired

	// other users never contend
	svc.LockUser("bob")()
}

func TestLockUserNoopByDefault(t *testing.T) {
	svc := newConversationService()
	u1 := svc.LockUser("alice")
	u2 := svc.LockUser("alice")
	u1()
	u2()
}
