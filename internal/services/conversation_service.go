package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/markdave123-py/docsearch/internal/core"
	"github.com/markdave123-py/docsearch/internal/models"
)

// ConversationService is the only writer of the conversation store.
type ConversationService struct {
	store core.ConversationStore
	now   func() time.Time

	serialize bool
	locksMu   sync.Mutex
	locks     map[string]*sync.Mutex
}

type ConversationOption func(*ConversationService)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) ConversationOption {
	return func(s *ConversationService) { s.now = now }
}

// WithUserSerialization makes LockUser hand out a per-user mutex.
// Without it appends for the same user are last-write-wins.
func WithUserSerialization(on bool) ConversationOption {
	return func(s *ConversationService) { s.serialize = on }
}

func NewConversationService(store core.ConversationStore, opts ...ConversationOption) *ConversationService {
	s := &ConversationService{store: store, now: time.Now, locks: make(map[string]*sync.Mutex)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GetLatestConversation returns the newest conversation, creating an empty
// one when the user has none.
func (s *ConversationService) GetLatestConversation(ctx context.Context, username string) (*models.Conversation, error) {
	conv, err := s.store.GetLatestConversation(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get latest conversation: %w", err)
	}
	if conv != nil {
		return conv, nil
	}
	return s.CreateNewConversation(ctx, username)
}

// CreateNewConversation always stores a fresh empty conversation, which
// becomes the latest one.
func (s *ConversationService) CreateNewConversation(ctx context.Context, username string) (*models.Conversation, error) {
	conv := models.Conversation{CreatedAt: s.now().UTC(), Messages: []models.Message{}}
	if err := s.store.AddConversation(ctx, username, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return &conv, nil
}

func (s *ConversationService) AddToLatestConversation(ctx context.Context, username string, userMsg, assistantMsg models.Message) error {
	return s.store.AddToLatestConversation(ctx, username, userMsg, assistantMsg)
}

func (s *ConversationService) ClearConversations(ctx context.Context, username string) (string, error) {
	if err := s.store.ClearConversations(ctx, username); err != nil {
		return "", fmt.Errorf("clear conversations: %w", err)
	}
	return fmt.Sprintf("Conversations deleted for user %s", username), nil
}

// LockUser serializes read-answer-append cycles for one user when enabled.
// The returned func releases the lock and is always safe to call.
func (s *ConversationService) LockUser(username string) func() {
	if !s.serialize {
		return func() {}
	}
	s.locksMu.Lock()
	mu, ok := s.locks[username]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[username] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}
