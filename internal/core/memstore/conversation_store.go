// Package memstore holds process-lifetime implementations of the storage
// interfaces. They are not persistent and are meant for local mode and tests.
package memstore

import (
	"context"
	"sync"

	"github.com/markdave123-py/docsearch/internal/core"
	"github.com/markdave123-py/docsearch/internal/models"
)

var _ core.ConversationStore = (*ConversationStore)(nil)

// ConversationStore keeps every conversation of a user in insertion order.
type ConversationStore struct {
	mu     sync.RWMutex
	byUser map[string][]models.Conversation
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{byUser: make(map[string][]models.Conversation)}
}

// latestIndex returns the position of the conversation with the greatest
// CreatedAt; later inserts win ties. Callers must hold the lock.
func (s *ConversationStore) latestIndex(username string) int {
	convs := s.byUser[username]
	idx := -1
	for i, c := range convs {
		if idx < 0 || !c.CreatedAt.Before(convs[idx].CreatedAt) {
			idx = i
		}
	}
	return idx
}

func (s *ConversationStore) GetLatestConversation(_ context.Context, username string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.latestIndex(username)
	if idx < 0 {
		return nil, nil
	}
	c := s.byUser[username][idx].Clone()
	return &c, nil
}

func (s *ConversationStore) AddConversation(_ context.Context, username string, conv models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byUser[username] = append(s.byUser[username], conv.Clone())
	return nil
}

func (s *ConversationStore) AddToLatestConversation(_ context.Context, username string, userMsg, assistantMsg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.latestIndex(username)
	if idx < 0 {
		return &core.ConversationNotFoundError{Username: username}
	}
	c := &s.byUser[username][idx]
	c.Messages = append(c.Messages, userMsg.Clone(), assistantMsg.Clone())
	return nil
}

func (s *ConversationStore) ClearConversations(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byUser, username)
	return nil
}
