package services

import (
	"context"
	"fmt"

	"github.com/markdave123-py/docsearch/internal/core"
	"github.com/markdave123-py/docsearch/internal/models"
)

// Answerer is the answering chain as seen by the service layer.
type Answerer interface {
	Answer(ctx context.Context, question string, history []models.Exchange, fs []models.Filter) (*models.Answer, error)
}

// ChatbotService answers a question in the context of the user's latest
// conversation and records the exchange once an answer exists.
type ChatbotService struct {
	chain         Answerer
	index         core.VectorIndex
	conversations *ConversationService
}

func NewChatbotService(chain Answerer, index core.VectorIndex, conversations *ConversationService) *ChatbotService {
	return &ChatbotService{chain: chain, index: index, conversations: conversations}
}

func (s *ChatbotService) Ask(ctx context.Context, username, question string, fs []models.Filter) (*models.Answer, error) {
	unlock := s.conversations.LockUser(username)
	defer unlock()

	conv, err := s.conversations.GetLatestConversation(ctx, username)
	if err != nil {
		return nil, err
	}

	answer, err := s.chain.Answer(ctx, question, ConversationToExchanges(conv), fs)
	if err != nil {
		return nil, err
	}

	userMsg := models.Message{Role: models.RoleUser, Text: question}
	botMsg := models.Message{Role: models.RoleAssistant, Text: answer.Text, Sources: answer.Sources}
	if err := s.conversations.AddToLatestConversation(ctx, username, userMsg, botMsg); err != nil {
		return nil, fmt.Errorf("record exchange: %w", err)
	}
	return answer, nil
}

// AvailableFilters returns the distinct values of every filterable property.
func (s *ChatbotService) AvailableFilters(ctx context.Context) (map[string][]string, error) {
	out := make(map[string][]string, len(models.FilterProperties))
	for _, p := range models.FilterProperties {
		vals, err := s.index.DistinctValues(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("distinct values for %s: %w", p, err)
		}
		if vals == nil {
			vals = []string{}
		}
		out[string(p)] = vals
	}
	return out, nil
}
