package services

import (
	"fmt"

	"github.com/markdave123-py/docsearch/internal/models"
)

// ConversationToExchanges pairs messages positionally: (0,1), (2,3), ...
// Roles are not checked and a trailing unpaired message is dropped.
func ConversationToExchanges(conv *models.Conversation) []models.Exchange {
	if conv == nil {
		return nil
	}
	msgs := conv.Messages
	out := make([]models.Exchange, 0, len(msgs)/2)
	for i := 0; i+1 < len(msgs); i += 2 {
		out = append(out, models.Exchange{Question: msgs[i].Text, Answer: msgs[i+1].Text})
	}
	return out
}

// ConversationToExchangesStrict is like ConversationToExchanges but rejects
// conversations that do not alternate user/assistant starting with user.
func ConversationToExchangesStrict(conv *models.Conversation) ([]models.Exchange, error) {
	if conv == nil {
		return nil, nil
	}
	if len(conv.Messages)%2 != 0 {
		return nil, fmt.Errorf("conversation has an unpaired message at position %d", len(conv.Messages)-1)
	}
	for i, m := range conv.Messages {
		want := models.RoleUser
		if i%2 == 1 {
			want = models.RoleAssistant
		}
		if m.Role != want {
			return nil, fmt.Errorf("message %d has role %q, want %q", i, m.Role, want)
		}
	}
	return ConversationToExchanges(conv), nil
}
