package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/markdave123-py/docsearch/internal/core"
	"github.com/markdave123-py/docsearch/internal/models"
)

var _ core.ConversationStore = (*DatabaseClient)(nil)

// latestConversationID picks the newest row of a user; seq breaks created_at ties.
const latestConversationID = `
	SELECT id FROM conversations
	WHERE username = $1
	ORDER BY created_at DESC, seq DESC
	LIMIT 1`

func (c *DatabaseClient) GetLatestConversation(ctx context.Context, username string) (*models.Conversation, error) {
	const q = `
		SELECT created_at, messages
		FROM conversations
		WHERE username = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT 1
	`
	var (
		conv models.Conversation
		raw  []byte
	)
	err := c.db.QueryRowContext(ctx, q, username).Scan(&conv.CreatedAt, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select latest conversation: %w", err)
	}
	if err := json.Unmarshal(raw, &conv.Messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	if conv.Messages == nil {
		conv.Messages = []models.Message{}
	}
	conv.CreatedAt = conv.CreatedAt.UTC()
	return &conv, nil
}

func (c *DatabaseClient) AddConversation(ctx context.Context, username string, conv models.Conversation) error {
	msgs := conv.Messages
	if msgs == nil {
		msgs = []models.Message{}
	}
	raw, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}
	const q = `
		INSERT INTO conversations (id, username, created_at, messages)
		VALUES ($1, $2, $3, $4::jsonb)
	`
	if _, err := c.db.ExecContext(ctx, q, uuid.NewString(), username, conv.CreatedAt, string(raw)); err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

// AddToLatestConversation appends both messages in one statement; concurrent
// writers to the same user are last-write-wins.
func (c *DatabaseClient) AddToLatestConversation(ctx context.Context, username string, userMsg, assistantMsg models.Message) error {
	raw, err := json.Marshal([]models.Message{userMsg, assistantMsg})
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}
	q := `UPDATE conversations SET messages = messages || $2::jsonb WHERE id = (` + latestConversationID + `)`
	res, err := c.db.ExecContext(ctx, q, username, string(raw))
	if err != nil {
		return fmt.Errorf("append messages: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append messages: %w", err)
	}
	if n == 0 {
		return &core.ConversationNotFoundError{Username: username}
	}
	return nil
}

func (c *DatabaseClient) ClearConversations(ctx context.Context, username string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM conversations WHERE username = $1`, username); err != nil {
		return fmt.Errorf("delete conversations: %w", err)
	}
	return nil
}
