package core

import (
	"context"
	"io"

	"github.com/markdave123-py/docsearch/internal/core/filters"
	"github.com/markdave123-py/docsearch/internal/models"
)

// ConversationStore is a keyed append-only log of conversations per user.
// Implementations must behave identically; GetLatestConversation returns
// (nil, nil) when the user has no conversation.
type ConversationStore interface {
	GetLatestConversation(ctx context.Context, username string) (*models.Conversation, error)
	AddConversation(ctx context.Context, username string, conv models.Conversation) error
	AddToLatestConversation(ctx context.Context, username string, userMsg, assistantMsg models.Message) error
	ClearConversations(ctx context.Context, username string) error
}

// VectorIndex is the read side of the page index used at request time.
type VectorIndex interface {
	SimilaritySearch(ctx context.Context, vec []float32, where filters.Predicate, limit int) ([]models.Passage, error)
	DistinctValues(ctx context.Context, prop models.FilterProperty) ([]string, error)
}

// IndexWriter provisions and fills the page index during ingestion.
type IndexWriter interface {
	EnsureSchema(ctx context.Context) error
	InsertPages(ctx context.Context, pages []models.DocumentPage) error
	CountPages(ctx context.Context) (int, error)
	DropSchema(ctx context.Context) error
	DescribeSchema(ctx context.Context) ([]models.IndexProperty, error)
}

// ObjectClient reads documents out of object storage.
type ObjectClient interface {
	ListKeys(ctx context.Context, bucket, prefix string) ([]string, error)
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}
