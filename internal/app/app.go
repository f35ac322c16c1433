package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/markdave123-py/docsearch/internal/config"
	"github.com/markdave123-py/docsearch/internal/core"
	"github.com/markdave123-py/docsearch/internal/core/chatbot"
	db "github.com/markdave123-py/docsearch/internal/core/database"
	"github.com/markdave123-py/docsearch/internal/core/llm"
	"github.com/markdave123-py/docsearch/internal/core/memstore"
	"github.com/markdave123-py/docsearch/internal/services"
)

// Backends are the storage and model clients selected by configuration.
type Backends struct {
	DBClient      *db.DatabaseClient
	Conversations core.ConversationStore
	Index         core.VectorIndex
	Writer        core.IndexWriter
	Condenser     core.LLMProvider
	Answerer      core.LLMProvider
	Embedder      core.EmbeddingProvider

	closers []func() error
}

func (b *Backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}

// NewBackends connects to whatever CONVERSATION_BACKEND, VECTOR_BACKEND and
// USE_MOCK_LLM select.
func NewBackends(ctx context.Context, cfg *config.Config) (*Backends, error) {
	b := &Backends{}

	if cfg.NeedsDatabase() {
		dbClient, err := db.NewDatabaseClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b.DBClient = dbClient
		b.closers = append(b.closers, dbClient.Close)
		slog.Info("database initialized and ready")
	}

	switch cfg.ConversationBackend {
	case config.BackendPostgres:
		b.Conversations = b.DBClient
	default:
		b.Conversations = memstore.NewConversationStore()
	}

	switch cfg.VectorBackend {
	case config.BackendPostgres:
		b.Index, b.Writer = b.DBClient, b.DBClient
	default:
		idx := memstore.NewPageIndex()
		b.Index, b.Writer = idx, idx
	}

	if cfg.UseMockLLM {
		b.Condenser = llm.NewMockLLM()
		b.Answerer = llm.NewMockLLM()
		b.Embedder = llm.NewHashEmbedder(cfg.EmbedDim)
		slog.Warn("using mock language model and hash embedder")
		return b, nil
	}

	embedder, err := llm.NewGeminiEmbedder(ctx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
	}
	b.closers = append(b.closers, embedder.Close)

	condenser, err := llm.NewGeminiLLM(ctx, cfg.AIAPIKey, cfg.CondenseModel, cfg.Temperature)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("couldn't initialize the condense model, %w", err)
	}
	b.closers = append(b.closers, condenser.Close)

	answerer, err := llm.NewGeminiLLM(ctx, cfg.AIAPIKey, cfg.QAModel, cfg.Temperature)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("couldn't initialize the qa model, %w", err)
	}
	b.closers = append(b.closers, answerer.Close)

	b.Embedder, b.Condenser, b.Answerer = embedder, condenser, answerer
	return b, nil
}

type App struct {
	Backends *Backends
	Server   *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.ValidateAuth(); err != nil {
		return nil, err
	}

	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	backends, err := NewBackends(appCtx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := NewServices(cfg, backends)
	if err != nil {
		backends.Close()
		return nil, err
	}

	return &App{Backends: backends, Server: NewServer(cfg, NewRouter(cfg, svc))}, nil
}

// NewServices builds the request-time services on top of the backends.
func NewServices(cfg *config.Config, b *Backends) (Services, error) {
	auth, err := services.NewAuthService(cfg.AuthUsername, cfg.AuthPassword, cfg.JWTSecret, cfg.AccessTokenExpiry)
	if err != nil {
		return Services{}, err
	}

	chain := chatbot.NewChain(b.Condenser, b.Answerer, b.Embedder, b.Index, chatbot.Config{
		NumSources:       cfg.NumSources,
		MaxHistoryLength: cfg.MaxHistoryLength,
		LLMTimeout:       cfg.LLMTimeout,
		RetrievalTimeout: cfg.RetrievalTimeout,
		Verbose:          cfg.Verbose,
	})

	convs := services.NewConversationService(b.Conversations, services.WithUserSerialization(cfg.SerializeUserAppends))

	return Services{
		Auth:          auth,
		Chatbot:       services.NewChatbotService(chain, b.Index, convs),
		Conversations: convs,
	}, nil
}

func (a *App) Close() {
	if a.Backends != nil {
		a.Backends.Close()
	}
}
