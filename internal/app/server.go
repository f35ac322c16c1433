package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/docsearch/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/docsearch/internal/api/middlewares"
	"github.com/markdave123-py/docsearch/internal/config"
	"github.com/markdave123-py/docsearch/internal/observability"
	"github.com/markdave123-py/docsearch/internal/services"
)

// Services are the request-time dependencies of the router.
type Services struct {
	Auth          *services.AuthService
	Chatbot       *services.ChatbotService
	Conversations *services.ConversationService
}

// NewRouter wires all routes.
func NewRouter(cfg *config.Config, svc Services) http.Handler {
	authHandler := handlers.NewAuthHandler(svc.Auth)
	chatHandler := handlers.NewChatHandler(svc.Chatbot)
	convHandler := handlers.NewConversationHandler(svc.Conversations)

	requestTimeout := 2*cfg.LLMTimeout + cfg.RetrievalTimeout
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// public endpoints
	r.Get("/", handlers.Health)
	r.Get("/health", handlers.Health)
	r.Post("/auth/token", authHandler.Token)

	// protected endpoints
	r.Group(func(protected chi.Router) {
		protected.Use(appMiddleware.JWTMiddleware(svc.Auth))

		protected.Get("/users/me", authHandler.Me)

		protected.Post("/chatbot", chatHandler.Ask)
		protected.Get("/chatbot/filter", chatHandler.Filters)

		protected.Get("/conversation", convHandler.GetLatest)
		protected.Post("/conversation", convHandler.Create)
		protected.Delete("/conversation", convHandler.Clear)
	})

	return r
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

func NewServer(cfg *config.Config, handler http.Handler) *Server {
	return &Server{httpServer: &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
