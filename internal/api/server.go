package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/paperquery/internal/answer"
	"github.com/dgallion1/paperquery/internal/arxiv"
	"github.com/dgallion1/paperquery/internal/config"
	"github.com/dgallion1/paperquery/internal/corpus"
	"github.com/dgallion1/paperquery/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for paperquery.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	query        *pipeline.QueryService
	corpus       *corpus.Corpus
	claude       *answer.ClaudeClient
	arxiv        *arxiv.Client
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(
	orch *pipeline.Orchestrator,
	query *pipeline.QueryService,
	store *corpus.Corpus,
	claude *answer.ClaudeClient,
	papers *arxiv.Client,
	log *slog.Logger,
	cfg config.Config,
) *Server {
	s := &Server{
		orchestrator: orch,
		query:        query,
		corpus:       store,
		claude:       claude,
		arxiv:        papers,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.PaperqueryAPIKey, s.log))

		r.Post("/api/documents", s.handleUploadDocument)
		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Get("/api/documents/{docID}/summary", s.handleDocumentSummary)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)

		r.Post("/api/query", s.handleQuery)
		r.Get("/api/history", s.handleHistory)
		r.Delete("/api/history", s.handleClearHistory)

		r.Post("/api/papers/search", s.handlePaperSearch)
		r.Post("/api/papers/{paperID}/ingest", s.handlePaperIngest)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
