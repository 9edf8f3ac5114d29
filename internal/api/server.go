package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dgallion1/quizgen/internal/config"
	"github.com/dgallion1/quizgen/internal/genai"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// CompletionClient is the injectable completion capability: prompt in,
// raw text out, or failure. Tests supply deterministic fakes.
type CompletionClient interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Server is the HTTP API server for quizgen.
type Server struct {
	router chi.Router
	model  CompletionClient
	stats  *genai.RequestStats
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server. stats may be nil when
// no live client is wired (e.g. in tests).
func NewServer(model CompletionClient, stats *genai.RequestStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		model: model,
		stats: stats,
		log:   log,
		cfg:   cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Recover(s.log))
	r.Use(RequestLogger(s.log))

	r.Get("/", s.handleHome)
	r.Get("/health", s.handleHealth)
	r.Post("/generate-quiz", s.handleGenerateQuiz)
	r.Get("/stats/llm", s.handleLLMStats)

	s.router = r
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"message": "Quiz Generator API with Azure OpenAI",
		"endpoints": map[string]string{
			"generate": "POST /generate-quiz",
			"health":   "GET /health",
		},
		"features": []string{
			"Multiple Choice Questions (MCQ)",
			"Short Answer Questions",
			"Fill in the Blanks",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":           "healthy",
		"azure_configured": s.cfg.AzureAPIKey != "",
		"deployment":       s.cfg.AzureDeployment,
	})
}

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"deployment": s.cfg.AzureDeployment,
		"stats":      s.stats.Snapshot(),
	})
}
