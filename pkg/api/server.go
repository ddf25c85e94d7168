package api

import (
	"log/slog"
	"net/http"

	"github.com/IvoFFaria/Jarvis-IA/pkg/approval"
	"github.com/IvoFFaria/Jarvis-IA/pkg/gate"
	"github.com/IvoFFaria/Jarvis-IA/pkg/llm"
	"github.com/IvoFFaria/Jarvis-IA/pkg/memory"
	"github.com/IvoFFaria/Jarvis-IA/pkg/observability"
	"github.com/IvoFFaria/Jarvis-IA/pkg/skills"
)

// Version reported by the root and health endpoints.
const Version = "1.0.0"

const defaultUserID = "default_user"

// Deps carries the collaborators the HTTP layer delegates to.
type Deps struct {
	Gate      *gate.Gate
	Memory    *memory.Manager
	Extractor *memory.Extractor
	Approvals *approval.Ledger
	Skills    *skills.Manager
	Retriever *skills.Retriever
	Provider  llm.Provider
	Obs       *observability.Provider
	LLMMode   string
}

// Server is the HTTP facade over the assistant core.
type Server struct {
	deps   Deps
	logger *slog.Logger
}

// NewServer builds a Server.
func NewServer(deps Deps) *Server {
	return &Server{
		deps:   deps,
		logger: slog.Default().With("component", "api"),
	}
}

// Handler returns the routed handler with logging and rate limiting
// applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/", s.handleRoot)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/debug/mode", s.handleDebugMode)

	mux.HandleFunc("POST /api/memory/process", s.handleMemoryProcess)
	mux.HandleFunc("GET /api/memory/hot", s.handleMemoryHot)
	mux.HandleFunc("GET /api/memory/cold", s.handleMemoryCold)
	mux.HandleFunc("GET /api/memory/archive", s.handleMemoryArchive)
	mux.HandleFunc("POST /api/memory/archive", s.handleMemoryArchiveKey)

	mux.HandleFunc("POST /api/skills", s.handleSkillCreate)
	mux.HandleFunc("GET /api/skills", s.handleSkillList)
	mux.HandleFunc("GET /api/skills/search", s.handleSkillSearch)
	mux.HandleFunc("GET /api/skills/{id}", s.handleSkillGet)
	mux.HandleFunc("PUT /api/skills/{id}", s.handleSkillUpdate)
	mux.HandleFunc("DELETE /api/skills/{id}", s.handleSkillDisable)

	mux.HandleFunc("POST /api/approvals", s.handleApprovalCreate)
	mux.HandleFunc("GET /api/approvals", s.handleApprovalList)

	mux.HandleFunc("POST /api/chat", s.handleChat)

	limiter := NewGlobalRateLimiter(20, 40)
	return RequestLogger(s.logger, limiter.Middleware(mux))
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Jarvis AI System",
		"version": Version,
		"status":  "operational",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"llm":    "ready",
	})
}

func (s *Server) handleDebugMode(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"llm_mode":                 s.deps.LLMMode,
		"default_permission_level": "EXECUTE_APPROVED",
		"background_workers":       "DISABLED",
	})
}

func userIDParam(r *http.Request) string {
	if id := r.URL.Query().Get("user_id"); id != "" {
		return id
	}
	return defaultUserID
}
