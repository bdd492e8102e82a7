// Package api exposes the lexer over HTTP: scanning, context extraction and
// completion as JSON endpoints, plus a websocket for completion while typing.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/conduit-lang/excellent/internal/tooling"
	"github.com/conduit-lang/excellent/internal/web/auth"
	"github.com/conduit-lang/excellent/internal/web/live"
	"github.com/conduit-lang/excellent/internal/web/middleware"
	"github.com/conduit-lang/excellent/internal/web/response"
	"github.com/conduit-lang/excellent/pkg/lexer"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MaxBodyBytes limits request bodies
const MaxBodyBytes = 1 << 20

// HealthPath is served without authentication
const HealthPath = "/healthz"

// Config holds the router dependencies
type Config struct {
	API    *tooling.API
	Logger *zap.Logger

	// Tokens enables bearer token authentication when set
	Tokens *auth.TokenService

	// AllowedOrigins enables CORS for browser-based editors on these origins
	AllowedOrigins []string
}

// TextRequest is the body of every POST endpoint
type TextRequest struct {
	Text string `json:"text"`
}

// ScanResponse lists the expressions found in the text
type ScanResponse struct {
	Expressions []lexer.Expression `json:"expressions"`
}

// ContextResponse holds the contexts at the end of the text; each is null when
// there is none
type ContextResponse struct {
	ExpressionContext   *string `json:"expression_context"`
	AutoCompleteContext *string `json:"autocomplete_context"`
}

// CompleteResponse holds the autocomplete context and the items matching it
type CompleteResponse struct {
	Context *string                  `json:"context"`
	Items   []tooling.CompletionItem `json:"items"`
}

type handler struct {
	api    *tooling.API
	logger *zap.Logger
}

// NewRouter builds the HTTP handler
func NewRouter(cfg Config) http.Handler {
	if cfg.API == nil {
		cfg.API = tooling.NewAPI()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	h := &handler{api: cfg.API, logger: cfg.Logger.Named("api")}

	chain := middleware.NewChain(
		middleware.RequestID(),
		middleware.Logging(cfg.Logger.Named("http"), HealthPath),
		middleware.Recovery(cfg.Logger),
	)
	if len(cfg.AllowedOrigins) > 0 {
		chain.Use(middleware.CORS(cfg.AllowedOrigins))
	}
	if cfg.Tokens != nil {
		chain.Use(middleware.Auth(cfg.Tokens, HealthPath))
	}

	r := chi.NewRouter()
	r.Use(chain.Handlers()...)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "", "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "", "method not allowed")
	})

	r.Get(HealthPath, h.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/scan", h.scan)
		r.Post("/context", h.context)
		r.Post("/complete", h.complete)
		r.Method(http.MethodGet, "/live", live.NewHandler(cfg.API, cfg.Logger, cfg.AllowedOrigins))
	})

	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) scan(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeText(w, r)
	if !ok {
		return
	}

	response.JSON(w, http.StatusOK, &ScanResponse{
		Expressions: h.api.Lexer().Scan(req.Text),
	})
}

func (h *handler) context(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeText(w, r)
	if !ok {
		return
	}

	l := h.api.Lexer()
	resp := &ContextResponse{}
	if fragment, ok := l.ExpressionContext(req.Text); ok {
		resp.ExpressionContext = &fragment
	}
	if path, ok := l.AutoCompleteContext(req.Text); ok {
		resp.AutoCompleteContext = &path
	}

	response.JSON(w, http.StatusOK, resp)
}

func (h *handler) complete(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeText(w, r)
	if !ok {
		return
	}

	path, items, err := h.api.Complete(r.Context(), req.Text)
	if err != nil {
		h.logger.Error("completion failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err))
		response.Error(w, http.StatusServiceUnavailable, "vocabulary_unavailable", "completion vocabulary is unavailable")
		return
	}

	resp := &CompleteResponse{Items: items}
	if path != "" {
		resp.Context = &path
	}
	response.JSON(w, http.StatusOK, resp)
}

// decodeText reads a TextRequest, replying with an error when it can't
func decodeText(w http.ResponseWriter, r *http.Request) (*TextRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	var req TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "", "request body is too large")
			return nil, false
		}
		response.Error(w, http.StatusBadRequest, "invalid_request", "request body must be a JSON object with a text field")
		return nil, false
	}

	return &req, true
}
