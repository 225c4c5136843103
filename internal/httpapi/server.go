package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chatd/pkg/types"
)

// Service defines what the HTTP layer needs from the application core.
type Service interface {
	Chat(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error)
	Warmup(ctx context.Context) error
	Release()
	State() string
	Ready() bool
	Status() types.StatusResponse
	Conversation(id string) (types.ConversationResponse, bool)
	DeleteConversation(id string)
}

// NewMux wires the chatd HTTP surface around svc.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(requestLogger)
	r.Use(MetricsMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	// Chat godoc
	// @Summary      Generate a reply
	// @Accept       json
	// @Produce      json
	// @Param        request body types.ChatRequest true "chat turn"
	// @Success      200 {object} types.ChatResponse
	// @Failure      400 {object} types.ErrorResponse
	// @Failure      429 {object} types.ErrorResponse
	// @Failure      503 {object} types.ErrorResponse
	// @Failure      504 {object} types.ErrorResponse
	// @Router       /chat [post]
	r.Post("/chat", func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Content) == "" && len(req.Messages) == 0 {
			writeJSONError(w, http.StatusBadRequest, "content or messages is required")
			return
		}
		// Join the server base context so shutdown cancels in-flight work.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		resp, err := svc.Chat(ctx, req)
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})

	// Warmup godoc
	// @Summary      Initialize the model ahead of the first chat
	// @Produce      json
	// @Success      200 {object} types.StateResponse
	// @Failure      503 {object} types.ErrorResponse
	// @Router       /warmup [post]
	r.Post("/warmup", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if err := svc.Warmup(ctx); err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, types.StateResponse{State: svc.State()})
	})

	// Release godoc
	// @Summary      Free the model and its memory
	// @Produce      json
	// @Success      200 {object} types.StateResponse
	// @Router       /release [post]
	r.Post("/release", func(w http.ResponseWriter, r *http.Request) {
		svc.Release()
		writeJSON(w, http.StatusOK, types.StateResponse{State: svc.State()})
	})

	// Status godoc
	// @Summary      Lifecycle, device and performance status
	// @Produce      json
	// @Success      200 {object} types.StatusResponse
	// @Router       /status [get]
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/conversations/{id}", func(w http.ResponseWriter, r *http.Request) {
		conv, ok := svc.Conversation(chi.URLParam(r, "id"))
		if !ok {
			writeJSONError(w, http.StatusNotFound, "conversation not found")
			return
		}
		writeJSON(w, http.StatusOK, conv)
	})

	r.Delete("/conversations/{id}", func(w http.ResponseWriter, r *http.Request) {
		svc.DeleteConversation(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(svc.State()))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}
