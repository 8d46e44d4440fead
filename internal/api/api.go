// Package api implements the local admin HTTP API using chi. It is a
// read-only window onto the bridge: graph statistics, the page listing,
// and the operation history. All mutation goes through the MCP surface.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/cache"
	"github.com/starford/ansuz/internal/logseq"
	"github.com/starford/ansuz/internal/oplog"
	"github.com/starford/ansuz/internal/resolver"
	"github.com/starford/ansuz/internal/stats"
)

// Handler holds the admin route handlers.
type Handler struct {
	api   logseq.API
	res   *resolver.Resolver // may be nil
	pages *cache.Cache[[]logseq.Page]
	log   *oplog.Log // may be nil
}

// NewHandler creates an admin API handler.
func NewHandler(api logseq.API, res *resolver.Resolver, pages *cache.Cache[[]logseq.Page], log *oplog.Log) *Handler {
	return &Handler{api: api, res: res, pages: pages, log: log}
}

// NewRouter mounts the admin routes behind optional Bearer auth.
func NewRouter(h *Handler, authEnabled bool, token string) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/stats", h.Stats)
	r.Get("/pages", h.Pages)
	r.Get("/history", h.History)

	return r
}

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeJSON(w, http.StatusUnauthorized, errorBody(apperr.KindInvalidRequest, "unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.res == nil {
		err := apperr.GraphPathNotConfigured()
		writeJSON(w, http.StatusConflict, errorBody(err.Kind, err.Msg))
		return
	}
	pages, err := h.listPages(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	st, err := stats.Compute(pages, h.res)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Pages handles GET /api/pages.
func (h *Handler) Pages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.listPages(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pages": pages,
		"total": len(pages),
	})
}

// History handles GET /api/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.log.Recent(limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []oplog.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"operations": entries})
}

func (h *Handler) listPages(r *http.Request) ([]logseq.Page, error) {
	return h.pages.GetOrFetch("pages:all", func() ([]logseq.Page, error) {
		return h.api.GetAllPages(r.Context())
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	slog.Error("admin api request failed", slog.String("error", err.Error()))
	status := http.StatusBadGateway
	if errors.Is(err, apperr.NotFound("")) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, errorBody(apperr.KindOf(err), err.Error()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Status    string      `json:"status"`
	ErrorKind apperr.Kind `json:"error_kind"`
	Message   string      `json:"message"`
}

func errorBody(kind apperr.Kind, msg string) errResponse {
	return errResponse{Status: "error", ErrorKind: kind, Message: msg}
}
