package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"credsearch/internal/search/models"
	"credsearch/internal/search/resolver"
	"credsearch/pkg/platform/httputil"
	"credsearch/pkg/platform/sentinel"
)

type Resolver interface {
	Resolve(ctx context.Context, raw string) (*models.Outcome, error)
}

type Cache interface {
	Stats() models.CacheStats
	Popular(limit int) []models.PopularEntry
	Clear(ctx context.Context)
}

type Sessions interface {
	Start(parent context.Context, id string) (context.Context, string, func())
	Cancel(id string) bool
	Active() int
}

// StoreCounter reports local store size. Optional.
type StoreCounter interface {
	Count(ctx context.Context) (models.StoreCounts, error)
}

// Handler wires the search endpoints to the resolver and cache.
type Handler struct {
	resolver Resolver
	cache    Cache
	sessions Sessions
	store    StoreCounter
	logger   *slog.Logger
}

// New constructs a search handler. store may be nil.
func New(resolver Resolver, cache Cache, sessions Sessions, store StoreCounter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		resolver: resolver,
		cache:    cache,
		sessions: sessions,
		store:    store,
		logger:   logger,
	}
}

// Register mounts the search endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", h.HandleSearch)
		r.Delete("/search/{sessionID}", h.HandleCancel)
		r.Get("/cache/stats", h.HandleCacheStats)
		r.Get("/cache/popular", h.HandlePopular)
		r.Delete("/cache", h.HandleClearCache)
		r.Get("/stats", h.HandleStats)
	})
}

// HandleSearch handles POST /v1/search.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[SearchRequest](w, r, h.logger)
	if !ok {
		return
	}
	req.Normalize()

	ctx, sessionID, finish := h.sessions.Start(r.Context(), req.SessionID)
	defer finish()

	out, err := h.resolver.Resolve(ctx, req.Query)
	if err != nil {
		if errors.Is(err, resolver.ErrNoActionableKey) {
			httputil.WriteErrorCode(w, http.StatusUnprocessableEntity, "no_actionable_key", "")
			return
		}
		h.logger.ErrorContext(ctx, "search failed", "session_id", sessionID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromOutcome(sessionID, out))
}

// HandleCancel handles DELETE /v1/search/{sessionID}.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !h.sessions.Cancel(id) {
		httputil.WriteError(w, fmt.Errorf("no running search for session %q: %w", id, sentinel.ErrNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCacheStats handles GET /v1/cache/stats.
func (h *Handler) HandleCacheStats(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.cache.Stats())
}

// HandlePopular handles GET /v1/cache/popular?limit=N.
func (h *Handler) HandlePopular(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, fmt.Errorf("limit must be an integer: %w", sentinel.ErrInvalidInput))
			return
		}
		limit = n
	}
	httputil.WriteJSON(w, http.StatusOK, h.cache.Popular(limit))
}

// HandleClearCache handles DELETE /v1/cache.
func (h *Handler) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	h.cache.Clear(r.Context())
	h.logger.InfoContext(r.Context(), "cache cleared via api")
	w.WriteHeader(http.StatusNoContent)
}

// HandleStats handles GET /v1/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		Cache:          h.cache.Stats(),
		ActiveSearches: h.sessions.Active(),
	}
	if h.store != nil {
		counts, err := h.store.Count(r.Context())
		if err != nil {
			h.logger.WarnContext(r.Context(), "store count failed", "error", err)
		} else {
			resp.Store = &counts
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
