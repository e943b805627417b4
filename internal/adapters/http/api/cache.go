package api

import (
	"net/http"

	"github.com/eve-telescope/telescope-app/pkg/logger"
)

// CacheHandler handles cache maintenance requests.
type CacheHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewCacheHandler creates a new cache handler.
func NewCacheHandler(deps Dependencies, l logger.Logger) *CacheHandler {
	return &CacheHandler{deps: deps, logger: l}
}

// HandleClear handles DELETE /api/cache requests.
func (h *CacheHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	const op = "api.clear_cache"
	if err := h.deps.ClearCache(r.Context()); err != nil {
		h.logger.Error(r.Context(), "cache clear failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
