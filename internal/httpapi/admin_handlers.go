package httpapi

import (
	"encoding/json"
	"net/http"
)

type invalidateRequest struct {
	Tag string `json:"tag"`
}

// InvalidateCache removes every origin cache entry registered under the
// given tag. Invalidating a tag with no entries succeeds with a zero
// count, so the operation is safe to repeat.
func (h *Handlers) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Tag == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tag is required"})
		return
	}

	removed := h.catalog.Invalidate(req.Tag)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tag":     req.Tag,
		"removed": removed,
	})
}
