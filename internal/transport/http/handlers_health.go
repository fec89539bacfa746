package httptransport

import (
	"net/http"

	"soundsense/pkg/httputil"
)

type healthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	MLService string `json:"ml_service"`
}

// handleHealth reports pipeline health. The process is healthy even when the
// database is down; readings keep flowing through the in-memory cache.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := healthResponse{Status: "ok", Database: "in-memory-only", MLService: "not-configured"}

	hasStore, err := h.readings.Health(ctx)
	if hasStore {
		if err != nil {
			resp.Database = "unreachable"
		} else {
			resp.Database = "connected"
		}
	}

	if h.ml != nil {
		if _, err := h.ml.Health(ctx); err != nil {
			resp.MLService = "unreachable"
		} else {
			resp.MLService = "ok"
		}
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
