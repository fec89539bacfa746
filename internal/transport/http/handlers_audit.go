package httptransport

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"soundsense/internal/audit"
	"soundsense/internal/platform/middleware"
	pkgerrors "soundsense/pkg/errors"
	"soundsense/pkg/httputil"
)

const defaultAuditLimit = 100

func (h *Handler) handleAuditByPatient(w http.ResponseWriter, r *http.Request) {
	h.handleAuditTrail(w, r, h.recorder.ByPatient)
}

func (h *Handler) handleAuditByUser(w http.ResponseWriter, r *http.Request) {
	h.handleAuditTrail(w, r, h.recorder.ByUser)
}

func (h *Handler) handleAuditTrail(
	w http.ResponseWriter,
	r *http.Request,
	list func(ctx context.Context, id string, limit int) ([]audit.Summary, error),
) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "id required"))
		return
	}

	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	summaries, err := list(ctx, id, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit trail",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeInternal, "failed to list audit trail"))
		return
	}
	if summaries == nil {
		summaries = []audit.Summary{}
	}

	httputil.WriteJSON(w, http.StatusOK, summaries)
}
