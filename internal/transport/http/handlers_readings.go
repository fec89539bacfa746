package httptransport

import (
	"encoding/json"
	"net/http"
	"strconv"

	"soundsense/internal/audit"
	"soundsense/internal/domain"
	"soundsense/internal/platform/middleware"
	"soundsense/internal/readings"
	pkgerrors "soundsense/pkg/errors"
	"soundsense/pkg/httputil"
)

// handleIngest accepts a sensor reading, runs it through the pipeline, and
// returns the FHIR observation it became. Serves both the public rate-limited
// route and the authenticated one; the caller identity is nil on the former.
func (h *Handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reading domain.Reading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid request body"))
		return
	}

	obs, err := h.readings.Ingest(ctx, reading, middleware.GetIdentity(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, obs)
}

// handleObservations returns recent readings as a FHIR Bundle. The read is
// audited best-effort; a full audit trail must not make queries fail.
func (h *Handler) handleObservations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := readings.DefaultQueryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	codeFilter := r.URL.Query().Get("code")
	if codeFilter != "" {
		code, err := domain.ParseSignalCode(codeFilter)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		codeFilter = string(code)
	}

	bundle, err := h.readings.Recent(ctx, limit, codeFilter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if id := middleware.GetIdentity(ctx); id != nil {
		h.recorder.TryRecord(ctx, audit.Entry{
			UserID:       id.Subject,
			UserRole:     id.Role,
			Action:       audit.ActionRead,
			ResourceType: "Observation",
			IPAddress:    middleware.GetClientIP(ctx),
			UserAgent:    middleware.GetUserAgent(ctx),
			RequestPath:  middleware.GetRequestPath(ctx),
			StatusCode:   http.StatusOK,
			Metadata:     map[string]any{"limit": limit, "returned": bundle.Total},
		})
	}

	httputil.WriteJSON(w, http.StatusOK, bundle)
}
