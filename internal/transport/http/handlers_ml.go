package httptransport

import (
	"encoding/json"
	"net/http"
	"strconv"

	"soundsense/internal/mlclient"
	"soundsense/internal/platform/middleware"
	pkgerrors "soundsense/pkg/errors"
	"soundsense/pkg/httputil"
)

// mlConfigured guards the proxy routes; a deployment without an analytics
// service answers 503 rather than 404 so callers can tell the difference.
func (h *Handler) mlConfigured(w http.ResponseWriter) bool {
	if h.ml == nil {
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeUnavailable, "analytics service not configured"))
		return false
	}
	return true
}

func analyticsParams(r *http.Request) (limit, hoursBack int) {
	limit = mlclient.MaxAnalyticsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("hours_back"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			hoursBack = parsed
		}
	}
	return limit, hoursBack
}

func (h *Handler) handleMLPredict(w http.ResponseWriter, r *http.Request) {
	if !h.mlConfigured(w) {
		return
	}
	ctx := r.Context()

	limit, hoursBack := analyticsParams(r)
	resp, err := h.ml.Predict(ctx, limit, hoursBack)
	if err != nil {
		h.logger.ErrorContext(ctx, "ml predict failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeUnavailable, "analytics service unavailable"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleMLAnalysis(w http.ResponseWriter, r *http.Request) {
	if !h.mlConfigured(w) {
		return
	}
	ctx := r.Context()

	limit, hoursBack := analyticsParams(r)
	resp, err := h.ml.Analysis(ctx, limit, hoursBack)
	if err != nil {
		h.logger.ErrorContext(ctx, "ml analysis failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeUnavailable, "analytics service unavailable"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleMLTrain(w http.ResponseWriter, r *http.Request) {
	if !h.mlConfigured(w) {
		return
	}
	ctx := r.Context()

	var req struct {
		MinSamples int `json:"min_samples"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid request body"))
			return
		}
	}

	message, err := h.ml.Train(ctx, req.MinSamples)
	if err != nil {
		h.logger.ErrorContext(ctx, "ml train failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeUnavailable, "analytics service unavailable"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": message})
}

func (h *Handler) handleMLHealth(w http.ResponseWriter, r *http.Request) {
	if !h.mlConfigured(w) {
		return
	}
	ctx := r.Context()

	resp, err := h.ml.Health(ctx)
	if err != nil {
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeUnavailable, "analytics service unavailable"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
