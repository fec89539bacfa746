package httptransport

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"soundsense/internal/audit"
	"soundsense/internal/platform/middleware"
	pkgerrors "soundsense/pkg/errors"
	"soundsense/pkg/httputil"
)

const (
	userTokenTTL   = 24 * time.Hour
	deviceTokenTTL = 365 * 24 * time.Hour
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid request body"))
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.cfg.AuthUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.AuthPassword)) == 1
	if !userOK || !passOK {
		h.logger.WarnContext(ctx, "login failed",
			"username", req.Username,
			"request_id", middleware.GetRequestID(ctx),
		)
		h.recorder.TryRecord(ctx, audit.Entry{
			UserID:       req.Username,
			Action:       audit.ActionAccessDenied,
			ResourceType: "Auth",
			IPAddress:    middleware.GetClientIP(ctx),
			UserAgent:    middleware.GetUserAgent(ctx),
			RequestPath:  middleware.GetRequestPath(ctx),
			StatusCode:   http.StatusUnauthorized,
			ErrorMessage: "invalid credentials",
		})
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials"))
		return
	}

	token, err := h.tokens.Issue(req.Username, roleAdmin, "", userTokenTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to sign token", "error", err)
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeInternal, "failed to issue token"))
		return
	}

	h.recorder.TryRecord(ctx, audit.Entry{
		UserID:       req.Username,
		UserRole:     roleAdmin,
		Action:       audit.ActionLogin,
		ResourceType: "Auth",
		IPAddress:    middleware.GetClientIP(ctx),
		UserAgent:    middleware.GetUserAgent(ctx),
		RequestPath:  middleware.GetRequestPath(ctx),
		StatusCode:   http.StatusOK,
	})

	httputil.WriteJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(userTokenTTL.Seconds()),
	})
}

type deviceTokenRequest struct {
	Secret   string `json:"secret"`
	DeviceID string `json:"device_id"`
}

// handleDeviceToken exchanges the shared provisioning secret for a long-lived
// device token. Devices use it on the authenticated ingest route.
func (h *Handler) handleDeviceToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req deviceTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid request body"))
		return
	}
	req.DeviceID = strings.TrimSpace(req.DeviceID)
	if req.DeviceID == "" {
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "device_id required"))
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.cfg.DeviceTokenSecret)) != 1 {
		h.logger.WarnContext(ctx, "device token request rejected",
			"device_id", req.DeviceID,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid provisioning secret"))
		return
	}

	token, err := h.tokens.Issue(req.DeviceID, "device", req.DeviceID, deviceTokenTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to sign device token", "error", err)
		httputil.WriteError(w, pkgerrors.New(pkgerrors.CodeInternal, "failed to issue token"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(deviceTokenTTL.Seconds()),
	})
}
