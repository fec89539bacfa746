// Package httptransport is the thin HTTP layer over the ingestion core. It
// decodes requests, delegates to services, and translates coded errors into
// the shared JSON envelope; no business logic lives here.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"soundsense/internal/audit"
	"soundsense/internal/auth"
	"soundsense/internal/mlclient"
	"soundsense/internal/platform/metrics"
	"soundsense/internal/platform/middleware"
	"soundsense/internal/ratelimit"
	"soundsense/internal/readings"
	"soundsense/internal/stream"
)

const roleAdmin = "admin"

// Config carries the handler's non-service knobs.
type Config struct {
	AuthUsername      string
	AuthPassword      string
	DeviceTokenSecret string
}

// Handler owns all HTTP endpoints. The ML client may be nil when no analytics
// service is configured; those routes then answer 503.
type Handler struct {
	logger   *slog.Logger
	metrics  *metrics.Metrics
	readings *readings.Service
	recorder *audit.Recorder
	hub      *stream.Hub
	tokens   *auth.Manager
	ml       *mlclient.Client
	limiter  *ratelimit.Limiter
	cfg      Config
}

func NewHandler(
	readingsSvc *readings.Service,
	recorder *audit.Recorder,
	hub *stream.Hub,
	tokens *auth.Manager,
	ml *mlclient.Client,
	limiter *ratelimit.Limiter,
	logger *slog.Logger,
	m *metrics.Metrics,
	cfg Config,
) *Handler {
	return &Handler{
		logger:   logger,
		metrics:  m,
		readings: readingsSvc,
		recorder: recorder,
		hub:      hub,
		tokens:   tokens,
		ml:       ml,
		limiter:  limiter,
		cfg:      cfg,
	}
}

// Register wires all routes onto r. Public routes carry only the ambient
// middleware; everything under /api requires a bearer token.
func (h *Handler) Register(r chi.Router) {
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Latency(h.metrics))

	r.Get("/healthz", h.handleHealth)
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/token", h.handleDeviceToken)
	r.With(h.limiter.Middleware).Post("/ingest", h.handleIngest)
	r.Get("/ws/live", h.handleLiveStream)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.RequireAuth(h.tokens, h.logger))

		api.Post("/ingest", h.handleIngest)
		api.Get("/fhir/Observation", h.handleObservations)
		api.Get("/audit/patient/{id}", h.handleAuditByPatient)
		api.Get("/audit/user/{id}", h.handleAuditByUser)

		api.Get("/ml/predict", h.handleMLPredict)
		api.Get("/ml/analysis", h.handleMLAnalysis)
		api.With(middleware.RequireRole(roleAdmin, h.logger)).Post("/ml/train", h.handleMLTrain)
		api.Get("/ml/health", h.handleMLHealth)
	})
}

// NewRouter builds a standalone router with all routes registered.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}
