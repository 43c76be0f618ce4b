package httphandler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/krishiai/internal/application"
)

// Services bundles the application services the API exposes. Every field
// except Health and Sessions may be nil in tests that exercise a subset of
// routes.
type Services struct {
	Auth      *application.AuthService
	Sessions  *application.SessionIssuer
	Diagnoses *application.DiagnosisService
	Chat      *application.ChatService
	Crops     *application.CropService
	Guides    *application.CropGuideService
	Market    *application.MarketService
	Weather   *application.WeatherService
	Health    *application.HealthService
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	svc Services
	// secureCookies marks session cookies Secure; off for plain-HTTP development.
	secureCookies bool
	logger        *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(svc Services, secureCookies bool, logger *slog.Logger) *Handler {
	return &Handler{
		svc:           svc,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// NewServeMux creates an http.Handler with the API routes registered and
// wrapped with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, h)
	return ApplyMiddleware(mux, logger)
}

// ApplyMiddleware wraps next with recovery and request logging.
func ApplyMiddleware(next http.Handler, logger *slog.Logger) http.Handler {
	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, next)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// RegisterRoutes registers the API routes on mux without middleware so the
// web adapter can share one mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)

	mux.HandleFunc("POST /api/v1/auth/register", h.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.Handle("POST /api/v1/auth/logout", h.requireAuth(h.Logout))
	mux.Handle("GET /api/v1/auth/me", h.requireAuth(h.Me))

	mux.Handle("POST /api/v1/diagnoses", h.requireAuth(h.CreateDiagnosis))
	mux.Handle("GET /api/v1/diagnoses", h.requireAuth(h.ListDiagnoses))
	mux.Handle("GET /api/v1/diagnoses/{id}", h.requireAuth(h.GetDiagnosis))
	mux.Handle("POST /api/v1/diagnoses/{id}/chat", h.requireAuth(h.AskChat))
	mux.Handle("GET /api/v1/diagnoses/{id}/chat", h.requireAuth(h.ChatHistory))

	mux.Handle("POST /api/v1/crops/autofill", h.requireAuth(h.AutofillCrop))
	mux.Handle("GET /api/v1/guides", h.requireAuth(h.ListGuides))
	mux.Handle("GET /api/v1/guides/{crop}", h.requireAuth(h.GetGuide))

	mux.Handle("GET /api/v1/market/prices", h.requireAuth(h.MarketPrices))
	mux.Handle("POST /api/v1/market/profit", h.requireAuth(h.EstimateProfit))

	mux.Handle("GET /api/v1/weather", h.requireAuth(h.WeatherAdvisory))
}

// Health reports database reachability and AI key availability. It returns
// 503 only when the service cannot serve requests at all.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.svc.Health == nil {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Time: time.Now().UTC().Format(time.RFC3339)})
		return
	}

	report := h.svc.Health.Check(r.Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, toHealthResponse(report))
}
