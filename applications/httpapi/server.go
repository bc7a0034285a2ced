// Package httpapi maps HTTP routes onto the conference workflows and
// wires the middleware chain.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ConfSphere/conference_layer/internal/identity"
	"github.com/ConfSphere/conference_layer/internal/logging"
	"github.com/ConfSphere/conference_layer/internal/metrics"
	"github.com/ConfSphere/conference_layer/internal/middleware"
	"github.com/ConfSphere/conference_layer/services/dashboard"
	"github.com/ConfSphere/conference_layer/services/payment"
	"github.com/ConfSphere/conference_layer/services/registration"
	"github.com/ConfSphere/conference_layer/services/review"
	"github.com/ConfSphere/conference_layer/services/submission"
)

// Server holds the workflow services behind the HTTP surface.
type Server struct {
	ids          *identity.Service
	registration *registration.Service
	submission   *submission.Service
	review       *review.Service
	payment      *payment.Service
	dashboard    *dashboard.Service
	logger       *logging.Logger
}

// Config wires a Server.
type Config struct {
	Identity     *identity.Service
	Registration *registration.Service
	Submission   *submission.Service
	Review       *review.Service
	Payment      *payment.Service
	Dashboard    *dashboard.Service
	Logger       *logging.Logger
}

// NewServer creates the HTTP API server.
func NewServer(cfg Config) *Server {
	return &Server{
		ids:          cfg.Identity,
		registration: cfg.Registration,
		submission:   cfg.Submission,
		review:       cfg.Review,
		payment:      cfg.Payment,
		dashboard:    cfg.Dashboard,
		logger:       cfg.Logger,
	}
}

// PublicPaths are served without a session token.
var PublicPaths = []string{
	"/healthz",
	"/metrics",
	"/api/v1/auth/signup",
	"/api/v1/auth/login",
	"/api/v1/auth/reset-password",
	"/api/v1/register",
}

// Router builds the route table with the full middleware chain.
func (s *Server) Router(auth *middleware.AuthMiddleware, cors *middleware.CORSMiddleware, limiter *middleware.RateLimiter, m *metrics.Metrics) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.LoggingMiddleware(s.logger))
	r.Use(middleware.MetricsMiddleware("conference", m))
	r.Use(cors.Handler)
	r.Use(auth.Handler)
	r.Use(limiter.Handler)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Auth
	api.HandleFunc("/auth/signup", s.handleSignUp).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/auth/reset-password", s.handleResetPassword).Methods(http.MethodPost)
	api.HandleFunc("/auth/password", s.handleUpdatePassword).Methods(http.MethodPut)
	api.HandleFunc("/me", s.handleCurrentProfile).Methods(http.MethodGet)

	// Registration
	api.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)

	// Papers, author side
	api.HandleFunc("/papers", s.handleUploadPaper).Methods(http.MethodPost)
	api.HandleFunc("/papers", s.handleListOwnPapers).Methods(http.MethodGet)
	api.HandleFunc("/papers/{id}/file", s.handleDownloadPaper).Methods(http.MethodGet)
	api.HandleFunc("/papers/{id}", s.handleDeleteOwnPaper).Methods(http.MethodDelete)

	// Payments
	api.HandleFunc("/payments/intent", s.handleCreateIntent).Methods(http.MethodPost)
	api.HandleFunc("/payments/confirm", s.handleConfirmPayment).Methods(http.MethodPost)
	api.HandleFunc("/payments/{orderID}/cancel", s.handleCancelPayment).Methods(http.MethodPost)

	// Admin
	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/papers", s.handleAdminListPapers).Methods(http.MethodGet)
	admin.HandleFunc("/papers/feed", s.handleAdminPapersFeed).Methods(http.MethodGet)
	admin.HandleFunc("/papers", s.handleAdminDeleteAllPapers).Methods(http.MethodDelete)
	admin.HandleFunc("/papers/{id}/status", s.handleAdminUpdateStatus).Methods(http.MethodPut)
	admin.HandleFunc("/papers/{id}", s.handleAdminDeletePaper).Methods(http.MethodDelete)
	admin.HandleFunc("/stats", s.handleAdminStats).Methods(http.MethodGet)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
