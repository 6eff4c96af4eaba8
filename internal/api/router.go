package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pmorrell/surveyid/internal/api/handler"
	"github.com/pmorrell/surveyid/internal/api/middleware"
	"github.com/pmorrell/surveyid/internal/services/account"
	"github.com/pmorrell/surveyid/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	AccountService *account.Service
	SessionManager *session.Manager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	accountHandler := handler.NewAccountHandler(cfg.AccountService)
	profileHandler := handler.NewProfileHandler(cfg.AccountService)

	// Create middleware
	sessionMiddleware := middleware.Session(cfg.SessionManager)
	authMiddleware := middleware.Auth(cfg.AccountService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)
	api.Use(sessionMiddleware)

	// Auth routes (no prior authentication required)
	api.HandleFunc("/auth/register", accountHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", accountHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/token", accountHandler.TokenLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/resume", accountHandler.Resume).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", accountHandler.Logout).Methods(http.MethodPost)
	api.HandleFunc("/auth/forget", accountHandler.Forget).Methods(http.MethodPost)
	api.HandleFunc("/auth/session", accountHandler.Session).Methods(http.MethodGet)
	api.HandleFunc("/auth/recover", accountHandler.Recover).Methods(http.MethodPost)
	api.HandleFunc("/auth/reminder", accountHandler.Reminder).Methods(http.MethodPost)
	api.HandleFunc("/auth/reset", accountHandler.Reset).Methods(http.MethodPost)
	api.HandleFunc("/auth/available", accountHandler.Availability).Methods(http.MethodGet)

	// Participant routes (require an active, token-verified identity)
	participants := api.PathPrefix("/participants").Subrouter()
	participants.Use(authMiddleware)
	participants.HandleFunc("/me", profileHandler.Me).Methods(http.MethodGet)
	participants.HandleFunc("/me", profileHandler.Update).Methods(http.MethodPatch)
	participants.HandleFunc("/me/password", profileHandler.ChangePassword).Methods(http.MethodPost)
	participants.HandleFunc("/me/token", profileHandler.RotateToken).Methods(http.MethodPost)
	participants.HandleFunc("/me/proxy", profileHandler.Proxy).Methods(http.MethodPost)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true}`))
}
