package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/bankerscore/internal/api/handler"
	"github.com/mcoot/bankerscore/internal/api/middleware"
	"github.com/mcoot/bankerscore/internal/api/response"
	"github.com/mcoot/bankerscore/internal/remote"
	"github.com/mcoot/bankerscore/internal/services/identity"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger        *slog.Logger
	Provider      identity.Provider
	Authenticator remote.Authenticator
	Store         remote.Store
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(cfg.Provider)
	fileHandler := handler.NewFileHandler(cfg.Store)

	authMiddleware := middleware.Auth(cfg.Authenticator)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Identity routes (no bearer token; the body carries the credential)
	api.HandleFunc("/auth/signin", authHandler.SignIn).Methods(http.MethodPost)
	api.HandleFunc("/auth/token", authHandler.Token).Methods(http.MethodPost)
	api.HandleFunc("/auth/revoke", authHandler.Revoke).Methods(http.MethodPost)

	// Store routes (all require an access token)
	files := api.PathPrefix("/files").Subrouter()
	files.Use(authMiddleware)
	files.HandleFunc("", fileHandler.Find).Methods(http.MethodGet)
	files.HandleFunc("", fileHandler.CreateFile).Methods(http.MethodPost)
	files.HandleFunc("/{id}", fileHandler.UpdateFile).Methods(http.MethodPut)
	files.HandleFunc("/{id}/content", fileHandler.Content).Methods(http.MethodGet)

	folders := api.PathPrefix("/folders").Subrouter()
	folders.Use(authMiddleware)
	folders.HandleFunc("", fileHandler.CreateFolder).Methods(http.MethodPost)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
