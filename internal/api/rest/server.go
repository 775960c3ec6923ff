package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server. apiKey guards the mutating
// endpoints; empty means unguarded.
func NewServer(port string, handler *Handler, refreshHandler *RefreshHandler, apiKey string) *Server {
	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Listings
	api.HandleFunc("/seasons", handler.GetSeasons).Methods("GET")
	api.HandleFunc("/skaters", handler.GetSkaters).Methods("GET")
	api.HandleFunc("/skaters/combined", handler.GetCombinedSkaters).Methods("GET")
	api.HandleFunc("/goalies", handler.GetGoalies).Methods("GET")
	api.HandleFunc("/goalies/combined", handler.GetCombinedGoalies).Methods("GET")

	// Refresh job inspection
	api.HandleFunc("/refresh/status", refreshHandler.HandleRefreshStatus).Methods("GET")
	api.HandleFunc("/refresh/jobs", refreshHandler.HandleListJobs).Methods("GET")
	api.HandleFunc("/refresh/jobs/{jobID}", refreshHandler.HandleGetJob).Methods("GET")

	// Mutating operations sit behind the API key. OPTIONS must match the
	// route or mux answers the preflight 405 before the CORS middleware
	// runs; CORS short-circuits it ahead of the key check.
	guarded := api.NewRoute().Subrouter()
	guarded.Use(APIKeyMiddleware(apiKey))
	guarded.HandleFunc("/refresh", refreshHandler.HandleRefreshRequest).Methods("POST", "OPTIONS")
	guarded.HandleFunc("/import", refreshHandler.HandleImportRequest).Methods("POST", "OPTIONS")

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
