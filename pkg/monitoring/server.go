package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Server exposes the metrics and health endpoints of one client process
type Server struct {
	server *http.Server
}

// ServerConfig holds ops server configuration
type ServerConfig struct {
	Port        int
	MetricsPath string
	HealthPath  string
}

// NewServer creates the ops HTTP server for a view binary
func NewServer(cfg ServerConfig, metrics *MetricsCollector, health *HealthManager) *Server {
	router := mux.NewRouter()
	router.Handle(cfg.MetricsPath, metrics.Handler()).Methods(http.MethodGet)
	router.Handle(cfg.HealthPath, health.Handler()).Methods(http.MethodGet)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Router returns the underlying router so callers can mount extra routes
// before Start is called.
func (s *Server) Router() *mux.Router {
	return s.server.Handler.(*mux.Router)
}

// Start begins serving and blocks until the server stops
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ops server failed: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
