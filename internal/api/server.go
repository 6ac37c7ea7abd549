// Package api exposes the HTTP interface for the monitoring service.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/lab007/webalert/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// MonitorService is the surface of the monitoring engine the HTTP layer
// calls. Handlers contain no business logic of their own.
type MonitorService interface {
	StartMonitoring(ctx context.Context, url string, sub models.NewSubscription) (urlID, subscriberID int64, err error)
	StopMonitoring(ctx context.Context, urlID int64) error
	StopSubscriber(ctx context.Context, subscriberID int64) error
	GetSubscriber(ctx context.Context, subscriberID int64) (*models.Subscriber, error)
	Status(ctx context.Context) ([]models.URLStatus, error)
}

// Server wires HTTP handlers to the monitoring service.
type Server struct {
	router  chi.Router
	monitor MonitorService
	logger  zerolog.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(monitor MonitorService, requestTimeout time.Duration, logger zerolog.Logger) *Server {
	s := &Server{
		monitor: monitor,
		logger:  logger.With().Str("component", "APIServer").Logger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if requestTimeout > 0 {
		r.Use(middleware.Timeout(requestTimeout))
	}

	r.Get("/healthz", s.healthz)

	r.Route("/api", func(r chi.Router) {
		r.Post("/monitor", s.startMonitoring)
		r.Get("/status", s.status)
		r.Get("/subscriber/{id}", s.getSubscriber)
		r.Post("/stop/{id}", s.stopSubscriber)
		r.Post("/stop-monitoring/{id}", s.stopMonitoring)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
