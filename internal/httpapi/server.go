// Package httpapi exposes FeedbackService over HTTP with a JSON API.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"feedback-go/internal/feedback"
)

const (
	headerUsername = "X-Username"
	headerSecret   = "X-Secret"
)

// Options tunes the transport.
type Options struct {
	DefaultExpiresInHours int
	MaxBodyBytes          int64
	RequestTimeout        time.Duration // 0 disables the per-request timeout
	MetricsPath           string        // "" disables the metrics route
}

// DefaultOptions returns the transport defaults.
func DefaultOptions() Options {
	return Options{
		DefaultExpiresInHours: 24,
		MaxBodyBytes:          64 << 10,
		RequestTimeout:        5 * time.Second,
		MetricsPath:           "/metrics",
	}
}

// Server maps HTTP requests onto FeedbackService calls.
type Server struct {
	service *feedback.FeedbackService
	logger  feedback.Logger
	metrics *Metrics
	opts    Options
}

// NewServer creates a Server. metrics may be nil.
func NewServer(service *feedback.FeedbackService, logger feedback.Logger, metrics *Metrics, opts Options) *Server {
	if opts.DefaultExpiresInHours <= 0 {
		opts.DefaultExpiresInHours = DefaultOptions().DefaultExpiresInHours
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultOptions().MaxBodyBytes
	}
	return &Server{
		service: service,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil && s.opts.MetricsPath != "" {
		r.Method(http.MethodGet, s.opts.MetricsPath, s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if s.opts.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.opts.RequestTimeout))
		}
		r.Route("/inboxes", func(r chi.Router) {
			r.Get("/", s.listInboxes)
			r.Post("/", s.createInbox)
			r.Get("/{id}", s.readInbox)
			r.Patch("/{id}", s.editInboxTopic)
			r.Post("/{id}/messages", s.postMessage)
		})
	})

	return r
}

// logRequests logs one line per request once the response is written.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// identify builds the caller from headers, letting body credentials win.
func (s *Server) identify(r *http.Request, body *credentials) *feedback.User {
	username := r.Header.Get(headerUsername)
	secret := r.Header.Get(headerSecret)
	if body != nil {
		if body.Username != "" {
			username = body.Username
		}
		if body.Secret != "" {
			secret = body.Secret
		}
	}
	return s.service.Identify(username, secret)
}

// fail writes the error response for err.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message, reason := classify(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err,
			"request_id", middleware.GetReqID(r.Context()))
	} else if reason != "" {
		s.metrics.rejected(reason)
	}
	writeJSON(w, status, errorResponse{Error: message})
}
