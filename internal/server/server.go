// Package server is the HTTP glue over the transfer engine and the query
// service. It assumes the caller has already been authenticated upstream and
// that request shape is the only thing left to validate.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/andrumolt/transfer-ledger/internal/query"
	"github.com/andrumolt/transfer-ledger/internal/transfer"
)

// Config holds the HTTP listener configuration.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns a default listener configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Server exposes the caller-facing operation surface over HTTP.
type Server struct {
	engine  *transfer.Engine
	queries *query.Service
	log     *zap.Logger
	server  *http.Server
}

// New wires the routes and builds the server. gatherer backs the /metrics
// endpoint; pass nil to disable it.
func New(cfg Config, engine *transfer.Engine, queries *query.Service, log *zap.Logger, gatherer prometheus.Gatherer) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		engine:  engine,
		queries: queries,
		log:     log,
	}

	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	r.HandleFunc("/transfer", s.handleTransfer).Methods(http.MethodPost)
	r.HandleFunc("/accounts/{number:[0-9]+}/balance", s.handleBalance).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{number:[0-9]+}/dashboard", s.handleDashboard).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{number:[0-9]+}/history", s.handleHistory).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// ListenAndServe runs the server until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.log.Info("http server listening", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// statusRecorder captures the response code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
