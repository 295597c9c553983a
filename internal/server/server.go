// Package server exposes the analysis pipeline, the hook generator and the
// persistence store over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hookscan/internal/config"
	"github.com/forPelevin/hookscan/internal/pipeline"
	"github.com/forPelevin/hookscan/internal/store"
	"github.com/forPelevin/hookscan/internal/types"
)

const Version = "1.0.0"

// Service is the core the HTTP layer drives.
type Service interface {
	Analyze(ctx context.Context, rawURL string) (pipeline.Analysis, error)
	GenerateHooks(ctx context.Context, req types.HookRequest) ([]types.GeneratedHook, error)
}

type Server struct {
	cfg     config.ServerConfig
	svc     Service
	store   store.Store
	log     logrus.FieldLogger
	maxBody int64
	http    *http.Server
}

// New builds the server. st may be nil, in which case the persistence
// endpoints answer 503.
func New(cfg config.ServerConfig, svc Service, st store.Store, log logrus.FieldLogger) *Server {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		store:   st,
		log:     log,
		maxBody: cfg.MaxBodyBytes,
	}
	if s.maxBody <= 0 {
		s.maxBody = 1 << 20
	}
	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// Handler is the routed mux wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /video/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /video/save", s.handleSaveAnalysis)
	mux.HandleFunc("GET /video/analyses", s.handleListAnalyses)
	mux.HandleFunc("POST /video/generate-hooks", s.handleGenerateHooks)
	mux.HandleFunc("POST /video/save-hook", s.handleSaveHook)
	mux.HandleFunc("GET /video/hooks", s.handleListHooks)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	middlewares := []middleware{
		RequestID(),
		Recovery(s.log),
		Logging(s.log),
		CORS(s.cfg.CORS),
	}
	if s.cfg.RateLimit.Enabled {
		middlewares = append(middlewares, RateLimit(s.cfg.RateLimit.RequestsPerMinute, s.cfg.RateLimit.BurstSize))
	}
	return Chain(mux, middlewares...)
}

func (s *Server) ListenAndServe() error {
	s.log.WithField("addr", s.http.Addr).Info("starting server")
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down server")
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, map[string]string{
		"message": "hookscan API",
		"version": Version,
	})
}
