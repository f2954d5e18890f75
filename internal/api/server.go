// Package api exposes the pipeline phases over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"storycast/internal/app"
	"storycast/internal/ledger"
	"storycast/internal/publish"
	"storycast/internal/storage"
	"storycast/internal/workspace"
)

// Pipeline is the subset of *app.Pipeline the handlers call.
type Pipeline interface {
	Generate(ctx context.Context, ws *workspace.Workspace, req app.GenerateRequest) (*app.GenerateResult, error)
	Render(ctx context.Context, ws *workspace.Workspace) (*app.RenderResult, error)
	Publish(ctx context.Context, ws *workspace.Workspace, req publish.Request) (*publish.Result, error)
	History(ctx context.Context, limit int) ([]ledger.PublishedVideo, error)
	Artifacts(ctx context.Context) ([]storage.Artifact, error)
}

type ServerConfig struct {
	Host      string
	Port      int
	Pipeline  Pipeline
	Workspace *workspace.Workspace
	Logger    *slog.Logger
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	// no write timeout: generation and upload run inside the request
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// phaseLock runs one pipeline phase at a time; phases share the workspace
// files.
type phaseLock struct {
	mu sync.Mutex
}

func (l *phaseLock) run(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn()
}
