// internal/mcp/server.go
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/remedy/api/schemas"
	"github.com/xkilldash9x/remedy/internal/autofix"
	"github.com/xkilldash9x/remedy/internal/config"
	"github.com/xkilldash9x/remedy/internal/patterns"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const shutdownTimeout = 30 * time.Second

// Diagnoser runs static checks over source text.
type Diagnoser interface {
	Analyze(code, language string, checkTypes []string) []schemas.Diagnostic
}

// BatchFixer fixes many errors in one call.
type BatchFixer interface {
	FixAll(ctx context.Context, items []schemas.BatchItem, prioritizeBy string) *schemas.BatchResult
}

// Dependencies are the pipeline components exposed as tools.
type Dependencies struct {
	Fixer         autofix.FixerInterface
	Batch         BatchFixer
	Diagnostics   Diagnoser
	Catalog       *patterns.Catalog
	DefaultChecks []string
	Version       string
}

// Server exposes the fix pipeline as MCP tools.
type Server struct {
	MCPServer *sdkmcp.Server

	logger *zap.Logger
	cfg    config.MCPConfig
	deps   Dependencies
}

// NewServer creates the MCP server and registers every tool.
func NewServer(logger *zap.Logger, cfg config.MCPConfig, deps Dependencies) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Catalog == nil {
		deps.Catalog = patterns.Default()
	}
	if len(deps.DefaultChecks) == 0 {
		deps.DefaultChecks = []string{"all"}
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}

	s := &Server{
		logger: logger.Named("mcp"),
		cfg:    cfg,
		deps:   deps,
	}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "remedy", Version: deps.Version},
		nil,
	)
	s.registerTools()
	return s
}

// RunStdio serves the protocol over stdin/stdout until ctx is done or the
// client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("MCP server starting on stdio.")
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

// Router mounts the stateless streamable HTTP transport at /mcp, behind
// bearer auth when configured, and an unauthenticated /healthz.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	handler := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return s.MCPServer
	}, &sdkmcp.StreamableHTTPOptions{Stateless: true})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Logger)
		if s.cfg.AuthEnabled() {
			r.Use(bearerAuth(s.cfg, s.logger))
		} else {
			s.logger.Warn("MCP HTTP transport has no authentication configured.")
		}
		r.Handle("/mcp", handler)
	})
	return r
}

// ListenAndServe serves Router on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server starting on HTTP.", zap.String("address", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Received shutdown signal, shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	<-errCh
	s.logger.Info("MCP server stopped.")
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
