package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/lexrag/internal/logger"
	"github.com/custodia-labs/lexrag/internal/postprocessors/legalchunker"
)

// Version is the MCP server version.
const Version = "0.1.0"

const shutdownTimeout = 5 * time.Second

var log = logger.With("mcp")

// Server exposes search, Q&A and chunking over MCP.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer validates the ports and registers tools and resources.
// A missing chunker is replaced by one with default limits.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if ports.Chunker == nil {
		ports.Chunker = legalchunker.NewChunker()
	}

	s := &Server{ports: ports}
	s.server = mcp.NewServer(
		&mcp.Implementation{Name: "lexrag", Version: Version},
		&mcp.ServerOptions{Instructions: s.instructions()},
	)
	s.registerTools()
	s.registerResources()

	return s, nil
}

// instructions tells clients which capabilities are backed by a service.
func (s *Server) instructions() string {
	var b strings.Builder
	b.WriteString("Portuguese legislation index. Use search_legislation to find passages")
	if s.ports.Ask != nil {
		b.WriteString(", ask_legal_question for answers with cited sources")
	}
	b.WriteString(" and chunk_legal_text to split a diploma into article-aware chunks.")
	if s.ports.Document != nil {
		b.WriteString(" Indexed documents are listed under lexrag://documents; append /{id}/chunks for a document's chunks.")
	}
	return b.String()
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	log.Debug("serving over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves streamable HTTP on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown: %v", err)
		}
	}()

	log.Info("listening on %s", addr)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
