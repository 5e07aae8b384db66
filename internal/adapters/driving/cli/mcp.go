package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexrag/internal/adapters/driving/mcp"
	"github.com/custodia-labs/lexrag/internal/postprocessors/legalchunker"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

Tools:
  search_legislation  - search indexed legislation
  ask_legal_question  - answer a question from retrieved passages
  chunk_legal_text    - split legal text into article-aware chunks

By default, the server communicates over stdio using JSON-RPC. Use --http
to serve the streamable HTTP transport instead.

Examples:
  # Stdio mode (default)
  lexrag mcp

  # HTTP mode (for MCP Inspector, remote access)
  lexrag mcp --http :8080

Client configuration:
  {
    "mcpServers": {
      "lexrag": {
        "command": "/path/to/lexrag",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().String("http", "", "HTTP listen address, e.g. :8080 (empty = use stdio)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("http")
	if err != nil {
		return fmt.Errorf("getting http flag: %w", err)
	}

	ports := &mcp.Ports{
		Search:   searchService,
		Ask:      askService,
		Document: documentService,
	}
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			ports.Chunker = legalchunker.NewChunker(
				legalchunker.WithMaxChunkSize(settings.Chunking.MaxChunkSize),
				legalchunker.WithMinChunkSize(settings.Chunking.MinChunkSize),
			)
		}
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if addr != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", addr)
		return server.RunHTTP(commandContext(cmd), addr)
	}

	return server.Run(commandContext(cmd))
}
