// Package mcp provides an MCP (Model Context Protocol) server exposing
// ledger views as tools.
package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/ledgerview/pkg/session"
	"github.com/papercomputeco/ledgerview/pkg/utils"
)

type Config struct {
	// Sessions supplies the composer tools read from. Tools always use the
	// default session so they share the API's warmed cache.
	Sessions *session.Registry

	// Noop for empty MCP server
	Noop bool

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the ledger tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "ledgerview",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Sessions == nil {
			return nil, errors.New("session registry is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        treeToolName,
			Description: treeDescription,
		}, s.handleTree)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        nodeToolName,
			Description: nodeDescription,
		}, s.handleNode)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        intentToolName,
			Description: intentDescription,
		}, s.handleIntent)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        namespacesToolName,
			Description: namespacesDescription,
		}, s.handleNamespaces)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

// textResult serializes out into a TextContent block alongside the
// structured output, for clients that only read text.
func textResult[T any](logger *slog.Logger, tool string, out T) (*mcp.CallToolResult, T, error) {
	jsonBytes, err := json.Marshal(out)
	if err != nil {
		logger.Error("failed to marshal tool output", "tool", tool, "error", err)
		var zero T
		return errorResult("Failed to serialize results: %v", err), zero, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, out, nil
}
