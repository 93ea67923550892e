// Package mcp exposes the fact operations as Model Context Protocol tools and
// provides a client for calling them.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/nidhogg/forecast-facts/internal/dispatch"
	"github.com/nidhogg/forecast-facts/internal/facts"
)

const transportMCP = "mcp"

// ServerConfig holds MCP server identity and mount path.
type ServerConfig struct {
	Name    string
	Version string
	Path    string
}

// Server registers one MCP tool per dispatcher operation.
type Server struct {
	cfg        ServerConfig
	dispatcher *dispatch.Dispatcher
	mcpServer  *mcpserver.MCPServer
	http       *mcpserver.StreamableHTTPServer
	logger     *zap.Logger
}

// NewServer creates the MCP server and registers the tools.
func NewServer(cfg ServerConfig, d *dispatch.Dispatcher, logger *zap.Logger) *Server {
	if cfg.Path == "" {
		cfg.Path = "/mcp"
	}
	s := &Server{
		cfg:        cfg,
		dispatcher: d,
		mcpServer:  mcpserver.NewMCPServer(cfg.Name, cfg.Version, mcpserver.WithToolCapabilities(false)),
		logger:     logger,
	}
	s.registerTools()
	s.http = mcpserver.NewStreamableHTTPServer(s.mcpServer, mcpserver.WithEndpointPath(cfg.Path))
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer { return s.mcpServer }

// Path is where Handler expects to be mounted.
func (s *Server) Path() string { return s.cfg.Path }

// Handler serves the streamable HTTP transport.
func (s *Server) Handler() http.Handler { return s.http }

func (s *Server) registerTools() {
	var tools []mcpserver.ServerTool
	for _, t := range s.dispatcher.Tools() {
		tools = append(tools, mcpserver.ServerTool{
			Tool:    buildTool(t),
			Handler: s.handler(t.Operation),
		})
	}
	s.mcpServer.AddTools(tools...)
	s.logger.Debug("MCP tools registered", zap.Int("count", len(tools)))
}

func buildTool(t dispatch.Tool) mcplib.Tool {
	opts := []mcplib.ToolOption{mcplib.WithDescription(t.Description)}
	for _, p := range t.Params {
		popts := []mcplib.PropertyOption{mcplib.Description(p.Description)}
		if len(p.Enum) > 0 {
			popts = append(popts, mcplib.Enum(p.Enum...))
		}
		if p.Default != "" {
			popts = append(popts, mcplib.DefaultString(p.Default))
		}
		if p.Required {
			popts = append(popts, mcplib.Required())
		}
		opts = append(opts, mcplib.WithString(snakeCase(p.Name), popts...))
	}
	return mcplib.NewTool(t.Name, opts...)
}

func (s *Server) handler(operation string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
		result, err := s.dispatcher.Call(ctx, transportMCP, operation, dispatch.Args(req.GetArguments()))
		if err != nil {
			return mcplib.NewToolResultError(fmt.Sprintf("%s: %s", facts.KindOf(err), err.Error())), nil
		}
		data, err := json.Marshal(result)
		if err != nil {
			return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
		}
		return mcplib.NewToolResultText(string(data)), nil
	}
}

// snakeCase turns "impactLevel" into "impact_level".
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
