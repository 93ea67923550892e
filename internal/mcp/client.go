package mcp

import (
	"context"
	"fmt"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// ToolInfo describes a tool exposed by an MCP server.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Client connects to an MCP server over streamable HTTP, discovers its tools
// and calls them.
type Client struct {
	name   string
	url    string
	tools  []ToolInfo
	c      *mcpclient.Client
	logger *zap.Logger
}

// NewClient creates a new MCP client for the given endpoint.
func NewClient(name, url string, logger *zap.Logger) *Client {
	return &Client{name: name, url: url, logger: logger}
}

// Name returns the client name sent during initialization.
func (c *Client) Name() string { return c.name }

// ListTools returns the tools discovered on Connect.
func (c *Client) ListTools() []ToolInfo { return c.tools }

// Connect performs the initialize handshake and fetches the tools list.
func (c *Client) Connect(ctx context.Context) error {
	cl, err := mcpclient.NewStreamableHttpClient(c.url)
	if err != nil {
		return fmt.Errorf("mcp connect: %w", err)
	}
	if err := cl.Start(ctx); err != nil {
		cl.Close()
		return fmt.Errorf("mcp start: %w", err)
	}

	initReq := mcplib.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcplib.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcplib.Implementation{Name: c.name, Version: "1.0.0"}
	initResult, err := cl.Initialize(ctx, initReq)
	if err != nil {
		cl.Close()
		return fmt.Errorf("mcp initialize: %w", err)
	}
	c.logger.Info("MCP server connected",
		zap.String("url", c.url),
		zap.String("server", initResult.ServerInfo.Name))

	tools, err := fetchTools(ctx, cl)
	if err != nil {
		cl.Close()
		return fmt.Errorf("mcp list tools: %w", err)
	}
	c.c = cl
	c.tools = tools
	c.logger.Info("MCP tools discovered", zap.Int("count", len(c.tools)))
	return nil
}

func fetchTools(ctx context.Context, cl *mcpclient.Client) ([]ToolInfo, error) {
	res, err := cl.ListTools(ctx, mcplib.ListToolsRequest{})
	if err != nil {
		return nil, err
	}
	tools := make([]ToolInfo, 0, len(res.Tools))
	for i := range res.Tools {
		tools = append(tools, ToolInfo{
			Name:        res.Tools[i].Name,
			Description: res.Tools[i].Description,
		})
	}
	return tools, nil
}

// CallTool invokes a tool and returns its text content. A tool-level error
// result is returned as an error carrying the server's message.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	if c.c == nil {
		return "", fmt.Errorf("mcp call %s: not connected", name)
	}
	req := mcplib.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := c.c.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("mcp call %s: %w", name, err)
	}
	text := firstText(res.Content)
	if res.IsError {
		return "", fmt.Errorf("mcp call %s: %s", name, text)
	}
	return text, nil
}

func firstText(content []mcplib.Content) string {
	for _, ct := range content {
		switch t := ct.(type) {
		case mcplib.TextContent:
			return t.Text
		case *mcplib.TextContent:
			return t.Text
		}
	}
	return ""
}

// Close shuts down the underlying transport.
func (c *Client) Close() error {
	if c.c == nil {
		return nil
	}
	return c.c.Close()
}
