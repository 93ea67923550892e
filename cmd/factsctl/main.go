package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nidhogg/forecast-facts/internal/dispatch"
	"github.com/nidhogg/forecast-facts/internal/mcp"
)

// CLI is the factsctl command tree.
type CLI struct {
	Server  string        `help:"Forecast facts server URL." default:"http://localhost:8000" env:"FACTS_SERVER"`
	MCP     bool          `name:"mcp" help:"Call tools over the MCP endpoint instead of /api/query."`
	MCPPath string        `name:"mcp-path" help:"MCP endpoint path." default:"/mcp"`
	Timeout time.Duration `help:"Request timeout." default:"30s"`

	Events  EventsCmd  `cmd:"" help:"List political events for a year."`
	GDP     GDPCmd     `cmd:"" name:"gdp" help:"List GDP growth records for a year."`
	Analyze AnalyzeCmd `cmd:"" help:"Analyze forecast factors for a year."`
	Tools   ToolsCmd   `cmd:"" help:"List the available tools."`
	Years   YearsCmd   `cmd:"" help:"List the years present in the dataset."`
}

type EventsCmd struct {
	Year   string `arg:"" help:"Year to query, or 'any'."`
	Impact string `help:"Impact level filter (all, low, medium, high)." default:"all"`
}

func (c *EventsCmd) Run(cli *CLI) error {
	return cli.query(dispatch.OpGetPoliticalEvents, "get_political_events", map[string]interface{}{
		"year":         c.Year,
		"impact_level": c.Impact,
	})
}

type GDPCmd struct {
	Year    string `arg:"" help:"Year to query, or 'any'."`
	Quarter string `help:"Quarter filter (all, Q1..Q4, annual)." default:"all"`
}

func (c *GDPCmd) Run(cli *CLI) error {
	return cli.query(dispatch.OpGetGdpData, "get_gdp_data", map[string]interface{}{
		"year":    c.Year,
		"quarter": c.Quarter,
	})
}

type AnalyzeCmd struct {
	Year string `arg:"" help:"Year to analyze."`
}

func (c *AnalyzeCmd) Run(cli *CLI) error {
	return cli.query(dispatch.OpAnalyzeForecastFactors, "analyze_forecast_factors", map[string]interface{}{
		"year": c.Year,
	})
}

type ToolsCmd struct{}

func (c *ToolsCmd) Run(cli *CLI) error {
	if !cli.MCP {
		return cli.get("/api/tools")
	}
	ctx, cancel := context.WithTimeout(context.Background(), cli.Timeout)
	defer cancel()
	client, err := cli.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	for _, t := range client.ListTools() {
		fmt.Printf("%-26s %s\n", t.Name, t.Description)
	}
	return nil
}

type YearsCmd struct{}

func (c *YearsCmd) Run(cli *CLI) error {
	return cli.get("/api/years")
}

func (cli *CLI) query(operation, tool string, args map[string]interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), cli.Timeout)
	defer cancel()

	if cli.MCP {
		client, err := cli.connect(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		text, err := client.CallTool(ctx, tool, args)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, []byte(text))
	}

	resp, err := postQuery(ctx, cli.Server, dispatch.Request{Operation: operation, Arguments: args})
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("%s: %s", resp.Error.Kind, resp.Error.Message)
	}
	data, err := json.Marshal(resp.Result)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, data)
}

func (cli *CLI) connect(ctx context.Context) (*mcp.Client, error) {
	client := mcp.NewClient("factsctl", strings.TrimRight(cli.Server, "/")+cli.MCPPath, zap.NewNop())
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

func (cli *CLI) get(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cli.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(cli.Server, "/")+path, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return printJSON(os.Stdout, data)
}

// postQuery sends an envelope to /api/query. Error envelopes come back as a
// Response, not an error.
func postQuery(ctx context.Context, server string, q dispatch.Request) (*dispatch.Response, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(server, "/")+"/api/query", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var out dispatch.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("parse response (%d): %w", resp.StatusCode, err)
	}
	return &out, nil
}

func printJSON(w io.Writer, data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		_, err = w.Write(data)
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

func main() {
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("factsctl"),
		kong.Description("Query the forecast facts service."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31m%v\033[0m\n", err)
		os.Exit(1)
	}
}
