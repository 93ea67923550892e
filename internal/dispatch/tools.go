package dispatch

import (
	"context"

	"github.com/nidhogg/forecast-facts/internal/facts"
)

// Param describes one tool argument.
type Param struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
	Default     string   `json:"default,omitempty"`
	Required    bool     `json:"required,omitempty"`
}

// Tool describes an operation for catalogues and MCP registration.
type Tool struct {
	Name        string  `json:"name"`
	Operation   string  `json:"operation"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
}

// Operation names accepted in the request envelope.
const (
	OpGetPoliticalEvents     = "getPoliticalEvents"
	OpGetGdpData             = "getGdpData"
	OpAnalyzeForecastFactors = "analyzeForecastFactors"
)

// ToolHandler executes an operation with decoded arguments.
type ToolHandler func(ctx context.Context, args Args) (interface{}, error)

// toolRegistry holds tool definitions and their handlers, addressable by
// operation name or tool name.
type toolRegistry struct {
	defs      []Tool
	handlers  map[string]ToolHandler
	canonical map[string]string
}

func newToolRegistry() *toolRegistry {
	return &toolRegistry{
		handlers:  make(map[string]ToolHandler),
		canonical: make(map[string]string),
	}
}

func (r *toolRegistry) register(def Tool, h ToolHandler) {
	r.defs = append(r.defs, def)
	r.handlers[def.Operation] = h
	r.handlers[def.Name] = h
	r.canonical[def.Operation] = def.Operation
	r.canonical[def.Name] = def.Operation
}

func (r *toolRegistry) lookup(name string) (ToolHandler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// operation maps a tool or operation name to its operation name, or "unknown".
func (r *toolRegistry) operation(name string) string {
	if op, ok := r.canonical[name]; ok {
		return op
	}
	return "unknown"
}

var impactEnum = []string{"all", "low", "medium", "high"}
var quarterEnum = []string{"all", "Q1", "Q2", "Q3", "Q4", "annual"}

func registerFactTools(r *toolRegistry, reg *facts.Registry) {
	r.register(Tool{
		Name:        "get_political_events",
		Operation:   OpGetPoliticalEvents,
		Description: "Retrieve political events for a specific year that may impact sales forecasting",
		Params: []Param{
			{Name: "year", Type: "string", Description: "The year to query (e.g. '2025'), or 'any' for every year"},
			{Name: "impactLevel", Type: "string", Description: "Filter by impact level", Enum: impactEnum, Default: "all"},
		},
	}, func(_ context.Context, args Args) (interface{}, error) {
		if err := args.only("year", "impactLevel", "impact_level"); err != nil {
			return nil, err
		}
		year, err := args.Year(false)
		if err != nil {
			return nil, err
		}
		raw, err := args.String("impactLevel", "impact_level")
		if err != nil {
			return nil, err
		}
		level, err := facts.ParseImpactLevel(raw)
		if err != nil {
			return nil, err
		}
		return reg.GetPoliticalEvents(year, level)
	})

	r.register(Tool{
		Name:        "get_gdp_data",
		Operation:   OpGetGdpData,
		Description: "Retrieve GDP growth data for economic analysis in sales forecasting",
		Params: []Param{
			{Name: "year", Type: "string", Description: "The year to query (e.g. '2024'), or 'any' for every year"},
			{Name: "quarter", Type: "string", Description: "Specific quarter or 'all'", Enum: quarterEnum, Default: "all"},
		},
	}, func(_ context.Context, args Args) (interface{}, error) {
		if err := args.only("year", "quarter"); err != nil {
			return nil, err
		}
		year, err := args.Year(false)
		if err != nil {
			return nil, err
		}
		raw, err := args.String("quarter")
		if err != nil {
			return nil, err
		}
		q, err := facts.ParseQuarter(raw)
		if err != nil {
			return nil, err
		}
		return reg.GetGdpData(year, q)
	})

	r.register(Tool{
		Name:        "analyze_forecast_factors",
		Operation:   OpAnalyzeForecastFactors,
		Description: "Comprehensive analysis combining political events and GDP data for forecasting",
		Params: []Param{
			{Name: "year", Type: "string", Description: "The year to analyze (e.g. '2025')", Required: true},
		},
	}, func(_ context.Context, args Args) (interface{}, error) {
		if err := args.only("year"); err != nil {
			return nil, err
		}
		year, err := args.Year(true)
		if err != nil {
			return nil, err
		}
		return reg.AnalyzeForecastFactors(year)
	})
}
