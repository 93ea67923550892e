package dispatch

import (
	"context"
	"time"

	"github.com/nidhogg/forecast-facts/internal/facts"
	"github.com/nidhogg/forecast-facts/internal/metrics"
	"go.uber.org/zap"
)

// Request is the structured query envelope.
type Request struct {
	Operation string `json:"operation"`
	Arguments Args   `json:"arguments,omitempty"`
}

// Response carries either a result or an error, never both.
type Response struct {
	Result interface{}  `json:"result,omitempty"`
	Error  *facts.Error `json:"error,omitempty"`
}

// Dispatcher routes envelopes to the registry operations.
type Dispatcher struct {
	registry *facts.Registry
	tools    *toolRegistry
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// New creates a dispatcher over reg.
func New(reg *facts.Registry, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		tools:    newToolRegistry(),
		logger:   logger,
	}
	registerFactTools(d.tools, reg)
	return d
}

// SetMetrics enables query metrics.
func (d *Dispatcher) SetMetrics(m *metrics.Metrics) { d.metrics = m }

// Registry returns the underlying fact registry.
func (d *Dispatcher) Registry() *facts.Registry { return d.registry }

// Tools returns the operation catalogue.
func (d *Dispatcher) Tools() []Tool {
	out := make([]Tool, len(d.tools.defs))
	copy(out, d.tools.defs)
	return out
}

// Call runs an operation by operation or tool name and returns its raw result.
// transport labels the metrics only.
func (d *Dispatcher) Call(ctx context.Context, transport, operation string, args Args) (interface{}, error) {
	start := time.Now()
	result, err := d.call(ctx, operation, args)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = string(facts.KindOf(err))
	}
	if d.metrics != nil {
		d.metrics.ObserveQuery(d.tools.operation(operation), transport, outcome, elapsed)
	}

	switch {
	case err == nil:
		d.logger.Debug("query answered",
			zap.String("operation", operation),
			zap.String("transport", transport),
			zap.Duration("elapsed", elapsed))
	case facts.KindOf(err) == facts.KindInvalidArgument:
		d.logger.Debug("query rejected",
			zap.String("operation", operation),
			zap.String("transport", transport),
			zap.Error(err))
	default:
		d.logger.Error("query failed",
			zap.String("operation", operation),
			zap.String("transport", transport),
			zap.Error(err))
	}
	return result, err
}

func (d *Dispatcher) call(ctx context.Context, operation string, args Args) (interface{}, error) {
	if operation == "" {
		return nil, facts.InvalidArgument("operation is required")
	}
	h, ok := d.tools.lookup(operation)
	if !ok {
		return nil, facts.InvalidArgument("unknown operation %q", operation)
	}
	if args == nil {
		args = Args{}
	}
	return h(ctx, args)
}

// Handle answers an envelope.
func (d *Dispatcher) Handle(ctx context.Context, transport string, req Request) Response {
	result, err := d.Call(ctx, transport, req.Operation, req.Arguments)
	if err != nil {
		return ErrorResponse(err)
	}
	return Response{Result: result}
}

// ErrorResponse wraps err in an envelope, classifying unknown errors as Internal.
func ErrorResponse(err error) Response {
	return Response{Error: &facts.Error{Kind: facts.KindOf(err), Message: err.Error()}}
}
