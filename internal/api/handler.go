package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/nidhogg/forecast-facts/internal/dispatch"
	"github.com/nidhogg/forecast-facts/internal/facts"
	"github.com/nidhogg/forecast-facts/internal/metrics"
)

const transportHTTP = "http"

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	dispatcher *dispatch.Dispatcher
	metrics    *metrics.Metrics
	mcpPath    string
	mcp        http.Handler
	name       string
	version    string
	logger     *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(d *dispatch.Dispatcher, m *metrics.Metrics, name, version string, logger *zap.Logger) *Handler {
	return &Handler{
		dispatcher: d,
		metrics:    m,
		name:       name,
		version:    version,
		logger:     logger,
	}
}

// MountMCP serves h at path alongside the REST routes.
func (h *Handler) MountMCP(path string, mcp http.Handler) {
	h.mcpPath = path
	h.mcp = mcp
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Mcp-Session-Id"},
		ExposedHeaders:   []string{"Mcp-Session-Id"},
		AllowCredentials: true,
	}))

	r.Get("/", h.info)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)
		r.Get("/tools", h.listTools)
		r.Get("/years", h.listYears)
		r.Post("/query", h.query)

		// REST shortcuts over the same operations
		r.Get("/political-events/{year}", h.politicalEvents)
		r.Get("/gdp/{year}", h.gdp)
		r.Get("/forecast-factors/{year}", h.forecastFactors)
	})

	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler())
	}
	if h.mcp != nil {
		r.Handle(h.mcpPath, h.mcp)
	}
	return r
}

func (h *Handler) info(w http.ResponseWriter, r *http.Request) {
	endpoints := map[string]string{
		"health":     "/api/health",
		"tools_list": "/api/tools",
		"query":      "/api/query",
	}
	if h.mcp != nil {
		endpoints["mcp"] = h.mcpPath
	}
	if h.metrics != nil {
		endpoints["metrics"] = "/metrics"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":      h.name,
		"version":   h.version,
		"status":    "running",
		"endpoints": endpoints,
	})
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	events, gdp := h.dispatcher.Registry().Counts()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"events":      events,
		"gdp_records": gdp,
	})
}

func (h *Handler) listTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"tools": h.dispatcher.Tools()})
}

func (h *Handler) listYears(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"years": h.dispatcher.Registry().Years()})
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	var req dispatch.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond(w, dispatch.ErrorResponse(facts.InvalidArgument("invalid request body: %v", err)))
		return
	}
	h.respond(w, h.dispatcher.Handle(r.Context(), transportHTTP, req))
}

func (h *Handler) politicalEvents(w http.ResponseWriter, r *http.Request) {
	args := dispatch.Args{"year": chi.URLParam(r, "year")}
	if v := queryParam(r, "impact_level", "impactLevel"); v != "" {
		args["impactLevel"] = v
	}
	h.respond(w, h.dispatcher.Handle(r.Context(), transportHTTP, dispatch.Request{
		Operation: dispatch.OpGetPoliticalEvents,
		Arguments: args,
	}))
}

func (h *Handler) gdp(w http.ResponseWriter, r *http.Request) {
	args := dispatch.Args{"year": chi.URLParam(r, "year")}
	if v := queryParam(r, "quarter"); v != "" {
		args["quarter"] = v
	}
	h.respond(w, h.dispatcher.Handle(r.Context(), transportHTTP, dispatch.Request{
		Operation: dispatch.OpGetGdpData,
		Arguments: args,
	}))
}

func (h *Handler) forecastFactors(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.dispatcher.Handle(r.Context(), transportHTTP, dispatch.Request{
		Operation: dispatch.OpAnalyzeForecastFactors,
		Arguments: dispatch.Args{"year": chi.URLParam(r, "year")},
	}))
}

// respond writes an envelope with the status matching its error kind.
func (h *Handler) respond(w http.ResponseWriter, resp dispatch.Response) {
	status := http.StatusOK
	if resp.Error != nil {
		switch resp.Error.Kind {
		case facts.KindInvalidArgument:
			status = http.StatusBadRequest
		default:
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, status, resp)
}

func queryParam(r *http.Request, keys ...string) string {
	q := r.URL.Query()
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			return v
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
