package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/nidhogg/forecast-facts/internal/api"
	"github.com/nidhogg/forecast-facts/internal/dispatch"
	"github.com/nidhogg/forecast-facts/internal/facts"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	d := dispatch.New(facts.MustRegistry(facts.Builtin()), zap.NewNop())
	ts := httptest.NewServer(api.NewHandler(d, nil, "test", "0.0.1", zap.NewNop()).Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestPostQuery(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	resp, err := postQuery(ctx, ts.URL+"/", dispatch.Request{
		Operation: dispatch.OpAnalyzeForecastFactors,
		Arguments: dispatch.Args{"year": "2026"},
	})
	if err != nil {
		t.Fatalf("postQuery: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	data, _ := json.Marshal(resp.Result)
	var ff facts.ForecastFactors
	if err := json.Unmarshal(data, &ff); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ff.RiskScore != 60 {
		t.Errorf("risk score = %d, want 60", ff.RiskScore)
	}

	resp, err = postQuery(ctx, ts.URL, dispatch.Request{Operation: "forecastEverything"})
	if err != nil {
		t.Fatalf("postQuery: %v", err)
	}
	if resp.Error == nil || resp.Error.Kind != facts.KindInvalidArgument {
		t.Errorf("expected InvalidArgument, got %+v", resp.Error)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, []byte(`{"years":[2023,2024]}`)); err != nil {
		t.Fatalf("printJSON: %v", err)
	}
	want := "{\n  \"years\": [\n    2023,\n    2024\n  ]\n}\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := printJSON(&buf, []byte("plain text")); err != nil {
		t.Fatalf("printJSON: %v", err)
	}
	if buf.String() != "plain text" {
		t.Errorf("non-JSON output altered: %q", buf.String())
	}
}
