package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
)

// httpQuery POSTs an envelope to server/api/query and returns the decoded
// result, failing the test on an error envelope.
func httpQuery(t *testing.T, server, operation string, args map[string]interface{}) interface{} {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"operation": operation, "arguments": args})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(server+"/api/query", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/query: %v", err)
	}
	defer resp.Body.Close()

	var env struct {
		Result interface{}            `json:"result"`
		Error  map[string]interface{} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if env.Error != nil {
		t.Fatalf("query %s failed: %v", operation, env.Error)
	}
	return env.Result
}
