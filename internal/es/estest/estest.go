// Package estest serves fake Elasticsearch clusters for tests.
package estest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
)

// NewClient returns a client talking to h. Every response carries the
// product header the client checks for.
func NewClient(t testing.TB, h http.Handler) *elasticsearch.Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{srv.URL},
	})
	if err != nil {
		t.Fatalf("es client: %v", err)
	}
	return client
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Hits builds a search response body from sources.
func Hits(sources ...any) map[string]any {
	hits := make([]map[string]any, 0, len(sources))
	for _, s := range sources {
		hits = append(hits, map[string]any{"_score": 1.0, "_source": s})
	}
	return map[string]any{
		"hits": map[string]any{
			"total": map[string]any{"value": len(sources), "relation": "eq"},
			"hits":  hits,
		},
	}
}
