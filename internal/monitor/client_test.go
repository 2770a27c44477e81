package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/rankd/internal/weights"
)

func newFakeAPI(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/api/v1/metrics", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("window") == "" {
			http.Error(w, "missing window", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(metricsEnvelope{
			Since: time.Now().Add(-time.Hour),
			Until: time.Now(),
			Summary: Summary{
				EventCount:    42,
				MeanLatencyMS: 120.5,
				P95LatencyMS:  430.0,
				CacheHitRate:  0.25,
			},
		})
	})
	mux.HandleFunc("/api/v1/weights", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(weightsEnvelope{
			Intents: map[string]weights.Optimized{
				"factual": {SemanticWeight: 0.7, KeywordWeight: 0.2, RecencyWeight: 0.1, NDCGAt5: 0.91, NumTrainingPairs: 42},
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientFetchSummary(t *testing.T) {
	srv := newFakeAPI(t)
	client := NewClient(srv.URL)

	summary, err := client.FetchSummary(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 42, summary.EventCount)
	assert.InDelta(t, 120.5, summary.MeanLatencyMS, 1e-9)
	assert.InDelta(t, 0.25, summary.CacheHitRate, 1e-9)
}

func TestClientFetchWeights(t *testing.T) {
	srv := newFakeAPI(t)
	client := NewClient(srv.URL)

	served, err := client.FetchWeights(context.Background())
	require.NoError(t, err)
	require.Contains(t, served, "factual")
	assert.InDelta(t, 0.7, served["factual"].SemanticWeight, 1e-9)
	assert.Equal(t, 42, served["factual"].NumTrainingPairs)
}

func TestClientHealth(t *testing.T) {
	srv := newFakeAPI(t)
	client := NewClient(srv.URL)

	assert.NoError(t, client.Health(context.Background()))
}

func TestClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL)

	_, err := client.FetchSummary(context.Background(), time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code")

	_, err = client.FetchWeights(context.Background())
	assert.Error(t, err)

	assert.Error(t, client.Health(context.Background()))
}

func TestClientUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")

	_, err := client.FetchSummary(context.Background(), time.Hour)
	assert.Error(t, err)
}
