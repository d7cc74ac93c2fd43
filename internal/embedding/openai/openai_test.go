package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragqa/internal/domain"
)

type dataItem struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// newServer answers with one 2-d vector per input, listed in reverse order.
func newServer(t *testing.T, seen *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		var req embeddingRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		if seen != nil {
			*seen = append(*seen, req.Input...)
		}
		items := make([]dataItem, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			items = append(items, dataItem{Embedding: []float32{float32(i), 1}, Index: i})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": items})
	}))
}

func TestEncodeOrdersByIndex(t *testing.T) {
	var seen []string
	srv := newServer(t, &seen)
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL + "/v1", Model: "paraphrase-multilingual-MiniLM-L12-v2"})
	require.NoError(t, err)

	vecs, err := c.Encode(context.Background(), []string{"a", "", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for i, v := range vecs {
		assert.Equal(t, []float32{float32(i), 1}, v.Values())
	}
	assert.Equal(t, []string{"a", " ", "c"}, seen)
	assert.Equal(t, 2, c.Dimension())
}

func TestEncodeRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{{1, 2, 3}}})
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, Model: "m", MaxRetries: 2})
	require.NoError(t, err)

	vecs, err := c.Encode(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vecs[0].Values())
	assert.Equal(t, int32(2), calls.Load())
}

func TestEncodeClientErrorIsEncodingError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad input", http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, Model: "m", MaxRetries: 3})
	require.NoError(t, err)

	_, err = c.Encode(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, domain.ErrEncoding)
	assert.Contains(t, err.Error(), "bad input")
}

func TestEncodeRejectsDimensionChange(t *testing.T) {
	srv := newServer(t, nil)
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL + "/v1", Model: "m", Dimension: 3})
	require.NoError(t, err)

	_, err = c.Encode(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, domain.ErrEncoding)
}

func TestPingUnavailableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(Config{BaseURL: url, Model: "m"})
	require.NoError(t, err)

	err = c.Ping(context.Background())
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestNewClientRequiresKeyForPublicEndpoint(t *testing.T) {
	t.Setenv("RAGQA_TEST_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "RAGQA_TEST_KEY", Model: "text-embedding-3-small"})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)

	t.Setenv("RAGQA_TEST_KEY", "sk-test")
	c, err := NewClient(Config{APIKeyEnv: "RAGQA_TEST_KEY", Model: "text-embedding-3-small"})
	require.NoError(t, err)
	assert.Equal(t, "openai:text-embedding-3-small-r2048", c.Name())
}

func TestRetryDelayIsCapped(t *testing.T) {
	assert.Equal(t, retryDelay(0)*2, retryDelay(1))
	assert.LessOrEqual(t, retryDelay(50), retryDelay(5))
}
