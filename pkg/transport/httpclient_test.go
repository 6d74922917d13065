package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSONDecodesBodyAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/star-atlas", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("tickers"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "star-atlas"})
	}))
	defer server.Close()

	c := NewHTTPWithOpts(Opts{Endpoints: []string{server.URL}, Headers: map[string]string{"X-Api-Key": "secret"}})
	var out struct {
		ID string `json:"id"`
	}
	err := c.GetJSON(context.Background(), "/coins/star-atlas", url.Values{"tickers": {"false"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "star-atlas", out.ID)
}

func TestDoJSONReturnsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewHTTPWithOpts(Opts{Endpoints: []string{server.URL}})
	err := c.DoJSON(context.Background(), http.MethodGet, "/missing", nil, nil)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestDoJSONFailsOverToNextEndpoint(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewEncoder(w).Encode(in)
	}))
	defer good.Close()

	c := NewHTTPWithOpts(Opts{Endpoints: []string{bad.URL, good.URL}})
	var out map[string]any
	err := c.DoJSON(context.Background(), http.MethodPost, "/graphql", map[string]any{"query": "{ x }"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "{ x }", out["query"])
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewHTTPWithOpts(Opts{Endpoints: []string{server.URL}, BreakerFailures: 2, BreakerCooldown: time.Minute})
	for i := 0; i < 4; i++ {
		_ = c.DoJSON(context.Background(), http.MethodGet, "/", nil, nil)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	err := c.DoJSON(context.Background(), http.MethodGet, "/", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit open")
}

func TestDoJSONWithoutEndpoints(t *testing.T) {
	c := NewHTTPWithOpts(Opts{})
	assert.EqualError(t, c.DoJSON(context.Background(), http.MethodGet, "/", nil, nil), "no endpoints configured")
}
