package indexer_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rogue-datahub/atlasx/pkg/indexer"
	"github.com/rogue-datahub/atlasx/pkg/transport"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type gqlCall struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func newTestIndexer(handler http.Handler) *indexer.Client {
	return newTestIndexerAt(handler, "")
}

func newTestIndexerAt(handler http.Handler, path string) *indexer.Client {
	httpClient := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			resp := rec.Result()
			if resp.Body == nil {
				resp.Body = http.NoBody
			}
			return resp, nil
		}),
		Timeout: 5 * time.Second,
	}
	return indexer.New(transport.NewHTTPWithOpts(transport.Opts{
		Endpoints:  []string{"http://mock"},
		HTTPClient: httpClient,
		RPS:        1000,
		Burst:      1000,
	}), path)
}

func decodeCall(t *testing.T, r *http.Request) gqlCall {
	t.Helper()
	body, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var call gqlCall
	require.NoError(t, json.Unmarshal(body, &call))
	return call
}

func writeData(w http.ResponseWriter, data any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}
