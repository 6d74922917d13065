package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rogue-datahub/atlasx/pkg/transport"
)

// DefaultURL is the public GraphQL proxy in front of the Star Atlas indexer.
const DefaultURL = "https://graphql-proxy.lorddo3066.workers.dev"

// DefaultPath is the GraphQL endpoint path appended to every indexer base URL. The
// public proxy serves GraphQL at its root.
const DefaultPath = "/"

var (
	// ErrNoData is returned when a query succeeds but carries no usable payload.
	ErrNoData = errors.New("no data returned from GraphQL query")
	// ErrWalletRequired is returned by wallet-scoped queries given an empty address.
	ErrWalletRequired = errors.New("wallet address is required")
)

// GraphQLError carries the application-level errors of a GraphQL response.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	if len(e.Messages) == 0 || e.Messages[0] == "" {
		return "graphql query failed"
	}
	return e.Messages[0]
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Client runs GraphQL documents against the indexer.
type Client struct {
	http *transport.HTTPClient
	path string
}

// New returns an indexer client. An empty path defaults to DefaultPath.
func New(http *transport.HTTPClient, path string) *Client {
	if path == "" {
		path = DefaultPath
	}
	return &Client{http: http, path: path}
}

// Query executes a GraphQL document and decodes its data object into out.
// Transport failures, GraphQL errors and empty data are all returned as errors.
func (c *Client) Query(ctx context.Context, query string, vars map[string]any, out any) error {
	var resp response
	if err := c.http.DoJSON(ctx, http.MethodPost, c.path, request{Query: query, Variables: vars}, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return &GraphQLError{Messages: msgs}
	}
	data := bytes.TrimSpace(resp.Data)
	if len(data) == 0 || strings.EqualFold(string(data), "null") {
		return ErrNoData
	}
	return json.Unmarshal(data, out)
}
