package indexer

import (
	"context"
	"fmt"
)

// PageSize is the number of exchanges requested per page.
const PageSize = 1000

// Role selects which counterparty column a directional exchange query filters on.
type Role string

const (
	RoleInitializer Role = "initializer"
	RoleTaker       Role = "taker"
)

// ExchangeNode is a marketplace exchange as returned by the indexer.
// Numeric values are decimal strings; Side is relative to the initializer.
type ExchangeNode struct {
	Asset            string `json:"asset"`
	Amount           string `json:"amount"`
	Pair             string `json:"pair"`
	Price            string `json:"price"`
	Side             string `json:"side"`
	Fee              string `json:"fee"`
	Timestamp        string `json:"timestamp"`
	OrderInitializer string `json:"orderInitializer"`
	OrderTaker       string `json:"orderTaker"`
	InstructionIndex int    `json:"instructionIndex"`
}

// PageInfo is the relay-style cursor block of a connection.
type PageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

// ExchangePage is one page of a directional exchange query.
type ExchangePage struct {
	Nodes    []ExchangeNode `json:"nodes"`
	PageInfo PageInfo       `json:"pageInfo"`
}

// ExchangesPage fetches one page of exchanges where wallet holds the given role,
// newest first. An empty after starts from the first page.
func (c *Client) ExchangesPage(ctx context.Context, role Role, wallet, after string) (*ExchangePage, error) {
	var query string
	switch role {
	case RoleInitializer:
		query = exchangesByInitializerQuery
	case RoleTaker:
		query = exchangesByTakerQuery
	default:
		return nil, fmt.Errorf("unknown exchange role %q", role)
	}

	vars := map[string]any{"wallet": wallet, "first": PageSize}
	if after != "" {
		vars["after"] = after
	}

	var out struct {
		AllStarAtlasExchanges *ExchangePage `json:"allStarAtlasExchanges"`
	}
	if err := c.Query(ctx, query, vars, &out); err != nil {
		return nil, fmt.Errorf("fetch exchanges as %s: %w", role, err)
	}
	if out.AllStarAtlasExchanges == nil {
		return nil, fmt.Errorf("fetch exchanges as %s: %w", role, ErrNoData)
	}
	return out.AllStarAtlasExchanges, nil
}
