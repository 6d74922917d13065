package galaxy

import (
	"context"
	"fmt"
	"strings"

	"github.com/rogue-datahub/atlasx/pkg/transport"
)

// DefaultURL is the public Galaxy API base.
const DefaultURL = "https://galaxy.staratlas.com"

// Client reads the Galaxy NFT catalog and token info.
type Client struct {
	http *transport.HTTPClient
}

func NewClient(http *transport.HTTPClient) *Client {
	return &Client{http: http}
}

// AllNFTs fetches the whole catalog.
func (c *Client) AllNFTs(ctx context.Context) ([]NFT, error) {
	var out []NFT
	if err := c.http.GetJSON(ctx, "/nfts", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch nfts: %w", err)
	}
	return out, nil
}

// NFTByMint returns nil when no entry has that mint.
func (c *Client) NFTByMint(ctx context.Context, mint string) (*NFT, error) {
	all, err := c.AllNFTs(ctx)
	if err != nil {
		return nil, err
	}
	return FindByMint(all, mint), nil
}

// NFTBySymbol returns nil when no entry has that symbol.
func (c *Client) NFTBySymbol(ctx context.Context, symbol string) (*NFT, error) {
	all, err := c.AllNFTs(ctx)
	if err != nil {
		return nil, err
	}
	return FindBySymbol(all, symbol), nil
}

// NFTsByCategory lists entries such as "ship", "resource" or "access".
func (c *Client) NFTsByCategory(ctx context.Context, category string) ([]NFT, error) {
	all, err := c.AllNFTs(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByCategory(all, category), nil
}

func (c *Client) NFTsByItemType(ctx context.Context, itemType string) ([]NFT, error) {
	all, err := c.AllNFTs(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByItemType(all, itemType), nil
}

// TokenInfo fetches /tokens/{symbol}; symbol is lower-cased ("atlas", "polis").
func (c *Client) TokenInfo(ctx context.Context, symbol string) (*TokenInfo, error) {
	symbol = strings.ToLower(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("token symbol is required")
	}
	var out TokenInfo
	if err := c.http.GetJSON(ctx, "/tokens/"+symbol, nil, &out); err != nil {
		return nil, fmt.Errorf("fetch %s token info: %w", strings.ToUpper(symbol), err)
	}
	return &out, nil
}
