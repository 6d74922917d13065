package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/rogue-datahub/atlasx/pkg/transport"
)

// DefaultCoinGeckoURL is the public CoinGecko API base.
const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// MaxChartDays is the longest history CoinGecko serves on the free tier.
const MaxChartDays = 365

// Symbol is a game token ticker.
type Symbol string

const (
	ATLAS Symbol = "ATLAS"
	POLIS Symbol = "POLIS"
)

var coinIDs = map[Symbol]string{
	ATLAS: "star-atlas",
	POLIS: "star-atlas-dao",
}

// ParseSymbol accepts a ticker in any case.
func ParseSymbol(s string) (Symbol, error) {
	sym := Symbol(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := coinIDs[sym]; !ok {
		return "", fmt.Errorf("unknown token symbol: %s", s)
	}
	return sym, nil
}

// PricePoint is one sample of a market chart series.
type PricePoint struct {
	At    time.Time
	Value float64
}

// UnmarshalJSON decodes the [timestampMs, value] tuple CoinGecko uses.
func (p *PricePoint) UnmarshalJSON(b []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("price point: %w", err)
	}
	p.At = time.UnixMilli(int64(pair[0]))
	p.Value = pair[1]
	return nil
}

// MarshalJSON keeps the tuple form.
func (p PricePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{float64(p.At.UnixMilli()), p.Value})
}

// MarketChart holds the historical series of a token.
type MarketChart struct {
	Prices       []PricePoint `json:"prices"`
	MarketCaps   []PricePoint `json:"market_caps"`
	TotalVolumes []PricePoint `json:"total_volumes"`
}

// MarketData is the current snapshot of a token.
type MarketData struct {
	ID                           string   `json:"id"`
	Symbol                       string   `json:"symbol"`
	Name                         string   `json:"name"`
	Image                        string   `json:"image"`
	CurrentPrice                 float64  `json:"current_price"`
	MarketCap                    float64  `json:"market_cap"`
	MarketCapRank                int      `json:"market_cap_rank"`
	FullyDilutedValuation        float64  `json:"fully_diluted_valuation"`
	TotalVolume                  float64  `json:"total_volume"`
	High24h                      float64  `json:"high_24h"`
	Low24h                       float64  `json:"low_24h"`
	PriceChange24h               float64  `json:"price_change_24h"`
	PriceChangePercentage24h     float64  `json:"price_change_percentage_24h"`
	MarketCapChange24h           float64  `json:"market_cap_change_24h"`
	MarketCapChangePercentage24h float64  `json:"market_cap_change_percentage_24h"`
	CirculatingSupply            float64  `json:"circulating_supply"`
	TotalSupply                  float64  `json:"total_supply"`
	MaxSupply                    *float64 `json:"max_supply"`
	ATH                          float64  `json:"ath"`
	ATHChangePercentage          float64  `json:"ath_change_percentage"`
	ATHDate                      string   `json:"ath_date"`
	ATL                          float64  `json:"atl"`
	ATLChangePercentage          float64  `json:"atl_change_percentage"`
	ATLDate                      string   `json:"atl_date"`
	LastUpdated                  string   `json:"last_updated"`
}

// coinResponse is the subset of /coins/{id} that feeds MarketData.
// Most market fields are keyed by currency.
type coinResponse struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Image  struct {
		Large string `json:"large"`
		Small string `json:"small"`
	} `json:"image"`
	MarketData struct {
		CurrentPrice                 map[string]float64 `json:"current_price"`
		MarketCap                    map[string]float64 `json:"market_cap"`
		MarketCapRank                int                `json:"market_cap_rank"`
		FullyDilutedValuation        map[string]float64 `json:"fully_diluted_valuation"`
		TotalVolume                  map[string]float64 `json:"total_volume"`
		High24h                      map[string]float64 `json:"high_24h"`
		Low24h                       map[string]float64 `json:"low_24h"`
		PriceChange24h               float64            `json:"price_change_24h"`
		PriceChangePercentage24h     float64            `json:"price_change_percentage_24h"`
		MarketCapChange24h           float64            `json:"market_cap_change_24h"`
		MarketCapChangePercentage24h float64            `json:"market_cap_change_percentage_24h"`
		CirculatingSupply            float64            `json:"circulating_supply"`
		TotalSupply                  float64            `json:"total_supply"`
		MaxSupply                    *float64           `json:"max_supply"`
		ATH                          map[string]float64 `json:"ath"`
		ATHChangePercentage          map[string]float64 `json:"ath_change_percentage"`
		ATHDate                      map[string]string  `json:"ath_date"`
		ATL                          map[string]float64 `json:"atl"`
		ATLChangePercentage          map[string]float64 `json:"atl_change_percentage"`
		ATLDate                      map[string]string  `json:"atl_date"`
	} `json:"market_data"`
	LastUpdated string `json:"last_updated"`
}

// CoinGecko is the price oracle adapter.
type CoinGecko struct {
	http *transport.HTTPClient
}

// NewCoinGecko wraps a transport pointed at a CoinGecko base URL.
func NewCoinGecko(http *transport.HTTPClient) *CoinGecko {
	return &CoinGecko{http: http}
}

// MarketChart fetches up to days of history against vsCurrency. Days are clamped to [1, MaxChartDays].
func (c *CoinGecko) MarketChart(ctx context.Context, sym Symbol, vsCurrency string, days int) (*MarketChart, error) {
	coinID, ok := coinIDs[sym]
	if !ok {
		return nil, fmt.Errorf("unknown token symbol: %s", sym)
	}
	if vsCurrency == "" {
		vsCurrency = "usd"
	}
	days = min(max(days, 1), MaxChartDays)

	q := url.Values{}
	q.Set("vs_currency", vsCurrency)
	q.Set("days", strconv.Itoa(days))

	var out MarketChart
	if err := c.http.GetJSON(ctx, "/coins/"+coinID+"/market_chart", q, &out); err != nil {
		return nil, fmt.Errorf("fetch market chart for %s: %w", sym, err)
	}
	return &out, nil
}

// MarketData fetches the current USD snapshot of a token.
func (c *CoinGecko) MarketData(ctx context.Context, sym Symbol) (*MarketData, error) {
	coinID, ok := coinIDs[sym]
	if !ok {
		return nil, fmt.Errorf("unknown token symbol: %s", sym)
	}
	q := url.Values{}
	q.Set("localization", "false")
	q.Set("tickers", "false")
	q.Set("market_data", "true")
	q.Set("community_data", "false")
	q.Set("developer_data", "false")
	q.Set("sparkline", "false")

	var raw coinResponse
	if err := c.http.GetJSON(ctx, "/coins/"+coinID, q, &raw); err != nil {
		return nil, fmt.Errorf("fetch market data for %s: %w", sym, err)
	}

	md := raw.MarketData
	image := raw.Image.Large
	if image == "" {
		image = raw.Image.Small
	}
	return &MarketData{
		ID:                           raw.ID,
		Symbol:                       raw.Symbol,
		Name:                         raw.Name,
		Image:                        image,
		CurrentPrice:                 md.CurrentPrice["usd"],
		MarketCap:                    md.MarketCap["usd"],
		MarketCapRank:                md.MarketCapRank,
		FullyDilutedValuation:        md.FullyDilutedValuation["usd"],
		TotalVolume:                  md.TotalVolume["usd"],
		High24h:                      md.High24h["usd"],
		Low24h:                       md.Low24h["usd"],
		PriceChange24h:               md.PriceChange24h,
		PriceChangePercentage24h:     md.PriceChangePercentage24h,
		MarketCapChange24h:           md.MarketCapChange24h,
		MarketCapChangePercentage24h: md.MarketCapChangePercentage24h,
		CirculatingSupply:            md.CirculatingSupply,
		TotalSupply:                  md.TotalSupply,
		MaxSupply:                    md.MaxSupply,
		ATH:                          md.ATH["usd"],
		ATHChangePercentage:          md.ATHChangePercentage["usd"],
		ATHDate:                      md.ATHDate["usd"],
		ATL:                          md.ATL["usd"],
		ATLChangePercentage:          md.ATLChangePercentage["usd"],
		ATLDate:                      md.ATLDate["usd"],
		LastUpdated:                  raw.LastUpdated,
	}, nil
}

// BothMarketCharts fetches ATLAS and POLIS history concurrently.
func (c *CoinGecko) BothMarketCharts(ctx context.Context, days int) (atlas, polis *MarketChart, err error) {
	pool := pond.NewPool(2)
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)
	gctx := group.Context()
	group.SubmitErr(func() error {
		var e error
		atlas, e = c.MarketChart(gctx, ATLAS, "usd", days)
		return e
	})
	group.SubmitErr(func() error {
		var e error
		polis, e = c.MarketChart(gctx, POLIS, "usd", days)
		return e
	})
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}
	return atlas, polis, nil
}

// BothMarketData fetches ATLAS and POLIS snapshots concurrently.
func (c *CoinGecko) BothMarketData(ctx context.Context) (atlas, polis *MarketData, err error) {
	pool := pond.NewPool(2)
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)
	gctx := group.Context()
	group.SubmitErr(func() error {
		var e error
		atlas, e = c.MarketData(gctx, ATLAS)
		return e
	})
	group.SubmitErr(func() error {
		var e error
		polis, e = c.MarketData(gctx, POLIS)
		return e
	})
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}
	return atlas, polis, nil
}
