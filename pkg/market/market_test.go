package market_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rogue-datahub/atlasx/pkg/market"
	"github.com/rogue-datahub/atlasx/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransport(t *testing.T, h http.HandlerFunc) *transport.HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return transport.NewHTTPWithOpts(transport.Opts{
		Endpoints: []string{srv.URL},
		RPS:       1000,
		Burst:     1000,
	})
}

func TestParseSymbol(t *testing.T) {
	sym, err := market.ParseSymbol(" atlas ")
	require.NoError(t, err)
	assert.Equal(t, market.ATLAS, sym)

	sym, err = market.ParseSymbol("Polis")
	require.NoError(t, err)
	assert.Equal(t, market.POLIS, sym)

	_, err = market.ParseSymbol("SOL")
	require.Error(t, err)
}

func TestMarketChart_ClampsDaysAndDecodesTuples(t *testing.T) {
	var gotPath, gotDays, gotVs string
	hc := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotDays = r.URL.Query().Get("days")
		gotVs = r.URL.Query().Get("vs_currency")
		_, _ = w.Write([]byte(`{"prices":[[1704844800000,0.0021],[1704931200000,0.0025]],"market_caps":[[1704844800000,1000]],"total_volumes":[]}`))
	})

	chart, err := market.NewCoinGecko(hc).MarketChart(context.Background(), market.ATLAS, "", 900)
	require.NoError(t, err)

	assert.Equal(t, "/coins/star-atlas/market_chart", gotPath)
	assert.Equal(t, "365", gotDays)
	assert.Equal(t, "usd", gotVs)
	require.Len(t, chart.Prices, 2)
	assert.Equal(t, time.UnixMilli(1704844800000), chart.Prices[0].At)
	assert.InDelta(t, 0.0025, chart.Prices[1].Value, 1e-12)
	require.Len(t, chart.MarketCaps, 1)
	assert.Empty(t, chart.TotalVolumes)
}

func TestMarketChart_MinimumOneDay(t *testing.T) {
	var gotDays string
	hc := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
		gotDays = r.URL.Query().Get("days")
		_, _ = w.Write([]byte(`{"prices":[]}`))
	})

	_, err := market.NewCoinGecko(hc).MarketChart(context.Background(), market.POLIS, "usd", 0)
	require.NoError(t, err)
	assert.Equal(t, "1", gotDays)
}

func TestMarketData_MapsUSDFields(t *testing.T) {
	var query string
	hc := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/star-atlas-dao", r.URL.Path)
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`{
			"id":"star-atlas-dao","symbol":"polis","name":"Star Atlas DAO",
			"image":{"large":"https://img/large.png","small":"https://img/small.png"},
			"market_data":{
				"current_price":{"usd":0.12,"eur":0.11},
				"market_cap":{"usd":30000000},
				"market_cap_rank":900,
				"high_24h":{"usd":0.13},
				"low_24h":{"usd":0.1},
				"price_change_percentage_24h":-2.5,
				"circulating_supply":250000000,
				"max_supply":null,
				"ath":{"usd":9.6},
				"ath_date":{"usd":"2021-09-05T00:00:00Z"}
			},
			"last_updated":"2024-01-12T10:00:00Z"
		}`))
	})

	md, err := market.NewCoinGecko(hc).MarketData(context.Background(), market.POLIS)
	require.NoError(t, err)

	assert.Contains(t, query, "market_data=true")
	assert.Contains(t, query, "tickers=false")
	assert.Equal(t, "Star Atlas DAO", md.Name)
	assert.Equal(t, "https://img/large.png", md.Image)
	assert.InDelta(t, 0.12, md.CurrentPrice, 1e-12)
	assert.InDelta(t, 30000000, md.MarketCap, 1e-6)
	assert.Equal(t, 900, md.MarketCapRank)
	assert.InDelta(t, -2.5, md.PriceChangePercentage24h, 1e-12)
	assert.Nil(t, md.MaxSupply)
	assert.Equal(t, "2021-09-05T00:00:00Z", md.ATHDate)
	assert.Equal(t, "2024-01-12T10:00:00Z", md.LastUpdated)
}

func TestBothMarketCharts(t *testing.T) {
	var calls atomic.Int32
	hc := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if strings.Contains(r.URL.Path, "star-atlas-dao") {
			_, _ = w.Write([]byte(`{"prices":[[1,2]]}`))
			return
		}
		_, _ = w.Write([]byte(`{"prices":[[1,3],[2,4]]}`))
	})

	atlas, polis, err := market.NewCoinGecko(hc).BothMarketCharts(context.Background(), 30)
	require.NoError(t, err)
	assert.Len(t, atlas.Prices, 2)
	assert.Len(t, polis.Prices, 1)
	assert.EqualValues(t, 2, calls.Load())
}

func TestBothMarketData_OneFailureFailsBoth(t *testing.T) {
	hc := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "star-atlas-dao") {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"id":"star-atlas","market_data":{"current_price":{"usd":0.002}}}`))
	})

	atlas, polis, err := market.NewCoinGecko(hc).BothMarketData(context.Background())
	require.Error(t, err)
	assert.Nil(t, atlas)
	assert.Nil(t, polis)

	var se *transport.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
}

func TestOHLC_AcceptsBareArray(t *testing.T) {
	var got map[string]string
	hc := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/marketplace/ohlc", r.URL.Path)
		got = map[string]string{
			"symbol":     r.URL.Query().Get("symbol"),
			"timeframe":  r.URL.Query().Get("timeframe"),
			"start_date": r.URL.Query().Get("start_date"),
			"end_date":   r.URL.Query().Get("end_date"),
		}
		_, _ = w.Write([]byte(`[{"time":1704844800,"open":1,"high":2,"low":0.5,"close":1.5,"volume":10},{"time":"2024-01-11","open":1.5,"high":1.6,"low":1.4,"close":1.6}]`))
	})

	candles, err := market.NewDataHub(hc).HourlyOHLC(context.Background(), "ATLAS", "2024-01-10", "")
	require.NoError(t, err)

	assert.Equal(t, "ATLAS", got["symbol"])
	assert.Equal(t, "1h", got["timeframe"])
	assert.Equal(t, "2024-01-10", got["start_date"])
	assert.Empty(t, got["end_date"])

	require.Len(t, candles, 2)
	n, ok := candles[0].Time.Int()
	assert.True(t, ok)
	assert.EqualValues(t, 1704844800, n)
	require.NotNil(t, candles[0].Volume)
	assert.InDelta(t, 10, *candles[0].Volume, 1e-12)
	assert.Equal(t, market.Stamp("2024-01-11"), candles[1].Time)
	assert.Nil(t, candles[1].Volume)
}

func TestOHLC_AcceptsDataEnvelope(t *testing.T) {
	hc := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1d", r.URL.Query().Get("timeframe"))
		_, _ = w.Write([]byte(`{"symbol":"POLIS","timeframe":"1d","data":[{"time":1,"open":1,"high":1,"low":1,"close":1}]}`))
	})

	candles, err := market.NewDataHub(hc).OHLC(context.Background(), "POLIS", "", "", "")
	require.NoError(t, err)
	assert.Len(t, candles, 1)
}

func TestOHLC_RejectsUnexpectedShape(t *testing.T) {
	for name, body := range map[string]string{
		"object without data": `{"candles":[]}`,
		"data not a list":     `{"data":{"time":1}}`,
		"scalar":              `"nope"`,
	} {
		t.Run(name, func(t *testing.T) {
			hc := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := market.NewDataHub(hc).WeeklyOHLC(context.Background(), "ATLAS", "", "")
			require.Error(t, err)
			assert.ErrorIs(t, err, market.ErrUnexpectedFormat)
		})
	}
}

func TestOHLC_RequiresSymbol(t *testing.T) {
	_, err := market.NewDataHub(nil).OHLC(context.Background(), "", "1d", "", "")
	require.Error(t, err)
}
