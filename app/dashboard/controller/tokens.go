package controller

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rogue-datahub/atlasx/pkg/market"
)

// HandleTokenMarket returns CoinGecko market data for ATLAS or POLIS.
// GET /tokens/{symbol}/market
func (c *Controller) HandleTokenMarket(w http.ResponseWriter, r *http.Request) {
	sym, err := market.ParseSymbol(mux.Vars(r)["symbol"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := c.App.CoinGecko.MarketData(r.Context(), sym)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// HandleBothMarkets returns market data for both tokens.
// GET /tokens/market
func (c *Controller) HandleBothMarkets(w http.ResponseWriter, r *http.Request) {
	atlas, polis, err := c.App.CoinGecko.BothMarketData(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*market.MarketData{
		"atlas": atlas,
		"polis": polis,
	})
}

// HandleTokenChart returns price, market cap and volume series.
// GET /tokens/{symbol}/chart?days=<1..365>&vs=<currency>
func (c *Controller) HandleTokenChart(w http.ResponseWriter, r *http.Request) {
	sym, err := market.ParseSymbol(mux.Vars(r)["symbol"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	qs := r.URL.Query()
	days := 30
	if v := qs.Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid days")
			return
		}
		days = n
	}

	chart, err := c.App.CoinGecko.MarketChart(r.Context(), sym, qs.Get("vs"), days)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

// HandleTokenInfo returns Galaxy's token metadata.
// GET /tokens/{symbol}/info
func (c *Controller) HandleTokenInfo(w http.ResponseWriter, r *http.Request) {
	sym, err := market.ParseSymbol(mux.Vars(r)["symbol"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := c.App.Galaxy.TokenInfo(r.Context(), string(sym))
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleOHLC returns marketplace candles from Rogue DataHub.
// GET /ohlc/{symbol}?timeframe=<1h|1d|1w>&start=<date>&end=<date>
func (c *Controller) HandleOHLC(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	qs := r.URL.Query()

	timeframe := qs.Get("timeframe")
	switch timeframe {
	case "", market.Daily, market.Hourly, market.Weekly:
	default:
		writeError(w, http.StatusBadRequest, "invalid timeframe, must be one of 1h, 1d, 1w")
		return
	}

	candles, err := c.App.DataHub.OHLC(r.Context(), symbol, timeframe, qs.Get("start"), qs.Get("end"))
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candles)
}
