package controller

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/rogue-datahub/atlasx/app/dashboard/types"
	"github.com/rogue-datahub/atlasx/pkg/format"
	"github.com/rogue-datahub/atlasx/pkg/marketplace"
	"github.com/rogue-datahub/atlasx/pkg/state"
	"go.uber.org/zap"
)

type exchangesRequest struct {
	Wallet    string `json:"wallet"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type exchangesResponse struct {
	state.Status
	HasData bool         `json:"hasData"`
	Window  types.Window `json:"window"`
	// DataWallet is the wallet the rows were fetched for and are decoded against.
	DataWallet string `json:"dataWallet,omitempty"`
	Metrics *metricsView `json:"metrics,omitempty"`

	Data       []marketplace.Row `json:"data"`
	Limit      int               `json:"limit"`
	Total      int               `json:"total"`
	NextCursor *uint64           `json:"next_cursor,omitempty"`
}

type metricsView struct {
	marketplace.Metrics
	Display metricsDisplay `json:"display"`
}

type metricsDisplay struct {
	TotalVolume    string `json:"totalVolume"`
	Profit         string `json:"profit"`
	TotalFees      string `json:"totalFees"`
	TotalVolumeUSD string `json:"totalVolumeUsd"`
	ProfitUSD      string `json:"profitUsd"`
}

func newMetricsView(m marketplace.Metrics) *metricsView {
	return &metricsView{
		Metrics: m,
		Display: metricsDisplay{
			TotalVolume:    format.Currency(m.TotalVolume.InexactFloat64(), "ATLAS"),
			Profit:         format.Currency(m.Profit.InexactFloat64(), "ATLAS"),
			TotalFees:      format.Currency(m.TotalFees.InexactFloat64(), "ATLAS"),
			TotalVolumeUSD: format.USD(m.TotalVolumeUSD.InexactFloat64()),
			ProfitUSD:      format.USD(m.ProfitUSD.InexactFloat64()),
		},
	}
}

// HandleExchangesFetch starts fetching a wallet's exchanges for the session.
// POST /sessions/{session}/exchanges {"wallet": "...", "startDate": "2024-01-10", "endDate": ""}
// Responds 202 with the loading status; the result is read with GET once the
// exchanges.updated event arrives.
func (c *Controller) HandleExchangesFetch(w http.ResponseWriter, r *http.Request) {
	session, err := sessionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var in exchangesRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	ctx := r.Context()
	wallet := strings.TrimSpace(in.Wallet)
	if err := validateWallet(wallet); err != nil {
		c.App.Exchanges.Reject(ctx, session, walletMessage(err))
		writeError(w, http.StatusBadRequest, walletMessage(err))
		return
	}

	window, err := marketplace.NewDateWindow(in.StartDate, in.EndDate, c.App.Location)
	if err != nil {
		c.App.Exchanges.Reject(ctx, session, err.Error())
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	requestID := c.App.Exchanges.Begin(ctx, session, wallet)
	st, _ := c.App.Exchanges.Get(session)

	echo := types.Window{StartDate: in.StartDate, EndDate: in.EndDate}
	c.background(func(ctx context.Context) {
		c.fetchExchanges(ctx, session, requestID, wallet, window, echo)
	})

	writeJSON(w, http.StatusAccepted, st.Status)
}

func (c *Controller) fetchExchanges(ctx context.Context, session, requestID, wallet string, window marketplace.DateWindow, echo types.Window) {
	// Names and prices are needed to render the result; load them alongside.
	c.App.Assets.Ensure(ctx)

	exchanges, err := c.App.Fetcher.FetchByWallet(ctx, wallet, window)
	if err != nil {
		c.App.Logger.Warn("exchange fetch failed",
			zap.String("session", session),
			zap.String("wallet", wallet),
			zap.Error(err))
		c.App.Exchanges.Fail(ctx, session, requestID, err)
		return
	}

	if !c.App.Exchanges.Complete(ctx, session, requestID, types.ExchangeSet{Wallet: wallet, Window: echo, Exchanges: exchanges}) {
		return
	}
	c.App.Logger.Debug("exchange fetch completed",
		zap.String("session", session),
		zap.Int("count", len(exchanges)))
}

// HandleExchanges returns the session's exchanges decorated for its wallet, with metrics.
// GET /sessions/{session}/exchanges?cursor=<offset>&limit=<n>&sort=<asc|desc>
func (c *Controller) HandleExchanges(w http.ResponseWriter, r *http.Request) {
	session, err := sessionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := parsePageSpec(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, ok := c.App.Exchanges.Get(session)
	if !ok {
		writeError(w, http.StatusNotFound, errUnknownSession.Error())
		return
	}

	out := exchangesResponse{
		Status:  st.Status,
		HasData: st.HasData,
		Window:     st.Data.Window,
		DataWallet: st.Data.Wallet,
		Data:       []marketplace.Row{},
		Limit:      page.Limit,
	}
	if st.HasData {
		catalog := c.App.Assets.Current()
		out.Metrics = newMetricsView(marketplace.Summarize(st.Data.Exchanges, st.Data.Wallet, catalog.Normalizer()))

		paged := paginate(st.Data.Exchanges, page)
		out.Data = marketplace.Decorate(paged.Data, st.Data.Wallet, catalog.Normalizer(), catalog.Resolver())
		out.Total = paged.Total
		out.NextCursor = paged.NextCursor
	}

	writeJSON(w, http.StatusOK, out)
}

// HandleExchangesClear drops the session's exchanges and orphans any fetch in flight.
// DELETE /sessions/{session}/exchanges
func (c *Controller) HandleExchangesClear(w http.ResponseWriter, r *http.Request) {
	session, err := sessionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.App.Exchanges.Clear(r.Context(), session)
	w.WriteHeader(http.StatusNoContent)
}
