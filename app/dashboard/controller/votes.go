package controller

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/rogue-datahub/atlasx/pkg/format"
	"github.com/rogue-datahub/atlasx/pkg/governance"
	"github.com/rogue-datahub/atlasx/pkg/state"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type votesRequest struct {
	Wallet string `json:"wallet"`
}

// voteRow is a vote with its display strings.
type voteRow struct {
	governance.Vote
	Display voteDisplay `json:"display"`
}

type voteDisplay struct {
	Result string `json:"result"`
	Power  string `json:"power"`
	Date   string `json:"date"`
	Wallet string `json:"wallet"`
}

type votesResponse struct {
	state.Status
	HasData          bool            `json:"hasData"`
	TotalCount       int             `json:"totalCount"`
	TotalVotingPower decimal.Decimal `json:"totalVotingPower"`

	Data       []voteRow `json:"data"`
	Limit      int       `json:"limit"`
	Total      int       `json:"total"`
	NextCursor *uint64   `json:"next_cursor,omitempty"`
}

// HandleVotesFetch starts fetching a wallet's governance votes for the session.
// POST /sessions/{session}/votes {"wallet": "..."}
func (c *Controller) HandleVotesFetch(w http.ResponseWriter, r *http.Request) {
	session, err := sessionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var in votesRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	ctx := r.Context()
	wallet := strings.TrimSpace(in.Wallet)
	if err := validateWallet(wallet); err != nil {
		c.App.Votes.Reject(ctx, session, walletMessage(err))
		writeError(w, http.StatusBadRequest, walletMessage(err))
		return
	}

	requestID := c.App.Votes.Begin(ctx, session, wallet)
	st, _ := c.App.Votes.Get(session)

	c.background(func(ctx context.Context) {
		votes, err := c.App.Governance.VotesByWallet(ctx, wallet)
		if err != nil {
			c.App.Logger.Warn("vote fetch failed",
				zap.String("session", session),
				zap.String("wallet", wallet),
				zap.Error(err))
			c.App.Votes.Fail(ctx, session, requestID, err)
			return
		}
		c.App.Votes.Complete(ctx, session, requestID, votes)
	})

	writeJSON(w, http.StatusAccepted, st.Status)
}

// HandleVotes returns the session's votes, newest first.
// GET /sessions/{session}/votes?cursor=<offset>&limit=<n>&sort=<asc|desc>
func (c *Controller) HandleVotes(w http.ResponseWriter, r *http.Request) {
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

	st, ok := c.App.Votes.Get(session)
	if !ok {
		writeError(w, http.StatusNotFound, errUnknownSession.Error())
		return
	}

	out := votesResponse{
		Status:  st.Status,
		HasData: st.HasData,
		Data:    []voteRow{},
		Limit:   page.Limit,
	}
	if st.HasData && st.Data != nil {
		out.TotalCount = st.Data.TotalCount
		out.TotalVotingPower = st.Data.TotalVotingPower

		paged := paginate(st.Data.Votes, page)
		out.Data = make([]voteRow, 0, len(paged.Data))
		for _, v := range paged.Data {
			out.Data = append(out.Data, c.voteRow(v))
		}
		out.Total = paged.Total
		out.NextCursor = paged.NextCursor
	}

	writeJSON(w, http.StatusOK, out)
}

func (c *Controller) voteRow(v governance.Vote) voteRow {
	return voteRow{
		Vote: v,
		Display: voteDisplay{
			Result: format.VoteResult(v.VoteResult),
			Power:  format.VotingPower(v.Power().InexactFloat64()),
			Date:   format.Date(v.CreatedAt, c.App.Location),
			Wallet: format.Wallet(v.WalletPublicKey),
		},
	}
}

// HandleVotesClear drops the session's votes and orphans any fetch in flight.
// DELETE /sessions/{session}/votes
func (c *Controller) HandleVotesClear(w http.ResponseWriter, r *http.Request) {
	session, err := sessionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.App.Votes.Clear(r.Context(), session)
	w.WriteHeader(http.StatusNoContent)
}
