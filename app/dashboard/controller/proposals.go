package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rogue-datahub/atlasx/pkg/format"
	"github.com/rogue-datahub/atlasx/pkg/governance"
)

type proposalResponse struct {
	governance.ProposalResult
	Display proposalDisplay `json:"display"`
}

type proposalDisplay struct {
	TotalVotingPower string        `json:"totalVotingPower"`
	Votes            []voteDisplay `json:"votes"`
}

func (c *Controller) proposalResponse(res governance.ProposalResult) proposalResponse {
	out := proposalResponse{
		ProposalResult: res,
		Display: proposalDisplay{
			TotalVotingPower: format.VotingPower(res.TotalVotingPower.InexactFloat64()),
			Votes:            make([]voteDisplay, 0, len(res.Votes)),
		},
	}
	for _, v := range res.Votes {
		out.Display.Votes = append(out.Display.Votes, c.voteRow(v).Display)
	}
	return out
}

// HandleProposalResults returns one proposal's ranked votes.
// GET /proposals/{id}/results?source=<bulk|direct>&title=<t>&pip=<n>
// The bulk source answers from the shared all-proposals fetch; direct queries the
// proposal's votes and uses title and pip when given.
func (c *Controller) HandleProposalResults(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing proposal id")
		return
	}

	qs := r.URL.Query()
	var (
		res *governance.ProposalResult
		err error
	)
	switch qs.Get("source") {
	case "", "bulk":
		res, err = c.App.Governance.ResultsFromBulk(r.Context(), id)
	case "direct":
		res, err = c.App.Governance.ResultsByProposal(r.Context(), id, qs.Get("title"), qs.Get("pip"))
	default:
		writeError(w, http.StatusBadRequest, "invalid source, must be 'bulk' or 'direct'")
		return
	}
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c.proposalResponse(*res))
}

// HandleAllProposalResults returns every proposal with its ranked votes, in indexer order.
// GET /proposals/results?cursor=<offset>&limit=<n>
func (c *Controller) HandleAllProposalResults(w http.ResponseWriter, r *http.Request) {
	page, err := parsePageSpec(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := c.App.Governance.AllResults(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	paged := paginate(results, page)
	data := make([]proposalResponse, 0, len(paged.Data))
	for _, res := range paged.Data {
		data = append(data, c.proposalResponse(res))
	}
	writeJSON(w, http.StatusOK, pagedResponse[proposalResponse]{
		Data:       data,
		Limit:      paged.Limit,
		Total:      paged.Total,
		NextCursor: paged.NextCursor,
	})
}
