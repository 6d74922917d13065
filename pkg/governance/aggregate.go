// Package governance aggregates proposal votes into ranked results.
package governance

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rogue-datahub/atlasx/pkg/indexer"
	"github.com/rogue-datahub/atlasx/pkg/utils"
	"github.com/shopspring/decimal"
)

// Placeholders used when a proposal cannot be looked up.
const (
	UnknownTitle = "Unknown Proposal"
	UnknownPip   = "N/A"
)

// Vote is one governance vote. VotingPower keeps the indexer's decimal string.
type Vote struct {
	ID              string               `json:"id"`
	WalletPublicKey string               `json:"walletPublicKey"`
	CreatedAt       time.Time            `json:"createdAt"`
	ProposalID      string               `json:"proposalId"`
	ProposalHash    string               `json:"proposalHash"`
	VoteResult      string               `json:"voteResult"`
	VotingPower     string               `json:"votingPower"`
	Message         string               `json:"message"`
	Signature       string               `json:"signature"`
	Proposal        *indexer.ProposalRef `json:"proposal,omitempty"`
}

// Power parses VotingPower; empty or malformed values count as zero.
func (v Vote) Power() decimal.Decimal {
	s := strings.TrimSpace(v.VotingPower)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Proposal identifies the proposal a result belongs to.
type Proposal struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	PipNumber string `json:"pipNumber"`
}

// ProposalResult is the ranked outcome of one proposal.
type ProposalResult struct {
	ProposalID       string          `json:"proposalId"`
	ProposalTitle    string          `json:"proposalTitle"`
	PipNumber        string          `json:"pipNumber"`
	TotalVotes       int             `json:"totalVotes"`
	TotalVotingPower decimal.Decimal `json:"totalVotingPower"`
	Votes            []Vote          `json:"votes"`
}

// parseTime reads createdAt; unreadable values sort as oldest.
func parseTime(s string, loc *time.Location) time.Time {
	t, err := utils.ParseTimestamp(s, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FromVoteNode converts a full wallet vote record.
func FromVoteNode(n indexer.VoteNode, loc *time.Location) Vote {
	return Vote{
		ID:              n.ID,
		WalletPublicKey: n.WalletPublicKey,
		CreatedAt:       parseTime(n.CreatedAt, loc),
		ProposalID:      n.ProposalID,
		ProposalHash:    n.ProposalHash,
		VoteResult:      n.VoteResult,
		VotingPower:     n.VotingPower,
		Message:         n.Message,
		Signature:       n.Signature,
		Proposal:        n.Proposal,
	}
}

// FromProposalVoteNode converts the reduced per-proposal vote shape.
func FromProposalVoteNode(proposalID string, n indexer.ProposalVoteNode, loc *time.Location) Vote {
	return Vote{
		WalletPublicKey: n.WalletPublicKey,
		CreatedAt:       parseTime(n.CreatedAt, loc),
		ProposalID:      proposalID,
		VoteResult:      n.VoteResult,
		VotingPower:     n.VotingPower,
	}
}

// LatestPerWallet keeps each wallet's newest vote. Wallets stay in first-seen order;
// on an exact createdAt tie the earlier record is kept.
func LatestPerWallet(votes []Vote) []Vote {
	out := make([]Vote, 0, len(votes))
	index := make(map[string]int, len(votes))
	for _, v := range votes {
		i, ok := index[v.WalletPublicKey]
		if !ok {
			index[v.WalletPublicKey] = len(out)
			out = append(out, v)
			continue
		}
		if v.CreatedAt.After(out[i].CreatedAt) {
			out[i] = v
		}
	}
	return out
}

// Aggregate ranks the latest vote of each wallet by voting power, highest first.
// Equal powers keep their order. Every vote gets the id "<proposal>-<wallet>-<rank>".
func Aggregate(p Proposal, votes []Vote) ProposalResult {
	latest := LatestPerWallet(votes)
	slices.SortStableFunc(latest, func(a, b Vote) int {
		return b.Power().Cmp(a.Power())
	})

	total := decimal.Zero
	for i := range latest {
		total = total.Add(latest[i].Power())
		latest[i].ID = p.ID + "-" + latest[i].WalletPublicKey + "-" + strconv.Itoa(i)
		latest[i].ProposalID = p.ID
	}

	return ProposalResult{
		ProposalID:       p.ID,
		ProposalTitle:    p.Title,
		PipNumber:        p.PipNumber,
		TotalVotes:       len(latest),
		TotalVotingPower: total,
		Votes:            latest,
	}
}

// TotalPower sums voting power without de-duplication.
func TotalPower(votes []Vote) decimal.Decimal {
	total := decimal.Zero
	for _, v := range votes {
		total = total.Add(v.Power())
	}
	return total
}
