package indexer

import (
	"context"
	"fmt"
)

// ProposalRef is the proposal summary embedded in a wallet vote.
type ProposalRef struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	PipNumber string `json:"pipNumber"`
}

// VoteNode is a full governance vote record.
type VoteNode struct {
	ID              string       `json:"id"`
	WalletPublicKey string       `json:"walletPublicKey"`
	CreatedAt       string       `json:"createdAt"`
	ProposalID      string       `json:"proposalId"`
	ProposalHash    string       `json:"proposalHash"`
	VoteResult      string       `json:"voteResult"`
	VotingPower     string       `json:"votingPower"`
	Message         string       `json:"message"`
	Signature       string       `json:"signature"`
	Proposal        *ProposalRef `json:"starAtlasProposalByProposalId"`
}

// VotePage is one page of a wallet's votes.
type VotePage struct {
	TotalCount int        `json:"totalCount"`
	PageInfo   PageInfo   `json:"pageInfo"`
	Nodes      []VoteNode `json:"nodes"`
}

// ProposalVoteNode is the reduced vote shape used by per-proposal queries.
type ProposalVoteNode struct {
	VoteResult      string `json:"voteResult"`
	VotingPower     string `json:"votingPower"`
	WalletPublicKey string `json:"walletPublicKey"`
	CreatedAt       string `json:"createdAt"`
}

// ProposalNode is a governance proposal.
type ProposalNode struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	PipNumber    string `json:"pipNumber"`
	ProposalHash string `json:"proposalHash"`
	CreatedAt    string `json:"createdAt"`
}

// ProposalWithVotesNode is a proposal with its votes embedded.
type ProposalWithVotesNode struct {
	ProposalNode
	Votes struct {
		Nodes []ProposalVoteNode `json:"nodes"`
	} `json:"starAtlasProposalVotesByProposalId"`
}

// VotesByWallet fetches one page of votes cast by wallet, newest first.
func (c *Client) VotesByWallet(ctx context.Context, wallet string, first int, after string) (*VotePage, error) {
	vars := map[string]any{"wallet": wallet, "first": first}
	if after != "" {
		vars["after"] = after
	}
	var out struct {
		Votes *VotePage `json:"allStarAtlasProposalVotes"`
	}
	if err := c.Query(ctx, votesByWalletQuery, vars, &out); err != nil {
		return nil, fmt.Errorf("fetch votes for wallet: %w", err)
	}
	if out.Votes == nil {
		return nil, fmt.Errorf("fetch votes for wallet: %w", ErrNoData)
	}
	return out.Votes, nil
}

// VotesByProposal fetches every vote recorded for a proposal.
func (c *Client) VotesByProposal(ctx context.Context, proposalID string) ([]ProposalVoteNode, error) {
	var out struct {
		Votes *struct {
			Nodes []ProposalVoteNode `json:"nodes"`
		} `json:"allStarAtlasProposalVotes"`
	}
	if err := c.Query(ctx, votesByProposalQuery, map[string]any{"proposalId": proposalID}, &out); err != nil {
		return nil, fmt.Errorf("fetch votes for proposal %s: %w", proposalID, err)
	}
	if out.Votes == nil {
		return nil, fmt.Errorf("fetch votes for proposal %s: %w", proposalID, ErrNoData)
	}
	return out.Votes.Nodes, nil
}

// ProposalByID looks a proposal up. A nil proposal with a nil error means it does not exist.
func (c *Client) ProposalByID(ctx context.Context, id string) (*ProposalNode, error) {
	var out struct {
		Proposal *ProposalNode `json:"starAtlasProposalById"`
	}
	if err := c.Query(ctx, proposalByIDQuery, map[string]any{"id": id}, &out); err != nil {
		return nil, fmt.Errorf("fetch proposal %s: %w", id, err)
	}
	return out.Proposal, nil
}

// ProposalsWithVotes fetches every proposal with its votes in one round trip.
func (c *Client) ProposalsWithVotes(ctx context.Context) ([]ProposalWithVotesNode, error) {
	var out struct {
		Proposals *struct {
			Nodes []ProposalWithVotesNode `json:"nodes"`
		} `json:"allStarAtlasProposals"`
	}
	if err := c.Query(ctx, proposalsWithVotesQuery, nil, &out); err != nil {
		return nil, fmt.Errorf("fetch proposals with votes: %w", err)
	}
	if out.Proposals == nil {
		return nil, fmt.Errorf("fetch proposals with votes: %w", ErrNoData)
	}
	return out.Proposals.Nodes, nil
}
