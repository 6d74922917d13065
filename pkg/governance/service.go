package governance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rogue-datahub/atlasx/pkg/indexer"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WalletPageSize is the page size of the votes-by-wallet query.
const WalletPageSize = 100

var ErrProposalNotFound = errors.New("proposal not found")

// Source is the subset of the indexer the vote service reads.
type Source interface {
	ProposalByID(ctx context.Context, id string) (*indexer.ProposalNode, error)
	VotesByProposal(ctx context.Context, proposalID string) ([]indexer.ProposalVoteNode, error)
	ProposalsWithVotes(ctx context.Context) ([]indexer.ProposalWithVotesNode, error)
	VotesByWallet(ctx context.Context, wallet string, first int, after string) (*indexer.VotePage, error)
}

// WalletVotes are the votes one wallet cast, newest first.
type WalletVotes struct {
	Wallet           string          `json:"wallet"`
	TotalCount       int             `json:"totalCount"`
	TotalVotingPower decimal.Decimal `json:"totalVotingPower"`
	Votes            []Vote          `json:"votes"`
}

// bulkCall is one fetch of every proposal with its votes, shared by concurrent callers.
type bulkCall struct {
	done      chan struct{}
	proposals []indexer.ProposalWithVotesNode
	err       error
}

// Service answers vote queries. The bulk proposal list is fetched once and reused
// until Invalidate.
type Service struct {
	source   Source
	logger   *zap.Logger
	loc      *time.Location
	maxPages int

	mu   sync.Mutex
	bulk *bulkCall
}

func NewService(source Source, logger *zap.Logger, loc *time.Location) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{source: source, logger: logger, loc: loc, maxPages: 100}
}

// ResultsByProposal queries one proposal's votes directly. Missing title or pip are looked
// up; a failed lookup falls back to placeholders instead of failing the call.
func (s *Service) ResultsByProposal(ctx context.Context, proposalID, title, pip string) (*ProposalResult, error) {
	p := Proposal{ID: proposalID, Title: title, PipNumber: pip}
	if p.Title == "" {
		p.Title = UnknownTitle
	}
	if p.PipNumber == "" {
		p.PipNumber = UnknownPip
	}

	if title == "" || pip == "" {
		node, err := s.source.ProposalByID(ctx, proposalID)
		switch {
		case err != nil:
			s.logger.Debug("proposal lookup failed, using placeholders",
				zap.String("proposal_id", proposalID),
				zap.Error(err),
			)
		case node != nil:
			p.Title = node.Title
			p.PipNumber = node.PipNumber
		}
	}

	nodes, err := s.source.VotesByProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	votes := make([]Vote, 0, len(nodes))
	for _, n := range nodes {
		votes = append(votes, FromProposalVoteNode(proposalID, n, s.loc))
	}
	result := Aggregate(p, votes)
	return &result, nil
}

// ResultsFromBulk answers from the shared all-proposals fetch.
func (s *Service) ResultsFromBulk(ctx context.Context, proposalID string) (*ProposalResult, error) {
	proposals, err := s.bulkProposals(ctx)
	if err != nil {
		return nil, err
	}
	for _, node := range proposals {
		if node.ID == proposalID {
			result := s.aggregateNode(node)
			return &result, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProposalNotFound, proposalID)
}

// AllResults aggregates every proposal of the bulk fetch, in indexer order.
func (s *Service) AllResults(ctx context.Context) ([]ProposalResult, error) {
	proposals, err := s.bulkProposals(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProposalResult, 0, len(proposals))
	for _, node := range proposals {
		out = append(out, s.aggregateNode(node))
	}
	return out, nil
}

// Invalidate drops the cached bulk fetch; the next bulk lookup refetches.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.bulk = nil
	s.mu.Unlock()
}

func (s *Service) aggregateNode(node indexer.ProposalWithVotesNode) ProposalResult {
	p := Proposal{ID: node.ID, Title: node.Title, PipNumber: node.PipNumber}
	if p.Title == "" {
		p.Title = UnknownTitle
	}
	if p.PipNumber == "" {
		p.PipNumber = UnknownPip
	}
	votes := make([]Vote, 0, len(node.Votes.Nodes))
	for _, n := range node.Votes.Nodes {
		votes = append(votes, FromProposalVoteNode(node.ID, n, s.loc))
	}
	return Aggregate(p, votes)
}

// bulkProposals joins an in-flight fetch or starts one. Failed fetches are not kept.
func (s *Service) bulkProposals(ctx context.Context) ([]indexer.ProposalWithVotesNode, error) {
	s.mu.Lock()
	call := s.bulk
	if call == nil {
		call = &bulkCall{done: make(chan struct{})}
		s.bulk = call
		s.mu.Unlock()

		call.proposals, call.err = s.source.ProposalsWithVotes(ctx)
		if call.err != nil {
			s.mu.Lock()
			if s.bulk == call {
				s.bulk = nil
			}
			s.mu.Unlock()
		} else {
			s.logger.Debug("bulk proposals loaded", zap.Int("proposals", len(call.proposals)))
		}
		close(call.done)
		return call.proposals, call.err
	}
	s.mu.Unlock()

	select {
	case <-call.done:
		return call.proposals, call.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// VotesByWallet pages through every vote a wallet cast, WalletPageSize at a time.
// TotalVotingPower is the plain sum over all returned votes.
func (s *Service) VotesByWallet(ctx context.Context, wallet string) (*WalletVotes, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, indexer.ErrWalletRequired
	}

	out := &WalletVotes{Wallet: wallet, Votes: make([]Vote, 0)}
	cursor := ""
	for page := 0; page < s.maxPages; page++ {
		resp, err := s.source.VotesByWallet(ctx, wallet, WalletPageSize, cursor)
		if err != nil {
			return nil, err
		}
		out.TotalCount = resp.TotalCount
		for _, n := range resp.Nodes {
			out.Votes = append(out.Votes, FromVoteNode(n, s.loc))
		}
		if !resp.PageInfo.HasNextPage || resp.PageInfo.EndCursor == nil || *resp.PageInfo.EndCursor == "" {
			break
		}
		cursor = *resp.PageInfo.EndCursor
	}

	out.TotalVotingPower = TotalPower(out.Votes)
	return out, nil
}
