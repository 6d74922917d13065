package governance_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rogue-datahub/atlasx/pkg/governance"
	"github.com/rogue-datahub/atlasx/pkg/indexer"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeSource struct {
	proposal    *indexer.ProposalNode
	proposalErr error
	votes       map[string][]indexer.ProposalVoteNode
	votesErr    error
	bulk        []indexer.ProposalWithVotesNode
	bulkErr     error
	bulkCalls   atomic.Int32
	bulkGate    chan struct{}
	walletPages map[string]*indexer.VotePage
	walletCalls []string
	mu          sync.Mutex
}

func (f *fakeSource) ProposalByID(context.Context, string) (*indexer.ProposalNode, error) {
	return f.proposal, f.proposalErr
}

func (f *fakeSource) VotesByProposal(_ context.Context, id string) ([]indexer.ProposalVoteNode, error) {
	if f.votesErr != nil {
		return nil, f.votesErr
	}
	return f.votes[id], nil
}

func (f *fakeSource) ProposalsWithVotes(context.Context) ([]indexer.ProposalWithVotesNode, error) {
	f.bulkCalls.Add(1)
	if f.bulkGate != nil {
		<-f.bulkGate
	}
	return f.bulk, f.bulkErr
}

func (f *fakeSource) VotesByWallet(_ context.Context, _ string, first int, after string) (*indexer.VotePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.walletCalls = append(f.walletCalls, after)
	if first != governance.WalletPageSize {
		return nil, errors.New("unexpected page size")
	}
	page, ok := f.walletPages[after]
	if !ok {
		return nil, errors.New("unexpected cursor " + after)
	}
	return page, nil
}

func pv(wallet, power, createdAt, result string) indexer.ProposalVoteNode {
	return indexer.ProposalVoteNode{WalletPublicKey: wallet, VotingPower: power, CreatedAt: createdAt, VoteResult: result}
}

func vote(wallet, power string, at time.Time) governance.Vote {
	return governance.Vote{WalletPublicKey: wallet, VotingPower: power, CreatedAt: at}
}

func TestLatestPerWallet_LatestWinsRegardlessOfOrder(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	older := vote("W1", "10", t1)
	older.VoteResult = "no"
	newer := vote("W1", "12", t2)
	newer.VoteResult = "yes"

	forward := governance.LatestPerWallet([]governance.Vote{older, newer})
	reverse := governance.LatestPerWallet([]governance.Vote{newer, older})

	require.Len(t, forward, 1)
	require.Len(t, reverse, 1)
	assert.Equal(t, "yes", forward[0].VoteResult)
	assert.Equal(t, forward, reverse)
}

func TestLatestPerWallet_TieKeepsFirstSeenAndOrder(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := vote("W1", "1", at)
	a.VoteResult = "first"
	b := vote("W2", "1", at)
	c := vote("W1", "1", at)
	c.VoteResult = "second"

	got := governance.LatestPerWallet([]governance.Vote{a, b, c})
	require.Len(t, got, 2)
	assert.Equal(t, "W1", got[0].WalletPublicKey)
	assert.Equal(t, "first", got[0].VoteResult)
	assert.Equal(t, "W2", got[1].WalletPublicKey)
}

func TestAggregate_RanksByPowerAndSums(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	res := governance.Aggregate(governance.Proposal{ID: "P1", Title: "Fund it", PipNumber: "12"}, []governance.Vote{
		vote("W1", "5", at),
		vote("W2", "20.5", at),
		vote("W3", "", at),
		vote("W4", "5", at),
		vote("W5", "garbage", at),
		vote("W1", "7", at.Add(time.Minute)),
	})

	assert.Equal(t, "P1", res.ProposalID)
	assert.Equal(t, 5, res.TotalVotes)
	assert.True(t, res.TotalVotingPower.Equal(decimal.RequireFromString("32.5")), res.TotalVotingPower.String())

	wallets := make([]string, 0, len(res.Votes))
	for _, v := range res.Votes {
		wallets = append(wallets, v.WalletPublicKey)
	}
	assert.Equal(t, []string{"W2", "W1", "W4", "W3", "W5"}, wallets)
	assert.Equal(t, "P1-W2-0", res.Votes[0].ID)
	assert.Equal(t, "P1-W5-4", res.Votes[4].ID)
}

func TestResultsByProposal_UsesLookupWhenTitleMissing(t *testing.T) {
	src := &fakeSource{
		proposal: &indexer.ProposalNode{ID: "P1", Title: "Looked up", PipNumber: "7"},
		votes:    map[string][]indexer.ProposalVoteNode{"P1": {pv("W1", "3", "2024-01-01T00:00:00Z", "yes")}},
	}
	svc := governance.NewService(src, zaptest.NewLogger(t), time.UTC)

	res, err := svc.ResultsByProposal(context.Background(), "P1", "", "")
	require.NoError(t, err)
	assert.Equal(t, "Looked up", res.ProposalTitle)
	assert.Equal(t, "7", res.PipNumber)
	assert.Equal(t, 1, res.TotalVotes)
}

func TestResultsByProposal_LookupFailureFallsBack(t *testing.T) {
	src := &fakeSource{
		proposalErr: errors.New("indexer hiccup"),
		votes:       map[string][]indexer.ProposalVoteNode{"P1": {}},
	}
	svc := governance.NewService(src, zaptest.NewLogger(t), time.UTC)

	res, err := svc.ResultsByProposal(context.Background(), "P1", "", "")
	require.NoError(t, err)
	assert.Equal(t, governance.UnknownTitle, res.ProposalTitle)
	assert.Equal(t, governance.UnknownPip, res.PipNumber)
	assert.Zero(t, res.TotalVotes)
	assert.NotNil(t, res.Votes)
}

func TestResultsByProposal_VotesFailureIsReturned(t *testing.T) {
	src := &fakeSource{votesErr: &indexer.GraphQLError{Messages: []string{"bad proposal id"}}}
	svc := governance.NewService(src, zaptest.NewLogger(t), time.UTC)

	_, err := svc.ResultsByProposal(context.Background(), "P1", "Given", "1")
	require.Error(t, err)
	assert.Equal(t, "bad proposal id", err.Error())
}

func TestBulkAndDirectPathsAgree(t *testing.T) {
	votes := []indexer.ProposalVoteNode{
		pv("W1", "5", "2024-01-01T00:00:00Z", "yes"),
		pv("W2", "9", "2024-01-01T01:00:00Z", "no"),
		pv("W1", "6", "2024-01-02T00:00:00Z", "no"),
		pv("W3", "9", "2024-01-01T02:00:00Z", "yes,abstain"),
	}
	bulkNode := indexer.ProposalWithVotesNode{ProposalNode: indexer.ProposalNode{ID: "P1", Title: "T", PipNumber: "3"}}
	bulkNode.Votes.Nodes = votes

	src := &fakeSource{
		proposal: &indexer.ProposalNode{ID: "P1", Title: "T", PipNumber: "3"},
		votes:    map[string][]indexer.ProposalVoteNode{"P1": votes},
		bulk:     []indexer.ProposalWithVotesNode{bulkNode},
	}
	svc := governance.NewService(src, zaptest.NewLogger(t), time.UTC)

	direct, err := svc.ResultsByProposal(context.Background(), "P1", "", "")
	require.NoError(t, err)
	bulk, err := svc.ResultsFromBulk(context.Background(), "P1")
	require.NoError(t, err)

	assert.Equal(t, direct, bulk)
	assert.Equal(t, 3, bulk.TotalVotes)
	assert.Equal(t, "W2", bulk.Votes[0].WalletPublicKey)
	assert.Equal(t, "W3", bulk.Votes[1].WalletPublicKey)
	assert.Equal(t, "no", bulk.Votes[2].VoteResult)
}

func TestResultsFromBulk_FetchesOnceUntilInvalidated(t *testing.T) {
	node := indexer.ProposalWithVotesNode{ProposalNode: indexer.ProposalNode{ID: "P1"}}
	src := &fakeSource{bulk: []indexer.ProposalWithVotesNode{node}, bulkGate: make(chan struct{})}
	svc := governance.NewService(src, zaptest.NewLogger(t), time.UTC)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ResultsFromBulk(context.Background(), "P1")
			errs <- err
		}()
	}
	require.Eventually(t, func() bool { return src.bulkCalls.Load() == 1 }, time.Second, time.Millisecond)
	close(src.bulkGate)
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, src.bulkCalls.Load())

	res, err := svc.ResultsFromBulk(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, governance.UnknownTitle, res.ProposalTitle)
	assert.EqualValues(t, 1, src.bulkCalls.Load())

	_, err = svc.ResultsFromBulk(context.Background(), "missing")
	require.ErrorIs(t, err, governance.ErrProposalNotFound)

	svc.Invalidate()
	_, err = svc.AllResults(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.bulkCalls.Load())
}

func TestResultsFromBulk_FailureIsNotCached(t *testing.T) {
	src := &fakeSource{bulkErr: indexer.ErrNoData}
	svc := governance.NewService(src, zaptest.NewLogger(t), time.UTC)

	_, err := svc.ResultsFromBulk(context.Background(), "P1")
	require.ErrorIs(t, err, indexer.ErrNoData)

	src.bulkErr = nil
	src.bulk = []indexer.ProposalWithVotesNode{{ProposalNode: indexer.ProposalNode{ID: "P1"}}}
	_, err = svc.ResultsFromBulk(context.Background(), "P1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.bulkCalls.Load())
}

func TestVotesByWallet_PagesAndSumsRawPower(t *testing.T) {
	next := "c1"
	src := &fakeSource{walletPages: map[string]*indexer.VotePage{
		"": {
			TotalCount: 3,
			PageInfo:   indexer.PageInfo{HasNextPage: true, EndCursor: &next},
			Nodes: []indexer.VoteNode{
				{ID: "v3", WalletPublicKey: "W1", VotingPower: "2", CreatedAt: "2024-01-03T00:00:00Z", Proposal: &indexer.ProposalRef{ID: "P2", Title: "Two"}},
				{ID: "v2", WalletPublicKey: "W1", VotingPower: "1.5", CreatedAt: "2024-01-02T00:00:00Z"},
			},
		},
		"c1": {
			TotalCount: 3,
			Nodes:      []indexer.VoteNode{{ID: "v1", WalletPublicKey: "W1", VotingPower: "1.5", CreatedAt: "2024-01-01T00:00:00Z"}},
		},
	}}
	svc := governance.NewService(src, zaptest.NewLogger(t), time.UTC)

	got, err := svc.VotesByWallet(context.Background(), " W1 ")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "c1"}, src.walletCalls)
	assert.Equal(t, "W1", got.Wallet)
	assert.Equal(t, 3, got.TotalCount)
	require.Len(t, got.Votes, 3)
	assert.Equal(t, "Two", got.Votes[0].Proposal.Title)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), got.Votes[0].CreatedAt.UTC())
	assert.True(t, got.TotalVotingPower.Equal(decimal.NewFromInt(5)))
}

func TestVotesByWallet_RequiresWallet(t *testing.T) {
	svc := governance.NewService(&fakeSource{}, zaptest.NewLogger(t), time.UTC)
	_, err := svc.VotesByWallet(context.Background(), "")
	require.ErrorIs(t, err, indexer.ErrWalletRequired)
}
