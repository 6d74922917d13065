package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/gorilla/mux"
	"github.com/rogue-datahub/atlasx/app/dashboard/types"
	"github.com/rogue-datahub/atlasx/pkg/assets"
	"github.com/rogue-datahub/atlasx/pkg/cargo"
	"github.com/rogue-datahub/atlasx/pkg/galaxy"
	"github.com/rogue-datahub/atlasx/pkg/governance"
	"github.com/rogue-datahub/atlasx/pkg/indexer"
	"github.com/rogue-datahub/atlasx/pkg/market"
	"github.com/rogue-datahub/atlasx/pkg/marketplace"
	"github.com/rogue-datahub/atlasx/pkg/state"
	"github.com/rogue-datahub/atlasx/pkg/transport"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// Valid base58 public keys used as wallets.
const (
	walletA = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	walletB = "So11111111111111111111111111111111111111112"
)

const assetMint = "PX4mint"

type fakeExchanges struct {
	mu    sync.Mutex
	nodes []indexer.ExchangeNode
	err   error
}

func (f *fakeExchanges) ExchangesPage(_ context.Context, role indexer.Role, wallet, _ string) (*indexer.ExchangePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	page := &indexer.ExchangePage{}
	for _, n := range f.nodes {
		if (role == indexer.RoleTaker && n.OrderTaker == wallet) ||
			(role == indexer.RoleInitializer && n.OrderInitializer == wallet) {
			page.Nodes = append(page.Nodes, n)
		}
	}
	return page, nil
}

type fakeGovernance struct {
	proposals []indexer.ProposalWithVotesNode
	walletErr error
}

func (f *fakeGovernance) ProposalByID(_ context.Context, id string) (*indexer.ProposalNode, error) {
	for _, p := range f.proposals {
		if p.ID == id {
			node := p.ProposalNode
			return &node, nil
		}
	}
	return nil, nil
}

func (f *fakeGovernance) VotesByProposal(_ context.Context, id string) ([]indexer.ProposalVoteNode, error) {
	for _, p := range f.proposals {
		if p.ID == id {
			return p.Votes.Nodes, nil
		}
	}
	return nil, nil
}

func (f *fakeGovernance) ProposalsWithVotes(context.Context) ([]indexer.ProposalWithVotesNode, error) {
	return f.proposals, nil
}

func (f *fakeGovernance) VotesByWallet(_ context.Context, wallet string, _ int, _ string) (*indexer.VotePage, error) {
	if f.walletErr != nil {
		return nil, f.walletErr
	}
	return &indexer.VotePage{
		TotalCount: 2,
		Nodes: []indexer.VoteNode{
			{ID: "v2", WalletPublicKey: wallet, CreatedAt: "2024-02-01T00:00:00Z", ProposalID: "p1", VoteResult: "yes", VotingPower: "1500.5"},
			{ID: "v1", WalletPublicKey: wallet, CreatedAt: "2024-01-01T00:00:00Z", ProposalID: "p0", VoteResult: "a,b,c,d", VotingPower: "10"},
		},
	}, nil
}

type fakeNFTs struct{}

func (fakeNFTs) AllNFTs(context.Context) ([]galaxy.NFT, error) {
	return []galaxy.NFT{
		{Name: "Pearce X4", Symbol: "PX4", Mint: assetMint, Attributes: galaxy.Attributes{Category: "ship", ItemType: "ship"}},
		{Name: "Ammo", Symbol: "AMMO", Mint: "AMMOmint", Attributes: galaxy.Attributes{Category: "resource", ItemType: "resource"}},
	}, nil
}

type fakePrices struct{}

func (fakePrices) MarketData(context.Context, market.Symbol) (*market.MarketData, error) {
	return &market.MarketData{CurrentPrice: 0.002}, nil
}

func (fakePrices) MarketChart(context.Context, market.Symbol, string, int) (*market.MarketChart, error) {
	return &market.MarketChart{Prices: []market.PricePoint{
		{At: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), Value: 0.002},
	}}, nil
}

type testEnv struct {
	app        *types.App
	ctler      *Controller
	router     *mux.Router
	exchanges  *fakeExchanges
	governance *fakeGovernance
}

// newTestEnv builds an app on fakes. Upstream HTTP clients point at upstream, which may be nil.
func newTestEnv(t *testing.T, upstream http.Handler) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)

	baseURL := "http://127.0.0.1:1"
	if upstream != nil {
		srv := httptest.NewServer(upstream)
		t.Cleanup(srv.Close)
		baseURL = srv.URL
	}
	client := transport.NewHTTPWithOpts(transport.Opts{Endpoints: []string{baseURL}, Timeout: 2 * time.Second, RPS: 1000, Burst: 1000})

	ex := &fakeExchanges{}
	gov := &fakeGovernance{}
	loader := assets.NewLoader(assets.Config{
		NFTs:     fakeNFTs{},
		Prices:   fakePrices{},
		Cargo:    func() ([]cargo.Entry, error) { return nil, nil },
		Location: time.UTC,
	}, logger)

	app := &types.App{
		Fetcher:    marketplace.NewFetcher(ex, logger, marketplace.FetcherConfig{Location: time.UTC}),
		Governance: governance.NewService(gov, logger, time.UTC),
		Assets:     loader,
		CoinGecko:  market.NewCoinGecko(client),
		DataHub:    market.NewDataHub(client),
		Galaxy:     galaxy.NewClient(client),
		Exchanges:  state.NewStore[types.ExchangeSet](state.Exchanges, nil, logger),
		Votes:      state.NewStore[*governance.WalletVotes](state.Votes, nil, logger),
		Pool:       pond.NewPool(4),
		Location:   time.UTC,
		Logger:     logger,
	}

	t.Setenv("ADMIN_TOKEN", "secret-token")
	t.Setenv("ADMIN_USER", "admin")
	t.Setenv("ADMIN_PASSWORD", "hunter2")
	t.Setenv("ADMIN_USERS", "")
	ctler := NewController(app)
	router, err := ctler.NewRouter()
	require.NoError(t, err)

	return &testEnv{app: app, ctler: ctler, router: router, exchanges: ex, governance: gov}
}

func (e *testEnv) do(t *testing.T, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// settle waits for every background fetch submitted so far.
func (e *testEnv) settle() {
	e.app.Pool.StopAndWait()
	e.app.Pool = pond.NewPool(4)
}

var errIndexerDown = errors.New("indexer unavailable")
