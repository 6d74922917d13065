package marketplace_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rogue-datahub/atlasx/pkg/indexer"
	"github.com/rogue-datahub/atlasx/pkg/marketplace"
	"github.com/stretchr/testify/require"
)

const (
	walletA = "W1aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	walletB = "W2bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	walletC = "W3cccccccccccccccccccccccccccccccccccccccccc"
)

// fakeSource serves scripted pages per role, keyed by cursor ("" is the first page).
type fakeSource struct {
	mu    sync.Mutex
	pages map[indexer.Role]map[string]*indexer.ExchangePage
	errs  map[indexer.Role]error
	calls map[indexer.Role][]string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		pages: map[indexer.Role]map[string]*indexer.ExchangePage{
			indexer.RoleInitializer: {},
			indexer.RoleTaker:       {},
		},
		errs:  map[indexer.Role]error{},
		calls: map[indexer.Role][]string{},
	}
}

func (f *fakeSource) add(role indexer.Role, cursor, next string, nodes ...indexer.ExchangeNode) {
	page := &indexer.ExchangePage{Nodes: nodes}
	if next != "" {
		n := next
		page.PageInfo = indexer.PageInfo{HasNextPage: true, EndCursor: &n}
	}
	f.pages[role][cursor] = page
}

func (f *fakeSource) ExchangesPage(_ context.Context, role indexer.Role, wallet, after string) (*indexer.ExchangePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[role] = append(f.calls[role], after)
	if err := f.errs[role]; err != nil {
		return nil, err
	}
	page, ok := f.pages[role][after]
	if !ok {
		if after == "" {
			return &indexer.ExchangePage{}, nil
		}
		return nil, fmt.Errorf("unexpected cursor %q for %s", after, role)
	}
	return page, nil
}

func (f *fakeSource) callsFor(role indexer.Role) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls[role]...)
}

func node(ts string, idx int, asset string, side marketplace.Side, initializer, taker string) indexer.ExchangeNode {
	return indexer.ExchangeNode{
		Asset:            asset,
		Amount:           "1",
		Pair:             marketplace.ATLASMint,
		Price:            "10",
		Side:             string(side),
		Fee:              "0",
		Timestamp:        ts,
		OrderInitializer: initializer,
		OrderTaker:       taker,
		InstructionIndex: idx,
	}
}

func mustExchange(t *testing.T, n indexer.ExchangeNode) marketplace.Exchange {
	t.Helper()
	ex, err := marketplace.FromNode(n, time.UTC)
	require.NoError(t, err)
	return ex
}

func mustWindow(t *testing.T, start, end string) marketplace.DateWindow {
	t.Helper()
	w, err := marketplace.NewDateWindow(start, end, time.UTC)
	require.NoError(t, err)
	return w
}
