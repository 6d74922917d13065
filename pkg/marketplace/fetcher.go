package marketplace

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/rogue-datahub/atlasx/pkg/indexer"
	"go.uber.org/zap"
)

// DefaultMaxPages caps one directional pagination loop.
const DefaultMaxPages = 1000

// PageSource serves one page of a directional exchange query.
type PageSource interface {
	ExchangesPage(ctx context.Context, role indexer.Role, wallet, after string) (*indexer.ExchangePage, error)
}

// FetcherConfig tunes a Fetcher. Zero values take defaults.
type FetcherConfig struct {
	MaxPages int
	Location *time.Location
	// Pool runs the directional queries; a two-worker pool is created when nil.
	Pool pond.Pool
}

// Fetcher collects every exchange a wallet took part in, as initializer or taker.
type Fetcher struct {
	source   PageSource
	logger   *zap.Logger
	maxPages int
	loc      *time.Location
	pool     pond.Pool
}

func NewFetcher(source PageSource, logger *zap.Logger, cfg FetcherConfig) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Pool == nil {
		cfg.Pool = pond.NewPool(2)
	}
	return &Fetcher{
		source:   source,
		logger:   logger,
		maxPages: cfg.MaxPages,
		loc:      cfg.Location,
		pool:     cfg.Pool,
	}
}

// Location is the zone used for day boundaries.
func (f *Fetcher) Location() *time.Location { return f.loc }

// FetchByWallet runs both directional queries concurrently and merges them.
// Either direction failing fails the whole fetch; no partial data is returned.
func (f *Fetcher) FetchByWallet(ctx context.Context, wallet string, window DateWindow) ([]Exchange, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, indexer.ErrWalletRequired
	}

	var initiated, taken []Exchange
	group := f.pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	group.SubmitErr(func() error {
		var err error
		taken, err = f.fetchDirection(groupCtx, indexer.RoleTaker, wallet, window)
		return err
	})
	group.SubmitErr(func() error {
		var err error
		initiated, err = f.fetchDirection(groupCtx, indexer.RoleInitializer, wallet, window)
		return err
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	merged := Merge(window, taken, initiated)
	f.logger.Debug("exchanges fetched",
		zap.String("wallet", wallet),
		zap.Int("as_taker", len(taken)),
		zap.Int("as_initializer", len(initiated)),
		zap.Int("merged", len(merged)),
	)
	return merged, nil
}

// fetchDirection pages one role newest-first, keeping records inside the window.
// Paging stops early once a page reaches past the window start.
func (f *Fetcher) fetchDirection(ctx context.Context, role indexer.Role, wallet string, window DateWindow) ([]Exchange, error) {
	out := make([]Exchange, 0)
	cursor := ""
	hasNext := true

	pages := 0
	for hasNext && pages < f.maxPages {
		page, err := f.source.ExchangesPage(ctx, role, wallet, cursor)
		if err != nil {
			return nil, err
		}

		converted := make([]Exchange, 0, len(page.Nodes))
		for _, node := range page.Nodes {
			ex, err := FromNode(node, f.loc)
			if err != nil {
				return nil, fmt.Errorf("fetch exchanges as %s: %w", role, err)
			}
			converted = append(converted, ex)
		}
		out = append(out, window.Filter(converted)...)

		if len(converted) > 0 && window.BeforeStart(converted[len(converted)-1].Timestamp) {
			break
		}

		hasNext = page.PageInfo.HasNextPage
		cursor = ""
		if page.PageInfo.EndCursor != nil {
			cursor = *page.PageInfo.EndCursor
		}
		pages++
		if hasNext && cursor == "" {
			f.logger.Warn("exchange page reported more data without a cursor",
				zap.String("role", string(role)),
				zap.String("wallet", wallet),
				zap.Int("page", pages),
			)
			break
		}
	}

	if hasNext && pages >= f.maxPages {
		f.logger.Warn("exchange pagination hit page cap",
			zap.String("role", string(role)),
			zap.String("wallet", wallet),
			zap.Int("max_pages", f.maxPages),
		)
	}
	return out, nil
}
