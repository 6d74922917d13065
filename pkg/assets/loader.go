// Package assets loads the lookup data shared by every exchange view: the NFT catalog,
// the starbase cargo catalog, the ATLAS spot price and its daily history.
package assets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/rogue-datahub/atlasx/pkg/cargo"
	"github.com/rogue-datahub/atlasx/pkg/galaxy"
	"github.com/rogue-datahub/atlasx/pkg/market"
	"github.com/rogue-datahub/atlasx/pkg/redis"
	"go.uber.org/zap"
)

// NFTSource serves the NFT catalog.
type NFTSource interface {
	AllNFTs(ctx context.Context) ([]galaxy.NFT, error)
}

// PriceSource serves ATLAS market data.
type PriceSource interface {
	MarketData(ctx context.Context, sym market.Symbol) (*market.MarketData, error)
	MarketChart(ctx context.Context, sym market.Symbol, vsCurrency string, days int) (*market.MarketChart, error)
}

// CargoSource loads the static cargo file.
type CargoSource func() ([]cargo.Entry, error)

// Cache persists snapshots between processes.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// Config wires a Loader. Cache and Pool are optional.
type Config struct {
	NFTs        NFTSource
	Prices      PriceSource
	Cargo       CargoSource
	Cache       Cache
	CacheTTL    time.Duration
	HistoryDays int
	Location    *time.Location
	Pool        pond.Pool
}

// Loader fetches the four sources concurrently and publishes immutable catalogs.
type Loader struct {
	cfg    Config
	logger *zap.Logger

	current atomic.Pointer[Catalog]
	loaded  atomic.Bool
	mu      sync.Mutex
}

func NewLoader(cfg Config, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = market.MaxChartDays
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Pool == nil {
		cfg.Pool = pond.NewPool(4)
	}
	l := &Loader{cfg: cfg, logger: logger}
	l.current.Store(newCatalog(nil, cfg.Location, logger))
	return l
}

// Current returns the latest catalog. Before the first load it is empty, so names
// resolve to "???" and prices to zero.
func (l *Loader) Current() *Catalog {
	return l.current.Load()
}

// Loaded reports whether a load has completed at least once.
func (l *Loader) Loaded() bool { return l.loaded.Load() }

// Ensure loads once, preferring the cache. Later calls return immediately.
func (l *Loader) Ensure(ctx context.Context) *Catalog {
	if l.loaded.Load() {
		return l.Current()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loaded.Load() {
		return l.Current()
	}
	if l.fromCache(ctx) {
		return l.Current()
	}
	_ = l.refreshLocked(ctx)
	return l.Current()
}

// Refresh reloads every source, bypassing the cache, and swaps in the new catalog.
// Sources that fail are left empty; their errors are joined into the result.
// Only complete snapshots are written back to the cache.
func (l *Loader) Refresh(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refreshLocked(ctx)
}

func (l *Loader) refreshLocked(ctx context.Context) error {
	snap, err := l.load(ctx)
	l.current.Store(newCatalog(snap, l.cfg.Location, l.logger))
	l.loaded.Store(true)

	l.logger.Info("asset lookup data loaded",
		zap.Int("nfts", len(snap.NFTs)),
		zap.Int("cargo", len(snap.Cargo)),
		zap.Float64("atlas_price_usd", snap.SpotPrice),
		zap.Int("history_points", len(snap.History)),
		zap.Bool("complete", snap.Complete()),
	)

	if l.cfg.Cache != nil && snap.Complete() {
		if cacheErr := l.cfg.Cache.SetJSON(ctx, redis.AssetsKey, snap, l.cfg.CacheTTL); cacheErr != nil {
			l.logger.Warn("failed to cache asset snapshot", zap.Error(cacheErr))
		}
	}
	return err
}

// Reload swaps in the cached snapshot, typically after another process refreshed it.
// It reports false, keeping the current catalog, when there is nothing cached.
func (l *Loader) Reload(ctx context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fromCache(ctx)
}

func (l *Loader) fromCache(ctx context.Context) bool {
	if l.cfg.Cache == nil {
		return false
	}
	var snap Snapshot
	found, err := l.cfg.Cache.GetJSON(ctx, redis.AssetsKey, &snap)
	if err != nil {
		l.logger.Warn("failed to read cached asset snapshot", zap.Error(err))
		return false
	}
	if !found {
		return false
	}
	l.current.Store(newCatalog(&snap, l.cfg.Location, l.logger))
	l.loaded.Store(true)
	l.logger.Debug("asset lookup data restored from cache", zap.Time("loaded_at", snap.LoadedAt))
	return true
}

// load runs the four loads in parallel. Each writes only its own field.
func (l *Loader) load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{LoadedAt: time.Now()}
	var nftErr, cargoErr, spotErr, historyErr error

	group := l.cfg.Pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	group.Submit(func() {
		if l.cfg.NFTs == nil {
			return
		}
		nfts, err := l.cfg.NFTs.AllNFTs(groupCtx)
		if err != nil {
			nftErr = fmt.Errorf("load nfts: %w", err)
			return
		}
		snap.NFTs = nfts
	})
	group.Submit(func() {
		if l.cfg.Cargo == nil {
			return
		}
		entries, err := l.cfg.Cargo()
		if err != nil {
			cargoErr = fmt.Errorf("load starbase cargo: %w", err)
			return
		}
		snap.Cargo = entries
	})
	group.Submit(func() {
		if l.cfg.Prices == nil {
			return
		}
		md, err := l.cfg.Prices.MarketData(groupCtx, market.ATLAS)
		if err != nil {
			spotErr = fmt.Errorf("load atlas price: %w", err)
			return
		}
		snap.SpotPrice = md.CurrentPrice
	})
	group.Submit(func() {
		if l.cfg.Prices == nil {
			return
		}
		chart, err := l.cfg.Prices.MarketChart(groupCtx, market.ATLAS, "usd", l.cfg.HistoryDays)
		if err != nil {
			historyErr = fmt.Errorf("load atlas price history: %w", err)
			return
		}
		snap.History = chart.Prices
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		l.logger.Warn("asset load group encountered error", zap.Error(err))
	}

	err := errors.Join(nftErr, cargoErr, spotErr, historyErr)
	for _, e := range []error{nftErr, cargoErr, spotErr, historyErr} {
		if e != nil {
			l.logger.Error("asset source failed", zap.Error(e))
		}
	}
	if snap.NFTs == nil {
		snap.NFTs = []galaxy.NFT{}
	}
	if snap.Cargo == nil {
		snap.Cargo = []cargo.Entry{}
	}
	if snap.History == nil {
		snap.History = []market.PricePoint{}
	}
	return snap, err
}
