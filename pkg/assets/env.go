package assets

import (
	"time"

	"github.com/rogue-datahub/atlasx/pkg/cargo"
	"github.com/rogue-datahub/atlasx/pkg/market"
	"github.com/rogue-datahub/atlasx/pkg/redis"
	"github.com/rogue-datahub/atlasx/pkg/utils"
)

// ConfigFromEnv reads CARGO_FILE, ASSET_CACHE_TTL_SECONDS and PRICE_HISTORY_DAYS.
// The cache is only wired when rdb is not nil.
func ConfigFromEnv(rdb *redis.Client, nfts NFTSource, prices PriceSource, loc *time.Location) Config {
	cfg := Config{
		NFTs:        nfts,
		Prices:      prices,
		Cargo:       CargoFile(utils.Env("CARGO_FILE", "")),
		CacheTTL:    utils.EnvSeconds("ASSET_CACHE_TTL_SECONDS", time.Hour),
		HistoryDays: utils.EnvInt("PRICE_HISTORY_DAYS", market.MaxChartDays),
		Location:    loc,
	}
	if rdb != nil {
		cfg.Cache = rdb
	}
	return cfg
}

// CargoFile reads the cargo file at path. An empty path yields no entries.
func CargoFile(path string) CargoSource {
	return func() ([]cargo.Entry, error) {
		if path == "" {
			return nil, nil
		}
		return cargo.Load(path)
	}
}
