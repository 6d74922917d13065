package dashboard

import (
	"context"

	"github.com/alitto/pond/v2"
	"github.com/rogue-datahub/atlasx/app/dashboard/types"
	"github.com/rogue-datahub/atlasx/pkg/assets"
	"github.com/rogue-datahub/atlasx/pkg/galaxy"
	"github.com/rogue-datahub/atlasx/pkg/governance"
	"github.com/rogue-datahub/atlasx/pkg/indexer"
	"github.com/rogue-datahub/atlasx/pkg/logging"
	"github.com/rogue-datahub/atlasx/pkg/market"
	"github.com/rogue-datahub/atlasx/pkg/marketplace"
	"github.com/rogue-datahub/atlasx/pkg/redis"
	"github.com/rogue-datahub/atlasx/pkg/state"
	"github.com/rogue-datahub/atlasx/pkg/transport"
	"github.com/rogue-datahub/atlasx/pkg/utils"
	"go.uber.org/zap"
)

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr'
		panic(err)
	}

	loc := utils.EnvLocation("ATLASX_TIMEZONE")
	workers := utils.EnvInt("FETCH_WORKERS", 8)

	// Initialize Redis client for the asset cache and WebSocket real-time events (optional)
	var redisClient *redis.Client
	if utils.EnvBool("REDIS_ENABLED", false) {
		redisClient, err = redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - asset cache and WebSocket events will be disabled",
				zap.Error(err))
			redisClient = nil
		} else {
			logger.Info("Redis client initialized")
		}
	} else {
		logger.Info("Redis disabled - asset cache and WebSocket events will not be available")
	}

	idx := indexer.New(
		transport.FromEnv("INDEXER_ENDPOINTS", indexer.DefaultURL),
		utils.Env("INDEXER_PATH", indexer.DefaultPath),
	)
	coingecko := market.NewCoinGecko(transport.FromEnv("COINGECKO_BASE_URL", market.DefaultCoinGeckoURL))
	datahub := market.NewDataHub(transport.FromEnv("DATAHUB_BASE_URL", market.DefaultDataHubURL))
	galaxyClient := galaxy.NewClient(transport.FromEnv("GALAXY_BASE_URL", galaxy.DefaultURL))

	fetcher := marketplace.NewFetcher(idx, logger, marketplace.FetcherConfig{
		MaxPages: utils.EnvInt("EXCHANGE_MAX_PAGES", marketplace.DefaultMaxPages),
		Location: loc,
		Pool:     pond.NewPool(2 * workers),
	})

	loader := assets.NewLoader(assets.ConfigFromEnv(redisClient, galaxyClient, coingecko, loc), logger)

	var notifier state.Notifier
	if redisClient != nil {
		notifier = state.NewRedisNotifier(redisClient, logger)
	}

	app := &types.App{
		Fetcher:     fetcher,
		Governance:  governance.NewService(idx, logger, loc),
		Assets:      loader,
		CoinGecko:   coingecko,
		DataHub:     datahub,
		Galaxy:      galaxyClient,
		Exchanges:   state.NewStore[types.ExchangeSet](state.Exchanges, notifier, logger),
		Votes:       state.NewStore[*governance.WalletVotes](state.Votes, notifier, logger),
		RedisClient: redisClient,
		Pool:        pond.NewPool(workers),
		Location:    loc,
		Logger:      logger,
	}

	return app
}
