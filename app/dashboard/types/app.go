package types

import (
	"context"
	"net/http"
	"time"

	"github.com/alitto/pond/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rogue-datahub/atlasx/pkg/assets"
	"github.com/rogue-datahub/atlasx/pkg/galaxy"
	"github.com/rogue-datahub/atlasx/pkg/governance"
	"github.com/rogue-datahub/atlasx/pkg/market"
	"github.com/rogue-datahub/atlasx/pkg/marketplace"
	"github.com/rogue-datahub/atlasx/pkg/redis"
	"github.com/rogue-datahub/atlasx/pkg/state"
	"go.uber.org/zap"
)

// Window is the date range a session asked for, echoed back with its exchanges.
type Window struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// ExchangeSet is a completed exchange fetch. Decoration happens at read time so that
// a later asset refresh is reflected without refetching. Wallet is the wallet the set
// was fetched for; it can differ from the session's wallet while a new fetch runs.
type ExchangeSet struct {
	Wallet    string                 `json:"wallet"`
	Window    Window                 `json:"window"`
	Exchanges []marketplace.Exchange `json:"exchanges"`
}

type App struct {
	// Data sources
	Fetcher    *marketplace.Fetcher
	Governance *governance.Service
	Assets     *assets.Loader
	CoinGecko  *market.CoinGecko
	DataHub    *market.DataHub
	Galaxy     *galaxy.Client

	// Per-session presentation state
	Exchanges *state.Store[ExchangeSet]
	Votes     *state.Store[*governance.WalletVotes]

	// Redis Client (asset cache and WebSocket real-time events), nil when disabled
	RedisClient *redis.Client

	// Background fetches started by POST handlers
	Pool pond.Pool

	// Day boundaries for date windows and price history
	Location *time.Location

	// Zap Logger
	Logger *zap.Logger

	// HTTP Server
	Server *http.Server
}

// Start starts the application and blocks until ctx is done.
func (a *App) Start(ctx context.Context) {
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Error("Server stopped", zap.Error(err))
		}
	}()

	// Warm the asset catalogs in the background; handlers fall back to empty catalogs.
	a.Pool.Submit(func() {
		a.Assets.Ensure(ctx)
	})

	if a.RedisClient != nil {
		go a.followAssetRefreshes(ctx)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = a.Server.Shutdown(shutdownCtx)
	a.Pool.StopAndWait()

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}

// followAssetRefreshes reloads the asset catalogs from the cache whenever the refresher
// announces a new snapshot. It returns when ctx is done.
func (a *App) followAssetRefreshes(ctx context.Context) {
	for ctx.Err() == nil {
		pubsub := a.RedisClient.PSubscribe(ctx, redis.AssetsChannel)
		a.reloadOnMessage(ctx, pubsub.Channel())
		_ = pubsub.Close()

		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Second):
		}
	}
}

func (a *App) reloadOnMessage(ctx context.Context, ch <-chan *goredis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if a.Assets.Reload(ctx) {
				a.Logger.Info("asset catalogs reloaded", zap.String("channel", msg.Channel))
			}
		}
	}
}
