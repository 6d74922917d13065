package refresher

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/rogue-datahub/atlasx/pkg/assets"
	"github.com/rogue-datahub/atlasx/pkg/galaxy"
	"github.com/rogue-datahub/atlasx/pkg/logging"
	"github.com/rogue-datahub/atlasx/pkg/market"
	"github.com/rogue-datahub/atlasx/pkg/redis"
	"github.com/rogue-datahub/atlasx/pkg/retry"
	"github.com/rogue-datahub/atlasx/pkg/transport"
	"github.com/rogue-datahub/atlasx/pkg/utils"
	"go.uber.org/zap"
)

// DefaultCronSpec refreshes every fifteen minutes, on the minute.
const DefaultCronSpec = "0 */15 * * * *"

// Publisher announces fresh snapshots to the dashboards.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{})
}

// App keeps the shared asset snapshot in Redis fresh, every Cron tick. Dashboards reload
// it when AssetsChannel fires.
type App struct {
	Assets    *assets.Loader
	Publisher Publisher

	// Cron is the scheduler that triggers refreshes at specified intervals, according to CronSpec.
	Cron     *cron.Cron
	CronSpec string

	// Retry governs a single refresh; sources that keep failing are retried with backoff.
	Retry retry.Config

	// RunTimeout bounds one refresh including its retries.
	RunTimeout time.Duration

	lastSuccess atomic.Pointer[time.Time]
	lastError   atomic.Pointer[string]

	Logger *zap.Logger
	Server *http.Server

	redisClient *redis.Client
}

// Initialize initializes the App.
func Initialize(ctx context.Context) (*App, error) {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr'
		panic(err)
	}

	redisClient, err := redis.NewClient(ctx, logger)
	if err != nil {
		logger.Fatal("Unable to initialize Redis client", zap.Error(err))
	}

	loc := utils.EnvLocation("ATLASX_TIMEZONE")
	nfts := galaxy.NewClient(transport.FromEnv("GALAXY_BASE_URL", galaxy.DefaultURL))
	prices := market.NewCoinGecko(transport.FromEnv("COINGECKO_BASE_URL", market.DefaultCoinGeckoURL))

	app := &App{
		Assets:      assets.NewLoader(assets.ConfigFromEnv(redisClient, nfts, prices, loc), logger),
		Publisher:   redisClient,
		CronSpec:    utils.Env("REFRESH_CRON", DefaultCronSpec),
		Retry:       retry.DefaultConfig(),
		RunTimeout:  utils.EnvSeconds("REFRESH_TIMEOUT_SECONDS", 5*time.Minute),
		Logger:      logger,
		redisClient: redisClient,
	}

	if err := app.SetupScheduler(ctx, app.CronSpec); err != nil {
		return nil, err
	}

	return app, nil
}

// SetupScheduler sets up the cron scheduler.
func (a *App) SetupScheduler(ctx context.Context, cronSpec string) error {
	logger := cronLogger{a.Logger.Sugar()}
	// Seconds field, optional
	a.Cron = cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		cron.WithLogger(logger),
	)

	_, err := a.Cron.AddFunc(cronSpec, func() {
		if err := a.RefreshOnce(ctx); err != nil {
			a.Logger.Warn("[refresher] refresh error", zap.Error(err))
		}
	})
	return err
}

// StartCron starts the cron scheduler.
func (a *App) StartCron() {
	a.Cron.Start()
	a.Logger.Info("[refresher] Cron started", zap.String("cronSpec", a.CronSpec))
}

// StopCron stops the cron scheduler and waits for a running refresh.
func (a *App) StopCron() {
	if a.Cron != nil {
		<-a.Cron.Stop().Done()
	}
}

// RefreshOnce reloads every source, retrying with backoff while any of them fails, and
// announces the new snapshot. A partial snapshot still replaces the catalog but is not
// cached or announced.
func (a *App) RefreshOnce(ctx context.Context) error {
	rctx, cancel := context.WithTimeout(ctx, a.RunTimeout)
	defer cancel()

	err := retry.WithBackoff(rctx, a.Retry, a.Logger, "asset refresh", func() error {
		return a.Assets.Refresh(rctx)
	})
	if err != nil {
		msg := err.Error()
		a.lastError.Store(&msg)
		return err
	}

	now := time.Now()
	a.lastSuccess.Store(&now)
	a.lastError.Store(nil)
	if a.Publisher != nil {
		a.Publisher.Publish(rctx, redis.AssetsChannel, now.UTC().Format(time.RFC3339))
	}
	a.Logger.Info("[refresher] asset snapshot refreshed")
	return nil
}

// Ready reports whether a refresh has succeeded since start.
func (a *App) Ready() bool {
	return a.lastSuccess.Load() != nil
}

// SetupServer sets up the HTTP server.
func (a *App) SetupServer() {
	addr := utils.Env("ADDR", ":3002")

	r := mux.NewRouter()
	r.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })).Methods(http.MethodGet)
	r.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if a.Ready() {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})).Methods(http.MethodGet)
	r.Handle("/status", http.HandlerFunc(a.HandleStatus)).Methods(http.MethodGet)

	a.Server = &http.Server{Addr: addr, Handler: r}
}

// HandleStatus reports the outcome of the latest refreshes and the catalog sizes.
func (a *App) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	out := map[string]any{"ready": a.Ready()}
	if t := a.lastSuccess.Load(); t != nil {
		out["lastSuccess"] = *t
	}
	if msg := a.lastError.Load(); msg != nil {
		out["lastError"] = *msg
	}
	catalog := a.Assets.Current()
	out["nfts"] = len(catalog.NFTs())
	out["cargo"] = catalog.Cargo().Len()
	out["historyDays"] = catalog.PriceBook().Days()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// Start serves health endpoints until ctx is done, then stops the scheduler.
func (a *App) Start(ctx context.Context) {
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("Server stopped", zap.Error(err))
		}
	}()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = a.Server.Shutdown(shutdownCtx)

	a.StopCron()
	if a.redisClient != nil {
		_ = a.redisClient.Close()
	}
	a.Logger.Info("さようなら!")
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("[cron] "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("[cron] "+msg, append(keysAndValues, "error", err)...)
}
