package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/rogue-datahub/atlasx/app/refresher"
)

func main() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := refresher.Initialize(ctx)
	if err != nil {
		panic(err)
	}

	// Immediate pass before cron
	if err := app.RefreshOnce(ctx); err != nil {
		app.Logger.Warn("Initial asset refresh failed", zap.Error(err))
	}

	app.StartCron()
	app.SetupServer()
	app.Start(ctx)
}
