package dashboard

import (
	"net/http"

	"github.com/rogue-datahub/atlasx/app/dashboard/controller"
	"github.com/rogue-datahub/atlasx/app/dashboard/types"
	"github.com/rogue-datahub/atlasx/pkg/utils"
	"go.uber.org/zap"
)

// NewServer creates a new server.
func NewServer(app *types.App) error {
	ctler := controller.NewController(app)
	router, err := ctler.NewRouter()
	if err != nil {
		return err
	}

	addr := utils.Env("ADDR", ":3001")
	app.Server = &http.Server{
		Addr:    addr,
		Handler: controller.WithCORS(router),
	}

	app.Logger.Info("Starting server", zap.String("addr", addr))

	return nil
}
