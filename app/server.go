package app

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/duality-labs/dex-indexer/app/controller"
	"github.com/duality-labs/dex-indexer/app/types"
	"github.com/duality-labs/dex-indexer/pkg/utils"
)

// NewServer builds the HTTP server and attaches it to the app.
func NewServer(app *types.App) error {
	ctler := controller.NewController(app)
	router, err := ctler.NewRouter()
	if err != nil {
		return err
	}

	// use <ip>:<port> to bind to a specific interface or :<port> to bind to all interfaces
	addr := utils.Env("ADDR", ":8000")

	app.Server = &http.Server{Addr: addr, Handler: controller.WithCORS(router)}
	app.Logger.Info("Starting server", zap.String("addr", addr))

	return nil
}
