package types

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/duality-labs/dex-indexer/pkg/cache"
	"github.com/duality-labs/dex-indexer/pkg/chainsync"
	"github.com/duality-labs/dex-indexer/pkg/db"
	"github.com/duality-labs/dex-indexer/pkg/indexer"
	"github.com/duality-labs/dex-indexer/pkg/redis"
	"github.com/duality-labs/dex-indexer/pkg/reporter"
	"github.com/duality-labs/dex-indexer/pkg/rpc"
)

// App holds the long-lived pieces of the indexer process: the store, the
// in-memory registry and derivation state, the sync driver, the result
// caches, and the HTTP server.
type App struct {
	DB       db.Store
	Registry *indexer.Registry
	Engine   *indexer.Engine
	Pipeline *indexer.Pipeline
	Tracker  *chainsync.Tracker
	Driver   *chainsync.Driver
	Feed     *rpc.Client

	// RedisClient is optional; nil disables height notifications.
	RedisClient *redis.Client

	// Reporter logs a periodic indexing status line.
	Reporter *reporter.Reporter

	// Cache memoizes query results keyed by endpoint and height range.
	Cache *cache.Cache[interface{}]

	// Zap Logger
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
}

// Start starts the HTTP server and blocks until ctx is done, then shuts the
// process down in order.
func (a *App) Start(ctx context.Context) {
	go func() { _ = a.Server.ListenAndServe() }()
	if a.Reporter != nil {
		a.Reporter.Start()
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = a.Server.Shutdown(shutdownCtx)

	if a.Reporter != nil {
		a.Reporter.Stop()
	}
	a.Pipeline.Stop()

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}

	if err := a.DB.Close(); err != nil {
		a.Logger.Error("Failed to close database connection", zap.Error(err))
	}

	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}
