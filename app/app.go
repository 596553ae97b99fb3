package app

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/duality-labs/dex-indexer/app/types"
	"github.com/duality-labs/dex-indexer/pkg/cache"
	"github.com/duality-labs/dex-indexer/pkg/chainsync"
	"github.com/duality-labs/dex-indexer/pkg/db/dex"
	"github.com/duality-labs/dex-indexer/pkg/indexer"
	"github.com/duality-labs/dex-indexer/pkg/logging"
	"github.com/duality-labs/dex-indexer/pkg/redis"
	"github.com/duality-labs/dex-indexer/pkg/reporter"
	"github.com/duality-labs/dex-indexer/pkg/rpc"
	"github.com/duality-labs/dex-indexer/pkg/utils"
)

// status adapts the app to the reporter's view of indexing progress.
type status struct {
	app *types.App
}

func (s status) SyncState() string   { return string(s.app.Driver.State()) }
func (s status) SyncedHeight() uint64 { return s.app.Tracker.Height() }
func (s status) CachedResults() int  { return s.app.Cache.Len() }

// Initialize wires the whole indexer: database, feed client, ingestion
// pipeline, sync driver, and caches.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	store, err := dex.New(ctx, logger, utils.Env("DB_NAME", "dex"))
	if err != nil {
		logger.Fatal("Unable to initialize database", zap.Error(err))
	}

	endpoints := strings.Split(utils.Env("RPC_API", "http://localhost:1317"), ",")
	feed := rpc.New(rpc.Opts{
		Endpoints:       endpoints,
		Timeout:         utils.EnvDuration("RPC_TIMEOUT", 15*time.Second),
		RPS:             utils.EnvInt("RPC_RPS", 20),
		Burst:           utils.EnvInt("RPC_BURST", 40),
		PageLimit:       uint64(utils.EnvInt("RPC_PAGE_LIMIT", rpc.DefaultPageLimit)),
		BreakerFailures: utils.EnvInt("RPC_BREAKER_FAILURES", 3),
		BreakerCooldown: utils.EnvDuration("RPC_BREAKER_COOLDOWN", 5*time.Second),
	})

	// Redis is optional; without it the indexer just skips the height
	// notifications.
	var redisClient *redis.Client
	if utils.Env("REDIS_ENABLED", "false") == "true" {
		redisClient, err = redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - height notifications will be disabled",
				zap.Error(err))
			redisClient = nil
		}
	}

	registry := indexer.NewRegistry(logger)
	engine := indexer.NewEngine(logger)
	pipeline := indexer.NewPipeline(logger, store, registry, engine)
	tracker := chainsync.NewTracker()

	var publisher chainsync.Publisher
	if redisClient != nil {
		publisher = redisClient
	}
	driver := chainsync.NewDriver(logger, feed, pipeline, tracker, publisher)

	a := &types.App{
		DB:          store,
		Registry:    registry,
		Engine:      engine,
		Pipeline:    pipeline,
		Tracker:     tracker,
		Driver:      driver,
		Feed:        feed,
		RedisClient: redisClient,
		Cache:       cache.New[interface{}](logger, utils.EnvDuration("CACHE_GEN_TIMEOUT", cache.DefaultTimeout)),
		Logger:      logger,
	}

	rep, err := reporter.New(logger, status{app: a})
	if err != nil {
		logger.Fatal("Unable to initialize status reporter", zap.Error(err))
	}
	a.Reporter = rep

	return a
}
