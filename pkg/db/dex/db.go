package dex

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/duality-labs/dex-indexer/pkg/db/clickhouse"
)

// DB is the indexer's database: raw chain facts plus the derived DEX state.
// It implements db.Store.
type DB struct {
	clickhouse.Client
	Name string
}

// New creates and initializes the indexer database.
func New(ctx context.Context, logger *zap.Logger, dbName string) (*DB, error) {
	name := clickhouse.SanitizeName(dbName)

	client, err := clickhouse.New(ctx, logger.With(zap.String("db", name)), name)
	if err != nil {
		return nil, err
	}

	db := &DB{
		Client: client,
		Name:   name,
	}

	if err := db.InitializeDB(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

// InitializeDB ensures the database and all tables exist. Table creation is
// idempotent and runs in parallel; there are no inter-table dependencies.
func (db *DB) InitializeDB(ctx context.Context) error {
	initStart := time.Now()

	if err := db.CreateDbIfNotExists(ctx, db.Name); err != nil {
		return fmt.Errorf("failed to create database %s: %w", db.Name, err)
	}

	initOps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"blocks", db.initBlocks},
		{"txs", db.initTxs},
		{"tx_events", db.initTxEvents},
		{"tokens", db.initTokens},
		{"pairs", db.initPairs},
		{"event_swap", db.initSwapEvents},
		{"event_deposit", db.initDepositEvents},
		{"event_withdraw", db.initWithdrawEvents},
		{"event_place_limit_order", db.initPlaceLimitOrderEvents},
		{"event_tick_update", db.initTickUpdateEvents},
		{"tick_state", db.initTickState},
		{"tx_price_data", db.initTxPriceData},
		{"tx_volume_data", db.initTxVolumeData},
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(initOps))

	for _, op := range initOps {
		wg.Add(1)
		go func(name string, fn func(context.Context) error) {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				errChan <- fmt.Errorf("init %s: %w", name, err)
			}
		}(op.name, op.fn)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		return err
	}

	db.Logger.Info("Database initialization complete",
		zap.String("database", db.Name),
		zap.Duration("duration", time.Since(initStart)))

	return nil
}

// DatabaseName returns the ClickHouse database backing this store.
func (db *DB) DatabaseName() string {
	return db.Name
}

// Close terminates the underlying connection pool.
func (db *DB) Close() error {
	return db.Db.Close()
}
