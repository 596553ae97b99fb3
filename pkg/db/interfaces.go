package db

import (
	"context"

	"github.com/duality-labs/dex-indexer/pkg/db/dex"
	"github.com/duality-labs/dex-indexer/pkg/db/models"
)

// Store describes the database operations required by the ingestion pipeline,
// the derivation engine, and the query controllers. *dex.DB implements it;
// tests substitute fakes.
type Store interface {
	DatabaseName() string
	Ping(ctx context.Context) error

	// Raw facts
	InsertBlocks(ctx context.Context, blocks []*models.Block) error
	GetBlock(ctx context.Context, height uint64) (*models.Block, error)
	MaxBlockHeight(ctx context.Context) (uint64, error)
	HeightForTimestamp(ctx context.Context, unix int64) (uint64, error)
	InsertTxs(ctx context.Context, txs []*models.Tx) error
	QueryTxs(ctx context.Context, q dex.TxQuery) ([]models.Tx, error)
	InsertTxEvents(ctx context.Context, events []*models.TxEvent) error
	InsertTokens(ctx context.Context, tokens []*models.Token) error
	ListTokens(ctx context.Context) ([]models.Token, error)
	InsertPairs(ctx context.Context, pairs []*models.Pair) error
	ListPairs(ctx context.Context) ([]models.Pair, error)

	// Per-action event tables
	InsertSwapEvents(ctx context.Context, events []*models.SwapEvent) error
	InsertDepositEvents(ctx context.Context, events []*models.DepositEvent) error
	InsertWithdrawEvents(ctx context.Context, events []*models.WithdrawEvent) error
	InsertPlaceLimitOrderEvents(ctx context.Context, events []*models.PlaceLimitOrderEvent) error
	InsertTickUpdateEvents(ctx context.Context, events []*models.TickUpdateEvent) error

	// Derived state
	InsertTickStates(ctx context.Context, states []*models.TickState) error
	InsertPriceData(ctx context.Context, data []*models.PriceDatum) error
	InsertVolumeData(ctx context.Context, data []*models.VolumeDatum) error
	RestoreTickStates(ctx context.Context, height uint64) ([]models.TickState, error)
	LastPriceData(ctx context.Context, height uint64) ([]models.PriceDatum, error)
	LastVolumeData(ctx context.Context, height uint64) ([]models.VolumeDatum, error)

	// Read-side aggregates
	TickLiquidityAsOf(ctx context.Context, pairID uint64, token string, height uint64) ([]dex.TickReserves, error)
	PriceTimeseries(ctx context.Context, pairID uint64, res dex.Resolution, fromHeight, toHeight uint64) ([]dex.PriceBucket, error)
	VolumeTimeseries(ctx context.Context, pairID uint64, token0, token1 string, res dex.Resolution, fromHeight, toHeight uint64) ([]dex.VolumeBucket, error)
	LiquidityTimeseries(ctx context.Context, pairID uint64, res dex.Resolution, fromHeight, toHeight uint64) ([]dex.LiquidityBucket, error)
	VolumeStatsFor(ctx context.Context, pairID uint64, token0, token1 string, fromHeight, toHeight uint64) (*dex.VolumeStats, error)

	Close() error
}
