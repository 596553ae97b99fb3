package indexer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/duality-labs/dex-indexer/pkg/db/dex"
	"github.com/duality-labs/dex-indexer/pkg/db/models"
	"github.com/duality-labs/dex-indexer/pkg/rpc"
)

// fakeStore records inserts in memory and satisfies db.Store.
type fakeStore struct {
	mu          sync.Mutex
	blocks      []*models.Block
	txs         []*models.Tx
	events      []*models.TxEvent
	tokens      []*models.Token
	pairs       []*models.Pair
	swaps       []*models.SwapEvent
	deposits    []*models.DepositEvent
	withdraws   []*models.WithdrawEvent
	limitOrders []*models.PlaceLimitOrderEvent
	tickUpdates []*models.TickUpdateEvent
	tickStates  []*models.TickState
	priceData   []*models.PriceDatum
	volumeData  []*models.VolumeDatum

	failInserts bool
}

func (f *fakeStore) insertErr() error {
	if f.failInserts {
		return errors.New("insert failed")
	}
	return nil
}

func (f *fakeStore) DatabaseName() string                 { return "test" }
func (f *fakeStore) Ping(context.Context) error           { return nil }
func (f *fakeStore) Close() error                         { return nil }
func (f *fakeStore) MaxBlockHeight(context.Context) (uint64, error) { return 0, nil }

func (f *fakeStore) InsertBlocks(_ context.Context, rows []*models.Block) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocks = append(f.blocks, rows...)
	return f.insertErr()
}

func (f *fakeStore) GetBlock(context.Context, uint64) (*models.Block, error) { return nil, nil }
func (f *fakeStore) HeightForTimestamp(context.Context, int64) (uint64, error) { return 0, nil }

func (f *fakeStore) InsertTxs(_ context.Context, rows []*models.Tx) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txs = append(f.txs, rows...)
	return f.insertErr()
}

func (f *fakeStore) QueryTxs(context.Context, dex.TxQuery) ([]models.Tx, error) {
	return nil, nil
}

func (f *fakeStore) InsertTxEvents(_ context.Context, rows []*models.TxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, rows...)
	return f.insertErr()
}

func (f *fakeStore) InsertTokens(_ context.Context, rows []*models.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, rows...)
	return f.insertErr()
}

func (f *fakeStore) ListTokens(context.Context) ([]models.Token, error) { return nil, nil }

func (f *fakeStore) InsertPairs(_ context.Context, rows []*models.Pair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pairs = append(f.pairs, rows...)
	return f.insertErr()
}

func (f *fakeStore) ListPairs(context.Context) ([]models.Pair, error) { return nil, nil }

func (f *fakeStore) InsertSwapEvents(_ context.Context, rows []*models.SwapEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swaps = append(f.swaps, rows...)
	return f.insertErr()
}

func (f *fakeStore) InsertDepositEvents(_ context.Context, rows []*models.DepositEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deposits = append(f.deposits, rows...)
	return f.insertErr()
}

func (f *fakeStore) InsertWithdrawEvents(_ context.Context, rows []*models.WithdrawEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.withdraws = append(f.withdraws, rows...)
	return f.insertErr()
}

func (f *fakeStore) InsertPlaceLimitOrderEvents(_ context.Context, rows []*models.PlaceLimitOrderEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limitOrders = append(f.limitOrders, rows...)
	return f.insertErr()
}

func (f *fakeStore) InsertTickUpdateEvents(_ context.Context, rows []*models.TickUpdateEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickUpdates = append(f.tickUpdates, rows...)
	return f.insertErr()
}

func (f *fakeStore) InsertTickStates(_ context.Context, rows []*models.TickState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickStates = append(f.tickStates, rows...)
	return f.insertErr()
}

func (f *fakeStore) InsertPriceData(_ context.Context, rows []*models.PriceDatum) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priceData = append(f.priceData, rows...)
	return f.insertErr()
}

func (f *fakeStore) InsertVolumeData(_ context.Context, rows []*models.VolumeDatum) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volumeData = append(f.volumeData, rows...)
	return f.insertErr()
}

func (f *fakeStore) RestoreTickStates(context.Context, uint64) ([]models.TickState, error) {
	return nil, nil
}
func (f *fakeStore) LastPriceData(context.Context, uint64) ([]models.PriceDatum, error) {
	return nil, nil
}
func (f *fakeStore) LastVolumeData(context.Context, uint64) ([]models.VolumeDatum, error) {
	return nil, nil
}
func (f *fakeStore) TickLiquidityAsOf(context.Context, uint64, string, uint64) ([]dex.TickReserves, error) {
	return nil, nil
}
func (f *fakeStore) PriceTimeseries(context.Context, uint64, dex.Resolution, uint64, uint64) ([]dex.PriceBucket, error) {
	return nil, nil
}
func (f *fakeStore) VolumeTimeseries(context.Context, uint64, string, string, dex.Resolution, uint64, uint64) ([]dex.VolumeBucket, error) {
	return nil, nil
}
func (f *fakeStore) LiquidityTimeseries(context.Context, uint64, dex.Resolution, uint64, uint64) ([]dex.LiquidityBucket, error) {
	return nil, nil
}
func (f *fakeStore) VolumeStatsFor(context.Context, uint64, string, string, uint64, uint64) (*dex.VolumeStats, error) {
	return nil, nil
}

func rawEvent(action string, extra map[string]string) rpc.Event {
	attrs := map[string]string{
		attrModule: moduleDex,
		attrAction: action,
		attrToken0: "tokenA",
		attrToken1: "tokenB",
	}
	for k, v := range extra {
		attrs[k] = v
	}
	ev := rpc.Event{Type: "message"}
	for k, v := range attrs {
		ev.Attributes = append(ev.Attributes, rpc.Attribute{Key: b64(k), Value: b64(v)})
	}
	return ev
}

func feedTx(height, hash string, code uint32, events ...rpc.Event) rpc.TxResult {
	return rpc.TxResult{
		Height:    height,
		TxHash:    hash,
		Code:      code,
		Timestamp: "2024-01-02T03:04:05Z",
		GasWanted: "100",
		GasUsed:   "90",
		Events:    events,
	}
}

func newTestPipeline(t *testing.T, store *fakeStore) *Pipeline {
	logger := zaptest.NewLogger(t)
	return NewPipeline(logger, store, NewRegistry(logger), NewEngine(logger))
}

func TestIngestPage(t *testing.T) {
	store := &fakeStore{}
	p := newTestPipeline(t, store)
	defer p.Stop()

	txs := []rpc.TxResult{
		feedTx("10", "AA", 0,
			rawEvent(ActionSwap, map[string]string{
				attrTokenIn: "tokenA", attrTokenOut: "tokenB",
				attrAmountIn: "1000", attrAmountOut: "995",
			}),
			rawEvent(ActionTickUpdate, map[string]string{
				attrTokenAttr: "tokenA", attrTickIndex: "100", attrFee: "5", attrReserves: "1000",
			}),
		),
		feedTx("10", "BB", 1), // failed tx, ignored
		feedTx("11", "CC", 0,
			rawEvent(ActionTickUpdate, map[string]string{
				attrTokenAttr: "tokenB", attrTickIndex: "90", attrFee: "5", attrReserves: "2000",
			}),
		),
	}

	maxHeight, err := p.IngestPage(context.Background(), txs)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), maxHeight)
	assert.Equal(t, uint64(11), p.LastHeight())

	assert.Len(t, store.blocks, 2)
	assert.Len(t, store.txs, 2)
	assert.Len(t, store.tokens, 2)
	assert.Len(t, store.pairs, 1)
	assert.Len(t, store.swaps, 1)
	assert.Len(t, store.tickUpdates, 2)
	assert.Len(t, store.tickStates, 2)
	assert.Len(t, store.priceData, 2)
	assert.Len(t, store.volumeData, 2)

	// Failed txs leave no tx row.
	for _, tx := range store.txs {
		assert.NotEqual(t, "BB", tx.Hash)
	}

	// The pair's canonical order came from the first sighting.
	require.Len(t, store.pairs, 1)
	assert.Equal(t, "tokenA", store.pairs[0].Token0)
	assert.Equal(t, "tokenB", store.pairs[0].Token1)
}

func TestIngestPageReplayProducesNoDerivedRows(t *testing.T) {
	store := &fakeStore{}
	p := newTestPipeline(t, store)
	defer p.Stop()

	txs := []rpc.TxResult{
		feedTx("10", "AA", 0,
			rawEvent(ActionTickUpdate, map[string]string{
				attrTokenAttr: "tokenA", attrTickIndex: "100", attrFee: "5", attrReserves: "1000",
			}),
		),
	}

	_, err := p.IngestPage(context.Background(), txs)
	require.NoError(t, err)
	require.Len(t, store.tickStates, 1)

	p.Rewind(10)
	_, err = p.IngestPage(context.Background(), txs)
	require.NoError(t, err)

	// Facts are re-inserted (the store deduplicates them), derived rows are not.
	assert.Len(t, store.tickUpdates, 2)
	assert.Len(t, store.tickStates, 1)
	assert.Len(t, store.priceData, 1)
	assert.Len(t, store.volumeData, 1)
}

func TestIngestPageFailedFlushLeavesStateUntouched(t *testing.T) {
	store := &fakeStore{failInserts: true}
	p := newTestPipeline(t, store)
	defer p.Stop()

	txs := []rpc.TxResult{
		feedTx("10", "AA", 0,
			rawEvent(ActionTickUpdate, map[string]string{
				attrTokenAttr: "tokenA", attrTickIndex: "100", attrFee: "5", attrReserves: "1000",
			}),
		),
	}

	_, err := p.IngestPage(context.Background(), txs)
	require.Error(t, err)
	assert.Equal(t, uint64(0), p.LastHeight())
	assert.False(t, p.registry.TokenKnown("tokenA"))

	// The retry succeeds and commits, derived rows included.
	store.failInserts = false
	store.tickStates = nil
	maxHeight, err := p.IngestPage(context.Background(), txs)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), maxHeight)
	assert.Len(t, store.tickStates, 1)
	assert.True(t, p.registry.TokenKnown("tokenA"))
}
