package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/duality-labs/dex-indexer/app/types"
	"github.com/duality-labs/dex-indexer/pkg/cache"
	"github.com/duality-labs/dex-indexer/pkg/chainsync"
	"github.com/duality-labs/dex-indexer/pkg/db"
	"github.com/duality-labs/dex-indexer/pkg/db/dex"
	"github.com/duality-labs/dex-indexer/pkg/db/models"
	"github.com/duality-labs/dex-indexer/pkg/indexer"
)

// stubStore embeds db.Store so only the methods the handlers under test call
// need overrides. Calling anything else panics, which is what we want.
type stubStore struct {
	db.Store

	pingErr error
	txs     []models.Tx
	tokens  []models.Token
	pairs   []models.Pair

	liquidity map[string][]dex.TickReserves
	prices    []dex.PriceBucket
	volumes   []dex.VolumeBucket
	depths    []dex.LiquidityBucket
	stats     *dex.VolumeStats

	heightForTS map[int64]uint64
}

func (s *stubStore) Ping(context.Context) error { return s.pingErr }

func (s *stubStore) GetBlock(_ context.Context, height uint64) (*models.Block, error) {
	return &models.Block{Height: height, Time: "2026-08-31T12:00:00Z"}, nil
}

func (s *stubStore) QueryTxs(_ context.Context, q dex.TxQuery) ([]models.Tx, error) {
	rows := s.txs
	if q.Offset >= len(rows) {
		return nil, nil
	}
	rows = rows[q.Offset:]
	if len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

func (s *stubStore) ListTokens(context.Context) ([]models.Token, error) { return s.tokens, nil }
func (s *stubStore) ListPairs(context.Context) ([]models.Pair, error)   { return s.pairs, nil }

func (s *stubStore) TickLiquidityAsOf(_ context.Context, pairID uint64, token string, height uint64) ([]dex.TickReserves, error) {
	return s.liquidity[token], nil
}

func (s *stubStore) PriceTimeseries(context.Context, uint64, dex.Resolution, uint64, uint64) ([]dex.PriceBucket, error) {
	return s.prices, nil
}

func (s *stubStore) VolumeTimeseries(context.Context, uint64, string, string, dex.Resolution, uint64, uint64) ([]dex.VolumeBucket, error) {
	return s.volumes, nil
}

func (s *stubStore) LiquidityTimeseries(context.Context, uint64, dex.Resolution, uint64, uint64) ([]dex.LiquidityBucket, error) {
	return s.depths, nil
}

func (s *stubStore) VolumeStatsFor(context.Context, uint64, string, string, uint64, uint64) (*dex.VolumeStats, error) {
	return s.stats, nil
}

func (s *stubStore) HeightForTimestamp(_ context.Context, unix int64) (uint64, error) {
	h, ok := s.heightForTS[unix]
	if !ok {
		return 0, errors.New("no block at timestamp")
	}
	return h, nil
}

const testSyncedHeight = 100

// newTestController wires a controller over a stub store with one indexed
// pair (tokenA, tokenB) and the frontier at testSyncedHeight.
func newTestController(t *testing.T, store *stubStore) (*Controller, *mux.Router, *types.App) {
	t.Helper()
	logger := zaptest.NewLogger(t)

	registry := indexer.NewRegistry(logger)
	registry.Restore(
		[]models.Token{{ID: 1, Denom: "tokenA"}, {ID: 2, Denom: "tokenB"}},
		[]models.Pair{{ID: 1, Token0: "tokenA", Token1: "tokenB"}},
	)

	tracker := chainsync.NewTracker()
	tracker.Advance(testSyncedHeight)

	app := &types.App{
		DB:       store,
		Registry: registry,
		Tracker:  tracker,
		Driver:   chainsync.NewDriver(logger, nil, nil, tracker, nil),
		Cache:    cache.New[interface{}](logger, time.Second),
		Logger:   logger,
	}

	ctrl := NewController(app)
	router, err := ctrl.NewRouter()
	require.NoError(t, err)
	return ctrl, router, app
}

func newTestRouter(t *testing.T, store *stubStore) (*mux.Router, *types.App) {
	t.Helper()
	_, router, app := newTestController(t, store)
	return router, app
}

func get(t *testing.T, router *mux.Router, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), into))
}

func TestHandleHealth(t *testing.T) {
	store := &stubStore{}
	router, _ := newTestRouter(t, store)

	rec := get(t, router, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decodeBody(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, string(chainsync.StateDisconnected), body["sync"])
	assert.Equal(t, float64(testSyncedHeight), body["height"])
	assert.Equal(t, "2026-08-31T12:00:00Z", body["block_time"])
}

func TestHandleHealthDatabaseDown(t *testing.T) {
	store := &stubStore{pingErr: errors.New("connection refused")}
	router, _ := newTestRouter(t, store)

	rec := get(t, router, "/health")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]interface{}
	decodeBody(t, rec, &body)
	assert.Equal(t, "errored", body["status"])
}

func TestHandleTokensAndPairs(t *testing.T) {
	store := &stubStore{
		tokens: []models.Token{{ID: 1, Denom: "tokenA"}},
		pairs:  []models.Pair{{ID: 1, Token0: "tokenA", Token1: "tokenB"}},
	}
	router, _ := newTestRouter(t, store)

	rec := get(t, router, "/tokens")
	require.Equal(t, http.StatusOK, rec.Code)
	var tokens struct {
		Data []models.Token `json:"data"`
	}
	decodeBody(t, rec, &tokens)
	require.Len(t, tokens.Data, 1)
	assert.Equal(t, "tokenA", tokens.Data[0].Denom)

	rec = get(t, router, "/pairs")
	require.Equal(t, http.StatusOK, rec.Code)
	var pairs struct {
		Data []models.Pair `json:"data"`
	}
	decodeBody(t, rec, &pairs)
	require.Len(t, pairs.Data, 1)
	assert.Equal(t, "tokenA", pairs.Data[0].Token0)
}

func TestHandleTokensEmptyIsArray(t *testing.T) {
	router, _ := newTestRouter(t, &stubStore{})

	rec := get(t, router, "/tokens")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestHandleTransactionsPagination(t *testing.T) {
	txs := make([]models.Tx, 5)
	for i := range txs {
		txs[i] = models.Tx{Height: uint64(40 - i), Hash: fmt.Sprintf("%02d", i)}
	}
	store := &stubStore{txs: txs}
	router, _ := newTestRouter(t, store)

	rec := get(t, router, "/txs?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var first struct {
		Data    []models.Tx `json:"data"`
		Limit   int         `json:"limit"`
		NextKey *string     `json:"next_key"`
	}
	decodeBody(t, rec, &first)
	require.Len(t, first.Data, 2)
	assert.Equal(t, 2, first.Limit)
	require.NotNil(t, first.NextKey)

	// The continuation key yields the immediately following items, no overlap.
	rec = get(t, router, "/txs?next_key="+*first.NextKey)
	require.Equal(t, http.StatusOK, rec.Code)

	var second struct {
		Data    []models.Tx `json:"data"`
		NextKey *string     `json:"next_key"`
	}
	decodeBody(t, rec, &second)
	require.Len(t, second.Data, 2)
	assert.Equal(t, txs[2].Hash, second.Data[0].Hash)
	assert.Equal(t, txs[3].Hash, second.Data[1].Hash)
	require.NotNil(t, second.NextKey)

	rec = get(t, router, "/txs?next_key="+*second.NextKey)
	require.Equal(t, http.StatusOK, rec.Code)

	var last struct {
		Data    []models.Tx `json:"data"`
		NextKey *string     `json:"next_key"`
	}
	decodeBody(t, rec, &last)
	assert.Len(t, last.Data, 1)
	assert.Nil(t, last.NextKey)
}

func TestHandleTransactionsLastPageHasNoKey(t *testing.T) {
	store := &stubStore{txs: []models.Tx{{Height: 40}}}
	router, _ := newTestRouter(t, store)

	rec := get(t, router, "/txs?limit=3")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		NextKey *string `json:"next_key"`
	}
	decodeBody(t, rec, &body)
	assert.Nil(t, body.NextKey)
}

func TestHandleTransactionsRejectsBadParams(t *testing.T) {
	router, _ := newTestRouter(t, &stubStore{})

	assert.Equal(t, http.StatusBadRequest, get(t, router, "/txs?limit=nope").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, router, "/txs?limit=0").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, router, "/txs?offset=-1").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, router, "/txs?before=nope").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, router, "/txs?sort=sideways").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, router, "/txs?next_key=%25bad").Code)
}

func TestHandlePairLiquidity(t *testing.T) {
	store := &stubStore{
		liquidity: map[string][]dex.TickReserves{
			"tokenA": {{TickIndex: 100, Fee: 5, Reserves: "1000"}},
			"tokenB": {{TickIndex: -90, Fee: 5, Reserves: "2000"}},
		},
	}
	router, _ := newTestRouter(t, store)

	rec := get(t, router, "/liquidity/pair/tokenA/tokenB?block_range.to_height=50")
	require.Equal(t, http.StatusOK, rec.Code)

	var body pairLiquidityResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, uint64(0), body.BlockRange.FromHeight)
	assert.Equal(t, uint64(50), body.BlockRange.ToHeight)
	require.Len(t, body.LiquidityA, 1)
	require.Len(t, body.LiquidityB, 1)
	assert.Equal(t, "1000", body.LiquidityA[0].Reserves)
	assert.Equal(t, "2000", body.LiquidityB[0].Reserves)
}

func TestHandlePairLiquidityUnknownPair(t *testing.T) {
	router, _ := newTestRouter(t, &stubStore{})

	rec := get(t, router, "/liquidity/pair/tokenX/tokenY")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBlockRangeValidation(t *testing.T) {
	router, _ := newTestRouter(t, &stubStore{})

	// to beyond the frontier
	rec := get(t, router, "/liquidity/pair/tokenA/tokenB?block_range.to_height=999")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// from beyond to
	rec = get(t, router, "/liquidity/pair/tokenA/tokenB?block_range.from_height=60&block_range.to_height=40")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// unparseable heights
	rec = get(t, router, "/liquidity/pair/tokenA/tokenB?block_range.from_height=nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// from beyond the frontier
	rec = get(t, router, "/liquidity/pair/tokenA/tokenB?block_range.from_height=101")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlockRangeFromTimestamp(t *testing.T) {
	store := &stubStore{
		heightForTS: map[int64]uint64{1700000000: 42},
		liquidity:   map[string][]dex.TickReserves{},
	}
	router, _ := newTestRouter(t, store)

	rec := get(t, router, "/liquidity/pair/tokenA/tokenB?block_range.from_timestamp=1700000000&block_range.to_height=80")
	require.Equal(t, http.StatusOK, rec.Code)

	var body pairLiquidityResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, uint64(42), body.BlockRange.FromHeight)
	assert.Equal(t, uint64(80), body.BlockRange.ToHeight)
}

func TestBlockRangeAtFrontierLongPolls(t *testing.T) {
	store := &stubStore{liquidity: map[string][]dex.TickReserves{}}
	router, app := newTestRouter(t, store)

	go func() {
		time.Sleep(20 * time.Millisecond)
		app.Tracker.Advance(testSyncedHeight + 1)
	}()

	rec := get(t, router, fmt.Sprintf("/liquidity/pair/tokenA/tokenB?block_range.from_height=%d", testSyncedHeight))
	require.Equal(t, http.StatusOK, rec.Code)

	var body pairLiquidityResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, uint64(testSyncedHeight+1), body.BlockRange.ToHeight)
}

func TestBlockRangeLongPollTimesOut(t *testing.T) {
	ctrl, router, _ := newTestController(t, &stubStore{liquidity: map[string][]dex.TickReserves{}})
	ctrl.longPoll = 20 * time.Millisecond

	rec := get(t, router, fmt.Sprintf("/liquidity/pair/tokenA/tokenB?block_range.from_height=%d", testSyncedHeight))
	assert.Equal(t, http.StatusRequestTimeout, rec.Code)
}

func TestHandlePairLiquidityStream(t *testing.T) {
	store := &stubStore{
		liquidity: map[string][]dex.TickReserves{
			"tokenA": {{TickIndex: 100, Fee: 5, Reserves: "1000"}},
			"tokenB": {{TickIndex: -90, Fee: 5, Reserves: "2000"}},
		},
	}
	router, _ := newTestRouter(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/liquidity/pair/tokenA/tokenB?stream=true&block_range.to_height=50", nil).WithContext(ctx)
	router.ServeHTTP(rec, req)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "id: 0\ndata: "))
	assert.Contains(t, body, `"to_height":50`)
	assert.Contains(t, body, `"reserves":"1000"`)
}

func TestHandlePriceTimeseriesStreamFollowsFrontier(t *testing.T) {
	store := &stubStore{
		prices: []dex.PriceBucket{{BucketUnix: 1000, Open: 1, High: 2, Low: 0, Close: 1}},
	}
	_, router, app := newTestController(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		app.Tracker.Advance(testSyncedHeight + 1)
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/timeseries/price/tokenA/tokenB/hour?stream=true&block_range.from_height=%d", testSyncedHeight), nil).WithContext(ctx)
	router.ServeHTTP(rec, req)

	// A stream opening at the frontier starts zero-width, then each advance
	// emits the newly synced window.
	body := rec.Body.String()
	assert.Contains(t, body, fmt.Sprintf(`"from_height":%d,"to_height":%d`, testSyncedHeight, testSyncedHeight))
	assert.Contains(t, body, fmt.Sprintf(`"from_height":%d,"to_height":%d`, testSyncedHeight, testSyncedHeight+1))
	assert.Contains(t, body, "id: 1\ndata: ")
}

func TestTimeseriesStreamAcceptNegotiation(t *testing.T) {
	router, _ := newTestRouter(t, &stubStore{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/timeseries/volume/tokenA/tokenB?block_range.to_height=50", nil).WithContext(ctx)
	req.Header.Set("Accept", "text/event-stream")
	router.ServeHTTP(rec, req)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
}

func TestHandlePriceTimeseries(t *testing.T) {
	store := &stubStore{
		prices: []dex.PriceBucket{{BucketUnix: 1000, Open: 10, High: 30, Low: 5, Close: 20}},
	}
	router, _ := newTestRouter(t, store)

	rec := get(t, router, "/timeseries/price/tokenA/tokenB/hour?block_range.to_height=50")
	require.Equal(t, http.StatusOK, rec.Code)

	var body timeseriesResponse[dex.PriceBucket]
	decodeBody(t, rec, &body)
	assert.Equal(t, dex.ResolutionHour, body.Resolution)
	require.Len(t, body.Data, 1)
	assert.Equal(t, int64(30), body.Data[0].High)
}

func TestHandlePriceTimeseriesInverted(t *testing.T) {
	store := &stubStore{
		prices: []dex.PriceBucket{{BucketUnix: 1000, Open: 10, High: 30, Low: 5, Close: 20}},
	}
	router, _ := newTestRouter(t, store)

	// The reverse token order negates ticks and swaps the extremes.
	rec := get(t, router, "/timeseries/price/tokenB/tokenA?block_range.to_height=50")
	require.Equal(t, http.StatusOK, rec.Code)

	var body timeseriesResponse[dex.PriceBucket]
	decodeBody(t, rec, &body)
	require.Len(t, body.Data, 1)
	assert.Equal(t, int64(-10), body.Data[0].Open)
	assert.Equal(t, int64(-5), body.Data[0].High)
	assert.Equal(t, int64(-30), body.Data[0].Low)
	assert.Equal(t, int64(-20), body.Data[0].Close)
}

func TestHandlePriceTimeseriesBadResolution(t *testing.T) {
	router, _ := newTestRouter(t, &stubStore{})

	rec := get(t, router, "/timeseries/price/tokenA/tokenB/fortnight")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleVolumeTimeseriesInverted(t *testing.T) {
	store := &stubStore{
		volumes: []dex.VolumeBucket{{BucketUnix: 1000, Amount0Out: 7, Amount1Out: 11, Swaps: 3}},
	}
	router, _ := newTestRouter(t, store)

	rec := get(t, router, "/timeseries/volume/tokenB/tokenA?block_range.to_height=50")
	require.Equal(t, http.StatusOK, rec.Code)

	var body timeseriesResponse[dex.VolumeBucket]
	decodeBody(t, rec, &body)
	require.Len(t, body.Data, 1)
	assert.Equal(t, float64(11), body.Data[0].Amount0Out)
	assert.Equal(t, float64(7), body.Data[0].Amount1Out)
	assert.Equal(t, uint64(3), body.Data[0].Swaps)
}

func TestHandleLiquidityTimeseriesInverted(t *testing.T) {
	store := &stubStore{
		depths: []dex.LiquidityBucket{{BucketUnix: 1000, Total0: 100, Total1: 200}},
	}
	router, _ := newTestRouter(t, store)

	rec := get(t, router, "/timeseries/liquidity/tokenB/tokenA?block_range.to_height=50")
	require.Equal(t, http.StatusOK, rec.Code)

	var body timeseriesResponse[dex.LiquidityBucket]
	decodeBody(t, rec, &body)
	require.Len(t, body.Data, 1)
	assert.Equal(t, float64(200), body.Data[0].Total0)
	assert.Equal(t, float64(100), body.Data[0].Total1)
}

func TestHandleVolumeStatsInverted(t *testing.T) {
	store := &stubStore{
		stats: &dex.VolumeStats{Amount0In: 1, Amount1In: 2, Amount0Out: 3, Amount1Out: 4, Swaps: 5},
	}
	router, _ := newTestRouter(t, store)

	rec := get(t, router, "/stats/volume/tokenB/tokenA?block_range.to_height=50")
	require.Equal(t, http.StatusOK, rec.Code)

	var body volumeStatsResponse
	decodeBody(t, rec, &body)
	require.NotNil(t, body.Stats)
	assert.Equal(t, float64(2), body.Stats.Amount0In)
	assert.Equal(t, float64(1), body.Stats.Amount1In)
	assert.Equal(t, float64(4), body.Stats.Amount0Out)
	assert.Equal(t, float64(3), body.Stats.Amount1Out)
	assert.Equal(t, uint64(5), body.Stats.Swaps)
}

func TestHandleHeight(t *testing.T) {
	router, _ := newTestRouter(t, &stubStore{})

	rec := get(t, router, "/height")
	require.Equal(t, http.StatusOK, rec.Code)

	var body heightResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, uint64(testSyncedHeight), body.Height)
}

func TestHandleHeightLongPoll(t *testing.T) {
	router, app := newTestRouter(t, &stubStore{})

	go func() {
		time.Sleep(20 * time.Millisecond)
		app.Tracker.Advance(testSyncedHeight + 1)
	}()

	rec := get(t, router, fmt.Sprintf("/height?after=%d", testSyncedHeight))
	require.Equal(t, http.StatusOK, rec.Code)

	var body heightResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, uint64(testSyncedHeight+1), body.Height)
}

func TestHandleHeightLongPollTimesOut(t *testing.T) {
	ctrl, router, _ := newTestController(t, &stubStore{})
	ctrl.longPoll = 20 * time.Millisecond

	rec := get(t, router, fmt.Sprintf("/height?after=%d", testSyncedHeight))
	assert.Equal(t, http.StatusRequestTimeout, rec.Code)
}

func TestHandleHeightSSEHeartbeat(t *testing.T) {
	ctrl, router, _ := newTestController(t, &stubStore{})
	ctrl.heartbeat = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(60 * time.Millisecond)
		cancel()
	}()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sse/height", nil).WithContext(ctx)
	router.ServeHTTP(rec, req)

	// The frontier never moves, so the quiet stream carries empty-data
	// heartbeat frames after the initial event.
	assert.Contains(t, rec.Body.String(), "id: 1\ndata:\n\n")
}

func TestHandleHeightRejectsBadAfter(t *testing.T) {
	router, _ := newTestRouter(t, &stubStore{})

	assert.Equal(t, http.StatusBadRequest, get(t, router, "/height?after=nope").Code)
}

func TestHandleHeightSSEInitialEvent(t *testing.T) {
	router, _ := newTestRouter(t, &stubStore{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sse/height", nil).WithContext(ctx)
	router.ServeHTTP(rec, req)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(),
		fmt.Sprintf("id: 0\ndata: {\"height\":%d}\n\n", testSyncedHeight)))
}

func TestHandleHeightStreamNegotiation(t *testing.T) {
	router, _ := newTestRouter(t, &stubStore{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/height?stream=true", nil).WithContext(ctx)
	router.ServeHTTP(rec, req)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, &stubStore{})
	handler := WithCORS(router)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/tokens", nil)
	req.Header.Set("Origin", "https://app.example.com")
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
