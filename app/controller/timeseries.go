package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/duality-labs/dex-indexer/pkg/db/dex"
	"github.com/duality-labs/dex-indexer/pkg/db/models"
)

type timeseriesResponse[T any] struct {
	BlockRange blockRange     `json:"block_range"`
	Resolution dex.Resolution `json:"resolution"`
	Data       []T            `json:"data"`
}

// pairParams resolves the shared path parameters of the pair-scoped
// endpoints: the pair itself, whether the caller's token order is inverted
// against the canonical one, and the bucket resolution.
func (c *Controller) pairParams(w http.ResponseWriter, r *http.Request) (pair *models.Pair, inverted bool, res dex.Resolution, ok bool) {
	vars := mux.Vars(r)

	pair, inverted, found := c.App.Registry.LookupPair(vars["tokenA"], vars["tokenB"])
	if !found {
		writeError(w, http.StatusNotFound, "pair not indexed")
		return nil, false, "", false
	}

	res, err := dex.ParseResolution(vars["resolution"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false, "", false
	}

	return pair, inverted, res, true
}

// serveRange answers one data endpoint request: streamed as SSE when the
// client negotiated it, otherwise a single JSON body for the resolved range,
// long-polling when the range opens at the frontier.
func (c *Controller) serveRange(w http.ResponseWriter, r *http.Request, what string, fetch rangeFetcher) {
	if wantsStream(r) {
		c.streamBlockRanges(w, r, fetch)
		return
	}

	br, timedOut, err := c.resolveBlockRange(r)
	if err != nil {
		writeRangeError(w, err)
		return
	}
	if timedOut {
		writeError(w, http.StatusRequestTimeout, "no new block within the poll window")
		return
	}

	payload, err := fetch(r.Context(), br)
	if err != nil {
		c.App.Logger.Error(what+" query failed", zap.Error(err))
		writeRangeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// HandlePriceTimeseries returns OHLC candles of the pair's best tick. A
// caller asking for the reverse of the canonical order gets negated ticks,
// which is the price of the opposite direction.
func (c *Controller) HandlePriceTimeseries(w http.ResponseWriter, r *http.Request) {
	pair, inverted, res, ok := c.pairParams(w, r)
	if !ok {
		return
	}

	c.serveRange(w, r, "price timeseries", func(ctx context.Context, br blockRange) (interface{}, error) {
		key := fmt.Sprintf("price/%d/%s/%d/%d", pair.ID, res, br.FromHeight, br.ToHeight)
		v, err := c.App.Cache.Get(ctx, key, br.FromHeight, br.ToHeight, c.App.Tracker.Height(), func(genCtx context.Context) (interface{}, error) {
			return c.App.DB.PriceTimeseries(genCtx, pair.ID, res, br.FromHeight, br.ToHeight)
		})
		if err != nil {
			return nil, err
		}

		rows, _ := v.([]dex.PriceBucket)
		if inverted {
			out := make([]dex.PriceBucket, len(rows))
			for i, row := range rows {
				out[i] = dex.PriceBucket{
					BucketUnix: row.BucketUnix,
					Open:       -row.Open,
					High:       -row.Low,
					Low:        -row.High,
					Close:      -row.Close,
				}
			}
			rows = out
		}

		return timeseriesResponse[dex.PriceBucket]{
			BlockRange: br,
			Resolution: res,
			Data:       rows,
		}, nil
	})
}

// HandleVolumeTimeseries returns bucketed swap flow for a pair, oriented to
// the caller's token order.
func (c *Controller) HandleVolumeTimeseries(w http.ResponseWriter, r *http.Request) {
	pair, inverted, res, ok := c.pairParams(w, r)
	if !ok {
		return
	}

	c.serveRange(w, r, "volume timeseries", func(ctx context.Context, br blockRange) (interface{}, error) {
		key := fmt.Sprintf("volume/%d/%s/%d/%d", pair.ID, res, br.FromHeight, br.ToHeight)
		v, err := c.App.Cache.Get(ctx, key, br.FromHeight, br.ToHeight, c.App.Tracker.Height(), func(genCtx context.Context) (interface{}, error) {
			return c.App.DB.VolumeTimeseries(genCtx, pair.ID, pair.Token0, pair.Token1, res, br.FromHeight, br.ToHeight)
		})
		if err != nil {
			return nil, err
		}

		rows, _ := v.([]dex.VolumeBucket)
		if inverted {
			out := make([]dex.VolumeBucket, len(rows))
			for i, row := range rows {
				out[i] = dex.VolumeBucket{
					BucketUnix: row.BucketUnix,
					Amount0Out: row.Amount1Out,
					Amount1Out: row.Amount0Out,
					Swaps:      row.Swaps,
				}
			}
			rows = out
		}

		return timeseriesResponse[dex.VolumeBucket]{
			BlockRange: br,
			Resolution: res,
			Data:       rows,
		}, nil
	})
}

// HandleLiquidityTimeseries returns bucketed reserve-depth totals for a pair,
// oriented to the caller's token order.
func (c *Controller) HandleLiquidityTimeseries(w http.ResponseWriter, r *http.Request) {
	pair, inverted, res, ok := c.pairParams(w, r)
	if !ok {
		return
	}

	c.serveRange(w, r, "liquidity timeseries", func(ctx context.Context, br blockRange) (interface{}, error) {
		key := fmt.Sprintf("liquidity-ts/%d/%s/%d/%d", pair.ID, res, br.FromHeight, br.ToHeight)
		v, err := c.App.Cache.Get(ctx, key, br.FromHeight, br.ToHeight, c.App.Tracker.Height(), func(genCtx context.Context) (interface{}, error) {
			return c.App.DB.LiquidityTimeseries(genCtx, pair.ID, res, br.FromHeight, br.ToHeight)
		})
		if err != nil {
			return nil, err
		}

		rows, _ := v.([]dex.LiquidityBucket)
		if inverted {
			out := make([]dex.LiquidityBucket, len(rows))
			for i, row := range rows {
				out[i] = dex.LiquidityBucket{
					BucketUnix: row.BucketUnix,
					Total0:     row.Total1,
					Total1:     row.Total0,
				}
			}
			rows = out
		}

		return timeseriesResponse[dex.LiquidityBucket]{
			BlockRange: br,
			Resolution: res,
			Data:       rows,
		}, nil
	})
}
