package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/duality-labs/dex-indexer/pkg/db/dex"
)

type pairLiquidityResponse struct {
	BlockRange blockRange         `json:"block_range"`
	TokenA     string             `json:"token_a"`
	TokenB     string             `json:"token_b"`
	LiquidityA []dex.TickReserves `json:"liquidity_a"`
	LiquidityB []dex.TickReserves `json:"liquidity_b"`
}

// HandlePairLiquidity returns the nonzero tick reserves of both sides of a
// pair as of the end of the requested block range. Tick indices are quoted in
// the pair's canonical orientation. Stream negotiation turns the response
// into SSE with one event per frontier advance.
func (c *Controller) HandlePairLiquidity(w http.ResponseWriter, r *http.Request) {
	tokenA := mux.Vars(r)["tokenA"]
	tokenB := mux.Vars(r)["tokenB"]

	pair, _, ok := c.App.Registry.LookupPair(tokenA, tokenB)
	if !ok {
		writeError(w, http.StatusNotFound, "pair not indexed")
		return
	}

	c.serveRange(w, r, "pair liquidity", func(ctx context.Context, br blockRange) (interface{}, error) {
		liqA, err := c.cachedLiquidity(ctx, pair.ID, tokenA, br)
		if err != nil {
			return nil, err
		}
		liqB, err := c.cachedLiquidity(ctx, pair.ID, tokenB, br)
		if err != nil {
			return nil, err
		}
		return pairLiquidityResponse{
			BlockRange: br,
			TokenA:     tokenA,
			TokenB:     tokenB,
			LiquidityA: liqA,
			LiquidityB: liqB,
		}, nil
	})
}

func (c *Controller) cachedLiquidity(ctx context.Context, pairID uint64, token string, br blockRange) ([]dex.TickReserves, error) {
	key := fmt.Sprintf("liquidity/%d/%s/%d/%d", pairID, token, br.FromHeight, br.ToHeight)
	v, err := c.App.Cache.Get(ctx, key, br.FromHeight, br.ToHeight, c.App.Tracker.Height(), func(genCtx context.Context) (interface{}, error) {
		return c.App.DB.TickLiquidityAsOf(genCtx, pairID, token, br.ToHeight)
	})
	if err != nil {
		return nil, err
	}
	rows, _ := v.([]dex.TickReserves)
	return rows, nil
}
