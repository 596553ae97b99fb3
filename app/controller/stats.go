package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/duality-labs/dex-indexer/pkg/db/dex"
)

type volumeStatsResponse struct {
	BlockRange blockRange       `json:"block_range"`
	TokenA     string           `json:"token_a"`
	TokenB     string           `json:"token_b"`
	Stats      *dex.VolumeStats `json:"stats"`
}

// HandleVolumeStats sums swap flow for a pair over the requested block range,
// oriented to the caller's token order.
func (c *Controller) HandleVolumeStats(w http.ResponseWriter, r *http.Request) {
	tokenA := mux.Vars(r)["tokenA"]
	tokenB := mux.Vars(r)["tokenB"]

	pair, inverted, ok := c.App.Registry.LookupPair(tokenA, tokenB)
	if !ok {
		writeError(w, http.StatusNotFound, "pair not indexed")
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

	key := fmt.Sprintf("stats-volume/%d/%d/%d", pair.ID, br.FromHeight, br.ToHeight)
	v, err := c.App.Cache.Get(r.Context(), key, br.FromHeight, br.ToHeight, c.App.Tracker.Height(), func(genCtx context.Context) (interface{}, error) {
		return c.App.DB.VolumeStatsFor(genCtx, pair.ID, pair.Token0, pair.Token1, br.FromHeight, br.ToHeight)
	})
	if err != nil {
		c.App.Logger.Error("volume stats query failed", zap.Error(err))
		writeRangeError(w, err)
		return
	}

	stats, _ := v.(*dex.VolumeStats)
	if stats == nil {
		stats = &dex.VolumeStats{}
	}
	if inverted {
		stats = &dex.VolumeStats{
			Amount0In:  stats.Amount1In,
			Amount1In:  stats.Amount0In,
			Amount0Out: stats.Amount1Out,
			Amount1Out: stats.Amount0Out,
			Swaps:      stats.Swaps,
		}
	}

	writeJSON(w, http.StatusOK, volumeStatsResponse{
		BlockRange: br,
		TokenA:     tokenA,
		TokenB:     tokenB,
		Stats:      stats,
	})
}
