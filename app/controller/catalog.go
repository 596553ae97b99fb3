package controller

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/duality-labs/dex-indexer/pkg/db/models"
)

// HandleTokens lists every denom the indexer has seen.
func (c *Controller) HandleTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := c.App.DB.ListTokens(r.Context())
	if err != nil {
		c.App.Logger.Error("ListTokens failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if tokens == nil {
		tokens = []models.Token{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": tokens})
}

// HandlePairs lists every pair with its canonical token order.
func (c *Controller) HandlePairs(w http.ResponseWriter, r *http.Request) {
	pairs, err := c.App.DB.ListPairs(r.Context())
	if err != nil {
		c.App.Logger.Error("ListPairs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if pairs == nil {
		pairs = []models.Pair{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": pairs})
}
