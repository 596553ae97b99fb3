package controller

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/duality-labs/dex-indexer/pkg/db/dex"
	"github.com/duality-labs/dex-indexer/pkg/db/models"
)

// HandleTransactions returns indexed transactions, newest first by default.
func (c *Controller) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	page, err := parsePageSpec(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Query with limit+1 to detect if there are more pages
	rows, err := c.App.DB.QueryTxs(r.Context(), dex.TxQuery{
		Offset:   page.Offset,
		Limit:    page.Limit + 1,
		Before:   page.Before,
		After:    page.After,
		SortDesc: page.Sort == SortOrderDesc,
	})
	if err != nil {
		c.App.Logger.Error("QueryTxs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	var nextKey *string
	if len(rows) > page.Limit {
		rows = rows[:page.Limit]
		k := page.nextKey()
		nextKey = &k
	}

	writeJSON(w, http.StatusOK, pagedResponse[models.Tx]{
		Data:    rows,
		Limit:   page.Limit,
		NextKey: nextKey,
	})
}
