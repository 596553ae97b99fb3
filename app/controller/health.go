package controller

import (
	"net/http"
)

// HandleHealth reports process health: database reachability, the sync
// driver's phase and frontier, the frontier block's timestamp, and the
// optional redis connection.
func (c *Controller) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]interface{}{
		"status": "ok",
		"sync":   string(c.App.Driver.State()),
		"height": c.App.Tracker.Height(),
	}

	if err := c.App.DB.Ping(ctx); err != nil {
		status["status"] = "errored"
		status["error"] = "database connection error"
		writeJSON(w, http.StatusInternalServerError, status)
		return
	}

	if height := c.App.Tracker.Height(); height > 0 {
		if block, err := c.App.DB.GetBlock(ctx, height); err == nil {
			status["block_time"] = block.Time
		}
	}

	if c.App.RedisClient != nil {
		if err := c.App.RedisClient.Health(ctx); err != nil {
			status["redis"] = "errored"
		} else {
			status["redis"] = "ok"
		}
	}

	writeJSON(w, http.StatusOK, status)
}
