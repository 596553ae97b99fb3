package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const sseHeartbeat = 15 * time.Second

type heightResponse struct {
	Height uint64 `json:"height"`
}

// HandleHeight returns the synced frontier. With ?after=N it long-polls:
// the response is held back until the frontier exceeds N, or 408 after the
// poll window elapses. Clients asking for a stream (?stream=true or
// Accept: text/event-stream) get the SSE variant instead.
func (c *Controller) HandleHeight(w http.ResponseWriter, r *http.Request) {
	if wantsStream(r) {
		c.HandleHeightSSE(w, r)
		return
	}

	if v := r.URL.Query().Get("after"); v != "" {
		after, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid after height")
			return
		}
		height, advanced, waitErr := c.App.Tracker.WaitForHeight(r.Context(), after, c.longPoll)
		if waitErr != nil {
			return
		}
		if !advanced {
			writeError(w, http.StatusRequestTimeout, "no new block within the poll window")
			return
		}
		writeJSON(w, http.StatusOK, heightResponse{Height: height})
		return
	}

	writeJSON(w, http.StatusOK, heightResponse{Height: c.App.Tracker.Height()})
}

func wantsStream(r *http.Request) bool {
	if r.URL.Query().Get("stream") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// HandleHeightSSE streams frontier advancements as server-sent events. Each
// advancement is one event with an incrementing id; quiet periods carry
// heartbeat events with empty data so proxies keep the connection open.
func (c *Controller) HandleHeightSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := beginEventStream(w)
	if !ok {
		return
	}

	ctx := r.Context()
	last := c.App.Tracker.Height()
	eventID := 0

	// Initial event so the client learns the frontier immediately.
	fmt.Fprintf(w, "id: %d\ndata: {\"height\":%d}\n\n", eventID, last)
	flusher.Flush()

	for {
		height, advanced, err := c.App.Tracker.WaitForHeight(ctx, last, c.heartbeat)
		if err != nil {
			return
		}
		eventID++
		if advanced {
			last = height
			fmt.Fprintf(w, "id: %d\ndata: {\"height\":%d}\n\n", eventID, height)
		} else {
			fmt.Fprintf(w, "id: %d\ndata:\n\n", eventID)
		}
		flusher.Flush()
	}
}

// rangeFetcher produces a data endpoint's response payload for one block range.
type rangeFetcher func(ctx context.Context, br blockRange) (interface{}, error)

// streamBlockRanges serves a data endpoint as server-sent events: one event
// for the initially resolved range, then one per frontier advance covering
// the newly synced (last, new] window, so consecutive events chain without
// overlap. Quiet periods carry heartbeat events with empty data.
func (c *Controller) streamBlockRanges(w http.ResponseWriter, r *http.Request, fetch rangeFetcher) {
	br, err := c.resolveStreamRange(r)
	if err != nil {
		writeRangeError(w, err)
		return
	}

	flusher, ok := beginEventStream(w)
	if !ok {
		return
	}

	ctx := r.Context()
	eventID := 0

	emit := func(br blockRange) bool {
		payload, err := fetch(ctx, br)
		if err != nil {
			c.App.Logger.Error("stream query failed", zap.Error(err))
			return false
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return false
		}
		fmt.Fprintf(w, "id: %d\ndata: %s\n\n", eventID, data)
		flusher.Flush()
		return true
	}

	if !emit(br) {
		return
	}
	last := br.ToHeight

	for {
		height, advanced, err := c.App.Tracker.WaitForHeight(ctx, last, c.heartbeat)
		if err != nil {
			return
		}
		eventID++
		if !advanced {
			fmt.Fprintf(w, "id: %d\ndata:\n\n", eventID)
			flusher.Flush()
			continue
		}
		if !emit(blockRange{FromHeight: last, ToHeight: height}) {
			return
		}
		last = height
	}
}

func beginEventStream(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	return flusher, true
}
