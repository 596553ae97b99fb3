package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/duality-labs/dex-indexer/pkg/cache"
)

// longPollTimeout bounds how long a request waits for the chain to advance
// before giving up with 408.
const longPollTimeout = 3 * time.Minute

// blockRange is the half-open (FromHeight, ToHeight] window a query covers.
// FromHeight is exclusive and ToHeight inclusive, so consecutive requests
// chain together without overlap.
type blockRange struct {
	FromHeight uint64 `json:"from_height"`
	ToHeight   uint64 `json:"to_height"`
}

// resolveBlockRange parses the block_range.* query parameters against the
// synced frontier. An absent from_height means "from genesis"; an absent
// to_height means "up to the frontier". A from_height at the frontier turns
// the request into a long-poll: it blocks until the chain advances, and
// timedOut reports that it did not within the poll window.
func (c *Controller) resolveBlockRange(r *http.Request) (br blockRange, timedOut bool, err error) {
	br, fromSet, toSet, err := c.parseBlockRange(r)
	if err != nil {
		return br, false, err
	}
	synced := c.App.Tracker.Height()

	// A request starting at the frontier waits for the next block.
	if fromSet && !toSet && br.FromHeight >= synced {
		if br.FromHeight > synced {
			return br, false, cache.ErrRangeNotSynced
		}
		height, advanced, waitErr := c.App.Tracker.WaitForHeight(r.Context(), br.FromHeight, c.longPoll)
		if waitErr != nil {
			return br, false, waitErr
		}
		if !advanced {
			return br, true, nil
		}
		synced = height
	}

	if !toSet {
		br.ToHeight = synced
	}
	if br.ToHeight < br.FromHeight {
		return br, false, cache.ErrInvalidRange
	}
	if br.ToHeight > synced {
		return br, false, cache.ErrRangeNotSynced
	}
	return br, false, nil
}

// resolveStreamRange parses the same parameters for a streaming request.
// Streams never long-poll: a range opening at the frontier starts zero-width
// and fills as the chain advances.
func (c *Controller) resolveStreamRange(r *http.Request) (blockRange, error) {
	br, _, toSet, err := c.parseBlockRange(r)
	if err != nil {
		return br, err
	}
	synced := c.App.Tracker.Height()

	if !toSet {
		br.ToHeight = synced
	}
	if br.ToHeight > synced {
		return br, cache.ErrRangeNotSynced
	}
	if br.ToHeight < br.FromHeight {
		if br.FromHeight > synced {
			return br, cache.ErrRangeNotSynced
		}
		return br, cache.ErrInvalidRange
	}
	return br, nil
}

func (c *Controller) parseBlockRange(r *http.Request) (br blockRange, fromSet, toSet bool, err error) {
	qs := r.URL.Query()

	if v := qs.Get("block_range.from_height"); v != "" {
		br.FromHeight, err = strconv.ParseUint(v, 10, 64)
		if err != nil {
			return br, false, false, cache.ErrInvalidRange
		}
		fromSet = true
	} else if v := qs.Get("block_range.from_timestamp"); v != "" {
		br.FromHeight, err = c.heightForTimestamp(r, v)
		if err != nil {
			return br, false, false, err
		}
		fromSet = true
	}

	if v := qs.Get("block_range.to_height"); v != "" {
		br.ToHeight, err = strconv.ParseUint(v, 10, 64)
		if err != nil {
			return br, fromSet, false, cache.ErrInvalidRange
		}
		toSet = true
	} else if v := qs.Get("block_range.to_timestamp"); v != "" {
		br.ToHeight, err = c.heightForTimestamp(r, v)
		if err != nil {
			return br, fromSet, false, err
		}
		toSet = true
	}

	return br, fromSet, toSet, nil
}

func (c *Controller) heightForTimestamp(r *http.Request, v string) (uint64, error) {
	unix, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, cache.ErrInvalidRange
	}
	height, err := c.App.DB.HeightForTimestamp(r.Context(), unix)
	if err != nil {
		return 0, err
	}
	return height, nil
}
