package chainsync

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/duality-labs/dex-indexer/pkg/indexer"
	"github.com/duality-labs/dex-indexer/pkg/rpc"
)

// State is the sync driver's lifecycle phase, exposed on the health endpoint.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateCatchingUp   State = "catching_up"
	StateKeepingUp    State = "keeping_up"
)

const (
	connectBackoffInitial = time.Second
	connectBackoffMax     = 60 * time.Second
	keepUpPoll            = 5 * time.Second
)

// Publisher is notified when the synced frontier advances. The redis client
// implements it; a nil publisher disables the notifications.
type Publisher interface {
	PublishHeight(ctx context.Context, height uint64) error
}

// Driver owns the sync lifecycle against the upstream feed: connect with
// capped backoff, catch up to the tip, then poll to keep up. The initial
// catch-up is fatal on failure; keep-up errors are logged and retried on the
// next poll.
type Driver struct {
	logger    *zap.Logger
	client    *rpc.Client
	pipeline  *indexer.Pipeline
	tracker   *Tracker
	publisher Publisher

	state atomicState
}

// NewDriver wires a sync driver. publisher may be nil.
func NewDriver(logger *zap.Logger, client *rpc.Client, pipeline *indexer.Pipeline, tracker *Tracker, publisher Publisher) *Driver {
	d := &Driver{
		logger:    logger.Named("sync"),
		client:    client,
		pipeline:  pipeline,
		tracker:   tracker,
		publisher: publisher,
	}
	d.state.set(StateDisconnected)
	return d
}

// State returns the current lifecycle phase.
func (d *Driver) State() State {
	return d.state.get()
}

// Run drives the sync loop until ctx is done. It returns a non-nil error only
// for unrecoverable failures: a failed state restore or a failed initial
// catch-up.
func (d *Driver) Run(ctx context.Context) error {
	d.state.set(StateConnecting)
	if err := d.connect(ctx); err != nil {
		return err
	}

	lastHeight, err := d.pipeline.Restore(ctx)
	if err != nil {
		d.state.set(StateDisconnected)
		return fmt.Errorf("restore indexed state: %w", err)
	}
	d.tracker.Advance(lastHeight)
	d.logger.Info("indexed state restored", zap.Uint64("height", lastHeight))

	d.state.set(StateCatchingUp)
	if err := d.catchUp(ctx); err != nil {
		d.state.set(StateDisconnected)
		return fmt.Errorf("initial catch-up: %w", err)
	}
	d.logger.Info("caught up with chain", zap.Uint64("height", d.tracker.Height()))

	d.state.set(StateKeepingUp)
	ticker := time.NewTicker(keepUpPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			d.state.set(StateDisconnected)
			return nil
		case <-ticker.C:
			if err := d.catchUp(ctx); err != nil {
				if ctx.Err() != nil {
					d.state.set(StateDisconnected)
					return nil
				}
				d.logger.Warn("keep-up round failed", zap.Error(err))
			}
		}
	}
}

// connect probes the feed with capped exponential backoff until it answers.
func (d *Driver) connect(ctx context.Context) error {
	delay := connectBackoffInitial
	for {
		err := d.client.Probe(ctx)
		if err == nil {
			d.logger.Info("connected to upstream feed")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.logger.Warn("upstream feed unreachable, retrying",
			zap.Duration("delay", delay),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > connectBackoffMax {
			delay = connectBackoffMax
		}
	}
}

// catchUp drains the feed from the height after the last complete block. The
// frontier advances per page: a full page may end mid-block, so the last
// height seen only counts as complete once a short page closes the round.
func (d *Driver) catchUp(ctx context.Context) error {
	fromHeight := int64(d.tracker.Height()) + 1
	d.pipeline.Rewind(uint64(fromHeight))
	limit := d.client.PageLimit()

	var offset uint64
	for {
		page, err := d.client.GetTxs(ctx, fromHeight, offset)
		if err != nil {
			return err
		}

		if len(page.TxResponses) > 0 {
			maxHeight, err := d.pipeline.IngestPage(ctx, page.TxResponses)
			if err != nil {
				return err
			}
			if uint64(len(page.TxResponses)) == limit && maxHeight > 0 {
				d.advance(ctx, maxHeight-1)
			} else {
				d.advance(ctx, maxHeight)
			}
		}

		if uint64(len(page.TxResponses)) < limit {
			return nil
		}
		offset += uint64(len(page.TxResponses))
	}
}

type atomicState struct {
	v atomic.Value
}

func (s *atomicState) set(state State) {
	s.v.Store(state)
}

func (s *atomicState) get() State {
	if v := s.v.Load(); v != nil {
		return v.(State)
	}
	return StateDisconnected
}

func (d *Driver) advance(ctx context.Context, height uint64) {
	before := d.tracker.Height()
	d.tracker.Advance(height)
	if d.publisher == nil || d.tracker.Height() == before {
		return
	}
	if err := d.publisher.PublishHeight(ctx, d.tracker.Height()); err != nil {
		d.logger.Warn("height notification failed", zap.Error(err))
	}
}
