package indexer

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/duality-labs/dex-indexer/pkg/db/models"
)

type tickKey struct {
	token string
	tick  int64
	fee   uint64
}

// pairState is the in-memory derived state for one pair: absolute reserves
// per tick key, the best tick per side, and the summed reserves per side.
// best0/best1 and total0/total1 mirror the last written changelog rows so
// the no-op guards compare against what is actually persisted.
type pairState struct {
	ticks  map[tickKey]decimal.Decimal
	best0  *int64
	best1  *int64
	total0 decimal.Decimal
	total1 decimal.Decimal
}

func newPairState() *pairState {
	return &pairState{ticks: map[tickKey]decimal.Decimal{}}
}

func (s *pairState) clone() *pairState {
	c := &pairState{
		ticks:  make(map[tickKey]decimal.Decimal, len(s.ticks)),
		total0: s.total0,
		total1: s.total1,
	}
	for k, v := range s.ticks {
		c.ticks[k] = v
	}
	if s.best0 != nil {
		v := *s.best0
		c.best0 = &v
	}
	if s.best1 != nil {
		v := *s.best1
		c.best1 = &v
	}
	return c
}

// SeqPos is the global event-sequence position stamped onto derived rows.
type SeqPos struct {
	Height     uint64
	TxIndex    uint32
	EventIndex uint32
	HeightTime time.Time
}

// Engine derives tick liquidity, best-tick price, and reserve-total state
// from the ordered stream of tick updates. A single ingestion goroutine
// drives it; all mutation goes through a DeriveBatch so that a failed flush
// leaves the committed state untouched.
type Engine struct {
	logger *zap.Logger
	pairs  map[uint64]*pairState
}

// NewEngine creates an empty derivation engine.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{
		logger: logger.Named("derive"),
		pairs:  map[uint64]*pairState{},
	}
}

// Restore rebuilds the engine state from persisted rows: tick reserves from
// the tick_state history and the last written best-tick and total values from
// the changelogs. The changelog values seed the no-op guards.
func (e *Engine) Restore(states []models.TickState, prices []models.PriceDatum, volumes []models.VolumeDatum) error {
	for _, st := range states {
		ps := e.state(st.PairID)
		reserves, err := decimal.NewFromString(st.Reserves)
		if err != nil {
			return fmt.Errorf("restore tick state %d/%s/%d/%d: %w", st.PairID, st.Token, st.TickIndex, st.Fee, err)
		}
		ps.ticks[tickKey{st.Token, st.TickIndex, st.Fee}] = reserves
	}
	for _, pd := range prices {
		ps := e.state(pd.PairID)
		ps.best0 = copyTick(pd.Tick0)
		ps.best1 = copyTick(pd.Tick1)
	}
	for _, vd := range volumes {
		ps := e.state(vd.PairID)
		total0, err := decimal.NewFromString(vd.Total0)
		if err != nil {
			return fmt.Errorf("restore volume total0 for pair %d: %w", vd.PairID, err)
		}
		total1, err := decimal.NewFromString(vd.Total1)
		if err != nil {
			return fmt.Errorf("restore volume total1 for pair %d: %w", vd.PairID, err)
		}
		ps.total0 = total0
		ps.total1 = total1
	}
	e.logger.Info("derivation state restored", zap.Int("pairs", len(e.pairs)))
	return nil
}

func (e *Engine) state(pairID uint64) *pairState {
	ps, ok := e.pairs[pairID]
	if !ok {
		ps = newPairState()
		e.pairs[pairID] = ps
	}
	return ps
}

// DeriveBatch accumulates derived rows for one ingested page over a
// copy-on-write view of the engine state. Commit publishes the view; dropping
// the batch discards it.
type DeriveBatch struct {
	engine  *Engine
	overlay map[uint64]*pairState

	TickStates []*models.TickState
	PriceData  []*models.PriceDatum
	VolumeData []*models.VolumeDatum
}

// NewBatch opens a copy-on-write view over the engine state.
func (e *Engine) NewBatch() *DeriveBatch {
	return &DeriveBatch{
		engine:  e,
		overlay: map[uint64]*pairState{},
	}
}

func (b *DeriveBatch) state(pairID uint64) *pairState {
	if ps, ok := b.overlay[pairID]; ok {
		return ps
	}
	var ps *pairState
	if base, ok := b.engine.pairs[pairID]; ok {
		ps = base.clone()
	} else {
		ps = newPairState()
	}
	b.overlay[pairID] = ps
	return ps
}

// ProcessTickUpdate applies one tick update for a pair. It records a
// tick_state row when the reserves actually change, and changelog rows when
// the best tick or the side total change as a result. Updates that repeat the
// current value are dropped entirely.
func (b *DeriveBatch) ProcessTickUpdate(pair *models.Pair, act TickUpdateAction, pos SeqPos) error {
	reserves, err := decimal.NewFromString(act.Reserves)
	if err != nil {
		return fmt.Errorf("tick update reserves %q: %w", act.Reserves, err)
	}
	if act.Token != pair.Token0 && act.Token != pair.Token1 {
		return fmt.Errorf("tick update token %q not in pair %s/%s", act.Token, pair.Token0, pair.Token1)
	}

	ps := b.state(pair.ID)
	key := tickKey{act.Token, act.TickIndex, act.Fee}
	prior, existed := ps.ticks[key]
	if existed && prior.Equal(reserves) {
		return nil
	}
	if !existed && reserves.IsZero() {
		return nil
	}
	ps.ticks[key] = reserves

	b.TickStates = append(b.TickStates, &models.TickState{
		PairID:     pair.ID,
		Token:      act.Token,
		TickIndex:  act.TickIndex,
		Fee:        act.Fee,
		Reserves:   reserves.String(),
		Height:     pos.Height,
		TxIndex:    pos.TxIndex,
		EventIndex: pos.EventIndex,
		HeightTime: pos.HeightTime,
	})

	side0 := act.Token == pair.Token0
	b.recomputeBest(ps, pair, side0, pos)
	b.recomputeTotal(ps, pair, side0, prior, reserves, pos)
	return nil
}

// recomputeBest rescans the updated side for its best nonzero tick. The
// token0 side quotes token1-per-token0 so its best is the highest tick; the
// token1 side is the mirror, so its best is the lowest.
func (b *DeriveBatch) recomputeBest(ps *pairState, pair *models.Pair, side0 bool, pos SeqPos) {
	token := pair.Token1
	if side0 {
		token = pair.Token0
	}

	var best *int64
	for k, v := range ps.ticks {
		if k.token != token || v.IsZero() {
			continue
		}
		tick := k.tick
		if best == nil || (side0 && tick > *best) || (!side0 && tick < *best) {
			best = &tick
		}
	}

	prev := ps.best1
	if side0 {
		prev = ps.best0
	}
	if tickEqual(prev, best) {
		return
	}
	if side0 {
		ps.best0 = best
	} else {
		ps.best1 = best
	}

	// LastTick prefers the side that just changed, falling back to the
	// carried-forward other side. With neither defined there is no price.
	last := best
	if last == nil {
		if side0 {
			last = ps.best1
		} else {
			last = ps.best0
		}
	}
	if last == nil {
		return
	}

	b.PriceData = append(b.PriceData, &models.PriceDatum{
		PairID:     pair.ID,
		Height:     pos.Height,
		TxIndex:    pos.TxIndex,
		EventIndex: pos.EventIndex,
		Tick0:      copyTick(ps.best0),
		Tick1:      copyTick(ps.best1),
		LastTick:   *last,
		HeightTime: pos.HeightTime,
	})
}

// recomputeTotal adjusts the side total by the reserve delta and records a
// changelog row when it moved.
func (b *DeriveBatch) recomputeTotal(ps *pairState, pair *models.Pair, side0 bool, prior, reserves decimal.Decimal, pos SeqPos) {
	delta := reserves.Sub(prior)
	if delta.IsZero() {
		return
	}
	if side0 {
		ps.total0 = ps.total0.Add(delta)
	} else {
		ps.total1 = ps.total1.Add(delta)
	}

	b.VolumeData = append(b.VolumeData, &models.VolumeDatum{
		PairID:     pair.ID,
		Height:     pos.Height,
		TxIndex:    pos.TxIndex,
		EventIndex: pos.EventIndex,
		Total0:     ps.total0.String(),
		Total1:     ps.total1.String(),
		HeightTime: pos.HeightTime,
	})
}

// Commit publishes the overlay into the engine state.
func (b *DeriveBatch) Commit() {
	for pairID, ps := range b.overlay {
		b.engine.pairs[pairID] = ps
	}
}

func tickEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyTick(t *int64) *int64 {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
