package indexer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/duality-labs/dex-indexer/pkg/db"
	"github.com/duality-labs/dex-indexer/pkg/db/models"
	"github.com/duality-labs/dex-indexer/pkg/rpc"
)

const flushWorkers = 8

// Pipeline turns pages of raw transactions into table rows: the fact tables,
// the per-action event tables, and the derived rows produced by the engine.
// One page is one unit of work; its rows are flushed in parallel and the
// in-memory registry and derivation state advance only after every flush
// succeeded, so a failed page can be retried from the same state.
type Pipeline struct {
	logger   *zap.Logger
	store    db.Store
	registry *Registry
	engine   *Engine
	pool     pond.Pool

	curHeight   uint64
	nextTxIndex uint32
}

// NewPipeline creates a pipeline over the given store.
func NewPipeline(logger *zap.Logger, store db.Store, registry *Registry, engine *Engine) *Pipeline {
	return &Pipeline{
		logger:   logger.Named("ingest"),
		store:    store,
		registry: registry,
		engine:   engine,
		pool:     pond.NewPool(flushWorkers),
	}
}

// Restore loads the registry and derivation state from the store and returns
// the height of the last indexed block.
func (p *Pipeline) Restore(ctx context.Context) (uint64, error) {
	tokens, err := p.store.ListTokens(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore tokens: %w", err)
	}
	pairs, err := p.store.ListPairs(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore pairs: %w", err)
	}
	p.registry.Restore(tokens, pairs)

	maxHeight, err := p.store.MaxBlockHeight(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore max height: %w", err)
	}

	states, err := p.store.RestoreTickStates(ctx, maxHeight)
	if err != nil {
		return 0, fmt.Errorf("restore tick states: %w", err)
	}
	prices, err := p.store.LastPriceData(ctx, maxHeight)
	if err != nil {
		return 0, fmt.Errorf("restore price data: %w", err)
	}
	volumes, err := p.store.LastVolumeData(ctx, maxHeight)
	if err != nil {
		return 0, fmt.Errorf("restore volume data: %w", err)
	}
	if err := p.engine.Restore(states, prices, volumes); err != nil {
		return 0, err
	}

	p.curHeight = maxHeight
	p.nextTxIndex = 0
	return maxHeight, nil
}

// LastHeight returns the height of the last ingested block.
func (p *Pipeline) LastHeight() uint64 {
	return p.curHeight
}

// Rewind prepares for re-ingestion from fromHeight. Replayed transactions get
// the same indices as before, so their rows deduplicate.
func (p *Pipeline) Rewind(fromHeight uint64) {
	if p.curHeight >= fromHeight {
		p.curHeight = fromHeight - 1
		p.nextTxIndex = 0
	}
}

// pageRows collects every row produced by one page.
type pageRows struct {
	blocks      map[uint64]*models.Block
	txs         []*models.Tx
	events      []*models.TxEvent
	swaps       []*models.SwapEvent
	deposits    []*models.DepositEvent
	withdraws   []*models.WithdrawEvent
	limitOrders []*models.PlaceLimitOrderEvent
	tickUpdates []*models.TickUpdateEvent
}

// IngestPage processes one ascending-ordered page of transactions and flushes
// its rows. It returns the height of the last block seen in the page.
func (p *Pipeline) IngestPage(ctx context.Context, txs []rpc.TxResult) (uint64, error) {
	regBatch := p.registry.NewBatch()
	derBatch := p.engine.NewBatch()
	rows := &pageRows{blocks: map[uint64]*models.Block{}}

	curHeight := p.curHeight
	nextTxIndex := p.nextTxIndex

	for i := range txs {
		tx := &txs[i]
		height := uint64(tx.HeightInt64())
		if height == 0 {
			p.logger.Warn("transaction with unparseable height skipped", zap.String("hash", tx.TxHash))
			continue
		}
		if height != curHeight {
			curHeight = height
			nextTxIndex = 0
		}

		blockTime := tx.BlockTime()
		if _, ok := rows.blocks[height]; !ok {
			rows.blocks[height] = &models.Block{
				Height:     height,
				Time:       tx.Timestamp,
				TimeUnix:   blockTime.Unix(),
				HeightTime: blockTime,
			}
		}

		// Failed transactions leave no trace beyond their block.
		if tx.Code != 0 {
			continue
		}
		txIndex := nextTxIndex
		nextTxIndex++

		rows.txs = append(rows.txs, &models.Tx{
			Height:     height,
			TxIndex:    txIndex,
			Hash:       tx.TxHash,
			Code:       tx.Code,
			GasWanted:  tx.GasWantedInt64(),
			GasUsed:    tx.GasUsedInt64(),
			HeightTime: blockTime,
		})

		for evIdx, raw := range tx.Events {
			dec := DecodeEvent(evIdx, raw)
			pos := SeqPos{
				Height:     height,
				TxIndex:    txIndex,
				EventIndex: uint32(evIdx),
				HeightTime: blockTime,
			}

			attrJSON, err := json.Marshal(dec.Attributes)
			if err != nil {
				attrJSON = []byte("{}")
			}
			rows.events = append(rows.events, &models.TxEvent{
				Height:     height,
				TxIndex:    txIndex,
				EventIndex: uint32(evIdx),
				Type:       dec.Type,
				Attributes: string(attrJSON),
				HeightTime: blockTime,
			})

			act, err := ParseAction(dec)
			if err != nil {
				p.logger.Error("malformed dex action skipped",
					zap.Uint64("height", height),
					zap.Uint32("tx_index", txIndex),
					zap.Int("event_index", evIdx),
					zap.Error(err))
				continue
			}
			if act == nil {
				continue
			}
			if err := p.applyAction(regBatch, derBatch, rows, act, pos); err != nil {
				p.logger.Error("dex action not applied",
					zap.Uint64("height", height),
					zap.Uint32("tx_index", txIndex),
					zap.Int("event_index", evIdx),
					zap.String("action", act.ActionName()),
					zap.Error(err))
			}
		}
	}

	if err := p.flush(ctx, regBatch, derBatch, rows); err != nil {
		return 0, err
	}

	regBatch.Commit()
	derBatch.Commit()
	p.curHeight = curHeight
	p.nextTxIndex = nextTxIndex
	return curHeight, nil
}

func (p *Pipeline) applyAction(regBatch *RegistryBatch, derBatch *DeriveBatch, rows *pageRows, act Action, pos SeqPos) error {
	switch a := act.(type) {
	case SwapAction:
		pair := regBatch.EnsurePair(a.Token0, a.Token1, pos.Height)
		rows.swaps = append(rows.swaps, &models.SwapEvent{
			Height:     pos.Height,
			TxIndex:    pos.TxIndex,
			EventIndex: pos.EventIndex,
			PairID:     pair.ID,
			TokenIn:    a.TokenIn,
			TokenOut:   a.TokenOut,
			AmountIn:   a.AmountIn,
			AmountOut:  a.AmountOut,
			Creator:    a.Creator,
			Receiver:   a.Receiver,
			HeightTime: pos.HeightTime,
		})

	case DepositAction:
		pair := regBatch.EnsurePair(a.Token0, a.Token1, pos.Height)
		rows.deposits = append(rows.deposits, &models.DepositEvent{
			Height:             pos.Height,
			TxIndex:            pos.TxIndex,
			EventIndex:         pos.EventIndex,
			PairID:             pair.ID,
			TickIndex:          a.TickIndex,
			Fee:                a.Fee,
			Reserves0Deposited: a.Reserves0,
			Reserves1Deposited: a.Reserves1,
			SharesMinted:       a.SharesMinted,
			Creator:            a.Creator,
			Receiver:           a.Receiver,
			HeightTime:         pos.HeightTime,
		})

	case WithdrawAction:
		pair := regBatch.EnsurePair(a.Token0, a.Token1, pos.Height)
		rows.withdraws = append(rows.withdraws, &models.WithdrawEvent{
			Height:             pos.Height,
			TxIndex:            pos.TxIndex,
			EventIndex:         pos.EventIndex,
			PairID:             pair.ID,
			TickIndex:          a.TickIndex,
			Fee:                a.Fee,
			Reserves0Withdrawn: a.Reserves0,
			Reserves1Withdrawn: a.Reserves1,
			SharesBurned:       a.SharesBurned,
			Creator:            a.Creator,
			Receiver:           a.Receiver,
			HeightTime:         pos.HeightTime,
		})

	case PlaceLimitOrderAction:
		pair := regBatch.EnsurePair(a.Token0, a.Token1, pos.Height)
		rows.limitOrders = append(rows.limitOrders, &models.PlaceLimitOrderEvent{
			Height:     pos.Height,
			TxIndex:    pos.TxIndex,
			EventIndex: pos.EventIndex,
			PairID:     pair.ID,
			TokenIn:    a.TokenIn,
			AmountIn:   a.AmountIn,
			LimitTick:  a.LimitTick,
			OrderID:    a.OrderID,
			Creator:    a.Creator,
			Receiver:   a.Receiver,
			HeightTime: pos.HeightTime,
		})

	case TickUpdateAction:
		pair := regBatch.EnsurePair(a.Token0, a.Token1, pos.Height)
		rows.tickUpdates = append(rows.tickUpdates, &models.TickUpdateEvent{
			Height:     pos.Height,
			TxIndex:    pos.TxIndex,
			EventIndex: pos.EventIndex,
			PairID:     pair.ID,
			Token:      a.Token,
			TickIndex:  a.TickIndex,
			Fee:        a.Fee,
			Reserves:   a.Reserves,
			HeightTime: pos.HeightTime,
		})
		return derBatch.ProcessTickUpdate(pair, a, pos)

	default:
		return fmt.Errorf("unhandled action %s", act.ActionName())
	}
	return nil
}

// flush writes every non-empty row set in parallel. Inserts are idempotent
// by ordering key, so re-running a partially flushed page converges.
func (p *Pipeline) flush(ctx context.Context, regBatch *RegistryBatch, derBatch *DeriveBatch, rows *pageRows) error {
	group := p.pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	if len(rows.blocks) > 0 {
		blocks := make([]*models.Block, 0, len(rows.blocks))
		for _, b := range rows.blocks {
			blocks = append(blocks, b)
		}
		group.SubmitErr(func() error { return p.store.InsertBlocks(groupCtx, blocks) })
	}
	if len(rows.txs) > 0 {
		group.SubmitErr(func() error { return p.store.InsertTxs(groupCtx, rows.txs) })
	}
	if len(rows.events) > 0 {
		group.SubmitErr(func() error { return p.store.InsertTxEvents(groupCtx, rows.events) })
	}
	if len(regBatch.NewTokens) > 0 {
		group.SubmitErr(func() error { return p.store.InsertTokens(groupCtx, regBatch.NewTokens) })
	}
	if len(regBatch.NewPairs) > 0 {
		group.SubmitErr(func() error { return p.store.InsertPairs(groupCtx, regBatch.NewPairs) })
	}
	if len(rows.swaps) > 0 {
		group.SubmitErr(func() error { return p.store.InsertSwapEvents(groupCtx, rows.swaps) })
	}
	if len(rows.deposits) > 0 {
		group.SubmitErr(func() error { return p.store.InsertDepositEvents(groupCtx, rows.deposits) })
	}
	if len(rows.withdraws) > 0 {
		group.SubmitErr(func() error { return p.store.InsertWithdrawEvents(groupCtx, rows.withdraws) })
	}
	if len(rows.limitOrders) > 0 {
		group.SubmitErr(func() error { return p.store.InsertPlaceLimitOrderEvents(groupCtx, rows.limitOrders) })
	}
	if len(rows.tickUpdates) > 0 {
		group.SubmitErr(func() error { return p.store.InsertTickUpdateEvents(groupCtx, rows.tickUpdates) })
	}
	if len(derBatch.TickStates) > 0 {
		group.SubmitErr(func() error { return p.store.InsertTickStates(groupCtx, derBatch.TickStates) })
	}
	if len(derBatch.PriceData) > 0 {
		group.SubmitErr(func() error { return p.store.InsertPriceData(groupCtx, derBatch.PriceData) })
	}
	if len(derBatch.VolumeData) > 0 {
		group.SubmitErr(func() error { return p.store.InsertVolumeData(groupCtx, derBatch.VolumeData) })
	}

	if err := group.Wait(); err != nil {
		return fmt.Errorf("flush page: %w", err)
	}
	return nil
}

// Stop releases the flush worker pool.
func (p *Pipeline) Stop() {
	p.pool.StopAndWait()
}
