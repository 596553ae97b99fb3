package dex

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/duality-labs/dex-indexer/pkg/db/clickhouse"
	"github.com/duality-labs/dex-indexer/pkg/db/models"
)

// Per-action event tables. All are append-only with the global sequence
// position (height, tx_index, event_index) as ordering key, so a replayed
// page deduplicates instead of double-counting.

func (db *DB) initActionTable(ctx context.Context, table string, columns []models.ColumnDef) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s
		ORDER BY (height, tx_index, event_index)
	`, db.Name, table,
		models.ColumnsToSchemaSQL(columns),
		clickhouse.Engine(clickhouse.ReplacingMergeTree, "height"))
	return db.Exec(ctx, query)
}

func (db *DB) initSwapEvents(ctx context.Context) error {
	return db.initActionTable(ctx, models.SwapEventsTableName, models.SwapEventColumns)
}

func (db *DB) initDepositEvents(ctx context.Context) error {
	return db.initActionTable(ctx, models.DepositEventsTableName, models.DepositEventColumns)
}

func (db *DB) initWithdrawEvents(ctx context.Context) error {
	return db.initActionTable(ctx, models.WithdrawEventsTableName, models.WithdrawEventColumns)
}

func (db *DB) initPlaceLimitOrderEvents(ctx context.Context) error {
	return db.initActionTable(ctx, models.PlaceLimitOrderEventsTableName, models.PlaceLimitOrderEventColumns)
}

func (db *DB) initTickUpdateEvents(ctx context.Context) error {
	return db.initActionTable(ctx, models.TickUpdateEventsTableName, models.TickUpdateEventColumns)
}

// InsertSwapEvents persists swap rows in one batch.
func (db *DB) InsertSwapEvents(ctx context.Context, events []*models.SwapEvent) error {
	if len(events) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s) VALUES`,
		db.Name, models.SwapEventsTableName, models.InsertColumnsSQL(models.SwapEventColumns))
	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	for _, ev := range events {
		err = batch.Append(
			ev.Height, ev.TxIndex, ev.EventIndex, ev.PairID,
			ev.TokenIn, ev.TokenOut, ev.AmountIn, ev.AmountOut,
			ev.Creator, ev.Receiver, ev.HeightTime,
		)
		if err != nil {
			return err
		}
	}

	return batch.Send()
}

// InsertDepositEvents persists deposit rows in one batch.
func (db *DB) InsertDepositEvents(ctx context.Context, events []*models.DepositEvent) error {
	if len(events) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s) VALUES`,
		db.Name, models.DepositEventsTableName, models.InsertColumnsSQL(models.DepositEventColumns))
	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	for _, ev := range events {
		err = batch.Append(
			ev.Height, ev.TxIndex, ev.EventIndex, ev.PairID,
			ev.TickIndex, ev.Fee,
			ev.Reserves0Deposited, ev.Reserves1Deposited, ev.SharesMinted,
			ev.Creator, ev.Receiver, ev.HeightTime,
		)
		if err != nil {
			return err
		}
	}

	return batch.Send()
}

// InsertWithdrawEvents persists withdraw rows in one batch.
func (db *DB) InsertWithdrawEvents(ctx context.Context, events []*models.WithdrawEvent) error {
	if len(events) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s) VALUES`,
		db.Name, models.WithdrawEventsTableName, models.InsertColumnsSQL(models.WithdrawEventColumns))
	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	for _, ev := range events {
		err = batch.Append(
			ev.Height, ev.TxIndex, ev.EventIndex, ev.PairID,
			ev.TickIndex, ev.Fee,
			ev.Reserves0Withdrawn, ev.Reserves1Withdrawn, ev.SharesBurned,
			ev.Creator, ev.Receiver, ev.HeightTime,
		)
		if err != nil {
			return err
		}
	}

	return batch.Send()
}

// InsertPlaceLimitOrderEvents persists limit-order rows in one batch.
func (db *DB) InsertPlaceLimitOrderEvents(ctx context.Context, events []*models.PlaceLimitOrderEvent) error {
	if len(events) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s) VALUES`,
		db.Name, models.PlaceLimitOrderEventsTableName, models.InsertColumnsSQL(models.PlaceLimitOrderEventColumns))
	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	for _, ev := range events {
		err = batch.Append(
			ev.Height, ev.TxIndex, ev.EventIndex, ev.PairID,
			ev.TokenIn, ev.AmountIn, ev.LimitTick, ev.OrderID,
			ev.Creator, ev.Receiver, ev.HeightTime,
		)
		if err != nil {
			return err
		}
	}

	return batch.Send()
}

// InsertTickUpdateEvents persists tick-update rows in one batch.
func (db *DB) InsertTickUpdateEvents(ctx context.Context, events []*models.TickUpdateEvent) error {
	if len(events) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s) VALUES`,
		db.Name, models.TickUpdateEventsTableName, models.InsertColumnsSQL(models.TickUpdateEventColumns))
	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	for _, ev := range events {
		err = batch.Append(
			ev.Height, ev.TxIndex, ev.EventIndex, ev.PairID,
			ev.Token, ev.TickIndex, ev.Fee, ev.Reserves, ev.HeightTime,
		)
		if err != nil {
			return err
		}
	}

	return batch.Send()
}
