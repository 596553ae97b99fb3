package dex

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/duality-labs/dex-indexer/pkg/db/clickhouse"
	"github.com/duality-labs/dex-indexer/pkg/db/models"
)

// Derived tables maintained by the derivation engine. tick_state keeps the
// full per-key history so the as-of primitive can reconstruct any height;
// tx_price_data and tx_volume_data are change-only logs stamped with the
// global sequence position.

func (db *DB) initTickState(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s
		ORDER BY (pair_id, token, tick_index, fee, height, tx_index, event_index)
	`, db.Name, models.TickStateTableName,
		models.ColumnsToSchemaSQL(models.TickStateColumns),
		clickhouse.Engine(clickhouse.ReplacingMergeTree, "height"))
	return db.Exec(ctx, query)
}

func (db *DB) initTxPriceData(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s
		ORDER BY (pair_id, height, tx_index, event_index)
	`, db.Name, models.TxPriceDataTableName,
		models.ColumnsToSchemaSQL(models.PriceDatumColumns),
		clickhouse.Engine(clickhouse.ReplacingMergeTree, "height"))
	return db.Exec(ctx, query)
}

func (db *DB) initTxVolumeData(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s
		ORDER BY (pair_id, height, tx_index, event_index)
	`, db.Name, models.TxVolumeDataTableName,
		models.ColumnsToSchemaSQL(models.VolumeDatumColumns),
		clickhouse.Engine(clickhouse.ReplacingMergeTree, "height"))
	return db.Exec(ctx, query)
}

// InsertTickStates persists tick-state history rows in one batch.
func (db *DB) InsertTickStates(ctx context.Context, states []*models.TickState) error {
	if len(states) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s) VALUES`,
		db.Name, models.TickStateTableName, models.InsertColumnsSQL(models.TickStateColumns))
	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	for _, s := range states {
		err = batch.Append(
			s.PairID, s.Token, s.TickIndex, s.Fee, s.Reserves,
			s.Height, s.TxIndex, s.EventIndex, s.HeightTime,
		)
		if err != nil {
			return err
		}
	}

	return batch.Send()
}

// InsertPriceData persists best-tick changelog rows in one batch.
func (db *DB) InsertPriceData(ctx context.Context, data []*models.PriceDatum) error {
	if len(data) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s) VALUES`,
		db.Name, models.TxPriceDataTableName, models.InsertColumnsSQL(models.PriceDatumColumns))
	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	for _, d := range data {
		err = batch.Append(
			d.PairID, d.Height, d.TxIndex, d.EventIndex,
			d.Tick0, d.Tick1, d.LastTick, d.HeightTime,
		)
		if err != nil {
			return err
		}
	}

	return batch.Send()
}

// InsertVolumeData persists reserve-total changelog rows in one batch.
func (db *DB) InsertVolumeData(ctx context.Context, data []*models.VolumeDatum) error {
	if len(data) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s) VALUES`,
		db.Name, models.TxVolumeDataTableName, models.InsertColumnsSQL(models.VolumeDatumColumns))
	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	for _, d := range data {
		err = batch.Append(
			d.PairID, d.Height, d.TxIndex, d.EventIndex,
			d.Total0, d.Total1, d.HeightTime,
		)
		if err != nil {
			return err
		}
	}

	return batch.Send()
}

// RestoreTickStates reconstructs the latest reserves for every tick key as of
// the given height. Used by the derivation engine to rebuild its in-memory
// state at startup; shares the as-of shape with TickLiquidityAsOf.
func (db *DB) RestoreTickStates(ctx context.Context, height uint64) ([]models.TickState, error) {
	query := fmt.Sprintf(`
		SELECT
			pair_id,
			token,
			tick_index,
			fee,
			argMax(reserves, (height, tx_index, event_index)) AS reserves,
			max(height) AS height
		FROM "%s"."%s"
		WHERE height <= ?
		GROUP BY pair_id, token, tick_index, fee
	`, db.Name, models.TickStateTableName)

	var rows []models.TickState
	if err := db.Select(ctx, &rows, query, height); err != nil {
		return nil, fmt.Errorf("restore tick states: %w", err)
	}
	return rows, nil
}

// lastPriceDataQuery takes each pair's latest changelog row whole. tick0 and
// tick1 are Nullable and argMax skips NULL inputs, which would stitch the
// latest row's ticks together with older non-NULL values.
const lastPriceDataQuery = `
	SELECT pair_id, tick0, tick1, last_tick, height
	FROM "%s"."%s"
	WHERE height <= ?
	ORDER BY pair_id, height DESC, tx_index DESC, event_index DESC
	LIMIT 1 BY pair_id
`

// LastPriceData returns the most recent changelog row per pair at or below the
// given height.
func (db *DB) LastPriceData(ctx context.Context, height uint64) ([]models.PriceDatum, error) {
	query := fmt.Sprintf(lastPriceDataQuery, db.Name, models.TxPriceDataTableName)

	var rows []models.PriceDatum
	if err := db.Select(ctx, &rows, query, height); err != nil {
		return nil, fmt.Errorf("last price data: %w", err)
	}
	return rows, nil
}

// LastVolumeData returns the most recent reserve totals per pair at or below
// the given height.
func (db *DB) LastVolumeData(ctx context.Context, height uint64) ([]models.VolumeDatum, error) {
	query := fmt.Sprintf(`
		SELECT
			pair_id,
			argMax(total0, (height, tx_index, event_index)) AS total0,
			argMax(total1, (height, tx_index, event_index)) AS total1,
			max(height) AS height
		FROM "%s"."%s"
		WHERE height <= ?
		GROUP BY pair_id
	`, db.Name, models.TxVolumeDataTableName)

	var rows []models.VolumeDatum
	if err := db.Select(ctx, &rows, query, height); err != nil {
		return nil, fmt.Errorf("last volume data: %w", err)
	}
	return rows, nil
}
