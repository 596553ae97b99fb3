package dex

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/duality-labs/dex-indexer/pkg/db/clickhouse"
	"github.com/duality-labs/dex-indexer/pkg/db/models"
)

// initBlocks creates the blocks table. ReplacingMergeTree keyed by height makes
// re-ingestion of the same block a no-op after merges; reads use FINAL.
func (db *DB) initBlocks(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s,
			INDEX idx_time_unix time_unix TYPE minmax GRANULARITY 8192
		) ENGINE = %s
		ORDER BY (height)
	`, db.Name, models.BlocksTableName,
		models.ColumnsToSchemaSQL(models.BlockColumns),
		clickhouse.Engine(clickhouse.ReplacingMergeTree, "height"))
	return db.Exec(ctx, query)
}

// InsertBlocks persists blocks in one batch.
func (db *DB) InsertBlocks(ctx context.Context, blocks []*models.Block) error {
	if len(blocks) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s) VALUES`,
		db.Name, models.BlocksTableName, models.InsertColumnsSQL(models.BlockColumns))
	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	for _, b := range blocks {
		if err := batch.Append(b.Height, b.Time, b.TimeUnix, b.HeightTime); err != nil {
			return err
		}
	}

	return batch.Send()
}

// GetBlock returns the row for the given height, or sql.ErrNoRows.
func (db *DB) GetBlock(ctx context.Context, height uint64) (*models.Block, error) {
	var b models.Block
	query := fmt.Sprintf(`
		SELECT height, time, time_unix, height_time
		FROM "%s"."%s" FINAL
		WHERE height = ?
		LIMIT 1
	`, db.Name, models.BlocksTableName)
	err := db.QueryRow(ctx, query, height).Scan(&b.Height, &b.Time, &b.TimeUnix, &b.HeightTime)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// MaxBlockHeight returns the highest ingested height, or 0 when empty.
func (db *DB) MaxBlockHeight(ctx context.Context) (uint64, error) {
	var height uint64
	query := fmt.Sprintf(`SELECT max(height) FROM "%s"."%s"`, db.Name, models.BlocksTableName)
	if err := db.QueryRow(ctx, query).Scan(&height); err != nil {
		if clickhouse.IsNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("query max block height: %w", err)
	}
	return height, nil
}

// HeightForTimestamp returns the highest height whose block time is at or
// before the given unix timestamp, or 0 when no block qualifies. Used to
// resolve from_timestamp/to_timestamp request parameters to a height range.
func (db *DB) HeightForTimestamp(ctx context.Context, unix int64) (uint64, error) {
	var height uint64
	query := fmt.Sprintf(`
		SELECT max(height) FROM "%s"."%s" WHERE time_unix <= ?
	`, db.Name, models.BlocksTableName)
	if err := db.QueryRow(ctx, query, unix).Scan(&height); err != nil {
		if clickhouse.IsNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("query height for timestamp: %w", err)
	}
	return height, nil
}
