package dex

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/duality-labs/dex-indexer/pkg/db/clickhouse"
	"github.com/duality-labs/dex-indexer/pkg/db/models"
)

func (db *DB) initTxs(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s
		ORDER BY (height, tx_index)
	`, db.Name, models.TxsTableName,
		models.ColumnsToSchemaSQL(models.TxColumns),
		clickhouse.Engine(clickhouse.ReplacingMergeTree, "height"))
	return db.Exec(ctx, query)
}

// InsertTxs persists transactions in one batch.
func (db *DB) InsertTxs(ctx context.Context, txs []*models.Tx) error {
	if len(txs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s) VALUES`,
		db.Name, models.TxsTableName, models.InsertColumnsSQL(models.TxColumns))
	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	for _, tx := range txs {
		err = batch.Append(
			tx.Height,
			tx.TxIndex,
			tx.Hash,
			tx.Code,
			tx.GasWanted,
			tx.GasUsed,
			tx.HeightTime,
		)
		if err != nil {
			return err
		}
	}

	return batch.Send()
}

// TxQuery is one page request against the txs table. Before and After are
// exclusive unix-second bounds on the block time; zero means unbounded.
type TxQuery struct {
	Offset   int
	Limit    int
	Before   int64
	After    int64
	SortDesc bool
}

// QueryTxs pages through transactions by offset within the optional time window.
func (db *DB) QueryTxs(ctx context.Context, q TxQuery) ([]models.Tx, error) {
	direction := "ASC"
	if q.SortDesc {
		direction = "DESC"
	}

	where := ""
	args := []interface{}{}
	if q.Before > 0 {
		where += " AND height_time < toDateTime64(?, 6)"
		args = append(args, q.Before)
	}
	if q.After > 0 {
		where += " AND height_time > toDateTime64(?, 6)"
		args = append(args, q.After)
	}
	if where != "" {
		where = "WHERE" + where[4:]
	}

	query := fmt.Sprintf(`
		SELECT height, tx_index, hash, code, gas_wanted, gas_used, height_time
		FROM "%s"."%s" FINAL
		%s
		ORDER BY height %s, tx_index %s
		LIMIT %d OFFSET %d
	`, db.Name, models.TxsTableName, where, direction, direction, q.Limit, q.Offset)

	var rows []models.Tx
	if err := db.Select(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query txs: %w", err)
	}
	return rows, nil
}
