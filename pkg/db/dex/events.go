package dex

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/duality-labs/dex-indexer/pkg/db/clickhouse"
	"github.com/duality-labs/dex-indexer/pkg/db/models"
)

func (db *DB) initTxEvents(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s
		ORDER BY (height, tx_index, event_index)
	`, db.Name, models.TxEventsTableName,
		models.ColumnsToSchemaSQL(models.TxEventColumns),
		clickhouse.Engine(clickhouse.ReplacingMergeTree, "height"))
	return db.Exec(ctx, query)
}

// InsertTxEvents persists decoded events in one batch.
func (db *DB) InsertTxEvents(ctx context.Context, events []*models.TxEvent) error {
	if len(events) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s) VALUES`,
		db.Name, models.TxEventsTableName, models.InsertColumnsSQL(models.TxEventColumns))
	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	for _, ev := range events {
		err = batch.Append(
			ev.Height,
			ev.TxIndex,
			ev.EventIndex,
			ev.Type,
			ev.Attributes,
			ev.HeightTime,
		)
		if err != nil {
			return err
		}
	}

	return batch.Send()
}
