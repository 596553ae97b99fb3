package dex

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/duality-labs/dex-indexer/pkg/db/clickhouse"
	"github.com/duality-labs/dex-indexer/pkg/db/models"
)

func (db *DB) initPairs(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s
		ORDER BY (token0, token1)
	`, db.Name, models.PairsTableName,
		models.ColumnsToSchemaSQL(models.PairColumns),
		clickhouse.Engine(clickhouse.ReplacingMergeTree, "created_height"))
	return db.Exec(ctx, query)
}

// InsertPairs persists newly sighted pairs in their canonical token order.
func (db *DB) InsertPairs(ctx context.Context, pairs []*models.Pair) error {
	if len(pairs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s) VALUES`,
		db.Name, models.PairsTableName, models.InsertColumnsSQL(models.PairColumns))
	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	for _, p := range pairs {
		if err := batch.Append(p.ID, p.Token0, p.Token1, p.CreatedHeight); err != nil {
			return err
		}
	}

	return batch.Send()
}

// ListPairs returns all pairs in canonical order, ordered by id.
func (db *DB) ListPairs(ctx context.Context) ([]models.Pair, error) {
	query := fmt.Sprintf(`
		SELECT id, token0, token1, created_height
		FROM "%s"."%s" FINAL
		ORDER BY id
	`, db.Name, models.PairsTableName)

	var rows []models.Pair
	if err := db.Select(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list pairs: %w", err)
	}
	return rows, nil
}
