package dex

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/duality-labs/dex-indexer/pkg/db/clickhouse"
	"github.com/duality-labs/dex-indexer/pkg/db/models"
)

func (db *DB) initTokens(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s
		ORDER BY (denom)
	`, db.Name, models.TokensTableName,
		models.ColumnsToSchemaSQL(models.TokenColumns),
		clickhouse.Engine(clickhouse.ReplacingMergeTree, "created_height"))
	return db.Exec(ctx, query)
}

// InsertTokens persists newly sighted denoms. The table is keyed by denom, so
// re-inserting a known denom with the same id is deduplicated by merges.
func (db *DB) InsertTokens(ctx context.Context, tokens []*models.Token) error {
	if len(tokens) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s) VALUES`,
		db.Name, models.TokensTableName, models.InsertColumnsSQL(models.TokenColumns))
	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	for _, t := range tokens {
		if err := batch.Append(t.ID, t.Denom, t.CreatedHeight); err != nil {
			return err
		}
	}

	return batch.Send()
}

// ListTokens returns the full token registry ordered by id.
func (db *DB) ListTokens(ctx context.Context) ([]models.Token, error) {
	query := fmt.Sprintf(`
		SELECT id, denom, created_height
		FROM "%s"."%s" FINAL
		ORDER BY id
	`, db.Name, models.TokensTableName)

	var rows []models.Token
	if err := db.Select(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	return rows, nil
}
