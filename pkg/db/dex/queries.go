package dex

import (
	"context"
	"fmt"

	"github.com/duality-labs/dex-indexer/pkg/db/models"
)

// Read-side aggregate queries. All of them are restricted to a closed height
// range (fromHeight, toHeight] so their results are immutable once toHeight is
// at or below the synced frontier; the query cache relies on that.

// Resolution is a time-bucket size for timeseries queries.
type Resolution string

const (
	ResolutionSecond Resolution = "second"
	ResolutionMinute Resolution = "minute"
	ResolutionHour   Resolution = "hour"
	ResolutionDay    Resolution = "day"
	ResolutionMonth  Resolution = "month"
)

// ParseResolution validates a resolution string, defaulting to day.
func ParseResolution(s string) (Resolution, error) {
	switch Resolution(s) {
	case ResolutionSecond, ResolutionMinute, ResolutionHour, ResolutionDay, ResolutionMonth:
		return Resolution(s), nil
	case "":
		return ResolutionDay, nil
	default:
		return "", fmt.Errorf("unknown resolution %q", s)
	}
}

// bucketExpr returns the SQL expression that floors height_time to the bucket.
func (r Resolution) bucketExpr() string {
	switch r {
	case ResolutionSecond:
		return "toUnixTimestamp(toStartOfSecond(height_time))"
	case ResolutionMinute:
		return "toUnixTimestamp(toStartOfMinute(height_time))"
	case ResolutionHour:
		return "toUnixTimestamp(toStartOfHour(height_time))"
	case ResolutionMonth:
		return "toUnixTimestamp(toDateTime(toStartOfMonth(height_time)))"
	default:
		return "toUnixTimestamp(toDateTime(toStartOfDay(height_time)))"
	}
}

// TickReserves is one liquidity entry: the reserves at a tick/fee key.
type TickReserves struct {
	TickIndex int64  `ch:"tick_index" json:"tick_index"`
	Fee       uint64 `ch:"fee" json:"fee"`
	Reserves  string `ch:"reserves" json:"reserves"`
}

// TickLiquidityAsOf reconstructs the nonzero tick reserves for one side of a
// pair as of the given height. This is the as-of primitive over tick_state:
// latest write per key at or below the height wins.
func (db *DB) TickLiquidityAsOf(ctx context.Context, pairID uint64, token string, height uint64) ([]TickReserves, error) {
	query := fmt.Sprintf(`
		SELECT
			tick_index,
			fee,
			argMax(reserves, (height, tx_index, event_index)) AS reserves
		FROM "%s"."%s"
		WHERE pair_id = ? AND token = ? AND height <= ?
		GROUP BY tick_index, fee
		HAVING toFloat64OrZero(reserves) != 0
		ORDER BY tick_index, fee
	`, db.Name, models.TickStateTableName)

	var rows []TickReserves
	if err := db.Select(ctx, &rows, query, pairID, token, height); err != nil {
		return nil, fmt.Errorf("tick liquidity as of %d: %w", height, err)
	}
	return rows, nil
}

// PriceBucket is one OHLC candle of the best-tick index per bucket.
type PriceBucket struct {
	BucketUnix int64 `ch:"bucket" json:"time_unix"`
	Open       int64 `ch:"open" json:"open"`
	High       int64 `ch:"high" json:"high"`
	Low        int64 `ch:"low" json:"low"`
	Close      int64 `ch:"close" json:"close"`
}

// PriceTimeseries returns OHLC candles of last_tick over (fromHeight, toHeight].
func (db *DB) PriceTimeseries(ctx context.Context, pairID uint64, res Resolution, fromHeight, toHeight uint64) ([]PriceBucket, error) {
	query := fmt.Sprintf(`
		SELECT
			%s AS bucket,
			argMin(last_tick, (height, tx_index, event_index)) AS open,
			max(last_tick) AS high,
			min(last_tick) AS low,
			argMax(last_tick, (height, tx_index, event_index)) AS close
		FROM "%s"."%s"
		WHERE pair_id = ? AND height > ? AND height <= ?
		GROUP BY bucket
		ORDER BY bucket
	`, res.bucketExpr(), db.Name, models.TxPriceDataTableName)

	var rows []PriceBucket
	if err := db.Select(ctx, &rows, query, pairID, fromHeight, toHeight); err != nil {
		return nil, fmt.Errorf("price timeseries: %w", err)
	}
	return rows, nil
}

// VolumeBucket is one bucket of swap flow through a pair, split per side.
type VolumeBucket struct {
	BucketUnix int64   `ch:"bucket" json:"time_unix"`
	Amount0Out float64 `ch:"amount0_out" json:"amount0_out"`
	Amount1Out float64 `ch:"amount1_out" json:"amount1_out"`
	Swaps      uint64  `ch:"swaps" json:"swaps"`
}

// VolumeTimeseries returns swap volume per bucket over (fromHeight, toHeight].
// token0/token1 are the pair's canonical denoms; amounts are attributed to the
// side whose token flowed out of the pool.
func (db *DB) VolumeTimeseries(ctx context.Context, pairID uint64, token0, token1 string, res Resolution, fromHeight, toHeight uint64) ([]VolumeBucket, error) {
	query := fmt.Sprintf(`
		SELECT
			%s AS bucket,
			sum(if(token_out = ?, toFloat64OrZero(amount_out), 0)) AS amount0_out,
			sum(if(token_out = ?, toFloat64OrZero(amount_out), 0)) AS amount1_out,
			count() AS swaps
		FROM "%s"."%s"
		WHERE pair_id = ? AND height > ? AND height <= ?
		GROUP BY bucket
		ORDER BY bucket
	`, res.bucketExpr(), db.Name, models.SwapEventsTableName)

	var rows []VolumeBucket
	if err := db.Select(ctx, &rows, query, token0, token1, pairID, fromHeight, toHeight); err != nil {
		return nil, fmt.Errorf("volume timeseries: %w", err)
	}
	return rows, nil
}

// LiquidityBucket is one bucket of total reserve depth per side, read from the
// tx_volume_data changelog (latest total within the bucket wins).
type LiquidityBucket struct {
	BucketUnix int64   `ch:"bucket" json:"time_unix"`
	Total0     float64 `ch:"total0" json:"total0"`
	Total1     float64 `ch:"total1" json:"total1"`
}

// LiquidityTimeseries returns reserve-depth totals per bucket over (fromHeight, toHeight].
func (db *DB) LiquidityTimeseries(ctx context.Context, pairID uint64, res Resolution, fromHeight, toHeight uint64) ([]LiquidityBucket, error) {
	query := fmt.Sprintf(`
		SELECT
			%s AS bucket,
			argMax(toFloat64OrZero(total0), (height, tx_index, event_index)) AS total0,
			argMax(toFloat64OrZero(total1), (height, tx_index, event_index)) AS total1
		FROM "%s"."%s"
		WHERE pair_id = ? AND height > ? AND height <= ?
		GROUP BY bucket
		ORDER BY bucket
	`, res.bucketExpr(), db.Name, models.TxVolumeDataTableName)

	var rows []LiquidityBucket
	if err := db.Select(ctx, &rows, query, pairID, fromHeight, toHeight); err != nil {
		return nil, fmt.Errorf("liquidity timeseries: %w", err)
	}
	return rows, nil
}

// VolumeStats is the swap-volume total for a pair over a height range.
type VolumeStats struct {
	Amount0In  float64 `ch:"amount0_in" json:"amount0_in"`
	Amount1In  float64 `ch:"amount1_in" json:"amount1_in"`
	Amount0Out float64 `ch:"amount0_out" json:"amount0_out"`
	Amount1Out float64 `ch:"amount1_out" json:"amount1_out"`
	Swaps      uint64  `ch:"swaps" json:"swaps"`
}

// VolumeStatsFor sums swap flow for a pair over (fromHeight, toHeight].
func (db *DB) VolumeStatsFor(ctx context.Context, pairID uint64, token0, token1 string, fromHeight, toHeight uint64) (*VolumeStats, error) {
	query := fmt.Sprintf(`
		SELECT
			sum(if(token_in = ?, toFloat64OrZero(amount_in), 0)) AS amount0_in,
			sum(if(token_in = ?, toFloat64OrZero(amount_in), 0)) AS amount1_in,
			sum(if(token_out = ?, toFloat64OrZero(amount_out), 0)) AS amount0_out,
			sum(if(token_out = ?, toFloat64OrZero(amount_out), 0)) AS amount1_out,
			count() AS swaps
		FROM "%s"."%s"
		WHERE pair_id = ? AND height > ? AND height <= ?
	`, db.Name, models.SwapEventsTableName)

	var stats VolumeStats
	err := db.QueryRow(ctx, query, token0, token1, token0, token1, pairID, fromHeight, toHeight).Scan(
		&stats.Amount0In,
		&stats.Amount1In,
		&stats.Amount0Out,
		&stats.Amount1Out,
		&stats.Swaps,
	)
	if err != nil {
		return nil, fmt.Errorf("volume stats: %w", err)
	}
	return &stats, nil
}
