package models

import "time"

const (
	TickStateTableName    = "tick_state"
	TxPriceDataTableName  = "tx_price_data"
	TxVolumeDataTableName = "tx_volume_data"
)

// TickState is the append-only history of absolute reserves per tick key.
// The latest (or as-of-height) value for a key is read with the as-of query
// primitive: argMax(reserves, height) grouped by key, restricted to height <= H.
type TickState struct {
	PairID     uint64    `ch:"pair_id" json:"pair_id"`
	Token      string    `ch:"token" json:"token"`
	TickIndex  int64     `ch:"tick_index" json:"tick_index"`
	Fee        uint64    `ch:"fee" json:"fee"`
	Reserves   string    `ch:"reserves" json:"reserves"`
	Height     uint64    `ch:"height" json:"height"`
	TxIndex    uint32    `ch:"tx_index" json:"tx_index"`
	EventIndex uint32    `ch:"event_index" json:"event_index"`
	HeightTime time.Time `ch:"height_time" json:"height_time"`
}

var TickStateColumns = []ColumnDef{
	{Name: "pair_id", Type: "UInt64"},
	{Name: "token", Type: "LowCardinality(String)"},
	{Name: "tick_index", Type: "Int64"},
	{Name: "fee", Type: "UInt64"},
	{Name: "reserves", Type: "String"},
	{Name: "height", Type: "UInt64", Codec: "Delta, ZSTD(3)"},
	{Name: "tx_index", Type: "UInt32"},
	{Name: "event_index", Type: "UInt32"},
	{Name: "height_time", Type: "DateTime64(6)", Codec: "Delta, ZSTD(3)"},
}

// PriceDatum is one changelog row per observable best-tick change, stamped
// with the global event-sequence position (height, tx_index, event_index).
// Tick0/Tick1 carry the last known best tick per side; LastTick is whichever
// side has a defined value, preferring the side that just changed.
type PriceDatum struct {
	PairID     uint64    `ch:"pair_id" json:"pair_id"`
	Height     uint64    `ch:"height" json:"height"`
	TxIndex    uint32    `ch:"tx_index" json:"tx_index"`
	EventIndex uint32    `ch:"event_index" json:"event_index"`
	Tick0      *int64    `ch:"tick0" json:"tick0"`
	Tick1      *int64    `ch:"tick1" json:"tick1"`
	LastTick   int64     `ch:"last_tick" json:"last_tick"`
	HeightTime time.Time `ch:"height_time" json:"height_time"`
}

var PriceDatumColumns = []ColumnDef{
	{Name: "pair_id", Type: "UInt64"},
	{Name: "height", Type: "UInt64", Codec: "Delta, ZSTD(3)"},
	{Name: "tx_index", Type: "UInt32"},
	{Name: "event_index", Type: "UInt32"},
	{Name: "tick0", Type: "Nullable(Int64)"},
	{Name: "tick1", Type: "Nullable(Int64)"},
	{Name: "last_tick", Type: "Int64"},
	{Name: "height_time", Type: "DateTime64(6)", Codec: "Delta, ZSTD(3)"},
}

// VolumeDatum is one changelog row per observable change of the summed
// reserves on either side of a pair.
type VolumeDatum struct {
	PairID     uint64    `ch:"pair_id" json:"pair_id"`
	Height     uint64    `ch:"height" json:"height"`
	TxIndex    uint32    `ch:"tx_index" json:"tx_index"`
	EventIndex uint32    `ch:"event_index" json:"event_index"`
	Total0     string    `ch:"total0" json:"total0"`
	Total1     string    `ch:"total1" json:"total1"`
	HeightTime time.Time `ch:"height_time" json:"height_time"`
}

var VolumeDatumColumns = []ColumnDef{
	{Name: "pair_id", Type: "UInt64"},
	{Name: "height", Type: "UInt64", Codec: "Delta, ZSTD(3)"},
	{Name: "tx_index", Type: "UInt32"},
	{Name: "event_index", Type: "UInt32"},
	{Name: "total0", Type: "String"},
	{Name: "total1", Type: "String"},
	{Name: "height_time", Type: "DateTime64(6)", Codec: "Delta, ZSTD(3)"},
}
