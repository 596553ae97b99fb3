package models

import "time"

const BlocksTableName = "blocks"

// Block is one row per ingested block. Blocks are append-only and never
// mutated; re-ingesting the same height is deduplicated by the ordering key.
type Block struct {
	Height     uint64    `ch:"height" json:"height"`
	Time       string    `ch:"time" json:"time"`
	TimeUnix   int64     `ch:"time_unix" json:"time_unix"`
	HeightTime time.Time `ch:"height_time" json:"height_time"`
}

var BlockColumns = []ColumnDef{
	{Name: "height", Type: "UInt64", Codec: "Delta, ZSTD(3)"},
	{Name: "time", Type: "String"},
	{Name: "time_unix", Type: "Int64", Codec: "Delta, ZSTD(3)"},
	{Name: "height_time", Type: "DateTime64(6)", Codec: "Delta, ZSTD(3)"},
}
