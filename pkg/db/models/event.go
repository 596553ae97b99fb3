package models

import "time"

const TxEventsTableName = "tx_events"

// TxEvent is one row per decoded event emitted by a transaction. Attributes
// holds the decoded key/value map as a JSON string; typed per-action tables
// carry the extracted fields for recognized DEX actions.
type TxEvent struct {
	Height     uint64    `ch:"height" json:"height"`
	TxIndex    uint32    `ch:"tx_index" json:"tx_index"`
	EventIndex uint32    `ch:"event_index" json:"event_index"`
	Type       string    `ch:"type" json:"type"`
	Attributes string    `ch:"attributes" json:"attributes"`
	HeightTime time.Time `ch:"height_time" json:"height_time"`
}

var TxEventColumns = []ColumnDef{
	{Name: "height", Type: "UInt64", Codec: "Delta, ZSTD(3)"},
	{Name: "tx_index", Type: "UInt32"},
	{Name: "event_index", Type: "UInt32"},
	{Name: "type", Type: "LowCardinality(String)"},
	{Name: "attributes", Type: "String", Codec: "ZSTD(3)"},
	{Name: "height_time", Type: "DateTime64(6)", Codec: "Delta, ZSTD(3)"},
}
