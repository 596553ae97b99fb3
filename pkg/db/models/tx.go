package models

import "time"

const TxsTableName = "txs"

// Tx is one row per successful transaction. Failed transactions (code != 0)
// are never written; they are invisible to the index.
type Tx struct {
	Height     uint64    `ch:"height" json:"height"`
	TxIndex    uint32    `ch:"tx_index" json:"tx_index"`
	Hash       string    `ch:"hash" json:"hash"`
	Code       uint32    `ch:"code" json:"code"`
	GasWanted  int64     `ch:"gas_wanted" json:"gas_wanted"`
	GasUsed    int64     `ch:"gas_used" json:"gas_used"`
	HeightTime time.Time `ch:"height_time" json:"height_time"`
}

var TxColumns = []ColumnDef{
	{Name: "height", Type: "UInt64", Codec: "Delta, ZSTD(3)"},
	{Name: "tx_index", Type: "UInt32"},
	{Name: "hash", Type: "String", Codec: "ZSTD(1)"},
	{Name: "code", Type: "UInt32"},
	{Name: "gas_wanted", Type: "Int64"},
	{Name: "gas_used", Type: "Int64"},
	{Name: "height_time", Type: "DateTime64(6)", Codec: "Delta, ZSTD(3)"},
}
