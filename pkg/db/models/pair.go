package models

const PairsTableName = "pairs"

// Pair fixes the canonical (token0, token1) ordering of two tokens at first
// sighting. Callers asking for (tokenA, tokenB) must check whether their order
// matches the canonical one and invert direction-sensitive values if not.
type Pair struct {
	ID            uint64 `ch:"id" json:"id"`
	Token0        string `ch:"token0" json:"token0"`
	Token1        string `ch:"token1" json:"token1"`
	CreatedHeight uint64 `ch:"created_height" json:"created_height"`
}

var PairColumns = []ColumnDef{
	{Name: "id", Type: "UInt64"},
	{Name: "token0", Type: "String"},
	{Name: "token1", Type: "String"},
	{Name: "created_height", Type: "UInt64"},
}
