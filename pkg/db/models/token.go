package models

const TokensTableName = "tokens"

// Token is the deduplicated registry of denom strings seen in events.
// Rows are created lazily on first sighting and never deleted.
type Token struct {
	ID            uint64 `ch:"id" json:"id"`
	Denom         string `ch:"denom" json:"denom"`
	CreatedHeight uint64 `ch:"created_height" json:"created_height"`
}

var TokenColumns = []ColumnDef{
	{Name: "id", Type: "UInt64"},
	{Name: "denom", Type: "String"},
	{Name: "created_height", Type: "UInt64"},
}
