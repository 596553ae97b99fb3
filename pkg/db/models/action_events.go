package models

import "time"

const (
	SwapEventsTableName            = "event_swap"
	DepositEventsTableName         = "event_deposit"
	WithdrawEventsTableName        = "event_withdraw"
	PlaceLimitOrderEventsTableName = "event_place_limit_order"
	TickUpdateEventsTableName      = "event_tick_update"
)

// SwapEvent is one row per Swap action. Amounts are decimal strings.
type SwapEvent struct {
	Height     uint64    `ch:"height" json:"height"`
	TxIndex    uint32    `ch:"tx_index" json:"tx_index"`
	EventIndex uint32    `ch:"event_index" json:"event_index"`
	PairID     uint64    `ch:"pair_id" json:"pair_id"`
	TokenIn    string    `ch:"token_in" json:"token_in"`
	TokenOut   string    `ch:"token_out" json:"token_out"`
	AmountIn   string    `ch:"amount_in" json:"amount_in"`
	AmountOut  string    `ch:"amount_out" json:"amount_out"`
	Creator    string    `ch:"creator" json:"creator"`
	Receiver   string    `ch:"receiver" json:"receiver"`
	HeightTime time.Time `ch:"height_time" json:"height_time"`
}

var SwapEventColumns = []ColumnDef{
	{Name: "height", Type: "UInt64", Codec: "Delta, ZSTD(3)"},
	{Name: "tx_index", Type: "UInt32"},
	{Name: "event_index", Type: "UInt32"},
	{Name: "pair_id", Type: "UInt64"},
	{Name: "token_in", Type: "LowCardinality(String)"},
	{Name: "token_out", Type: "LowCardinality(String)"},
	{Name: "amount_in", Type: "String"},
	{Name: "amount_out", Type: "String"},
	{Name: "creator", Type: "String", Codec: "ZSTD(1)"},
	{Name: "receiver", Type: "String", Codec: "ZSTD(1)"},
	{Name: "height_time", Type: "DateTime64(6)", Codec: "Delta, ZSTD(3)"},
}

// DepositEvent is one row per Deposit/DepositLP action.
type DepositEvent struct {
	Height            uint64    `ch:"height" json:"height"`
	TxIndex           uint32    `ch:"tx_index" json:"tx_index"`
	EventIndex        uint32    `ch:"event_index" json:"event_index"`
	PairID            uint64    `ch:"pair_id" json:"pair_id"`
	TickIndex         int64     `ch:"tick_index" json:"tick_index"`
	Fee               uint64    `ch:"fee" json:"fee"`
	Reserves0Deposited string   `ch:"reserves0_deposited" json:"reserves0_deposited"`
	Reserves1Deposited string   `ch:"reserves1_deposited" json:"reserves1_deposited"`
	SharesMinted      string    `ch:"shares_minted" json:"shares_minted"`
	Creator           string    `ch:"creator" json:"creator"`
	Receiver          string    `ch:"receiver" json:"receiver"`
	HeightTime        time.Time `ch:"height_time" json:"height_time"`
}

var DepositEventColumns = []ColumnDef{
	{Name: "height", Type: "UInt64", Codec: "Delta, ZSTD(3)"},
	{Name: "tx_index", Type: "UInt32"},
	{Name: "event_index", Type: "UInt32"},
	{Name: "pair_id", Type: "UInt64"},
	{Name: "tick_index", Type: "Int64"},
	{Name: "fee", Type: "UInt64"},
	{Name: "reserves0_deposited", Type: "String"},
	{Name: "reserves1_deposited", Type: "String"},
	{Name: "shares_minted", Type: "String"},
	{Name: "creator", Type: "String", Codec: "ZSTD(1)"},
	{Name: "receiver", Type: "String", Codec: "ZSTD(1)"},
	{Name: "height_time", Type: "DateTime64(6)", Codec: "Delta, ZSTD(3)"},
}

// WithdrawEvent is one row per Withdraw/WithdrawLP action.
type WithdrawEvent struct {
	Height             uint64    `ch:"height" json:"height"`
	TxIndex            uint32    `ch:"tx_index" json:"tx_index"`
	EventIndex         uint32    `ch:"event_index" json:"event_index"`
	PairID             uint64    `ch:"pair_id" json:"pair_id"`
	TickIndex          int64     `ch:"tick_index" json:"tick_index"`
	Fee                uint64    `ch:"fee" json:"fee"`
	Reserves0Withdrawn string    `ch:"reserves0_withdrawn" json:"reserves0_withdrawn"`
	Reserves1Withdrawn string    `ch:"reserves1_withdrawn" json:"reserves1_withdrawn"`
	SharesBurned       string    `ch:"shares_burned" json:"shares_burned"`
	Creator            string    `ch:"creator" json:"creator"`
	Receiver           string    `ch:"receiver" json:"receiver"`
	HeightTime         time.Time `ch:"height_time" json:"height_time"`
}

var WithdrawEventColumns = []ColumnDef{
	{Name: "height", Type: "UInt64", Codec: "Delta, ZSTD(3)"},
	{Name: "tx_index", Type: "UInt32"},
	{Name: "event_index", Type: "UInt32"},
	{Name: "pair_id", Type: "UInt64"},
	{Name: "tick_index", Type: "Int64"},
	{Name: "fee", Type: "UInt64"},
	{Name: "reserves0_withdrawn", Type: "String"},
	{Name: "reserves1_withdrawn", Type: "String"},
	{Name: "shares_burned", Type: "String"},
	{Name: "creator", Type: "String", Codec: "ZSTD(1)"},
	{Name: "receiver", Type: "String", Codec: "ZSTD(1)"},
	{Name: "height_time", Type: "DateTime64(6)", Codec: "Delta, ZSTD(3)"},
}

// PlaceLimitOrderEvent is one row per PlaceLimitOrder action.
type PlaceLimitOrderEvent struct {
	Height     uint64    `ch:"height" json:"height"`
	TxIndex    uint32    `ch:"tx_index" json:"tx_index"`
	EventIndex uint32    `ch:"event_index" json:"event_index"`
	PairID     uint64    `ch:"pair_id" json:"pair_id"`
	TokenIn    string    `ch:"token_in" json:"token_in"`
	AmountIn   string    `ch:"amount_in" json:"amount_in"`
	LimitTick  int64     `ch:"limit_tick" json:"limit_tick"`
	OrderID    string    `ch:"order_id" json:"order_id"`
	Creator    string    `ch:"creator" json:"creator"`
	Receiver   string    `ch:"receiver" json:"receiver"`
	HeightTime time.Time `ch:"height_time" json:"height_time"`
}

var PlaceLimitOrderEventColumns = []ColumnDef{
	{Name: "height", Type: "UInt64", Codec: "Delta, ZSTD(3)"},
	{Name: "tx_index", Type: "UInt32"},
	{Name: "event_index", Type: "UInt32"},
	{Name: "pair_id", Type: "UInt64"},
	{Name: "token_in", Type: "LowCardinality(String)"},
	{Name: "amount_in", Type: "String"},
	{Name: "limit_tick", Type: "Int64"},
	{Name: "order_id", Type: "String"},
	{Name: "creator", Type: "String", Codec: "ZSTD(1)"},
	{Name: "receiver", Type: "String", Codec: "ZSTD(1)"},
	{Name: "height_time", Type: "DateTime64(6)", Codec: "Delta, ZSTD(3)"},
}

// TickUpdateEvent is one row per TickUpdate action: the absolute new reserve
// amount at one (pair, token, tick, fee) key. This feeds the derivation engine.
type TickUpdateEvent struct {
	Height     uint64    `ch:"height" json:"height"`
	TxIndex    uint32    `ch:"tx_index" json:"tx_index"`
	EventIndex uint32    `ch:"event_index" json:"event_index"`
	PairID     uint64    `ch:"pair_id" json:"pair_id"`
	Token      string    `ch:"token" json:"token"`
	TickIndex  int64     `ch:"tick_index" json:"tick_index"`
	Fee        uint64    `ch:"fee" json:"fee"`
	Reserves   string    `ch:"reserves" json:"reserves"`
	HeightTime time.Time `ch:"height_time" json:"height_time"`
}

var TickUpdateEventColumns = []ColumnDef{
	{Name: "height", Type: "UInt64", Codec: "Delta, ZSTD(3)"},
	{Name: "tx_index", Type: "UInt32"},
	{Name: "event_index", Type: "UInt32"},
	{Name: "pair_id", Type: "UInt64"},
	{Name: "token", Type: "LowCardinality(String)"},
	{Name: "tick_index", Type: "Int64"},
	{Name: "fee", Type: "UInt64"},
	{Name: "reserves", Type: "String"},
	{Name: "height_time", Type: "DateTime64(6)", Codec: "Delta, ZSTD(3)"},
}
