package rpc

import (
	"strconv"
	"time"
)

// Attribute is one raw event attribute. Key and value are base64-encoded
// opaque byte strings on the wire.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is one raw event emitted by a transaction.
type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// TxResult is one transaction result from the upstream feed. Numeric fields
// arrive as decimal strings.
type TxResult struct {
	Height    string  `json:"height"`
	TxHash    string  `json:"txhash"`
	Code      uint32  `json:"code"`
	Timestamp string  `json:"timestamp"`
	GasWanted string  `json:"gas_wanted"`
	GasUsed   string  `json:"gas_used"`
	Info      string  `json:"info"`
	Codespace string  `json:"codespace"`
	Events    []Event `json:"events"`
}

// HeightInt64 parses the height string, returning 0 for malformed input.
func (tx *TxResult) HeightInt64() int64 {
	h, _ := strconv.ParseInt(tx.Height, 10, 64)
	return h
}

// GasWantedInt64 parses gas_wanted, returning 0 for malformed input.
func (tx *TxResult) GasWantedInt64() int64 {
	g, _ := strconv.ParseInt(tx.GasWanted, 10, 64)
	return g
}

// GasUsedInt64 parses gas_used, returning 0 for malformed input.
func (tx *TxResult) GasUsedInt64() int64 {
	g, _ := strconv.ParseInt(tx.GasUsed, 10, 64)
	return g
}

// BlockTime parses the ISO8601 timestamp, returning the zero time on failure.
func (tx *TxResult) BlockTime() time.Time {
	t, err := time.Parse(time.RFC3339Nano, tx.Timestamp)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, tx.Timestamp)
	}
	return t
}

// Pagination is the offset/total pagination envelope of the feed.
type Pagination struct {
	NextKey string `json:"next_key"`
	Total   string `json:"total"`
}

// TotalUint64 parses the total count, returning 0 for malformed input.
func (p *Pagination) TotalUint64() uint64 {
	n, _ := strconv.ParseUint(p.Total, 10, 64)
	return n
}

// TxPage is one page of the paged transaction feed.
type TxPage struct {
	TxResponses []TxResult  `json:"tx_responses"`
	Pagination  *Pagination `json:"pagination"`
}
