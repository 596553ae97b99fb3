package indexer

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duality-labs/dex-indexer/pkg/rpc"
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestDecodeEvent(t *testing.T) {
	ev := rpc.Event{
		Type: "message",
		Attributes: []rpc.Attribute{
			{Key: b64("action"), Value: b64("Swap")},
			{Key: b64("Creator"), Value: b64("cosmos1abc")},
		},
	}

	dec := DecodeEvent(3, ev)
	require.Equal(t, 3, dec.Index)
	require.Equal(t, "message", dec.Type)
	assert.Equal(t, "Swap", dec.Attributes["action"])
	assert.Equal(t, "cosmos1abc", dec.Attributes["Creator"])
}

func TestDecodeEventAbsentValue(t *testing.T) {
	ev := rpc.Event{
		Type:       "message",
		Attributes: []rpc.Attribute{{Key: b64("Receiver"), Value: ""}},
	}

	dec := DecodeEvent(0, ev)
	v, ok := dec.Attributes["Receiver"]
	require.True(t, ok)
	assert.Equal(t, "", v)
}

func TestDecodeEventDropsMalformedEntries(t *testing.T) {
	ev := rpc.Event{
		Type: "message",
		Attributes: []rpc.Attribute{
			{Key: "not-base64!", Value: b64("x")},
			{Key: b64(""), Value: b64("x")},
			{Key: b64("Good"), Value: "also-not-base64!"},
			{Key: b64("Kept"), Value: b64("yes")},
		},
	}

	dec := DecodeEvent(0, ev)
	assert.Len(t, dec.Attributes, 1)
	assert.Equal(t, "yes", dec.Attributes["Kept"])
}
