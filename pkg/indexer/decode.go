package indexer

import (
	"encoding/base64"

	"github.com/duality-labs/dex-indexer/pkg/rpc"
)

// DecodedEvent is a typed view of one raw event: the base64 key/value blobs
// resolved to a plain string map.
type DecodedEvent struct {
	Index      int
	Type       string
	Attributes map[string]string
}

// DecodeEvent decodes every attribute of a raw event independently. A key
// that does not decode to a non-empty string drops the whole entry; an absent
// value decodes to the empty string. Decoding never fails — malformed entries
// are skipped, not fatal.
func DecodeEvent(index int, ev rpc.Event) DecodedEvent {
	attrs := make(map[string]string, len(ev.Attributes))
	for _, attr := range ev.Attributes {
		key, ok := decodeAttr(attr.Key)
		if !ok || key == "" {
			continue
		}
		value := ""
		if attr.Value != "" {
			v, ok := decodeAttr(attr.Value)
			if !ok {
				continue
			}
			value = v
		}
		attrs[key] = value
	}
	return DecodedEvent{
		Index:      index,
		Type:       ev.Type,
		Attributes: attrs,
	}
}

func decodeAttr(s string) (string, bool) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", false
	}
	return string(b), true
}
