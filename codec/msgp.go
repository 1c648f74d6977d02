package codec

import (
	"fmt"

	"github.com/tinylib/msgp/msgp"
)

// MsgpCodec writes documents as MessagePack.
type MsgpCodec struct{}

func (MsgpCodec) Name() string {
	return Msgpack
}

func (MsgpCodec) Marshal(doc interface{}) ([]byte, error) {
	return msgp.AppendIntf(nil, doc)
}

func (MsgpCodec) Unmarshal(buf []byte) (interface{}, error) {
	doc, rest, err := msgp.ReadIntfBytes(buf)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%d trailing bytes", len(rest))
	}
	return doc, nil
}
