package snapshot

import (
	"fmt"

	"github.com/tinylib/msgp/msgp"
)

// aggregateInfo is what the metadata store keeps for each aggregate name.
type aggregateInfo struct {
	Name string
	Type string
}

func (info aggregateInfo) MarshalMsg(b []byte) []byte {
	b = msgp.AppendMapHeader(b, 2)
	b = msgp.AppendString(b, "name")
	b = msgp.AppendString(b, info.Name)
	b = msgp.AppendString(b, "type")
	b = msgp.AppendString(b, info.Type)
	return b
}

func (info *aggregateInfo) UnmarshalMsg(b []byte) error {
	size, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return err
	}
	for i := uint32(0); i < size; i++ {
		var field string
		field, b, err = msgp.ReadStringBytes(b)
		if err != nil {
			return err
		}
		switch field {
		case "name":
			info.Name, b, err = msgp.ReadStringBytes(b)
		case "type":
			info.Type, b, err = msgp.ReadStringBytes(b)
		default:
			b, err = msgp.Skip(b)
		}
		if err != nil {
			return fmt.Errorf("aggregate info field %q: %w", field, err)
		}
	}
	return nil
}
