// Package codec turns container documents into bytes and back.
package codec

import (
	"errors"
	"fmt"

	"histodb/core"
)

var ErrUnknownCodec = errors.New("unknown codec")

// Codec encodes the generic document form produced by core.ToDocument.
type Codec interface {
	Name() string
	Marshal(doc interface{}) ([]byte, error)
	Unmarshal(buf []byte) (interface{}, error)
}

const (
	JSON    = "json"
	Msgpack = "msgpack"
)

// ByName returns the codec registered under name.
func ByName(name string) (Codec, error) {
	switch name {
	case JSON:
		return JSONCodec{}, nil
	case Msgpack:
		return MsgpCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// Encode serializes the {"type", "data"} document of c.
func Encode(codec Codec, c core.Container) ([]byte, error) {
	return codec.Marshal(core.ToDocument(c))
}

// Decode rebuilds a container from bytes written by Encode. Malformed input
// fails with an error matching core.ErrDocumentFormat.
func Decode(codec Codec, buf []byte) (core.Container, error) {
	doc, err := codec.Unmarshal(buf)
	if err != nil {
		return nil, &core.DocumentError{Reason: codec.Name() + " decode: " + err.Error(), Err: err}
	}
	return core.FromDocument(doc)
}
