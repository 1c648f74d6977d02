package codec

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONCodec writes documents as JSON text. Non-finite numbers are already
// tokens in the document, so the output is always valid JSON.
type JSONCodec struct{}

func (JSONCodec) Name() string {
	return JSON
}

func (JSONCodec) Marshal(doc interface{}) ([]byte, error) {
	return json.Marshal(doc)
}

func (JSONCodec) Unmarshal(buf []byte) (interface{}, error) {
	var doc interface{}
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
