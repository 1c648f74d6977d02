package codec

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"histodb/core"
)

var data = []float64{3.4, 2.2, -1.8, 0.0, 7.3, -4.7, 1.6, 0.0, -3.0, -1.7, math.NaN(), math.Inf(1)}

func label(datum interface{}) string {
	if datum.(float64) > 0 {
		return "positive"
	}
	return "other"
}

func containers(t *testing.T) map[string]core.Container {
	bin, err := core.NewBin(5, -5, 5, core.Identity, core.NewDeviate(core.Identity))
	require.NoError(t, err)
	sparse, err := core.NewSparselyBin(2, core.Identity, core.NewMinimize(core.Identity))
	require.NoError(t, err)
	quantile, err := core.NewQuantile(0.5, core.Identity)
	require.NoError(t, err)
	return map[string]core.Container{
		"count":      core.NewCount(),
		"sum":        core.NewSum(core.Identity),
		"bin":        bin,
		"sparse":     sparse,
		"quantile":   quantile,
		"bag":        core.NewBag(func(datum interface{}) interface{} { return label(datum) }),
		"categorize": core.NewCategorize(label, core.NewAverage(core.Identity)),
	}
}

func testRoundTrip(t *testing.T, codec Codec) {
	for name, c := range containers(t) {
		t.Run(name, func(t *testing.T) {
			for _, x := range data {
				require.NoError(t, c.Fill(x, 1))
			}

			buf, err := Encode(codec, c)
			require.NoError(t, err)

			restored, err := Decode(codec, buf)
			require.NoError(t, err)
			assert.Equal(t, c.Name(), restored.Name())
			if diff := cmp.Diff(core.ToDocument(c), core.ToDocument(restored)); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestJSONCodec(t *testing.T) {
	testRoundTrip(t, JSONCodec{})
}

func TestMsgpCodec(t *testing.T) {
	testRoundTrip(t, MsgpCodec{})
}

func TestJSONTokens(t *testing.T) {
	sum := core.NewSum(core.Identity)
	require.NoError(t, sum.Fill(math.Inf(-1), 1))

	buf, err := Encode(JSONCodec{}, sum)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "Sum", "data": {"entries": 1, "sum": "-inf"}}`, string(buf))
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]struct {
		codec Codec
		buf   []byte
	}{
		"truncated json":   {JSONCodec{}, []byte(`{"type": "Count", "data"`)},
		"unknown type":     {JSONCodec{}, []byte(`{"type": "Nope", "data": 1}`)},
		"negative entries": {JSONCodec{}, []byte(`{"type": "Count", "data": -1}`)},
		"not msgpack":      {MsgpCodec{}, []byte{0xc1}},
		"trailing msgpack": {MsgpCodec{}, append(mustMarshal(t, MsgpCodec{}, core.NewCount()), 0x01)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(tc.codec, tc.buf)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrDocumentFormat), err.Error())
		})
	}
}

func mustMarshal(t *testing.T, codec Codec, c core.Container) []byte {
	buf, err := Encode(codec, c)
	require.NoError(t, err)
	return buf
}

func TestByName(t *testing.T) {
	codec, err := ByName("json")
	require.NoError(t, err)
	assert.Equal(t, JSON, codec.Name())

	codec, err = ByName("msgpack")
	require.NoError(t, err)
	assert.Equal(t, Msgpack, codec.Name())

	_, err = ByName("xml")
	assert.ErrorIs(t, err, ErrUnknownCodec)
}
