package core

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var simple = []float64{3.4, 2.2, -1.8, 0.0, 7.3, -4.7, 1.6, 0.0, -3.0, -1.7}

type record struct {
	flag    bool
	integer int
	double  float64
	text    string
}

var records = []record{
	{true, -2, 3.4, "one"},
	{false, -1, 2.2, "two"},
	{true, 0, -1.8, "three"},
	{false, 1, 0.0, "four"},
	{false, 2, 7.3, "five"},
	{false, 3, -4.7, "six"},
	{true, 4, 1.6, "seven"},
	{true, 5, 0.0, "eight"},
	{false, 6, -3.0, "nine"},
	{true, 7, -1.7, "ten"},
}

func double(datum interface{}) float64 { return datum.(record).double }
func integer(datum interface{}) float64 { return float64(datum.(record).integer) }
func text(datum interface{}) string { return datum.(record).text }

var flagged = Cut(func(datum interface{}) bool { return datum.(record).flag })

func fillFloats(t *testing.T, c Container, data []float64) {
	t.Helper()
	for _, x := range data {
		require.NoError(t, c.Fill(x, 1))
	}
}

func fillRecords(t *testing.T, c Container, data []record) {
	t.Helper()
	for _, r := range data {
		require.NoError(t, c.Fill(r, 1))
	}
}

func entriesOf(values []Container) []float64 {
	out := make([]float64, len(values))
	for i, value := range values {
		out[i] = value.Entries()
	}
	return out
}

// requireRoundTrip checks that the document of c survives decoding, both
// directly and through JSON text.
func requireRoundTrip(t *testing.T, c Container) {
	t.Helper()
	doc := ToDocument(c)

	back, err := FromDocument(doc)
	require.NoError(t, err)
	if diff := cmp.Diff(doc, ToDocument(back)); diff != "" {
		t.Fatalf("document changed after decoding (-want +got):\n%s", diff)
	}

	encoded, err := json.Marshal(doc)
	require.NoError(t, err)
	var parsed interface{}
	require.NoError(t, json.Unmarshal(encoded, &parsed))
	back, err = FromDocument(parsed)
	require.NoError(t, err)
	if diff := cmp.Diff(doc, ToDocument(back)); diff != "" {
		t.Fatalf("document changed after JSON (-want +got):\n%s", diff)
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total / float64(len(xs))
}

func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	squares := make([]float64, len(xs))
	for i, x := range xs {
		squares[i] = x * x
	}
	m := mean(xs)
	return mean(squares) - m*m
}

func weightedMean(xs, ws []float64) float64 {
	total, weight := 0.0, 0.0
	for i := range xs {
		if ws[i] > 0 {
			total += xs[i] * ws[i]
			weight += ws[i]
		}
	}
	if weight == 0 {
		return 0
	}
	return total / weight
}

func weightedVariance(xs, ws []float64) float64 {
	squares := make([]float64, len(xs))
	for i, x := range xs {
		squares[i] = x * x
	}
	m := weightedMean(xs, ws)
	return weightedMean(squares, ws) - m*m
}

func doubles(data []record) []float64 {
	out := make([]float64, len(data))
	for i, r := range data {
		out[i] = r.double
	}
	return out
}

func integers(data []record) []float64 {
	out := make([]float64, len(data))
	for i, r := range data {
		out[i] = float64(r.integer)
	}
	return out
}
