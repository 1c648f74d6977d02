package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func positive(datum interface{}) float64 {
	if datum.(float64) > 0 {
		return 1
	}
	return 0
}

func thresholdEntries(bins []ThresholdBin) []float64 {
	out := make([]float64, len(bins))
	for i, bin := range bins {
		out[i] = bin.Value.Entries()
	}
	return out
}

func TestFraction(t *testing.T) {
	for i := 0; i <= len(simple); i++ {
		left := NewFraction(positive, nil)
		right := left.Zero()
		fillFloats(t, left, simple[:i])
		fillFloats(t, right, simple[i:])

		combined, err := left.Combine(right)
		require.NoError(t, err)
		final := combined.(*Fraction)
		assert.Equal(t, 4.0, final.Numerator().Entries())
		assert.Equal(t, 10.0, final.Denominator().Entries())
		assert.Equal(t, 10.0, final.Entries())
		requireRoundTrip(t, left)
	}
}

func TestFractionOfSums(t *testing.T) {
	for i := 0; i <= len(simple); i++ {
		left := NewFraction(positive, NewSum(Identity))
		right := left.Zero()
		fillFloats(t, left, simple[:i])
		fillFloats(t, right, simple[i:])

		combined, err := left.Combine(right)
		require.NoError(t, err)
		final := combined.(*Fraction)
		assert.InDelta(t, 14.5, final.Numerator().(*Sum).Sum(), 1e-12)
		assert.InDelta(t, 3.3, final.Denominator().(*Sum).Sum(), 1e-12)
		requireRoundTrip(t, left)
	}
}

func TestFractionContinuousIndicator(t *testing.T) {
	fraction := NewFraction(func(datum interface{}) float64 { return 0.25 }, nil)
	fillFloats(t, fraction, simple)
	assert.Equal(t, 2.5, fraction.Numerator().Entries())
	assert.Equal(t, 10.0, fraction.Denominator().Entries())

	weighted := NewFraction(Cut(func(datum interface{}) bool { return datum.(record).flag }), nil,
		WithSelection(integer))
	fillRecords(t, weighted, records)
	assert.Equal(t, 16.0, weighted.Numerator().Entries())
	assert.Equal(t, 28.0, weighted.Denominator().Entries())
}

func TestStack(t *testing.T) {
	cuts := []float64{0, 2, 4, 6, 8}
	whole, err := NewStack(cuts, Identity, nil)
	require.NoError(t, err)
	fillFloats(t, whole, simple)
	assert.Equal(t, []float64{10, 6, 3, 1, 1, 0}, thresholdEntries(whole.Bins()))
	assert.True(t, math.IsInf(whole.Thresholds()[0], -1))

	for i := 0; i <= len(simple); i++ {
		left, err := NewStack(cuts, Identity, nil)
		require.NoError(t, err)
		right := left.Zero()
		fillFloats(t, left, simple[:i])
		fillFloats(t, right, simple[i:])

		final, err := left.Combine(right)
		require.NoError(t, err)
		assert.Equal(t, ToDocument(whole), ToDocument(final))
		requireRoundTrip(t, left)
	}

	require.NoError(t, whole.Fill(math.NaN(), 1))
	assert.Equal(t, 1.0, whole.Nanflow().Entries())
	assert.Equal(t, 11.0, whole.Entries())
	assert.Equal(t, 10.0, whole.Bins()[0].Value.Entries())
}

func TestPartition(t *testing.T) {
	cuts := []float64{8, 0, 4, 2, 6}
	whole, err := NewPartition(cuts, Identity, nil)
	require.NoError(t, err)
	fillFloats(t, whole, simple)
	assert.Equal(t, []float64{math.Inf(-1), 0, 2, 4, 6, 8}, whole.Thresholds())
	assert.Equal(t, []float64{4, 3, 2, 0, 1, 0}, thresholdEntries(whole.Bins()))

	for i := 0; i <= len(simple); i++ {
		left, err := NewPartition(cuts, Identity, nil)
		require.NoError(t, err)
		right := left.Zero()
		fillFloats(t, left, simple[:i])
		fillFloats(t, right, simple[i:])

		final, err := left.Combine(right)
		require.NoError(t, err)
		assert.Equal(t, ToDocument(whole), ToDocument(final))
		requireRoundTrip(t, left)
	}

	sums, err := NewPartition([]float64{0, 2, 4, 6, 8}, Identity, NewSum(Identity))
	require.NoError(t, err)
	fillFloats(t, sums, simple)
	assert.InDelta(t, -11.2, sums.Bins()[0].Value.(*Sum).Sum(), 1e-12)
	assert.InDelta(t, 1.6, sums.Bins()[1].Value.(*Sum).Sum(), 1e-12)
	requireRoundTrip(t, sums)
}

func TestPartitionWithoutLowestCut(t *testing.T) {
	partition, err := RestorePartition(0, []ThresholdBin{
		{Threshold: 0, Value: NewCount()},
		{Threshold: 5, Value: NewCount()},
	}, NewCount())
	require.NoError(t, err)
	partition.rule = rule{quantity: Identity, selection: Unweighted}

	fillFloats(t, partition, simple)
	assert.Equal(t, 6.0, partition.Entries())
	assert.Equal(t, []float64{5, 1}, thresholdEntries(partition.Bins()))
}

func TestThresholdConfig(t *testing.T) {
	_, err := NewStack([]float64{1, 1}, Identity, nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	_, err = NewPartition([]float64{math.NaN()}, Identity, nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	stack, err := NewStack(nil, Identity, nil)
	require.NoError(t, err)
	assert.Len(t, stack.Bins(), 1)

	one, err := NewStack([]float64{1}, Identity, nil)
	require.NoError(t, err)
	two, err := NewStack([]float64{2}, Identity, nil)
	require.NoError(t, err)
	_, err = one.Combine(two)
	assert.True(t, errors.Is(err, ErrConfigMismatch))

	partition, err := NewPartition([]float64{1}, Identity, nil)
	require.NoError(t, err)
	_, err = one.Combine(partition)
	assert.True(t, errors.Is(err, ErrConfigMismatch))
}

func TestCategorize(t *testing.T) {
	byText := NewCategorize(text, nil)
	fillRecords(t, byText, records)
	assert.Equal(t, 10, byText.Size())
	assert.Equal(t, "Count", byText.ContentType())
	one, ok := byText.Get("one")
	require.True(t, ok)
	assert.Equal(t, 1.0, one.Entries())
	_, ok = byText.Get("eleven")
	assert.False(t, ok)
	requireRoundTrip(t, byText)

	sign := func(datum interface{}) string {
		if datum.(record).double < 0 {
			return "negative"
		}
		return "non-negative"
	}
	whole := NewCategorize(sign, NewSum(double))
	fillRecords(t, whole, records)
	assert.Equal(t, []string{"negative", "non-negative"}, whole.Keys())

	for i := 0; i <= len(records); i++ {
		left := NewCategorize(sign, NewSum(double))
		right := left.Zero()
		fillRecords(t, left, records[:i])
		fillRecords(t, right, records[i:])

		combined, err := left.Combine(right)
		require.NoError(t, err)
		final := combined.(*Categorize)
		assert.Equal(t, whole.Keys(), final.Keys())
		negative, _ := final.Get("negative")
		assert.InDelta(t, -11.2, negative.(*Sum).Sum(), 1e-12)
		nonNegative, _ := final.Get("non-negative")
		assert.InDelta(t, 14.5, nonNegative.(*Sum).Sum(), 1e-12)

		// the combined result still fills, including into new categories
		require.NoError(t, final.Fill(record{double: -1}, 1))
		assert.Equal(t, 11.0, final.Entries())
		requireRoundTrip(t, left)
	}

	_, err := whole.Combine(NewCategorize(sign, nil))
	assert.True(t, errors.Is(err, ErrConfigMismatch))
}
