package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumOf(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}

func TestCount(t *testing.T) {
	for i := 0; i <= len(simple); i++ {
		left, right := NewCount(), NewCount()
		fillFloats(t, left, simple[:i])
		fillFloats(t, right, simple[i:])

		assert.Equal(t, float64(i), left.Entries())
		assert.Equal(t, float64(len(simple)-i), right.Entries())

		final, err := left.Combine(right)
		require.NoError(t, err)
		assert.Equal(t, 10.0, final.Entries())
		requireRoundTrip(t, left)
	}

	count := NewCount()
	require.NoError(t, count.Fill(nil, 2.5))
	require.NoError(t, count.Fill(nil, -1))
	assert.Equal(t, 2.5, count.Entries())
	assert.Equal(t, 2.5, count.Fragment())
}

func TestSum(t *testing.T) {
	for i := 0; i <= len(simple); i++ {
		left, right := NewSum(Identity), NewSum(Identity)
		fillFloats(t, left, simple[:i])
		fillFloats(t, right, simple[i:])

		assert.InDelta(t, sumOf(simple[:i]), left.Sum(), 1e-12)
		assert.InDelta(t, sumOf(simple[i:]), right.Sum(), 1e-12)

		final, err := left.Combine(right)
		require.NoError(t, err)
		assert.InDelta(t, 3.3, final.(*Sum).Sum(), 1e-12)
		assert.Equal(t, 10.0, final.Entries())
		requireRoundTrip(t, left)
	}
}

func TestSumWithFilterAndWeight(t *testing.T) {
	for i := 0; i <= len(records); i++ {
		left := NewSum(double, WithSelection(flagged))
		right := NewSum(double, WithSelection(flagged))
		fillRecords(t, left, records[:i])
		fillRecords(t, right, records[i:])
		final, err := left.Combine(right)
		require.NoError(t, err)
		assert.InDelta(t, 3.4-1.8+1.6+0.0-1.7, final.(*Sum).Sum(), 1e-12)
		assert.Equal(t, 5.0, final.Entries())
	}

	weighted := NewSum(double, WithSelection(integer))
	fillRecords(t, weighted, records)
	expected := 0.0
	for _, r := range records {
		if r.integer > 0 {
			expected += float64(r.integer) * r.double
		}
	}
	assert.InDelta(t, expected, weighted.Sum(), 1e-12)
	assert.Equal(t, 28.0, weighted.Entries())
}

func TestAverage(t *testing.T) {
	for i := 0; i <= len(simple); i++ {
		left, right := NewAverage(Identity), NewAverage(Identity)
		fillFloats(t, left, simple[:i])
		fillFloats(t, right, simple[i:])

		assert.InDelta(t, mean(simple[:i]), left.Mean(), 1e-12)
		assert.InDelta(t, mean(simple[i:]), right.Mean(), 1e-12)

		final, err := left.Combine(right)
		require.NoError(t, err)
		assert.InDelta(t, mean(simple), final.(*Average).Mean(), 1e-12)
		requireRoundTrip(t, left)
	}

	for i := 0; i <= len(records); i++ {
		left := NewAverage(double, WithSelection(integer))
		right := NewAverage(double, WithSelection(integer))
		fillRecords(t, left, records[:i])
		fillRecords(t, right, records[i:])

		assert.InDelta(t, weightedMean(doubles(records[:i]), integers(records[:i])), left.Mean(), 1e-12)
		final, err := left.Combine(right)
		require.NoError(t, err)
		assert.InDelta(t, weightedMean(doubles(records), integers(records)), final.(*Average).Mean(), 1e-12)
	}
}

func TestDeviate(t *testing.T) {
	for i := 0; i <= len(simple); i++ {
		left, right := NewDeviate(Identity), NewDeviate(Identity)
		fillFloats(t, left, simple[:i])
		fillFloats(t, right, simple[i:])

		assert.InDelta(t, variance(simple[:i]), left.Variance(), 1e-9)
		assert.InDelta(t, variance(simple[i:]), right.Variance(), 1e-9)

		final, err := left.Combine(right)
		require.NoError(t, err)
		assert.InDelta(t, variance(simple), final.(*Deviate).Variance(), 1e-9)
		requireRoundTrip(t, left)
	}

	for i := 0; i <= len(records); i++ {
		left := NewDeviate(double, WithSelection(integer))
		right := NewDeviate(double, WithSelection(integer))
		fillRecords(t, left, records[:i])
		fillRecords(t, right, records[i:])

		final, err := left.Combine(right)
		require.NoError(t, err)
		assert.InDelta(t, weightedVariance(doubles(records), integers(records)), final.(*Deviate).Variance(), 1e-9)
	}

	shifted := NewDeviate(func(datum interface{}) float64 { return datum.(float64) + 100 })
	fillFloats(t, shifted, simple)
	assert.InDelta(t, 100.33, shifted.Mean(), 1e-9)
	assert.InDelta(t, 10.8381, shifted.Variance(), 1e-9)
}

func TestAbsoluteErr(t *testing.T) {
	abs := func(xs []float64) []float64 {
		out := make([]float64, len(xs))
		for i, x := range xs {
			out[i] = math.Abs(x)
		}
		return out
	}
	for i := 0; i <= len(simple); i++ {
		left, right := NewAbsoluteErr(Identity), NewAbsoluteErr(Identity)
		fillFloats(t, left, simple[:i])
		fillFloats(t, right, simple[i:])

		assert.InDelta(t, mean(abs(simple[:i])), left.MAE(), 1e-12)
		assert.InDelta(t, mean(abs(simple[i:])), right.MAE(), 1e-12)

		final, err := left.Combine(right)
		require.NoError(t, err)
		assert.InDelta(t, mean(abs(simple)), final.(*AbsoluteErr).MAE(), 1e-12)
		requireRoundTrip(t, left)
	}
}

func TestMinimizeMaximize(t *testing.T) {
	for i := 0; i <= len(simple); i++ {
		leftMin, rightMin := NewMinimize(Identity), NewMinimize(Identity)
		leftMax, rightMax := NewMaximize(Identity), NewMaximize(Identity)
		fillFloats(t, leftMin, simple[:i])
		fillFloats(t, rightMin, simple[i:])
		fillFloats(t, leftMax, simple[:i])
		fillFloats(t, rightMax, simple[i:])

		if i == 0 {
			assert.True(t, math.IsNaN(leftMin.Min()))
			assert.True(t, math.IsNaN(leftMax.Max()))
		}
		if i == len(simple) {
			assert.True(t, math.IsNaN(rightMin.Min()))
			assert.True(t, math.IsNaN(rightMax.Max()))
		}

		finalMin, err := leftMin.Combine(rightMin)
		require.NoError(t, err)
		assert.Equal(t, -4.7, finalMin.(*Minimize).Min())
		finalMax, err := leftMax.Combine(rightMax)
		require.NoError(t, err)
		assert.Equal(t, 7.3, finalMax.(*Maximize).Max())

		requireRoundTrip(t, leftMin)
		requireRoundTrip(t, leftMax)
	}

	empty := NewMinimize(Identity)
	assert.Equal(t, "nan", empty.Fragment().(map[string]interface{})["min"])

	withNaN := NewMaximize(Identity)
	fillFloats(t, withNaN, []float64{math.NaN(), 2, math.NaN()})
	assert.Equal(t, 3.0, withNaN.Entries())
	assert.Equal(t, 2.0, withNaN.Max())
}

var quantileAnswers = [][3]float64{
	{math.NaN(), -0.481328271104, -0.481328271104},
	{3.4, -0.69120847042, -0.282087623378},
	{-0.675, -0.736543753016, -0.724235002413},
	{-0.58125, -0.958145383329, -0.84507676833},
	{0.13623046875, -1.53190059408, -0.864648168945},
	{0.302100585937, -0.819002197266, -0.258450805664},
	{-0.942007507324, -0.629296875, -0.816923254395},
	{0.269603994253, -0.753125, -0.0372147040231},
	{-0.628724939722, 0.24375, -0.454229951778},
	{-0.562639074418, -1.7, -0.676375166976},
	{-0.481328271104, math.NaN(), -0.481328271104},
	{math.NaN(), -0.329460938614, -0.329460938614},
	{3.4, -0.457521896462, -0.0717697068155},
	{-0.45, -0.511698266503, -0.499358613202},
	{-0.425, -0.706904919683, -0.622333443778},
	{0.27890625, -0.937865017361, -0.451156510417},
	{0.599765625, -0.65764453125, -0.028939453125},
	{-0.637327473958, -0.471875, -0.571146484375},
	{0.536730209662, -0.595833333333, 0.196961146763},
	{-0.423513681061, 0.4875, -0.241310944849},
	{-0.382340803288, -1.7, -0.514106722959},
	{-0.329460938614, math.NaN(), -0.329460938614},
	{math.NaN(), -0.168649887325, -0.168649887325},
	{3.4, -0.227037303799, 0.135666426581},
	{-0.225, -0.265185561995, -0.257148449596},
	{-0.23125, -0.386842979665, -0.340165085765},
	{0.42275390625, -0.477651570638, -0.117489379883},
	{0.889514648438, -0.394795166016, 0.247359741211},
	{-0.322354390462, -0.264453125, -0.299193884277},
	{0.798766766295, -0.344791666667, 0.455699236407},
	{-0.213212483191, 0.73125, -0.0243199865526},
	{-0.194267772368, -1.7, -0.344840995131},
	{-0.168649887325, math.NaN(), -0.168649887325},
}

func assertEstimate(t *testing.T, want, got float64) {
	t.Helper()
	if math.IsNaN(want) {
		assert.True(t, math.IsNaN(got), "expected NaN, got %v", got)
		return
	}
	assert.InDelta(t, want, got, 1e-7)
}

func TestQuantile(t *testing.T) {
	line := 0
	for _, p := range []float64{0.25, 0.5, 0.75} {
		for i := 0; i <= len(simple); i++ {
			left, err := NewQuantile(p, Identity)
			require.NoError(t, err)
			right, err := NewQuantile(p, Identity)
			require.NoError(t, err)
			fillFloats(t, left, simple[:i])
			fillFloats(t, right, simple[i:])

			final, err := left.Combine(right)
			require.NoError(t, err)

			answer := quantileAnswers[line]
			line++
			assertEstimate(t, answer[0], left.Estimate())
			assertEstimate(t, answer[1], right.Estimate())
			assertEstimate(t, answer[2], final.(*Quantile).Estimate())
			requireRoundTrip(t, left)
		}
	}
}

func TestQuantileConfig(t *testing.T) {
	_, err := NewQuantile(1.5, Identity)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	_, err = NewQuantile(math.NaN(), Identity)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	median, err := NewQuantile(0.5, Identity)
	require.NoError(t, err)
	upper, err := NewQuantile(0.9, Identity)
	require.NoError(t, err)
	_, err = median.Combine(upper)
	assert.True(t, errors.Is(err, ErrConfigMismatch))
}

func TestQuantileFillAfterCombine(t *testing.T) {
	left, err := NewQuantile(0.5, Identity)
	require.NoError(t, err)
	right, err := NewQuantile(0.5, Identity)
	require.NoError(t, err)
	fillFloats(t, left, simple[:5])
	fillFloats(t, right, simple[5:])

	combined, err := left.Combine(right)
	require.NoError(t, err)
	restored, err := FromDocument(ToDocument(combined))
	require.NoError(t, err)
	reattached, err := Reattach(left, restored)
	require.NoError(t, err)

	require.NoError(t, combined.Fill(2.0, 1))
	require.NoError(t, reattached.Fill(2.0, 1))
	assert.Equal(t, combined.(*Quantile).Estimate(), reattached.(*Quantile).Estimate())
	assert.Equal(t, combined.Entries(), reattached.Entries())
}

func TestScalarCombineTypeMismatch(t *testing.T) {
	_, err := NewSum(Identity).Combine(NewCount())
	assert.True(t, errors.Is(err, ErrConfigMismatch))
	_, err = NewCount().Combine(NewAverage(Identity))
	assert.True(t, errors.Is(err, ErrConfigMismatch))
}

func TestRestoredScalarsNeedFillRule(t *testing.T) {
	sum, err := RestoreSum(2, 5)
	require.NoError(t, err)
	err = sum.Fill(1.0, 1)
	assert.True(t, errors.Is(err, ErrNoFillRule))
	assert.Equal(t, 2.0, sum.Entries())

	sum.Bind(Identity, nil)
	require.NoError(t, sum.Fill(1.0, 1))
	assert.Equal(t, 3.0, sum.Entries())
	assert.Equal(t, 6.0, sum.Sum())

	_, err = RestoreCount(-1)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	_, err = RestoreDeviate(math.NaN(), 0, 0)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestCombineDoesNotMutate(t *testing.T) {
	left, right := NewDeviate(Identity), NewDeviate(Identity)
	fillFloats(t, left, simple[:4])
	fillFloats(t, right, simple[4:])
	before := ToDocument(left)

	_, err := left.Combine(right)
	require.NoError(t, err)
	assert.Equal(t, before, ToDocument(left))
	assert.Equal(t, 4.0, left.Entries())
}
