package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBin(t *testing.T, num int, low, high float64, quantity QuantityFunc, value Container, opts ...Option) *Bin {
	t.Helper()
	bin, err := NewBin(num, low, high, quantity, value, opts...)
	require.NoError(t, err)
	return bin
}

func TestBin(t *testing.T) {
	whole := newBin(t, 5, -3, 7, Identity, nil)
	fillFloats(t, whole, simple)
	assert.Equal(t, []float64{3, 2, 2, 1, 0}, entriesOf(whole.Values()))
	assert.Equal(t, 1.0, whole.Underflow().Entries())
	assert.Equal(t, 1.0, whole.Overflow().Entries())
	assert.Equal(t, 0.0, whole.Nanflow().Entries())

	for i := 0; i <= len(simple); i++ {
		left := newBin(t, 5, -3, 7, Identity, nil)
		right := left.Zero()
		fillFloats(t, left, simple[:i])
		fillFloats(t, right, simple[i:])

		final, err := left.Combine(right)
		require.NoError(t, err)
		assert.Equal(t, ToDocument(whole), ToDocument(final))
		requireRoundTrip(t, left)
	}

	filtered := newBin(t, 5, -3, 7, double, nil, WithSelection(flagged))
	fillRecords(t, filtered, records)
	assert.Equal(t, []float64{2, 1, 1, 1, 0}, entriesOf(filtered.Values()))
	assert.Equal(t, 0.0, filtered.Underflow().Entries())
	assert.Equal(t, 0.0, filtered.Overflow().Entries())
}

func TestBinAxis(t *testing.T) {
	bin := newBin(t, 5, -3, 7, Identity, nil)
	assert.Equal(t, 5, bin.Num())
	assert.Equal(t, 0, bin.Index(-3))
	assert.Equal(t, 3, bin.Index(3.4))
	assert.Equal(t, 4, bin.Index(6.999))
	assert.Equal(t, -1, bin.Index(7))
	assert.Equal(t, -1, bin.Index(-3.5))
	assert.Equal(t, -1, bin.Index(math.NaN()))

	lo, hi := bin.Range(1)
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 1.0, hi)

	for _, bad := range [][3]float64{{0, 0, 1}, {5, 1, 1}, {5, 2, 1}, {5, math.Inf(-1), 1}, {5, 0, math.NaN()}} {
		_, err := NewBin(int(bad[0]), bad[1], bad[2], Identity, nil)
		assert.True(t, errors.Is(err, ErrInvalidConfig), "%v", bad)
	}

	other := newBin(t, 5, -3, 8, Identity, nil)
	_, err := bin.Combine(other)
	assert.True(t, errors.Is(err, ErrConfigMismatch))
	fewer := newBin(t, 4, -3, 7, Identity, nil)
	_, err = bin.Combine(fewer)
	assert.True(t, errors.Is(err, ErrConfigMismatch))
}

func TestBinNestedAndFlows(t *testing.T) {
	bin := newBin(t, 5, -3, 7, Identity, NewSum(Identity),
		WithUnderflow(NewSum(Identity)), WithNanflow(NewDeviate(Identity)))
	fillFloats(t, bin, append(append([]float64(nil), simple...), math.NaN(), math.Inf(1)))

	assert.Equal(t, 12.0, bin.Entries())
	assert.InDelta(t, -6.5, bin.At(0).(*Sum).Sum(), 1e-12)
	assert.Equal(t, -4.7, bin.Underflow().(*Sum).Sum())
	assert.Equal(t, "Count", bin.Overflow().Name())
	assert.Equal(t, 2.0, bin.Overflow().Entries())
	assert.Equal(t, 1.0, bin.Nanflow().Entries())
	assert.Equal(t, []float64{3, 2, 2, 1, 0}, entriesOf(bin.Values()))
	requireRoundTrip(t, bin)
}

func TestSparselyBin(t *testing.T) {
	whole, err := NewSparselyBin(1, Identity, nil)
	require.NoError(t, err)
	fillFloats(t, whole, simple)

	assert.Equal(t, []int64{-5, -3, -2, 0, 1, 2, 3, 7}, whole.Indexes())
	expected := map[int64]float64{-5: 1, -3: 1, -2: 2, 0: 2, 1: 1, 2: 1, 3: 1, 7: 1}
	for index, count := range expected {
		bin, ok := whole.At(index)
		require.True(t, ok)
		assert.Equal(t, count, bin.Entries(), "bin %d", index)
	}
	_, ok := whole.At(4)
	assert.False(t, ok)
	assert.Equal(t, 8, whole.NumFilled())
	assert.Equal(t, int64(13), whole.Num())
	assert.Equal(t, -5.0, whole.Low())
	assert.Equal(t, 8.0, whole.High())

	for i := 0; i <= len(simple); i++ {
		left, err := NewSparselyBin(1, Identity, nil)
		require.NoError(t, err)
		right := left.Zero()
		fillFloats(t, left, simple[:i])
		fillFloats(t, right, simple[i:])

		final, err := left.Combine(right)
		require.NoError(t, err)
		assert.Equal(t, ToDocument(whole), ToDocument(final))
		requireRoundTrip(t, left)
	}
}

func TestSparselyBinAxis(t *testing.T) {
	empty, err := NewSparselyBin(0.5, Identity, nil, WithOrigin(0.25))
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Num())
	assert.True(t, math.IsNaN(empty.Low()))
	assert.True(t, math.IsNaN(empty.High()))
	assert.Equal(t, int64(-1), empty.Index(0))
	assert.Equal(t, int64(1), empty.Index(0.75))

	lo, hi := empty.Range(1)
	assert.Equal(t, 0.75, lo)
	assert.Equal(t, 1.25, hi)

	fillFloats(t, empty, []float64{math.Inf(1), math.Inf(-1), math.NaN()})
	assert.Equal(t, []int64{math.MinInt64, math.MaxInt64}, empty.Indexes())
	assert.Equal(t, 1.0, empty.Nanflow().Entries())
	assert.Equal(t, int64(math.MaxInt64), empty.Num())
	assert.Less(t, empty.Low(), 0.0)
	assert.Greater(t, empty.High(), 0.0)
	lo, hi = empty.Range(math.MaxInt64)
	assert.Greater(t, lo, 0.0)
	assert.GreaterOrEqual(t, hi, lo)
	requireRoundTrip(t, empty)

	_, err = NewSparselyBin(0, Identity, nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	_, err = NewSparselyBin(1, Identity, nil, WithOrigin(math.NaN()))
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	shifted, err := NewSparselyBin(0.5, Identity, nil)
	require.NoError(t, err)
	_, err = empty.Combine(shifted)
	assert.True(t, errors.Is(err, ErrConfigMismatch))
}

func TestSparselyBinRejectsDuplicateKeys(t *testing.T) {
	_, err := FromFragment("SparselyBin", map[string]interface{}{
		"binWidth":     1.0,
		"entries":      2.0,
		"bins:type":    "Count",
		"bins":         map[string]interface{}{"1": 1.0, "01": 1.0},
		"nanflow:type": "Count",
		"nanflow":      0.0,
		"origin":       0.0,
	})
	assert.True(t, errors.Is(err, ErrDocumentFormat))

	_, err = FromFragment("SparselyBin", map[string]interface{}{
		"binWidth":     1.0,
		"entries":      1.0,
		"bins:type":    "Count",
		"bins":         map[string]interface{}{"1.5": 1.0},
		"nanflow:type": "Count",
		"nanflow":      0.0,
		"origin":       0.0,
	})
	var target *DocumentError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "bins.1.5", target.Path)
}

var centers = []float64{-3, -1, 0, 1, 3, 10}

func TestCentrallyBin(t *testing.T) {
	whole, err := NewCentrallyBin(centers, Identity, nil)
	require.NoError(t, err)
	fillFloats(t, whole, simple)
	assert.Equal(t, []float64{2, 2, 2, 1, 2, 1}, entriesOf(binValues(whole.Bins())))
	assert.Equal(t, -4.7, whole.Min())
	assert.Equal(t, 7.3, whole.Max())

	for i := 0; i <= len(simple); i++ {
		left, err := NewCentrallyBin(centers, Identity, nil)
		require.NoError(t, err)
		right := left.Zero()
		fillFloats(t, left, simple[:i])
		fillFloats(t, right, simple[i:])

		final, err := left.Combine(right)
		require.NoError(t, err)
		assert.Equal(t, ToDocument(whole), ToDocument(final))
		requireRoundTrip(t, left)
	}
}

func binValues(bins []CenteredBin) []Container {
	out := make([]Container, len(bins))
	for i, bin := range bins {
		out[i] = bin.Value
	}
	return out
}

func TestCentrallyBinQueries(t *testing.T) {
	central, err := NewCentrallyBin([]float64{10, 0, -3, 3, 1, -1}, Identity, nil)
	require.NoError(t, err)
	fillFloats(t, central, simple)
	assert.Equal(t, centers, central.Centers())

	assert.Equal(t, 0, central.Index(-2))
	assert.Equal(t, 1, central.Index(-0.5))
	assert.Equal(t, 2, central.Index(0.5))
	assert.Equal(t, 3, central.Index(2))
	assert.Equal(t, 4, central.Index(6.5))
	assert.Equal(t, 10.0, central.Center(100))

	below, above := central.Neighbors(0)
	assert.Equal(t, -1.0, below)
	assert.Equal(t, 1.0, above)
	below, above = central.Neighbors(10)
	assert.Equal(t, 3.0, below)
	assert.True(t, math.IsInf(above, 1))

	lo, hi := central.Range(-3)
	assert.True(t, math.IsInf(lo, -1))
	assert.Equal(t, -2.0, hi)
	lo, hi = central.Range(3)
	assert.Equal(t, 2.0, lo)
	assert.Equal(t, 6.5, hi)

	pdf := []float64{20.0 / 27, 4.0 / 3, 4.0 / 3, 2, 2.0 / 3, 4.0 / 9, 4.0 / 9, 4.0 / 9, 4.0 / 9, 4.0 / 9, 1.25, 0, 0, 0}
	cdf := []float64{1.2592592592592593, 2, 3.333333333333333, 5, 6.333333333333333, 7, 7.444444444444445,
		7.888888888888889, 8.333333333333334, 8.777777777777779, 9.625, 10, 10, 10}
	for i, x := 0, -3.0; x <= 10; i, x = i+1, x+1 {
		assert.InDelta(t, pdf[i], central.PDFTimesEntries(x), 1e-9, "pdf at %v", x)
		assert.InDelta(t, cdf[i], central.CDFTimesEntries(x), 1e-9, "cdf at %v", x)
		assert.InDelta(t, pdf[i]/10, central.PDF(x), 1e-9)
		assert.InDelta(t, cdf[i]/10, central.CDF(x), 1e-9)
	}

	qf := []float64{-4.7, -4.7, -3.35, -2, -1.25, -0.5, 0, 0.5, 2, 4.25, 6.5, 7.3, 7.3}
	for i, y := 0, -1.0; y <= 11; i, y = i+1, y+1 {
		assert.InDelta(t, qf[i], central.QFTimesEntries(y), 1e-9, "qf at %v", y)
	}
	assert.InDelta(t, -2.0, central.QF(0.2), 1e-9)

	empty := central.Zero().(*CentrallyBin)
	assert.True(t, math.IsNaN(empty.QFTimesEntries(1)))
}

func TestCentrallyBinConfig(t *testing.T) {
	_, err := NewCentrallyBin([]float64{1}, Identity, nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	_, err = NewCentrallyBin([]float64{1, 1, 2}, Identity, nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	_, err = NewCentrallyBin([]float64{1, math.NaN()}, Identity, nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	one, err := NewCentrallyBin([]float64{0, 1}, Identity, nil)
	require.NoError(t, err)
	two, err := NewCentrallyBin([]float64{0, 2}, Identity, nil)
	require.NoError(t, err)
	_, err = one.Combine(two)
	assert.True(t, errors.Is(err, ErrConfigMismatch))

	require.NoError(t, one.Fill(math.NaN(), 1))
	assert.Equal(t, 1.0, one.Nanflow().Entries())
	assert.Equal(t, []float64{0, 0}, entriesOf(binValues(one.Bins())))
	assert.True(t, math.IsInf(one.Min(), 1))
}

type cluster struct {
	center  float64
	entries float64
}

func clustersOf(adaptive *AdaptivelyBin) []cluster {
	bins := adaptive.Bins()
	out := make([]cluster, len(bins))
	for i, bin := range bins {
		out[i] = cluster{bin.Center, bin.Value.Entries()}
	}
	return out
}

func assertClusters(t *testing.T, want []cluster, adaptive *AdaptivelyBin) {
	t.Helper()
	got := clustersOf(adaptive)
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].center, got[i].center, 1e-4, "center %d", i)
		assert.Equal(t, want[i].entries, got[i].entries, "entries %d", i)
	}
}

func TestAdaptivelyBin(t *testing.T) {
	closest, err := NewAdaptivelyBin(5, Identity, nil)
	require.NoError(t, err)
	fillFloats(t, closest, simple)
	assertClusters(t, []cluster{{-4.7, 1}, {-2.1667, 3}, {0, 2}, {2.4, 3}, {7.3, 1}}, closest)
	assert.Equal(t, -4.7, closest.Min())
	assert.Equal(t, 7.3, closest.Max())
	requireRoundTrip(t, closest)

	detailed, err := NewAdaptivelyBin(5, Identity, nil, WithTailDetail(0.2))
	require.NoError(t, err)
	fillFloats(t, detailed, simple)
	assertClusters(t, []cluster{{-3.85, 2}, {-1.1667, 3}, {0.8, 2}, {2.8, 2}, {7.3, 1}}, detailed)
	requireRoundTrip(t, detailed)
}

func TestAdaptivelyBinCombineIsBounded(t *testing.T) {
	for i := 0; i <= len(simple); i++ {
		left, err := NewAdaptivelyBin(5, Identity, NewSum(Identity))
		require.NoError(t, err)
		right := left.Zero()
		fillFloats(t, left, simple[:i])
		fillFloats(t, right, simple[i:])

		final, err := left.Combine(right)
		require.NoError(t, err)
		merged := final.(*AdaptivelyBin)
		assert.Equal(t, 10.0, merged.Entries())
		assert.LessOrEqual(t, len(merged.Bins()), 5)

		total, sum := 0.0, 0.0
		for _, bin := range merged.Bins() {
			total += bin.Value.Entries()
			sum += bin.Value.(*Sum).Sum()
		}
		assert.Equal(t, 10.0, total)
		assert.InDelta(t, 3.3, sum, 1e-12)
		requireRoundTrip(t, left)
	}
}

func TestAdaptivelyBinUnitesEqualCenters(t *testing.T) {
	left, err := NewAdaptivelyBin(3, Identity, nil)
	require.NoError(t, err)
	right := left.Zero()
	fillFloats(t, left, []float64{1, 2})
	fillFloats(t, right, []float64{2, 5})

	final, err := left.Combine(right)
	require.NoError(t, err)
	assertClusters(t, []cluster{{1, 1}, {2, 2}, {5, 1}}, final.(*AdaptivelyBin))
}

func TestAdaptivelyBinInfiniteQuantities(t *testing.T) {
	wide, err := NewAdaptivelyBin(5, Identity, nil)
	require.NoError(t, err)
	fillFloats(t, wide, []float64{1, 2, math.Inf(1)})
	assert.Equal(t, []cluster{{1, 1}, {2, 1}, {math.Inf(1), 1}}, clustersOf(wide))
	requireRoundTrip(t, wide)

	// against an infinite span only the finite pair is close
	narrow, err := NewAdaptivelyBin(3, Identity, nil)
	require.NoError(t, err)
	fillFloats(t, narrow, []float64{1, 2, math.Inf(1), math.Inf(-1)})
	assert.Equal(t, []cluster{{math.Inf(-1), 1}, {1.5, 2}, {math.Inf(1), 1}}, clustersOf(narrow))
	requireRoundTrip(t, narrow)

	single, err := NewAdaptivelyBin(1, Identity, nil)
	require.NoError(t, err)
	fillFloats(t, single, []float64{1, math.Inf(1), math.Inf(-1)})
	assert.Equal(t, []cluster{{math.Inf(1), 3}}, clustersOf(single))
	assert.True(t, math.IsInf(single.Min(), -1))
	requireRoundTrip(t, single)

	final, err := wide.Combine(narrow)
	require.NoError(t, err)
	assert.Equal(t, 7.0, final.Entries())
	assert.LessOrEqual(t, len(final.(*AdaptivelyBin).Bins()), 5)
	requireRoundTrip(t, final)
}

func TestAdaptivelyBinConfig(t *testing.T) {
	_, err := NewAdaptivelyBin(0, Identity, nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	_, err = NewAdaptivelyBin(5, Identity, nil, WithTailDetail(1.5))
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	five, err := NewAdaptivelyBin(5, Identity, nil)
	require.NoError(t, err)
	six, err := NewAdaptivelyBin(6, Identity, nil)
	require.NoError(t, err)
	_, err = five.Combine(six)
	assert.True(t, errors.Is(err, ErrConfigMismatch))

	require.NoError(t, five.Fill(math.NaN(), 1))
	assert.Empty(t, five.Bins())
	assert.Equal(t, 1.0, five.Nanflow().Entries())
}
