package core

import (
	"math"
	"sort"
)

// CentrallyBin assigns each quantity to the nearest of a fixed list of
// centers. The observed minimum and maximum bound the open neighborhoods of
// the outer bins so that a density can be reconstructed.
type CentrallyBin struct {
	rule
	entries float64
	centers []float64
	values  []Container
	min     float64
	max     float64
	nanflow Container
}

// NewCentrallyBin sorts centers, which must be finite, distinct and at least
// two. Bins are zero copies of value (Count when nil).
func NewCentrallyBin(centers []float64, quantity QuantityFunc, value Container, opts ...Option) (*CentrallyBin, error) {
	if len(centers) < 2 {
		return nil, invalidConfig("CentrallyBin", "at least two centers are required, got %d", len(centers))
	}
	sorted := append([]float64(nil), centers...)
	sort.Float64s(sorted)
	value = instantiate(value)
	bins := make([]CenteredBin, len(sorted))
	for i, center := range sorted {
		bins[i] = CenteredBin{Center: center, Value: value.Zero()}
	}
	if err := checkCenters("CentrallyBin", bins, value.Name(), false); err != nil {
		return nil, err
	}
	o := newOptions(opts)
	out := newCentrallyBin(bins, math.Inf(1), math.Inf(-1), instantiate(o.nanflow))
	out.rule = rule{quantity: quantity, selection: o.selection}
	return out, nil
}

func newCentrallyBin(bins []CenteredBin, min, max float64, nanflow Container) *CentrallyBin {
	out := &CentrallyBin{
		centers: make([]float64, len(bins)),
		values:  make([]Container, len(bins)),
		min:     min,
		max:     max,
		nanflow: nanflow,
	}
	for i, bin := range bins {
		out.centers[i] = bin.Center
		out.values[i] = bin.Value
	}
	return out
}

func RestoreCentrallyBin(entries float64, bins []CenteredBin, min, max float64, nanflow Container) (*CentrallyBin, error) {
	if err := checkEntries("CentrallyBin", entries); err != nil {
		return nil, err
	}
	if len(bins) < 2 {
		return nil, invalidConfig("CentrallyBin", "at least two centers are required, got %d", len(bins))
	}
	if err := checkCenters("CentrallyBin", bins, bins[0].Value.Name(), false); err != nil {
		return nil, err
	}
	out := newCentrallyBin(bins, min, max, nanflow)
	out.entries = entries
	return out, nil
}

func (central *CentrallyBin) Name() string { return "CentrallyBin" }
func (central *CentrallyBin) Entries() float64 { return central.entries }
func (central *CentrallyBin) Nanflow() Container { return central.nanflow }

// Min and Max are the observed quantity extremes, +Inf and -Inf when empty.
func (central *CentrallyBin) Min() float64 { return central.min }
func (central *CentrallyBin) Max() float64 { return central.max }

func (central *CentrallyBin) Centers() []float64 {
	return append([]float64(nil), central.centers...)
}

func (central *CentrallyBin) Bins() []CenteredBin {
	out := make([]CenteredBin, len(central.centers))
	for i := range central.centers {
		out[i] = CenteredBin{Center: central.centers[i], Value: central.values[i]}
	}
	return out
}

// Index returns the bin nearest to x.
func (central *CentrallyBin) Index(x float64) int {
	return nearest(central.centers, x)
}

// Center returns the center nearest to x.
func (central *CentrallyBin) Center(x float64) float64 {
	return central.centers[central.Index(x)]
}

// Neighbors returns the centers adjacent to the bin of center, ±Inf where
// there is none.
func (central *CentrallyBin) Neighbors(center float64) (float64, float64) {
	i := central.Index(center)
	below, above := math.Inf(-1), math.Inf(1)
	if i > 0 {
		below = central.centers[i-1]
	}
	if i < len(central.centers)-1 {
		above = central.centers[i+1]
	}
	return below, above
}

// Range returns the neighborhood of the bin of center.
func (central *CentrallyBin) Range(center float64) (float64, float64) {
	return neighborhood(central.centers, central.Index(center))
}

// clipped is the neighborhood of bin i bounded by the observed extremes.
func (central *CentrallyBin) clipped(i int) (float64, float64) {
	lo, hi := neighborhood(central.centers, i)
	return math.Max(lo, central.min), math.Min(hi, central.max)
}

// PDFTimesEntries is the reconstructed density at x scaled by entries.
func (central *CentrallyBin) PDFTimesEntries(x float64) float64 {
	for i, value := range central.values {
		lo, hi := central.clipped(i)
		if lo <= x && x < hi {
			return value.Entries() / (hi - lo)
		}
	}
	return 0
}

// CDFTimesEntries is the reconstructed cumulative weight below x.
func (central *CentrallyBin) CDFTimesEntries(x float64) float64 {
	total := 0.0
	for i, value := range central.values {
		lo, hi := central.clipped(i)
		switch {
		case x >= hi:
			total += value.Entries()
		case x > lo:
			total += value.Entries() * (x - lo) / (hi - lo)
		}
	}
	return total
}

// QFTimesEntries inverts CDFTimesEntries: it returns the quantity below
// which y of the weight lies, clamped to the observed extremes.
func (central *CentrallyBin) QFTimesEntries(y float64) float64 {
	if central.entries == 0 {
		return math.NaN()
	}
	if y <= 0 {
		return central.min
	}
	cumulative := 0.0
	for i, value := range central.values {
		count := value.Entries()
		if count > 0 && y <= cumulative+count {
			lo, hi := central.clipped(i)
			return lo + (y-cumulative)/count*(hi-lo)
		}
		cumulative += count
	}
	return central.max
}

func (central *CentrallyBin) PDF(x float64) float64 {
	return central.PDFTimesEntries(x) / central.entries
}

func (central *CentrallyBin) CDF(x float64) float64 {
	return central.CDFTimesEntries(x) / central.entries
}

func (central *CentrallyBin) QF(y float64) float64 {
	return central.QFTimesEntries(y * central.entries)
}

func (central *CentrallyBin) Zero() Container {
	values := make([]Container, len(central.values))
	for i, value := range central.values {
		values[i] = value.Zero()
	}
	return &CentrallyBin{
		rule:    central.rule,
		centers: central.centers,
		values:  values,
		min:     math.Inf(1),
		max:     math.Inf(-1),
		nanflow: central.nanflow.Zero(),
	}
}

func (central *CentrallyBin) Copy() Container {
	values := make([]Container, len(central.values))
	for i, value := range central.values {
		values[i] = value.Copy()
	}
	return &CentrallyBin{
		rule:    central.rule,
		entries: central.entries,
		centers: central.centers,
		values:  values,
		min:     central.min,
		max:     central.max,
		nanflow: central.nanflow.Copy(),
	}
}

func (central *CentrallyBin) Fill(datum interface{}, weight float64) error {
	return fillChecked(central, datum, weight)
}

func (central *CentrallyBin) route(q float64) Container {
	if math.IsNaN(q) {
		return central.nanflow
	}
	return central.values[central.Index(q)]
}

func (central *CentrallyBin) check(datum interface{}, weight float64) error {
	if !central.bound() {
		return noFillRule("CentrallyBin")
	}
	w := central.weigh(datum, weight)
	if w == 0 {
		return nil
	}
	return central.route(central.quantity(datum)).check(datum, w)
}

func (central *CentrallyBin) fill(datum interface{}, weight float64) {
	w := central.weigh(datum, weight)
	if w == 0 {
		return
	}
	q := central.quantity(datum)
	central.route(q).fill(datum, w)
	if !math.IsNaN(q) {
		central.min = math.Min(central.min, q)
		central.max = math.Max(central.max, q)
	}
	central.entries += w
}

func (central *CentrallyBin) Combine(other Container) (Container, error) {
	that, ok := other.(*CentrallyBin)
	if !ok {
		return nil, mismatch("CentrallyBin", "cannot combine with %s", other.Name())
	}
	if len(central.centers) != len(that.centers) {
		return nil, mismatch("CentrallyBin", "center lists differ in length (%d vs %d)", len(central.centers), len(that.centers))
	}
	for i := range central.centers {
		if central.centers[i] != that.centers[i] {
			return nil, mismatch("CentrallyBin", "center %d differs (%v vs %v)", i, central.centers[i], that.centers[i])
		}
	}
	values := make([]Container, len(central.values))
	for i := range central.values {
		merged, err := central.values[i].Combine(that.values[i])
		if err != nil {
			return nil, err
		}
		values[i] = merged
	}
	nanflow, err := central.nanflow.Combine(that.nanflow)
	if err != nil {
		return nil, err
	}
	return &CentrallyBin{
		rule:    central.rule,
		entries: central.entries + that.entries,
		centers: central.centers,
		values:  values,
		min:     math.Min(central.min, that.min),
		max:     math.Max(central.max, that.max),
		nanflow: nanflow,
	}, nil
}

func (central *CentrallyBin) Fragment() interface{} {
	return map[string]interface{}{
		"entries":      FloatToDocument(central.entries),
		"bins:type":    central.values[0].Name(),
		"bins":         encodeCentered(central.Bins()),
		"min":          FloatToDocument(central.min),
		"max":          FloatToDocument(central.max),
		"nanflow:type": central.nanflow.Name(),
		"nanflow":      central.nanflow.Fragment(),
	}
}

func decodeCentrallyBin(fragment interface{}, path string) (Container, error) {
	obj, err := toObject(fragment, path, "entries", "bins:type", "bins", "min", "max", "nanflow:type", "nanflow")
	if err != nil {
		return nil, err
	}
	entries, err := readEntries(obj, path)
	if err != nil {
		return nil, err
	}
	_, bins, err := decodeCentered(obj, path)
	if err != nil {
		return nil, err
	}
	min, max, err := decodeRange(obj, path)
	if err != nil {
		return nil, err
	}
	nanflow, err := decodeTyped(obj, "nanflow", path)
	if err != nil {
		return nil, err
	}
	central, err := RestoreCentrallyBin(entries, bins, min, max, nanflow)
	if err != nil {
		return nil, wrapDocErr(path, err)
	}
	return central, nil
}

func init() {
	Register("CentrallyBin", decodeCentrallyBin)
}
