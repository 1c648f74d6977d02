package core

import (
	"math"
	"strconv"

	"histodb/stats"
	"histodb/tree"
)

// SparselyBin histograms a quantity over an unbounded axis of width-sized
// cells anchored at origin. Cells exist only once filled.
type SparselyBin struct {
	rule
	binWidth    float64
	origin      float64
	entries     float64
	value       Container
	contentType string
	bins        *tree.RbTree[int64, Container]
	nanflow     Container
}

// NewSparselyBin creates cells from value (Count when nil).
func NewSparselyBin(binWidth float64, quantity QuantityFunc, value Container, opts ...Option) (*SparselyBin, error) {
	o := newOptions(opts)
	if err := checkSparseAxis(binWidth, o.origin); err != nil {
		return nil, err
	}
	value = instantiate(value)
	return &SparselyBin{
		rule:        rule{quantity: quantity, selection: o.selection},
		binWidth:    binWidth,
		origin:      o.origin,
		value:       value,
		contentType: value.Name(),
		bins:        tree.NewRbTree[int64, Container](),
		nanflow:     instantiate(o.nanflow),
	}, nil
}

func checkSparseAxis(binWidth, origin float64) error {
	if !(binWidth > 0) || math.IsInf(binWidth, 1) {
		return invalidConfig("SparselyBin", "binWidth must be positive and finite, got %v", binWidth)
	}
	if math.IsNaN(origin) || math.IsInf(origin, 0) {
		return invalidConfig("SparselyBin", "origin must be finite, got %v", origin)
	}
	return nil
}

func RestoreSparselyBin(binWidth, origin, entries float64, contentType string, bins map[int64]Container, nanflow Container) (*SparselyBin, error) {
	if err := checkSparseAxis(binWidth, origin); err != nil {
		return nil, err
	}
	if err := checkEntries("SparselyBin", entries); err != nil {
		return nil, err
	}
	out := &SparselyBin{
		binWidth:    binWidth,
		origin:      origin,
		entries:     entries,
		contentType: contentType,
		bins:        tree.NewRbTree[int64, Container](),
		nanflow:     nanflow,
	}
	for index, bin := range bins {
		if !sameType(contentType, bin) {
			return nil, invalidConfig("SparselyBin", "bin %d holds %s, not %s", index, bin.Name(), contentType)
		}
		out.bins.Insert(index, bin)
	}
	return out, nil
}

func (sparse *SparselyBin) Name() string { return "SparselyBin" }
func (sparse *SparselyBin) Entries() float64 { return sparse.entries }
func (sparse *SparselyBin) BinWidth() float64 { return sparse.binWidth }
func (sparse *SparselyBin) Origin() float64 { return sparse.origin }
func (sparse *SparselyBin) ContentType() string { return sparse.contentType }
func (sparse *SparselyBin) Nanflow() Container { return sparse.nanflow }
func (sparse *SparselyBin) NumFilled() int { return sparse.bins.Count() }

// Index returns the cell of x. Infinities clamp to the extreme indexes.
func (sparse *SparselyBin) Index(x float64) int64 {
	return stats.FloorIndex((x - sparse.origin) / sparse.binWidth)
}

func (sparse *SparselyBin) At(index int64) (Container, bool) {
	return sparse.bins.Get(index)
}

func (sparse *SparselyBin) Indexes() []int64 {
	return sparse.bins.Keys()
}

func (sparse *SparselyBin) MinBin() (int64, bool) {
	index, _, ok := sparse.bins.Min()
	return index, ok
}

func (sparse *SparselyBin) MaxBin() (int64, bool) {
	index, _, ok := sparse.bins.Max()
	return index, ok
}

// Num is the number of cells between the lowest and highest filled cell,
// empty cells included. It saturates at math.MaxInt64.
func (sparse *SparselyBin) Num() int64 {
	low, ok := sparse.MinBin()
	if !ok {
		return 0
	}
	high, _ := sparse.MaxBin()
	span := uint64(high) - uint64(low)
	if span >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(span) + 1
}

// Low is the lower edge of the lowest filled cell, NaN when empty.
func (sparse *SparselyBin) Low() float64 {
	low, ok := sparse.MinBin()
	if !ok {
		return math.NaN()
	}
	lo, _ := sparse.Range(low)
	return lo
}

// High is the upper edge of the highest filled cell, NaN when empty.
func (sparse *SparselyBin) High() float64 {
	high, ok := sparse.MaxBin()
	if !ok {
		return math.NaN()
	}
	_, hi := sparse.Range(high)
	return hi
}

func (sparse *SparselyBin) Range(index int64) (float64, float64) {
	lo := float64(index)
	return lo*sparse.binWidth + sparse.origin, (lo+1)*sparse.binWidth + sparse.origin
}

func (sparse *SparselyBin) Zero() Container {
	return &SparselyBin{
		rule:        sparse.rule,
		binWidth:    sparse.binWidth,
		origin:      sparse.origin,
		value:       sparse.value,
		contentType: sparse.contentType,
		bins:        tree.NewRbTree[int64, Container](),
		nanflow:     sparse.nanflow.Zero(),
	}
}

func (sparse *SparselyBin) Copy() Container {
	out := sparse.Zero().(*SparselyBin)
	out.entries = sparse.entries
	out.nanflow = sparse.nanflow.Copy()
	sparse.bins.Map(func(index int64, bin Container) bool {
		out.bins.Insert(index, bin.Copy())
		return false
	})
	return out
}

func (sparse *SparselyBin) Fill(datum interface{}, weight float64) error {
	return fillChecked(sparse, datum, weight)
}

func (sparse *SparselyBin) check(datum interface{}, weight float64) error {
	if !sparse.bound() {
		return noFillRule("SparselyBin")
	}
	w := sparse.weigh(datum, weight)
	if w == 0 {
		return nil
	}
	q := sparse.quantity(datum)
	if math.IsNaN(q) {
		return sparse.nanflow.check(datum, w)
	}
	if bin, ok := sparse.bins.Get(sparse.Index(q)); ok {
		return bin.check(datum, w)
	}
	if sparse.value == nil {
		return noFillRule("SparselyBin")
	}
	return sparse.value.check(datum, w)
}

func (sparse *SparselyBin) fill(datum interface{}, weight float64) {
	w := sparse.weigh(datum, weight)
	if w == 0 {
		return
	}
	q := sparse.quantity(datum)
	if math.IsNaN(q) {
		sparse.nanflow.fill(datum, w)
	} else {
		index := sparse.Index(q)
		bin, ok := sparse.bins.Get(index)
		if !ok {
			bin = sparse.value.Zero()
			sparse.bins.Insert(index, bin)
		}
		bin.fill(datum, w)
	}
	sparse.entries += w
}

func (sparse *SparselyBin) Combine(other Container) (Container, error) {
	that, ok := other.(*SparselyBin)
	if !ok {
		return nil, mismatch("SparselyBin", "cannot combine with %s", other.Name())
	}
	if sparse.binWidth != that.binWidth || sparse.origin != that.origin {
		return nil, mismatch("SparselyBin", "axes differ (width %v origin %v vs width %v origin %v)",
			sparse.binWidth, sparse.origin, that.binWidth, that.origin)
	}
	if sparse.contentType != that.contentType {
		return nil, mismatch("SparselyBin", "content types differ (%s vs %s)", sparse.contentType, that.contentType)
	}
	out := sparse.Copy().(*SparselyBin)
	out.entries += that.entries
	nanflow, err := sparse.nanflow.Combine(that.nanflow)
	if err != nil {
		return nil, err
	}
	out.nanflow = nanflow
	that.bins.Map(func(index int64, bin Container) bool {
		var merged Container
		if mine, ok := out.bins.Get(index); ok {
			merged, err = mine.Combine(bin)
		} else {
			merged, err = absorb(sparse.value, bin)
		}
		if err != nil {
			return true
		}
		out.bins.Insert(index, merged)
		return false
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (sparse *SparselyBin) Fragment() interface{} {
	bins := make(map[string]interface{}, sparse.bins.Count())
	sparse.bins.Map(func(index int64, bin Container) bool {
		bins[strconv.FormatInt(index, 10)] = bin.Fragment()
		return false
	})
	return map[string]interface{}{
		"binWidth":     FloatToDocument(sparse.binWidth),
		"entries":      FloatToDocument(sparse.entries),
		"bins:type":    sparse.contentType,
		"bins":         bins,
		"nanflow:type": sparse.nanflow.Name(),
		"nanflow":      sparse.nanflow.Fragment(),
		"origin":       FloatToDocument(sparse.origin),
	}
}

func decodeSparselyBin(fragment interface{}, path string) (Container, error) {
	obj, err := toObject(fragment, path, "binWidth", "entries", "bins:type", "bins", "nanflow:type", "nanflow", "origin")
	if err != nil {
		return nil, err
	}
	binWidth, err := toFloat(obj["binWidth"], joinPath(path, "binWidth"))
	if err != nil {
		return nil, err
	}
	entries, err := readEntries(obj, path)
	if err != nil {
		return nil, err
	}
	origin, err := toFloat(obj["origin"], joinPath(path, "origin"))
	if err != nil {
		return nil, err
	}
	contentType, err := readType(obj, "bins:type", path)
	if err != nil {
		return nil, err
	}
	binsPath := joinPath(path, "bins")
	data, err := toMap(obj["bins"], binsPath)
	if err != nil {
		return nil, err
	}
	bins := make(map[int64]Container, len(data))
	for key, binFragment := range data {
		keyPath := joinPath(binsPath, key)
		index, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, docErr(keyPath, "bin key %q is not an integer", key)
		}
		if _, dup := bins[index]; dup {
			return nil, docErr(keyPath, "bin %d appears twice", index)
		}
		if bins[index], err = decodeFragment(contentType, binFragment, keyPath); err != nil {
			return nil, err
		}
	}
	nanflow, err := decodeTyped(obj, "nanflow", path)
	if err != nil {
		return nil, err
	}
	sparse, err := RestoreSparselyBin(binWidth, origin, entries, contentType, bins, nanflow)
	if err != nil {
		return nil, wrapDocErr(path, err)
	}
	return sparse, nil
}

func init() {
	Register("SparselyBin", decodeSparselyBin)
}
