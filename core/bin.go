package core

import "math"

// Bin histograms a quantity over num equal-width cells of [low, high).
// Values below low go to underflow, values at or above high to overflow and
// NaN to nanflow.
type Bin struct {
	rule
	low       float64
	high      float64
	entries   float64
	values    []Container
	underflow Container
	overflow  Container
	nanflow   Container
}

// NewBin fills every cell with a zero copy of value (Count when nil). The
// flow containers default to Count.
func NewBin(num int, low, high float64, quantity QuantityFunc, value Container, opts ...Option) (*Bin, error) {
	if num < 1 {
		return nil, invalidConfig("Bin", "num must be positive, got %d", num)
	}
	if err := checkAxis("Bin", low, high); err != nil {
		return nil, err
	}
	o := newOptions(opts)
	values := make([]Container, num)
	for i := range values {
		values[i] = instantiate(value)
	}
	return &Bin{
		rule:      rule{quantity: quantity, selection: o.selection},
		low:       low,
		high:      high,
		values:    values,
		underflow: instantiate(o.underflow),
		overflow:  instantiate(o.overflow),
		nanflow:   instantiate(o.nanflow),
	}, nil
}

func checkAxis(name string, low, high float64) error {
	if math.IsNaN(low) || math.IsInf(low, 0) || math.IsNaN(high) || math.IsInf(high, 0) {
		return invalidConfig(name, "low and high must be finite, got %v and %v", low, high)
	}
	if !(low < high) {
		return invalidConfig(name, "low must be below high, got %v and %v", low, high)
	}
	return nil
}

func RestoreBin(low, high, entries float64, values []Container, underflow, overflow, nanflow Container) (*Bin, error) {
	if len(values) == 0 {
		return nil, invalidConfig("Bin", "at least one bin is required")
	}
	if err := checkAxis("Bin", low, high); err != nil {
		return nil, err
	}
	if err := checkEntries("Bin", entries); err != nil {
		return nil, err
	}
	for i, value := range values {
		if !sameType(values[0].Name(), value) {
			return nil, invalidConfig("Bin", "bin %d holds %s, not %s", i, value.Name(), values[0].Name())
		}
	}
	return &Bin{
		low:       low,
		high:      high,
		entries:   entries,
		values:    values,
		underflow: underflow,
		overflow:  overflow,
		nanflow:   nanflow,
	}, nil
}

func (bin *Bin) Name() string { return "Bin" }
func (bin *Bin) Entries() float64 { return bin.entries }
func (bin *Bin) Num() int { return len(bin.values) }
func (bin *Bin) Low() float64 { return bin.low }
func (bin *Bin) High() float64 { return bin.high }
func (bin *Bin) At(i int) Container { return bin.values[i] }
func (bin *Bin) Underflow() Container { return bin.underflow }
func (bin *Bin) Overflow() Container { return bin.overflow }
func (bin *Bin) Nanflow() Container { return bin.nanflow }

func (bin *Bin) Values() []Container {
	return append([]Container(nil), bin.values...)
}

// Index returns the cell of x, or -1 when x falls in a flow container.
func (bin *Bin) Index(x float64) int {
	if math.IsNaN(x) || x < bin.low || x >= bin.high {
		return -1
	}
	num := len(bin.values)
	index := int(math.Floor(float64(num) * (x - bin.low) / (bin.high - bin.low)))
	if index >= num {
		index = num - 1
	}
	return index
}

// Range returns the edges of cell i.
func (bin *Bin) Range(i int) (float64, float64) {
	width := (bin.high - bin.low) / float64(len(bin.values))
	return bin.low + float64(i)*width, bin.low + float64(i+1)*width
}

func (bin *Bin) route(x float64) Container {
	switch {
	case math.IsNaN(x):
		return bin.nanflow
	case x < bin.low:
		return bin.underflow
	case x >= bin.high:
		return bin.overflow
	default:
		return bin.values[bin.Index(x)]
	}
}

func (bin *Bin) Zero() Container {
	values := make([]Container, len(bin.values))
	for i, value := range bin.values {
		values[i] = value.Zero()
	}
	return &Bin{
		rule:      bin.rule,
		low:       bin.low,
		high:      bin.high,
		values:    values,
		underflow: bin.underflow.Zero(),
		overflow:  bin.overflow.Zero(),
		nanflow:   bin.nanflow.Zero(),
	}
}

func (bin *Bin) Copy() Container {
	values := make([]Container, len(bin.values))
	for i, value := range bin.values {
		values[i] = value.Copy()
	}
	return &Bin{
		rule:      bin.rule,
		low:       bin.low,
		high:      bin.high,
		entries:   bin.entries,
		values:    values,
		underflow: bin.underflow.Copy(),
		overflow:  bin.overflow.Copy(),
		nanflow:   bin.nanflow.Copy(),
	}
}

func (bin *Bin) Fill(datum interface{}, weight float64) error {
	return fillChecked(bin, datum, weight)
}

func (bin *Bin) check(datum interface{}, weight float64) error {
	if !bin.bound() {
		return noFillRule("Bin")
	}
	w := bin.weigh(datum, weight)
	if w == 0 {
		return nil
	}
	return bin.route(bin.quantity(datum)).check(datum, w)
}

func (bin *Bin) fill(datum interface{}, weight float64) {
	if w := bin.weigh(datum, weight); w > 0 {
		bin.route(bin.quantity(datum)).fill(datum, w)
		bin.entries += w
	}
}

func (bin *Bin) Combine(other Container) (Container, error) {
	that, ok := other.(*Bin)
	if !ok {
		return nil, mismatch("Bin", "cannot combine with %s", other.Name())
	}
	if len(bin.values) != len(that.values) || bin.low != that.low || bin.high != that.high {
		return nil, mismatch("Bin", "axes differ (%d, %v, %v vs %d, %v, %v)",
			len(bin.values), bin.low, bin.high, len(that.values), that.low, that.high)
	}
	values := make([]Container, len(bin.values))
	for i := range bin.values {
		merged, err := bin.values[i].Combine(that.values[i])
		if err != nil {
			return nil, err
		}
		values[i] = merged
	}
	underflow, err := bin.underflow.Combine(that.underflow)
	if err != nil {
		return nil, err
	}
	overflow, err := bin.overflow.Combine(that.overflow)
	if err != nil {
		return nil, err
	}
	nanflow, err := bin.nanflow.Combine(that.nanflow)
	if err != nil {
		return nil, err
	}
	return &Bin{
		rule:      bin.rule,
		low:       bin.low,
		high:      bin.high,
		entries:   bin.entries + that.entries,
		values:    values,
		underflow: underflow,
		overflow:  overflow,
		nanflow:   nanflow,
	}, nil
}

func (bin *Bin) Fragment() interface{} {
	values := make([]interface{}, len(bin.values))
	for i, value := range bin.values {
		values[i] = value.Fragment()
	}
	return map[string]interface{}{
		"low":            FloatToDocument(bin.low),
		"high":           FloatToDocument(bin.high),
		"entries":        FloatToDocument(bin.entries),
		"values:type":    bin.values[0].Name(),
		"values":         values,
		"underflow:type": bin.underflow.Name(),
		"underflow":      bin.underflow.Fragment(),
		"overflow:type":  bin.overflow.Name(),
		"overflow":       bin.overflow.Fragment(),
		"nanflow:type":   bin.nanflow.Name(),
		"nanflow":        bin.nanflow.Fragment(),
	}
}

func decodeBin(fragment interface{}, path string) (Container, error) {
	obj, err := toObject(fragment, path, "low", "high", "entries", "values:type", "values",
		"underflow:type", "underflow", "overflow:type", "overflow", "nanflow:type", "nanflow")
	if err != nil {
		return nil, err
	}
	low, err := toFloat(obj["low"], joinPath(path, "low"))
	if err != nil {
		return nil, err
	}
	high, err := toFloat(obj["high"], joinPath(path, "high"))
	if err != nil {
		return nil, err
	}
	entries, err := readEntries(obj, path)
	if err != nil {
		return nil, err
	}
	valuesType, err := readType(obj, "values:type", path)
	if err != nil {
		return nil, err
	}
	valuesPath := joinPath(path, "values")
	items, err := toArray(obj["values"], valuesPath)
	if err != nil {
		return nil, err
	}
	values := make([]Container, len(items))
	for i, item := range items {
		if values[i], err = decodeFragment(valuesType, item, indexPath(valuesPath, i)); err != nil {
			return nil, err
		}
	}
	underflow, err := decodeTyped(obj, "underflow", path)
	if err != nil {
		return nil, err
	}
	overflow, err := decodeTyped(obj, "overflow", path)
	if err != nil {
		return nil, err
	}
	nanflow, err := decodeTyped(obj, "nanflow", path)
	if err != nil {
		return nil, err
	}
	bin, err := RestoreBin(low, high, entries, values, underflow, overflow, nanflow)
	if err != nil {
		return nil, wrapDocErr(path, err)
	}
	return bin, nil
}

func init() {
	Register("Bin", decodeBin)
}
