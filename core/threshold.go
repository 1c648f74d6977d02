package core

import (
	"math"
	"sort"
)

// ThresholdBin is one cut of a Stack or Partition: the sub-container that
// receives quantities at or above Threshold.
type ThresholdBin struct {
	Threshold float64
	Value     Container
}

// thresholded is the shared state of Stack and Partition. The first
// threshold of a constructed instance is always -Inf.
type thresholded struct {
	rule
	entries    float64
	thresholds []float64
	values     []Container
	nanflow    Container
}

func newThresholded(name string, thresholds []float64, quantity QuantityFunc, value Container, opts []Option) (thresholded, error) {
	sorted := append([]float64(nil), thresholds...)
	sort.Float64s(sorted)
	if len(sorted) == 0 || !math.IsInf(sorted[0], -1) {
		sorted = append([]float64{math.Inf(-1)}, sorted...)
	}
	value = instantiate(value)
	bins := make([]ThresholdBin, len(sorted))
	for i, threshold := range sorted {
		bins[i] = ThresholdBin{Threshold: threshold, Value: value.Zero()}
	}
	if err := checkThresholds(name, bins); err != nil {
		return thresholded{}, err
	}
	o := newOptions(opts)
	out := restoreThresholded(0, bins, instantiate(o.nanflow))
	out.rule = rule{quantity: quantity, selection: o.selection}
	return out, nil
}

func checkThresholds(name string, bins []ThresholdBin) error {
	if len(bins) == 0 {
		return invalidConfig(name, "at least one threshold is required")
	}
	for i, bin := range bins {
		if math.IsNaN(bin.Threshold) {
			return invalidConfig(name, "threshold %d is NaN", i)
		}
		if i > 0 && !(bins[i-1].Threshold < bin.Threshold) {
			return invalidConfig(name, "thresholds must be strictly increasing at %d", i)
		}
		if !sameType(bins[0].Value.Name(), bin.Value) {
			return invalidConfig(name, "threshold %d holds %s, not %s", i, bin.Value.Name(), bins[0].Value.Name())
		}
	}
	return nil
}

func restoreThresholded(entries float64, bins []ThresholdBin, nanflow Container) thresholded {
	out := thresholded{
		entries:    entries,
		thresholds: make([]float64, len(bins)),
		values:     make([]Container, len(bins)),
		nanflow:    nanflow,
	}
	for i, bin := range bins {
		out.thresholds[i] = bin.Threshold
		out.values[i] = bin.Value
	}
	return out
}

func (th *thresholded) Entries() float64 { return th.entries }
func (th *thresholded) Nanflow() Container { return th.nanflow }

func (th *thresholded) Thresholds() []float64 {
	return append([]float64(nil), th.thresholds...)
}

func (th *thresholded) Bins() []ThresholdBin {
	out := make([]ThresholdBin, len(th.thresholds))
	for i := range th.thresholds {
		out[i] = ThresholdBin{Threshold: th.thresholds[i], Value: th.values[i]}
	}
	return out
}

func (th *thresholded) zero() thresholded {
	values := make([]Container, len(th.values))
	for i, value := range th.values {
		values[i] = value.Zero()
	}
	return thresholded{
		rule:       th.rule,
		thresholds: th.thresholds,
		values:     values,
		nanflow:    th.nanflow.Zero(),
	}
}

func (th *thresholded) copy() thresholded {
	values := make([]Container, len(th.values))
	for i, value := range th.values {
		values[i] = value.Copy()
	}
	return thresholded{
		rule:       th.rule,
		entries:    th.entries,
		thresholds: th.thresholds,
		values:     values,
		nanflow:    th.nanflow.Copy(),
	}
}

func (th *thresholded) combine(name string, that *thresholded) (thresholded, error) {
	if len(th.thresholds) != len(that.thresholds) {
		return thresholded{}, mismatch(name, "threshold counts differ (%d vs %d)", len(th.thresholds), len(that.thresholds))
	}
	for i := range th.thresholds {
		if th.thresholds[i] != that.thresholds[i] {
			return thresholded{}, mismatch(name, "threshold %d differs (%v vs %v)", i, th.thresholds[i], that.thresholds[i])
		}
	}
	values := make([]Container, len(th.values))
	for i := range th.values {
		merged, err := th.values[i].Combine(that.values[i])
		if err != nil {
			return thresholded{}, err
		}
		values[i] = merged
	}
	nanflow, err := th.nanflow.Combine(that.nanflow)
	if err != nil {
		return thresholded{}, err
	}
	return thresholded{
		rule:       th.rule,
		entries:    th.entries + that.entries,
		thresholds: th.thresholds,
		values:     values,
		nanflow:    nanflow,
	}, nil
}

func (th *thresholded) fragment() interface{} {
	data := make([]interface{}, len(th.values))
	for i, value := range th.values {
		data[i] = map[string]interface{}{
			"atleast": FloatToDocument(th.thresholds[i]),
			"data":    value.Fragment(),
		}
	}
	return map[string]interface{}{
		"entries":      FloatToDocument(th.entries),
		"type":         th.values[0].Name(),
		"data":         data,
		"nanflow:type": th.nanflow.Name(),
		"nanflow":      th.nanflow.Fragment(),
	}
}

func decodeThresholded(name string, fragment interface{}, path string) (thresholded, error) {
	obj, err := toObject(fragment, path, "entries", "type", "data", "nanflow:type", "nanflow")
	if err != nil {
		return thresholded{}, err
	}
	entries, err := readEntries(obj, path)
	if err != nil {
		return thresholded{}, err
	}
	contentType, err := readType(obj, "type", path)
	if err != nil {
		return thresholded{}, err
	}
	dataPath := joinPath(path, "data")
	items, err := toArray(obj["data"], dataPath)
	if err != nil {
		return thresholded{}, err
	}
	bins := make([]ThresholdBin, len(items))
	for i, item := range items {
		itemPath := indexPath(dataPath, i)
		pair, err := toObject(item, itemPath, "atleast", "data")
		if err != nil {
			return thresholded{}, err
		}
		if bins[i].Threshold, err = toFloat(pair["atleast"], joinPath(itemPath, "atleast")); err != nil {
			return thresholded{}, err
		}
		if bins[i].Value, err = decodeFragment(contentType, pair["data"], joinPath(itemPath, "data")); err != nil {
			return thresholded{}, err
		}
	}
	nanflow, err := decodeTyped(obj, "nanflow", path)
	if err != nil {
		return thresholded{}, err
	}
	if err := checkEntries(name, entries); err != nil {
		return thresholded{}, wrapDocErr(path, err)
	}
	if err := checkThresholds(name, bins); err != nil {
		return thresholded{}, wrapDocErr(path, err)
	}
	return restoreThresholded(entries, bins, nanflow), nil
}
