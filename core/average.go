package core

import "histodb/stats"

// Average tracks the weighted mean of a quantity.
type Average struct {
	rule
	entries float64
	mean    float64
}

func NewAverage(quantity QuantityFunc, opts ...Option) *Average {
	o := newOptions(opts)
	return &Average{rule: rule{quantity: quantity, selection: o.selection}}
}

func RestoreAverage(entries, mean float64) (*Average, error) {
	if err := checkEntries("Average", entries); err != nil {
		return nil, err
	}
	return &Average{entries: entries, mean: mean}, nil
}

func (average *Average) Bind(quantity QuantityFunc, selection SelectionFunc) {
	average.rule = rule{quantity: quantity, selection: bindSelection(selection)}
}

func (average *Average) Name() string { return "Average" }
func (average *Average) Entries() float64 { return average.entries }
func (average *Average) Mean() float64 { return average.mean }

func (average *Average) Zero() Container {
	return &Average{rule: average.rule}
}

func (average *Average) Copy() Container {
	clone := *average
	return &clone
}

func (average *Average) Fill(datum interface{}, weight float64) error {
	return fillChecked(average, datum, weight)
}

func (average *Average) check(interface{}, float64) error {
	if !average.bound() {
		return noFillRule("Average")
	}
	return nil
}

func (average *Average) fill(datum interface{}, weight float64) {
	if w := average.weigh(datum, weight); w > 0 {
		q := average.quantity(datum)
		average.entries += w
		average.mean += (w / average.entries) * (q - average.mean)
	}
}

func (average *Average) Combine(other Container) (Container, error) {
	that, ok := other.(*Average)
	if !ok {
		return nil, mismatch("Average", "cannot combine with %s", other.Name())
	}
	return &Average{
		rule:    average.rule,
		entries: average.entries + that.entries,
		mean:    stats.WeightedMean(average.mean, average.entries, that.mean, that.entries),
	}, nil
}

func (average *Average) Fragment() interface{} {
	return map[string]interface{}{
		"entries": FloatToDocument(average.entries),
		"mean":    FloatToDocument(average.mean),
	}
}

func decodeAverage(fragment interface{}, path string) (Container, error) {
	obj, err := toObject(fragment, path, "entries", "mean")
	if err != nil {
		return nil, err
	}
	entries, err := readEntries(obj, path)
	if err != nil {
		return nil, err
	}
	mean, err := toFloat(obj["mean"], joinPath(path, "mean"))
	if err != nil {
		return nil, err
	}
	average, err := RestoreAverage(entries, mean)
	if err != nil {
		return nil, wrapDocErr(path, err)
	}
	return average, nil
}

func init() {
	Register("Average", decodeAverage)
}
