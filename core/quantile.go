package core

import (
	"math"

	"histodb/stats"
)

// Quantile estimates the target quantile of a quantity in a single pass.
// The estimate is approximate and combining two estimates is approximate
// again: the result is their entries-weighted mean.
type Quantile struct {
	rule
	target              float64
	entries             float64
	estimate            float64
	cumulativeDeviation float64
}

func NewQuantile(target float64, quantity QuantityFunc, opts ...Option) (*Quantile, error) {
	if !(target >= 0 && target <= 1) {
		return nil, invalidConfig("Quantile", "target must be in [0, 1], got %v", target)
	}
	o := newOptions(opts)
	return &Quantile{
		rule:     rule{quantity: quantity, selection: o.selection},
		target:   target,
		estimate: math.NaN(),
	}, nil
}

// RestoreQuantile accepts a NaN estimate for an empty container.
func RestoreQuantile(target, entries, estimate float64) (*Quantile, error) {
	if !(target >= 0 && target <= 1) {
		return nil, invalidConfig("Quantile", "target must be in [0, 1], got %v", target)
	}
	if err := checkEntries("Quantile", entries); err != nil {
		return nil, err
	}
	return &Quantile{target: target, entries: entries, estimate: estimate}, nil
}

func (quantile *Quantile) Bind(quantity QuantityFunc, selection SelectionFunc) {
	quantile.rule = rule{quantity: quantity, selection: bindSelection(selection)}
}

func (quantile *Quantile) Name() string { return "Quantile" }
func (quantile *Quantile) Entries() float64 { return quantile.entries }
func (quantile *Quantile) Target() float64 { return quantile.target }

// Estimate is NaN until the first fill.
func (quantile *Quantile) Estimate() float64 { return quantile.estimate }

func (quantile *Quantile) Zero() Container {
	return &Quantile{rule: quantile.rule, target: quantile.target, estimate: math.NaN()}
}

func (quantile *Quantile) Copy() Container {
	clone := *quantile
	return &clone
}

func (quantile *Quantile) Fill(datum interface{}, weight float64) error {
	return fillChecked(quantile, datum, weight)
}

func (quantile *Quantile) check(interface{}, float64) error {
	if !quantile.bound() {
		return noFillRule("Quantile")
	}
	return nil
}

func (quantile *Quantile) fill(datum interface{}, weight float64) {
	w := quantile.weigh(datum, weight)
	if w <= 0 {
		return
	}
	q := quantile.quantity(datum)
	quantile.entries += w

	if math.IsNaN(quantile.estimate) {
		quantile.estimate = q
		return
	}
	quantile.cumulativeDeviation += math.Abs(q - quantile.estimate)
	learningRate := 1.5 * quantile.cumulativeDeviation / (quantile.entries * quantile.entries)
	sign := stats.Sign(q - quantile.estimate)
	// replaces the estimate, it does not step it
	quantile.estimate = w * learningRate * (sign + 2*quantile.target - 1)
}

func (quantile *Quantile) Combine(other Container) (Container, error) {
	that, ok := other.(*Quantile)
	if !ok {
		return nil, mismatch("Quantile", "cannot combine with %s", other.Name())
	}
	if quantile.target != that.target {
		return nil, mismatch("Quantile", "targets differ (%v vs %v)", quantile.target, that.target)
	}
	out := &Quantile{
		rule:    quantile.rule,
		target:  quantile.target,
		entries: quantile.entries + that.entries,
	}
	// Documents do not carry the deviation, so it restarts at 0.
	switch {
	case math.IsNaN(quantile.estimate):
		out.estimate = that.estimate
	case math.IsNaN(that.estimate):
		out.estimate = quantile.estimate
	default:
		out.estimate = (quantile.estimate*quantile.entries + that.estimate*that.entries) / out.entries
	}
	return out, nil
}

func (quantile *Quantile) Fragment() interface{} {
	return map[string]interface{}{
		"entries":  FloatToDocument(quantile.entries),
		"target":   FloatToDocument(quantile.target),
		"estimate": FloatToDocument(quantile.estimate),
	}
}

func decodeQuantile(fragment interface{}, path string) (Container, error) {
	obj, err := toObject(fragment, path, "entries", "target", "estimate")
	if err != nil {
		return nil, err
	}
	entries, err := readEntries(obj, path)
	if err != nil {
		return nil, err
	}
	target, err := toFloat(obj["target"], joinPath(path, "target"))
	if err != nil {
		return nil, err
	}
	estimate, err := toFloat(obj["estimate"], joinPath(path, "estimate"))
	if err != nil {
		return nil, err
	}
	quantile, err := RestoreQuantile(target, entries, estimate)
	if err != nil {
		return nil, wrapDocErr(path, err)
	}
	return quantile, nil
}

func init() {
	Register("Quantile", decodeQuantile)
}
