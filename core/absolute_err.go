package core

import (
	"math"

	"histodb/stats"
)

// AbsoluteErr tracks the weighted mean absolute value of a quantity.
type AbsoluteErr struct {
	rule
	entries float64
	mae     float64
}

func NewAbsoluteErr(quantity QuantityFunc, opts ...Option) *AbsoluteErr {
	o := newOptions(opts)
	return &AbsoluteErr{rule: rule{quantity: quantity, selection: o.selection}}
}

func RestoreAbsoluteErr(entries, mae float64) (*AbsoluteErr, error) {
	if err := checkEntries("AbsoluteErr", entries); err != nil {
		return nil, err
	}
	return &AbsoluteErr{entries: entries, mae: mae}, nil
}

func (absErr *AbsoluteErr) Bind(quantity QuantityFunc, selection SelectionFunc) {
	absErr.rule = rule{quantity: quantity, selection: bindSelection(selection)}
}

func (absErr *AbsoluteErr) Name() string { return "AbsoluteErr" }
func (absErr *AbsoluteErr) Entries() float64 { return absErr.entries }

// MAE is the mean absolute value, zero before the first fill.
func (absErr *AbsoluteErr) MAE() float64 { return absErr.mae }

func (absErr *AbsoluteErr) Zero() Container {
	return &AbsoluteErr{rule: absErr.rule}
}

func (absErr *AbsoluteErr) Copy() Container {
	clone := *absErr
	return &clone
}

func (absErr *AbsoluteErr) Fill(datum interface{}, weight float64) error {
	return fillChecked(absErr, datum, weight)
}

func (absErr *AbsoluteErr) check(interface{}, float64) error {
	if !absErr.bound() {
		return noFillRule("AbsoluteErr")
	}
	return nil
}

func (absErr *AbsoluteErr) fill(datum interface{}, weight float64) {
	if w := absErr.weigh(datum, weight); w > 0 {
		q := math.Abs(absErr.quantity(datum))
		absErr.entries += w
		absErr.mae += (w / absErr.entries) * (q - absErr.mae)
	}
}

func (absErr *AbsoluteErr) Combine(other Container) (Container, error) {
	that, ok := other.(*AbsoluteErr)
	if !ok {
		return nil, mismatch("AbsoluteErr", "cannot combine with %s", other.Name())
	}
	return &AbsoluteErr{
		rule:    absErr.rule,
		entries: absErr.entries + that.entries,
		mae:     stats.WeightedMean(absErr.mae, absErr.entries, that.mae, that.entries),
	}, nil
}

func (absErr *AbsoluteErr) Fragment() interface{} {
	return map[string]interface{}{
		"entries": FloatToDocument(absErr.entries),
		"mae":     FloatToDocument(absErr.mae),
	}
}

func decodeAbsoluteErr(fragment interface{}, path string) (Container, error) {
	obj, err := toObject(fragment, path, "entries", "mae")
	if err != nil {
		return nil, err
	}
	entries, err := readEntries(obj, path)
	if err != nil {
		return nil, err
	}
	mae, err := toFloat(obj["mae"], joinPath(path, "mae"))
	if err != nil {
		return nil, err
	}
	absErr, err := RestoreAbsoluteErr(entries, mae)
	if err != nil {
		return nil, wrapDocErr(path, err)
	}
	return absErr, nil
}

func init() {
	Register("AbsoluteErr", decodeAbsoluteErr)
}
