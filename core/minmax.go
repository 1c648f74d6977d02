package core

import "math"

// extremum is the shared state of Minimize and Maximize. NaN quantities
// count toward entries but never become the extremum.
type extremum struct {
	rule
	entries float64
	value   float64
}

func (ext *extremum) get() float64 {
	if ext.entries == 0 {
		return math.NaN()
	}
	return ext.value
}

func decodeExtremum(fragment interface{}, path, key string) (float64, float64, error) {
	obj, err := toObject(fragment, path, "entries", key)
	if err != nil {
		return 0, 0, err
	}
	entries, err := readEntries(obj, path)
	if err != nil {
		return 0, 0, err
	}
	value, err := toFloat(obj[key], joinPath(path, key))
	if err != nil {
		return 0, 0, err
	}
	return entries, value, nil
}

// Minimize tracks the smallest quantity seen.
type Minimize struct {
	extremum
}

func NewMinimize(quantity QuantityFunc, opts ...Option) *Minimize {
	o := newOptions(opts)
	return &Minimize{extremum{
		rule:  rule{quantity: quantity, selection: o.selection},
		value: math.Inf(1),
	}}
}

// RestoreMinimize accepts NaN for an empty container.
func RestoreMinimize(entries, min float64) (*Minimize, error) {
	if err := checkEntries("Minimize", entries); err != nil {
		return nil, err
	}
	if math.IsNaN(min) {
		min = math.Inf(1)
	}
	return &Minimize{extremum{entries: entries, value: min}}, nil
}

func (minimize *Minimize) Bind(quantity QuantityFunc, selection SelectionFunc) {
	minimize.rule = rule{quantity: quantity, selection: bindSelection(selection)}
}

func (minimize *Minimize) Name() string { return "Minimize" }
func (minimize *Minimize) Entries() float64 { return minimize.entries }

// Min is NaN while the container is empty.
func (minimize *Minimize) Min() float64 { return minimize.get() }

func (minimize *Minimize) Zero() Container {
	return &Minimize{extremum{rule: minimize.rule, value: math.Inf(1)}}
}

func (minimize *Minimize) Copy() Container {
	clone := *minimize
	return &clone
}

func (minimize *Minimize) Fill(datum interface{}, weight float64) error {
	return fillChecked(minimize, datum, weight)
}

func (minimize *Minimize) check(interface{}, float64) error {
	if !minimize.bound() {
		return noFillRule("Minimize")
	}
	return nil
}

func (minimize *Minimize) fill(datum interface{}, weight float64) {
	if w := minimize.weigh(datum, weight); w > 0 {
		minimize.entries += w
		if q := minimize.quantity(datum); q < minimize.value {
			minimize.value = q
		}
	}
}

func (minimize *Minimize) Combine(other Container) (Container, error) {
	that, ok := other.(*Minimize)
	if !ok {
		return nil, mismatch("Minimize", "cannot combine with %s", other.Name())
	}
	return &Minimize{extremum{
		rule:    minimize.rule,
		entries: minimize.entries + that.entries,
		value:   math.Min(minimize.value, that.value),
	}}, nil
}

func (minimize *Minimize) Fragment() interface{} {
	return map[string]interface{}{
		"entries": FloatToDocument(minimize.entries),
		"min":     FloatToDocument(minimize.Min()),
	}
}

// Maximize tracks the largest quantity seen.
type Maximize struct {
	extremum
}

func NewMaximize(quantity QuantityFunc, opts ...Option) *Maximize {
	o := newOptions(opts)
	return &Maximize{extremum{
		rule:  rule{quantity: quantity, selection: o.selection},
		value: math.Inf(-1),
	}}
}

// RestoreMaximize accepts NaN for an empty container.
func RestoreMaximize(entries, max float64) (*Maximize, error) {
	if err := checkEntries("Maximize", entries); err != nil {
		return nil, err
	}
	if math.IsNaN(max) {
		max = math.Inf(-1)
	}
	return &Maximize{extremum{entries: entries, value: max}}, nil
}

func (maximize *Maximize) Bind(quantity QuantityFunc, selection SelectionFunc) {
	maximize.rule = rule{quantity: quantity, selection: bindSelection(selection)}
}

func (maximize *Maximize) Name() string { return "Maximize" }
func (maximize *Maximize) Entries() float64 { return maximize.entries }

// Max is NaN while the container is empty.
func (maximize *Maximize) Max() float64 { return maximize.get() }

func (maximize *Maximize) Zero() Container {
	return &Maximize{extremum{rule: maximize.rule, value: math.Inf(-1)}}
}

func (maximize *Maximize) Copy() Container {
	clone := *maximize
	return &clone
}

func (maximize *Maximize) Fill(datum interface{}, weight float64) error {
	return fillChecked(maximize, datum, weight)
}

func (maximize *Maximize) check(interface{}, float64) error {
	if !maximize.bound() {
		return noFillRule("Maximize")
	}
	return nil
}

func (maximize *Maximize) fill(datum interface{}, weight float64) {
	if w := maximize.weigh(datum, weight); w > 0 {
		maximize.entries += w
		if q := maximize.quantity(datum); q > maximize.value {
			maximize.value = q
		}
	}
}

func (maximize *Maximize) Combine(other Container) (Container, error) {
	that, ok := other.(*Maximize)
	if !ok {
		return nil, mismatch("Maximize", "cannot combine with %s", other.Name())
	}
	return &Maximize{extremum{
		rule:    maximize.rule,
		entries: maximize.entries + that.entries,
		value:   math.Max(maximize.value, that.value),
	}}, nil
}

func (maximize *Maximize) Fragment() interface{} {
	return map[string]interface{}{
		"entries": FloatToDocument(maximize.entries),
		"max":     FloatToDocument(maximize.Max()),
	}
}

func init() {
	Register("Minimize", func(fragment interface{}, path string) (Container, error) {
		entries, min, err := decodeExtremum(fragment, path, "min")
		if err != nil {
			return nil, err
		}
		minimize, err := RestoreMinimize(entries, min)
		if err != nil {
			return nil, wrapDocErr(path, err)
		}
		return minimize, nil
	})
	Register("Maximize", func(fragment interface{}, path string) (Container, error) {
		entries, max, err := decodeExtremum(fragment, path, "max")
		if err != nil {
			return nil, err
		}
		maximize, err := RestoreMaximize(entries, max)
		if err != nil {
			return nil, wrapDocErr(path, err)
		}
		return maximize, nil
	})
}
