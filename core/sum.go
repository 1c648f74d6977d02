package core

// Sum accumulates the weighted sum of a quantity.
type Sum struct {
	rule
	entries float64
	sum     float64
}

func NewSum(quantity QuantityFunc, opts ...Option) *Sum {
	o := newOptions(opts)
	return &Sum{rule: rule{quantity: quantity, selection: o.selection}}
}

func RestoreSum(entries, sum float64) (*Sum, error) {
	if err := checkEntries("Sum", entries); err != nil {
		return nil, err
	}
	return &Sum{entries: entries, sum: sum}, nil
}

func (sum *Sum) Bind(quantity QuantityFunc, selection SelectionFunc) {
	sum.rule = rule{quantity: quantity, selection: bindSelection(selection)}
}

func (sum *Sum) Name() string { return "Sum" }
func (sum *Sum) Entries() float64 { return sum.entries }
func (sum *Sum) Sum() float64 { return sum.sum }

func (sum *Sum) Zero() Container {
	return &Sum{rule: sum.rule}
}

func (sum *Sum) Copy() Container {
	clone := *sum
	return &clone
}

func (sum *Sum) Fill(datum interface{}, weight float64) error {
	return fillChecked(sum, datum, weight)
}

func (sum *Sum) check(interface{}, float64) error {
	if !sum.bound() {
		return noFillRule("Sum")
	}
	return nil
}

func (sum *Sum) fill(datum interface{}, weight float64) {
	if w := sum.weigh(datum, weight); w > 0 {
		sum.entries += w
		sum.sum += w * sum.quantity(datum)
	}
}

func (sum *Sum) Combine(other Container) (Container, error) {
	that, ok := other.(*Sum)
	if !ok {
		return nil, mismatch("Sum", "cannot combine with %s", other.Name())
	}
	return &Sum{
		rule:    sum.rule,
		entries: sum.entries + that.entries,
		sum:     sum.sum + that.sum,
	}, nil
}

func (sum *Sum) Fragment() interface{} {
	return map[string]interface{}{
		"entries": FloatToDocument(sum.entries),
		"sum":     FloatToDocument(sum.sum),
	}
}

func decodeSum(fragment interface{}, path string) (Container, error) {
	obj, err := toObject(fragment, path, "entries", "sum")
	if err != nil {
		return nil, err
	}
	entries, err := readEntries(obj, path)
	if err != nil {
		return nil, err
	}
	total, err := toFloat(obj["sum"], joinPath(path, "sum"))
	if err != nil {
		return nil, err
	}
	sum, err := RestoreSum(entries, total)
	if err != nil {
		return nil, wrapDocErr(path, err)
	}
	return sum, nil
}

func init() {
	Register("Sum", decodeSum)
}
