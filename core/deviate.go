package core

import "histodb/stats"

// Deviate tracks the weighted mean and variance of a quantity with a
// weighted Welford accumulator.
type Deviate struct {
	rule
	welford *stats.Welford
}

func NewDeviate(quantity QuantityFunc, opts ...Option) *Deviate {
	o := newOptions(opts)
	return &Deviate{
		rule:    rule{quantity: quantity, selection: o.selection},
		welford: stats.NewWelford(),
	}
}

func RestoreDeviate(entries, mean, variance float64) (*Deviate, error) {
	if err := checkEntries("Deviate", entries); err != nil {
		return nil, err
	}
	return &Deviate{welford: stats.RestoreWelford(entries, mean, variance)}, nil
}

func (deviate *Deviate) Bind(quantity QuantityFunc, selection SelectionFunc) {
	deviate.rule = rule{quantity: quantity, selection: bindSelection(selection)}
}

func (deviate *Deviate) Name() string { return "Deviate" }
func (deviate *Deviate) Entries() float64 { return deviate.welford.GetWeight() }
func (deviate *Deviate) Mean() float64 { return deviate.welford.GetMean() }
func (deviate *Deviate) Variance() float64 { return deviate.welford.GetVariance() }

func (deviate *Deviate) Zero() Container {
	return &Deviate{rule: deviate.rule, welford: stats.NewWelford()}
}

func (deviate *Deviate) Copy() Container {
	return &Deviate{rule: deviate.rule, welford: deviate.welford.Copy()}
}

func (deviate *Deviate) Fill(datum interface{}, weight float64) error {
	return fillChecked(deviate, datum, weight)
}

func (deviate *Deviate) check(interface{}, float64) error {
	if !deviate.bound() {
		return noFillRule("Deviate")
	}
	return nil
}

func (deviate *Deviate) fill(datum interface{}, weight float64) {
	if w := deviate.weigh(datum, weight); w > 0 {
		deviate.welford.Update(deviate.quantity(datum), w)
	}
}

func (deviate *Deviate) Combine(other Container) (Container, error) {
	that, ok := other.(*Deviate)
	if !ok {
		return nil, mismatch("Deviate", "cannot combine with %s", other.Name())
	}
	return &Deviate{rule: deviate.rule, welford: deviate.welford.Merge(that.welford)}, nil
}

func (deviate *Deviate) Fragment() interface{} {
	return map[string]interface{}{
		"entries":  FloatToDocument(deviate.Entries()),
		"mean":     FloatToDocument(deviate.Mean()),
		"variance": FloatToDocument(deviate.Variance()),
	}
}

func decodeDeviate(fragment interface{}, path string) (Container, error) {
	obj, err := toObject(fragment, path, "entries", "mean", "variance")
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
	variance, err := toFloat(obj["variance"], joinPath(path, "variance"))
	if err != nil {
		return nil, err
	}
	deviate, err := RestoreDeviate(entries, mean, variance)
	if err != nil {
		return nil, wrapDocErr(path, err)
	}
	return deviate, nil
}

func init() {
	Register("Deviate", decodeDeviate)
}
