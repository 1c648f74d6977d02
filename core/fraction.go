package core

// Fraction fills a denominator with every selected datum and a numerator
// with the same datum weighted by the indicator quantity. A boolean
// indicator comes from Cut-style 0/1 functions; any non-negative weight is
// allowed.
type Fraction struct {
	rule
	entries     float64
	numerator   Container
	denominator Container
}

// NewFraction fills zero copies of value (Count when nil).
func NewFraction(indicator SelectionFunc, value Container, opts ...Option) *Fraction {
	o := newOptions(opts)
	return &Fraction{
		rule:        rule{quantity: QuantityFunc(indicator), selection: o.selection},
		numerator:   instantiate(value),
		denominator: instantiate(value),
	}
}

func RestoreFraction(entries float64, numerator, denominator Container) (*Fraction, error) {
	if err := checkEntries("Fraction", entries); err != nil {
		return nil, err
	}
	if numerator.Name() != denominator.Name() {
		return nil, invalidConfig("Fraction", "numerator holds %s, denominator %s", numerator.Name(), denominator.Name())
	}
	return &Fraction{entries: entries, numerator: numerator, denominator: denominator}, nil
}

func (fraction *Fraction) Name() string { return "Fraction" }
func (fraction *Fraction) Entries() float64 { return fraction.entries }
func (fraction *Fraction) Numerator() Container { return fraction.numerator }
func (fraction *Fraction) Denominator() Container { return fraction.denominator }

func (fraction *Fraction) Zero() Container {
	return &Fraction{
		rule:        fraction.rule,
		numerator:   fraction.numerator.Zero(),
		denominator: fraction.denominator.Zero(),
	}
}

func (fraction *Fraction) Copy() Container {
	return &Fraction{
		rule:        fraction.rule,
		entries:     fraction.entries,
		numerator:   fraction.numerator.Copy(),
		denominator: fraction.denominator.Copy(),
	}
}

func (fraction *Fraction) Fill(datum interface{}, weight float64) error {
	return fillChecked(fraction, datum, weight)
}

func (fraction *Fraction) check(datum interface{}, weight float64) error {
	if !fraction.bound() {
		return noFillRule("Fraction")
	}
	w := fraction.weigh(datum, weight)
	if w == 0 {
		return nil
	}
	if err := fraction.denominator.check(datum, w); err != nil {
		return err
	}
	if nw := w * fraction.quantity(datum); nw > 0 {
		return fraction.numerator.check(datum, nw)
	}
	return nil
}

func (fraction *Fraction) fill(datum interface{}, weight float64) {
	w := fraction.weigh(datum, weight)
	if w == 0 {
		return
	}
	fraction.denominator.fill(datum, w)
	if nw := w * fraction.quantity(datum); nw > 0 {
		fraction.numerator.fill(datum, nw)
	}
	fraction.entries += w
}

func (fraction *Fraction) Combine(other Container) (Container, error) {
	that, ok := other.(*Fraction)
	if !ok {
		return nil, mismatch("Fraction", "cannot combine with %s", other.Name())
	}
	numerator, err := fraction.numerator.Combine(that.numerator)
	if err != nil {
		return nil, err
	}
	denominator, err := fraction.denominator.Combine(that.denominator)
	if err != nil {
		return nil, err
	}
	return &Fraction{
		rule:        fraction.rule,
		entries:     fraction.entries + that.entries,
		numerator:   numerator,
		denominator: denominator,
	}, nil
}

func (fraction *Fraction) Fragment() interface{} {
	return map[string]interface{}{
		"entries":     FloatToDocument(fraction.entries),
		"type":        fraction.numerator.Name(),
		"numerator":   fraction.numerator.Fragment(),
		"denominator": fraction.denominator.Fragment(),
	}
}

func decodeFraction(fragment interface{}, path string) (Container, error) {
	obj, err := toObject(fragment, path, "entries", "type", "numerator", "denominator")
	if err != nil {
		return nil, err
	}
	entries, err := readEntries(obj, path)
	if err != nil {
		return nil, err
	}
	contentType, err := readType(obj, "type", path)
	if err != nil {
		return nil, err
	}
	numerator, err := decodeFragment(contentType, obj["numerator"], joinPath(path, "numerator"))
	if err != nil {
		return nil, err
	}
	denominator, err := decodeFragment(contentType, obj["denominator"], joinPath(path, "denominator"))
	if err != nil {
		return nil, err
	}
	fraction, err := RestoreFraction(entries, numerator, denominator)
	if err != nil {
		return nil, wrapDocErr(path, err)
	}
	return fraction, nil
}

func init() {
	Register("Fraction", decodeFraction)
}
