package core

// Count sums the weights of its fills.
type Count struct {
	entries float64
}

func NewCount() *Count {
	return &Count{}
}

func RestoreCount(entries float64) (*Count, error) {
	if err := checkEntries("Count", entries); err != nil {
		return nil, err
	}
	return &Count{entries: entries}, nil
}

func (count *Count) Name() string { return "Count" }
func (count *Count) Entries() float64 { return count.entries }
func (count *Count) Zero() Container { return NewCount() }
func (count *Count) Copy() Container { return &Count{entries: count.entries} }
func (count *Count) Fragment() interface{} { return FloatToDocument(count.entries) }

func (count *Count) Fill(datum interface{}, weight float64) error {
	return fillChecked(count, datum, weight)
}

func (count *Count) check(interface{}, float64) error {
	return nil
}

func (count *Count) fill(_ interface{}, weight float64) {
	if weight > 0 {
		count.entries += weight
	}
}

func (count *Count) Combine(other Container) (Container, error) {
	that, ok := other.(*Count)
	if !ok {
		return nil, mismatch("Count", "cannot combine with %s", other.Name())
	}
	return &Count{entries: count.entries + that.entries}, nil
}

func decodeCount(fragment interface{}, path string) (Container, error) {
	entries, err := toFloat(fragment, path)
	if err != nil {
		return nil, err
	}
	count, err := RestoreCount(entries)
	if err != nil {
		return nil, wrapDocErr(path, err)
	}
	return count, nil
}

func init() {
	Register("Count", decodeCount)
}
