package core

import "sort"

// Categorize keeps one sub-container per distinct string quantity, created
// from the value template on first use.
type Categorize struct {
	quantity    StringQuantityFunc
	selection   SelectionFunc
	value       Container
	contentType string
	entries     float64
	bins        map[string]Container
}

// NewCategorize uses Count for a nil value template.
func NewCategorize(quantity StringQuantityFunc, value Container, opts ...Option) *Categorize {
	o := newOptions(opts)
	value = instantiate(value)
	return &Categorize{
		quantity:    quantity,
		selection:   o.selection,
		value:       value,
		contentType: value.Name(),
		bins:        make(map[string]Container),
	}
}

func RestoreCategorize(entries float64, contentType string, bins map[string]Container) (*Categorize, error) {
	if err := checkEntries("Categorize", entries); err != nil {
		return nil, err
	}
	out := &Categorize{contentType: contentType, entries: entries, bins: make(map[string]Container, len(bins))}
	for category, bin := range bins {
		if !sameType(contentType, bin) {
			return nil, invalidConfig("Categorize", "category %q holds %s, not %s", category, bin.Name(), contentType)
		}
		out.bins[category] = bin
	}
	return out, nil
}

func (categorize *Categorize) Name() string { return "Categorize" }
func (categorize *Categorize) Entries() float64 { return categorize.entries }
func (categorize *Categorize) ContentType() string { return categorize.contentType }
func (categorize *Categorize) Size() int { return len(categorize.bins) }

func (categorize *Categorize) Get(category string) (Container, bool) {
	bin, ok := categorize.bins[category]
	return bin, ok
}

func (categorize *Categorize) Keys() []string {
	keys := make([]string, 0, len(categorize.bins))
	for key := range categorize.bins {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (categorize *Categorize) Zero() Container {
	return &Categorize{
		quantity:    categorize.quantity,
		selection:   categorize.selection,
		value:       categorize.value,
		contentType: categorize.contentType,
		bins:        make(map[string]Container),
	}
}

func (categorize *Categorize) Copy() Container {
	out := categorize.Zero().(*Categorize)
	out.entries = categorize.entries
	for key, bin := range categorize.bins {
		out.bins[key] = bin.Copy()
	}
	return out
}

func (categorize *Categorize) Fill(datum interface{}, weight float64) error {
	return fillChecked(categorize, datum, weight)
}

func (categorize *Categorize) check(datum interface{}, weight float64) error {
	if categorize.quantity == nil || categorize.selection == nil {
		return noFillRule("Categorize")
	}
	w := effectiveWeight(categorize.selection, datum, weight)
	if w == 0 {
		return nil
	}
	if bin, ok := categorize.bins[categorize.quantity(datum)]; ok {
		return bin.check(datum, w)
	}
	if categorize.value == nil {
		return noFillRule("Categorize")
	}
	return categorize.value.check(datum, w)
}

func (categorize *Categorize) fill(datum interface{}, weight float64) {
	w := effectiveWeight(categorize.selection, datum, weight)
	if w == 0 {
		return
	}
	category := categorize.quantity(datum)
	bin, ok := categorize.bins[category]
	if !ok {
		bin = categorize.value.Zero()
		categorize.bins[category] = bin
	}
	bin.fill(datum, w)
	categorize.entries += w
}

func (categorize *Categorize) Combine(other Container) (Container, error) {
	that, ok := other.(*Categorize)
	if !ok {
		return nil, mismatch("Categorize", "cannot combine with %s", other.Name())
	}
	if categorize.contentType != that.contentType {
		return nil, mismatch("Categorize", "content types differ (%s vs %s)", categorize.contentType, that.contentType)
	}
	out := categorize.Zero().(*Categorize)
	out.entries = categorize.entries + that.entries
	for key, bin := range categorize.bins {
		if thatBin, ok := that.bins[key]; ok {
			merged, err := bin.Combine(thatBin)
			if err != nil {
				return nil, err
			}
			out.bins[key] = merged
		} else {
			out.bins[key] = bin.Copy()
		}
	}
	for key, bin := range that.bins {
		if _, ok := categorize.bins[key]; ok {
			continue
		}
		merged, err := absorb(categorize.value, bin)
		if err != nil {
			return nil, err
		}
		out.bins[key] = merged
	}
	return out, nil
}

func (categorize *Categorize) Fragment() interface{} {
	data := make(map[string]interface{}, len(categorize.bins))
	for key, bin := range categorize.bins {
		data[key] = bin.Fragment()
	}
	return map[string]interface{}{
		"entries": FloatToDocument(categorize.entries),
		"type":    categorize.contentType,
		"data":    data,
	}
}

func decodeCategorize(fragment interface{}, path string) (Container, error) {
	obj, err := toObject(fragment, path, "entries", "type", "data")
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
	dataPath := joinPath(path, "data")
	data, err := toMap(obj["data"], dataPath)
	if err != nil {
		return nil, err
	}
	bins := make(map[string]Container, len(data))
	for key, binFragment := range data {
		if bins[key], err = decodeFragment(contentType, binFragment, joinPath(dataPath, key)); err != nil {
			return nil, err
		}
	}
	categorize, err := RestoreCategorize(entries, contentType, bins)
	if err != nil {
		return nil, wrapDocErr(path, err)
	}
	return categorize, nil
}

func init() {
	Register("Categorize", decodeCategorize)
}
