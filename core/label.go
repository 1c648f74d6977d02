package core

import "sort"

// labeled is the shared state of Label and UntypedLabel: every child sees
// every fill.
type labeled struct {
	entries float64
	pairs   map[string]Container
}

func newLabeled(name string, entries float64, pairs map[string]Container, typed bool) (labeled, error) {
	if err := checkEntries(name, entries); err != nil {
		return labeled{}, err
	}
	if len(pairs) == 0 {
		return labeled{}, invalidConfig(name, "at least one key is required")
	}
	contentType := ""
	out := labeled{entries: entries, pairs: make(map[string]Container, len(pairs))}
	for _, key := range sortedKeys(pairs) {
		value := pairs[key]
		if value == nil {
			return labeled{}, invalidConfig(name, "key %q has no container", key)
		}
		if contentType == "" {
			contentType = value.Name()
		}
		if typed && value.Name() != contentType {
			return labeled{}, invalidConfig(name, "key %q holds %s, not %s", key, value.Name(), contentType)
		}
		out.pairs[key] = value
	}
	return out, nil
}

func sortedKeys(pairs map[string]Container) []string {
	keys := make([]string, 0, len(pairs))
	for key := range pairs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (group *labeled) Entries() float64 { return group.entries }
func (group *labeled) Size() int { return len(group.pairs) }
func (group *labeled) Keys() []string { return sortedKeys(group.pairs) }

func (group *labeled) Get(key string) (Container, bool) {
	value, ok := group.pairs[key]
	return value, ok
}

func (group *labeled) zero() labeled {
	out := labeled{pairs: make(map[string]Container, len(group.pairs))}
	for key, value := range group.pairs {
		out.pairs[key] = value.Zero()
	}
	return out
}

func (group *labeled) copy() labeled {
	out := labeled{entries: group.entries, pairs: make(map[string]Container, len(group.pairs))}
	for key, value := range group.pairs {
		out.pairs[key] = value.Copy()
	}
	return out
}

func (group *labeled) checkAll(datum interface{}, weight float64) error {
	if !(weight > 0) {
		return nil
	}
	for _, key := range sortedKeys(group.pairs) {
		if err := group.pairs[key].check(datum, weight); err != nil {
			return err
		}
	}
	return nil
}

func (group *labeled) fillAll(datum interface{}, weight float64) {
	if !(weight > 0) {
		return
	}
	for _, value := range group.pairs {
		value.fill(datum, weight)
	}
	group.entries += weight
}

func (group *labeled) combine(name string, that *labeled) (labeled, error) {
	if len(group.pairs) != len(that.pairs) {
		return labeled{}, mismatch(name, "key sets differ")
	}
	out := labeled{entries: group.entries + that.entries, pairs: make(map[string]Container, len(group.pairs))}
	for key, value := range group.pairs {
		other, ok := that.pairs[key]
		if !ok {
			return labeled{}, mismatch(name, "key %q missing on one side", key)
		}
		merged, err := value.Combine(other)
		if err != nil {
			return labeled{}, err
		}
		out.pairs[key] = merged
	}
	return out, nil
}

// Label groups same-typed containers under string keys.
type Label struct {
	labeled
}

func NewLabel(pairs map[string]Container) (*Label, error) {
	return RestoreLabel(0, pairs)
}

func RestoreLabel(entries float64, pairs map[string]Container) (*Label, error) {
	group, err := newLabeled("Label", entries, pairs, true)
	if err != nil {
		return nil, err
	}
	return &Label{group}, nil
}

func (label *Label) Name() string { return "Label" }
func (label *Label) Zero() Container { return &Label{label.zero()} }
func (label *Label) Copy() Container { return &Label{label.copy()} }

func (label *Label) ContentType() string {
	for _, value := range label.pairs {
		return value.Name()
	}
	return ""
}

func (label *Label) Fill(datum interface{}, weight float64) error {
	return fillChecked(label, datum, weight)
}

func (label *Label) check(datum interface{}, weight float64) error {
	return label.checkAll(datum, weight)
}

func (label *Label) fill(datum interface{}, weight float64) {
	label.fillAll(datum, weight)
}

func (label *Label) Combine(other Container) (Container, error) {
	that, ok := other.(*Label)
	if !ok {
		return nil, mismatch("Label", "cannot combine with %s", other.Name())
	}
	group, err := label.combine("Label", &that.labeled)
	if err != nil {
		return nil, err
	}
	return &Label{group}, nil
}

func (label *Label) Fragment() interface{} {
	data := make(map[string]interface{}, len(label.pairs))
	for key, value := range label.pairs {
		data[key] = value.Fragment()
	}
	return map[string]interface{}{
		"entries": FloatToDocument(label.entries),
		"type":    label.ContentType(),
		"data":    data,
	}
}

func decodeLabel(fragment interface{}, path string) (Container, error) {
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
	pairs := make(map[string]Container, len(data))
	for key, item := range data {
		if pairs[key], err = decodeFragment(contentType, item, joinPath(dataPath, key)); err != nil {
			return nil, err
		}
	}
	label, err := RestoreLabel(entries, pairs)
	if err != nil {
		return nil, wrapDocErr(path, err)
	}
	return label, nil
}

// UntypedLabel groups containers of any types under string keys.
type UntypedLabel struct {
	labeled
}

func NewUntypedLabel(pairs map[string]Container) (*UntypedLabel, error) {
	return RestoreUntypedLabel(0, pairs)
}

func RestoreUntypedLabel(entries float64, pairs map[string]Container) (*UntypedLabel, error) {
	group, err := newLabeled("UntypedLabel", entries, pairs, false)
	if err != nil {
		return nil, err
	}
	return &UntypedLabel{group}, nil
}

func (label *UntypedLabel) Name() string { return "UntypedLabel" }
func (label *UntypedLabel) Zero() Container { return &UntypedLabel{label.zero()} }
func (label *UntypedLabel) Copy() Container { return &UntypedLabel{label.copy()} }

func (label *UntypedLabel) Fill(datum interface{}, weight float64) error {
	return fillChecked(label, datum, weight)
}

func (label *UntypedLabel) check(datum interface{}, weight float64) error {
	return label.checkAll(datum, weight)
}

func (label *UntypedLabel) fill(datum interface{}, weight float64) {
	label.fillAll(datum, weight)
}

func (label *UntypedLabel) Combine(other Container) (Container, error) {
	that, ok := other.(*UntypedLabel)
	if !ok {
		return nil, mismatch("UntypedLabel", "cannot combine with %s", other.Name())
	}
	group, err := label.combine("UntypedLabel", &that.labeled)
	if err != nil {
		return nil, err
	}
	return &UntypedLabel{group}, nil
}

func (label *UntypedLabel) Fragment() interface{} {
	data := make(map[string]interface{}, len(label.pairs))
	for key, value := range label.pairs {
		data[key] = ToDocument(value)
	}
	return map[string]interface{}{
		"entries": FloatToDocument(label.entries),
		"data":    data,
	}
}

func decodeUntypedLabel(fragment interface{}, path string) (Container, error) {
	obj, err := toObject(fragment, path, "entries", "data")
	if err != nil {
		return nil, err
	}
	entries, err := readEntries(obj, path)
	if err != nil {
		return nil, err
	}
	dataPath := joinPath(path, "data")
	data, err := toMap(obj["data"], dataPath)
	if err != nil {
		return nil, err
	}
	pairs := make(map[string]Container, len(data))
	for key, item := range data {
		if pairs[key], err = decodeDocument(item, joinPath(dataPath, key)); err != nil {
			return nil, err
		}
	}
	label, err := RestoreUntypedLabel(entries, pairs)
	if err != nil {
		return nil, wrapDocErr(path, err)
	}
	return label, nil
}

func init() {
	Register("Label", decodeLabel)
	Register("UntypedLabel", decodeUntypedLabel)
}
