package core

// indexed is the shared state of Index and Branch: every child sees every
// fill.
type indexed struct {
	entries float64
	values  []Container
}

func newIndexed(name string, entries float64, values []Container, typed bool) (indexed, error) {
	if err := checkEntries(name, entries); err != nil {
		return indexed{}, err
	}
	if len(values) == 0 {
		return indexed{}, invalidConfig(name, "at least one container is required")
	}
	for i, value := range values {
		if value == nil {
			return indexed{}, invalidConfig(name, "position %d has no container", i)
		}
		if typed && value.Name() != values[0].Name() {
			return indexed{}, invalidConfig(name, "position %d holds %s, not %s", i, value.Name(), values[0].Name())
		}
	}
	return indexed{entries: entries, values: append([]Container(nil), values...)}, nil
}

func (group *indexed) Entries() float64 { return group.entries }
func (group *indexed) Size() int { return len(group.values) }
func (group *indexed) At(i int) Container { return group.values[i] }

func (group *indexed) zero() indexed {
	values := make([]Container, len(group.values))
	for i, value := range group.values {
		values[i] = value.Zero()
	}
	return indexed{values: values}
}

func (group *indexed) copy() indexed {
	values := make([]Container, len(group.values))
	for i, value := range group.values {
		values[i] = value.Copy()
	}
	return indexed{entries: group.entries, values: values}
}

func (group *indexed) checkAll(datum interface{}, weight float64) error {
	if !(weight > 0) {
		return nil
	}
	for _, value := range group.values {
		if err := value.check(datum, weight); err != nil {
			return err
		}
	}
	return nil
}

func (group *indexed) fillAll(datum interface{}, weight float64) {
	if !(weight > 0) {
		return
	}
	for _, value := range group.values {
		value.fill(datum, weight)
	}
	group.entries += weight
}

func (group *indexed) combine(name string, that *indexed) (indexed, error) {
	if len(group.values) != len(that.values) {
		return indexed{}, mismatch(name, "sizes differ (%d vs %d)", len(group.values), len(that.values))
	}
	values := make([]Container, len(group.values))
	for i := range group.values {
		merged, err := group.values[i].Combine(that.values[i])
		if err != nil {
			return indexed{}, err
		}
		values[i] = merged
	}
	return indexed{entries: group.entries + that.entries, values: values}, nil
}

// Index groups same-typed containers by position.
type Index struct {
	indexed
}

func NewIndex(values ...Container) (*Index, error) {
	return RestoreIndex(0, values)
}

func RestoreIndex(entries float64, values []Container) (*Index, error) {
	group, err := newIndexed("Index", entries, values, true)
	if err != nil {
		return nil, err
	}
	return &Index{group}, nil
}

func (index *Index) Name() string { return "Index" }
func (index *Index) Zero() Container { return &Index{index.zero()} }
func (index *Index) Copy() Container { return &Index{index.copy()} }
func (index *Index) ContentType() string { return index.values[0].Name() }

func (index *Index) Fill(datum interface{}, weight float64) error {
	return fillChecked(index, datum, weight)
}

func (index *Index) check(datum interface{}, weight float64) error {
	return index.checkAll(datum, weight)
}

func (index *Index) fill(datum interface{}, weight float64) {
	index.fillAll(datum, weight)
}

func (index *Index) Combine(other Container) (Container, error) {
	that, ok := other.(*Index)
	if !ok {
		return nil, mismatch("Index", "cannot combine with %s", other.Name())
	}
	group, err := index.combine("Index", &that.indexed)
	if err != nil {
		return nil, err
	}
	return &Index{group}, nil
}

func (index *Index) Fragment() interface{} {
	data := make([]interface{}, len(index.values))
	for i, value := range index.values {
		data[i] = value.Fragment()
	}
	return map[string]interface{}{
		"entries": FloatToDocument(index.entries),
		"type":    index.ContentType(),
		"data":    data,
	}
}

func decodeIndex(fragment interface{}, path string) (Container, error) {
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
	items, err := toArray(obj["data"], dataPath)
	if err != nil {
		return nil, err
	}
	values := make([]Container, len(items))
	for i, item := range items {
		if values[i], err = decodeFragment(contentType, item, indexPath(dataPath, i)); err != nil {
			return nil, err
		}
	}
	index, err := RestoreIndex(entries, values)
	if err != nil {
		return nil, wrapDocErr(path, err)
	}
	return index, nil
}

// Branch groups containers of any types by position.
type Branch struct {
	indexed
}

func NewBranch(values ...Container) (*Branch, error) {
	return RestoreBranch(0, values)
}

func RestoreBranch(entries float64, values []Container) (*Branch, error) {
	group, err := newIndexed("Branch", entries, values, false)
	if err != nil {
		return nil, err
	}
	return &Branch{group}, nil
}

func (branch *Branch) Name() string { return "Branch" }
func (branch *Branch) Zero() Container { return &Branch{branch.zero()} }
func (branch *Branch) Copy() Container { return &Branch{branch.copy()} }

func (branch *Branch) Fill(datum interface{}, weight float64) error {
	return fillChecked(branch, datum, weight)
}

func (branch *Branch) check(datum interface{}, weight float64) error {
	return branch.checkAll(datum, weight)
}

func (branch *Branch) fill(datum interface{}, weight float64) {
	branch.fillAll(datum, weight)
}

func (branch *Branch) Combine(other Container) (Container, error) {
	that, ok := other.(*Branch)
	if !ok {
		return nil, mismatch("Branch", "cannot combine with %s", other.Name())
	}
	group, err := branch.combine("Branch", &that.indexed)
	if err != nil {
		return nil, err
	}
	return &Branch{group}, nil
}

func (branch *Branch) Fragment() interface{} {
	data := make([]interface{}, len(branch.values))
	for i, value := range branch.values {
		data[i] = ToDocument(value)
	}
	return map[string]interface{}{
		"entries": FloatToDocument(branch.entries),
		"data":    data,
	}
}

func decodeBranch(fragment interface{}, path string) (Container, error) {
	obj, err := toObject(fragment, path, "entries", "data")
	if err != nil {
		return nil, err
	}
	entries, err := readEntries(obj, path)
	if err != nil {
		return nil, err
	}
	dataPath := joinPath(path, "data")
	items, err := toArray(obj["data"], dataPath)
	if err != nil {
		return nil, err
	}
	values := make([]Container, len(items))
	for i, item := range items {
		if values[i], err = decodeDocument(item, indexPath(dataPath, i)); err != nil {
			return nil, err
		}
	}
	branch, err := RestoreBranch(entries, values)
	if err != nil {
		return nil, wrapDocErr(path, err)
	}
	return branch, nil
}

func init() {
	Register("Index", decodeIndex)
	Register("Branch", decodeBranch)
}
