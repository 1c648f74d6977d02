package core

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// BagValue is one distinct value of a Bag and its accumulated weight. Value
// is a float64, a []float64 or a string.
type BagValue struct {
	Value  interface{}
	Weight float64
}

type bagShape struct {
	kind byte // 0 unset, 'N' number, 'V' vector, 'S' string
	dim  int
}

func (shape bagShape) tag() interface{} {
	switch shape.kind {
	case 'N':
		return "N"
	case 'V':
		return "N" + strconv.Itoa(shape.dim)
	case 'S':
		return "S"
	default:
		return nil
	}
}

func (shape bagShape) String() string {
	switch shape.kind {
	case 'N':
		return "number"
	case 'V':
		return fmt.Sprintf("vector of %d numbers", shape.dim)
	case 'S':
		return "string"
	default:
		return "unset"
	}
}

func parseBagShape(v interface{}, path string) (bagShape, error) {
	if v == nil {
		return bagShape{}, nil
	}
	tag, err := toString(v, path)
	if err != nil {
		return bagShape{}, err
	}
	switch {
	case tag == "N":
		return bagShape{kind: 'N'}, nil
	case tag == "S":
		return bagShape{kind: 'S'}, nil
	case strings.HasPrefix(tag, "N"):
		dim, err := strconv.Atoi(tag[1:])
		if err != nil || dim < 0 {
			return bagShape{}, docErr(path, "bad range %q", tag)
		}
		return bagShape{kind: 'V', dim: dim}, nil
	default:
		return bagShape{}, docErr(path, "bad range %q", tag)
	}
}

// normalizeBagValue converts a raw quantity to its stored form.
func normalizeBagValue(q interface{}) (interface{}, bagShape, bool) {
	if x, ok := numberOf(q); ok {
		if x == 0 {
			x = 0 // folds -0 into 0
		}
		return x, bagShape{kind: 'N'}, true
	}
	switch v := q.(type) {
	case string:
		return v, bagShape{kind: 'S'}, true
	case []float64:
		out := make([]float64, len(v))
		copy(out, v)
		return out, bagShape{kind: 'V', dim: len(v)}, true
	case []interface{}:
		out := make([]float64, len(v))
		for i, item := range v {
			x, ok := numberOf(item)
			if !ok {
				return nil, bagShape{}, false
			}
			out[i] = x
		}
		return out, bagShape{kind: 'V', dim: len(v)}, true
	default:
		return nil, bagShape{}, false
	}
}

func bagKey(value interface{}) string {
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case []float64:
		parts := make([]string, len(v))
		for i, x := range v {
			parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		return strings.Join(parts, ",")
	default:
		return value.(string)
	}
}

// lessFloat orders NaN after every number.
func lessFloat(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	return math.IsNaN(b) || a < b
}

func lessBagValue(a, b interface{}) bool {
	switch x := a.(type) {
	case float64:
		return lessFloat(x, b.(float64))
	case []float64:
		y := b.([]float64)
		for i := range x {
			if lessFloat(x[i], y[i]) {
				return true
			}
			if lessFloat(y[i], x[i]) {
				return false
			}
		}
		return false
	default:
		return a.(string) < b.(string)
	}
}

// Bag accumulates the exact multiset of a quantity's values. The first value
// fixes the shape the bag accepts: a number, a vector of a given length or a
// string.
type Bag struct {
	quantity  ValueQuantityFunc
	selection SelectionFunc
	entries   float64
	shape     bagShape
	values    map[string]*BagValue
}

func NewBag(quantity ValueQuantityFunc, opts ...Option) *Bag {
	o := newOptions(opts)
	return &Bag{
		quantity:  quantity,
		selection: o.selection,
		values:    make(map[string]*BagValue),
	}
}

// RestoreBag rebuilds a bag from its distinct values, which must share one
// shape.
func RestoreBag(entries float64, values []BagValue) (*Bag, error) {
	if err := checkEntries("Bag", entries); err != nil {
		return nil, err
	}
	bag := &Bag{entries: entries, values: make(map[string]*BagValue, len(values))}
	for _, value := range values {
		normalized, shape, ok := normalizeBagValue(value.Value)
		if !ok {
			return nil, invalidConfig("Bag", "unsupported value %v", value.Value)
		}
		if bag.shape.kind != 0 && bag.shape != shape {
			return nil, invalidConfig("Bag", "value %v is not a %s", value.Value, bag.shape)
		}
		bag.shape = shape
		bag.add(normalized, value.Weight)
	}
	return bag, nil
}

func (bag *Bag) Bind(quantity ValueQuantityFunc, selection SelectionFunc) {
	bag.quantity = quantity
	bag.selection = bindSelection(selection)
}

func (bag *Bag) Name() string { return "Bag" }
func (bag *Bag) Entries() float64 { return bag.entries }

// Range is "N", "N<k>" or "S" for number, vector and string bags, and nil
// before the first value.
func (bag *Bag) Range() interface{} { return bag.shape.tag() }

// Values lists the distinct values in ascending order.
func (bag *Bag) Values() []BagValue {
	out := make([]BagValue, 0, len(bag.values))
	for _, value := range bag.values {
		item := *value
		if vector, ok := item.Value.([]float64); ok {
			item.Value = append([]float64(nil), vector...)
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		return lessBagValue(out[i].Value, out[j].Value)
	})
	return out
}

// Weight returns the weight accumulated for value, zero if absent.
func (bag *Bag) Weight(value interface{}) float64 {
	normalized, shape, ok := normalizeBagValue(value)
	if !ok || shape != bag.shape {
		return 0
	}
	if item, ok := bag.values[bagKey(normalized)]; ok {
		return item.Weight
	}
	return 0
}

func (bag *Bag) add(value interface{}, weight float64) {
	key := bagKey(value)
	if item, ok := bag.values[key]; ok {
		item.Weight += weight
		return
	}
	bag.values[key] = &BagValue{Value: value, Weight: weight}
}

func (bag *Bag) Zero() Container {
	return &Bag{
		quantity:  bag.quantity,
		selection: bag.selection,
		values:    make(map[string]*BagValue),
	}
}

func (bag *Bag) Copy() Container {
	clone := &Bag{
		quantity:  bag.quantity,
		selection: bag.selection,
		entries:   bag.entries,
		shape:     bag.shape,
		values:    make(map[string]*BagValue, len(bag.values)),
	}
	for key, value := range bag.values {
		item := *value
		clone.values[key] = &item
	}
	return clone
}

func (bag *Bag) Fill(datum interface{}, weight float64) error {
	return fillChecked(bag, datum, weight)
}

func (bag *Bag) weigh(datum interface{}, weight float64) float64 {
	return effectiveWeight(bag.selection, datum, weight)
}

func (bag *Bag) check(datum interface{}, weight float64) error {
	if bag.quantity == nil || bag.selection == nil {
		return noFillRule("Bag")
	}
	if bag.weigh(datum, weight) == 0 {
		return nil
	}
	q := bag.quantity(datum)
	_, shape, ok := normalizeBagValue(q)
	if !ok {
		return fmt.Errorf("%w: Bag accepts a number, a vector of numbers or a string, not %T", ErrInvalidQuantity, q)
	}
	if bag.shape.kind != 0 && shape != bag.shape {
		return fmt.Errorf("%w: Bag holds %s values, got %s", ErrInvalidQuantity, bag.shape, shape)
	}
	return nil
}

func (bag *Bag) fill(datum interface{}, weight float64) {
	w := bag.weigh(datum, weight)
	if w == 0 {
		return
	}
	value, shape, _ := normalizeBagValue(bag.quantity(datum))
	bag.shape = shape
	bag.entries += w
	bag.add(value, w)
}

func (bag *Bag) Combine(other Container) (Container, error) {
	that, ok := other.(*Bag)
	if !ok {
		return nil, mismatch("Bag", "cannot combine with %s", other.Name())
	}
	if bag.shape.kind != 0 && that.shape.kind != 0 && bag.shape != that.shape {
		return nil, mismatch("Bag", "value shapes differ (%s vs %s)", bag.shape, that.shape)
	}
	out := bag.Copy().(*Bag)
	out.entries += that.entries
	if out.shape.kind == 0 {
		out.shape = that.shape
	}
	for _, value := range that.values {
		out.add(value.Value, value.Weight)
	}
	return out, nil
}

func (bag *Bag) Fragment() interface{} {
	values := make([]interface{}, 0, len(bag.values))
	for _, item := range bag.Values() {
		var v interface{}
		switch x := item.Value.(type) {
		case float64:
			v = FloatToDocument(x)
		case []float64:
			vector := make([]interface{}, len(x))
			for i, component := range x {
				vector[i] = FloatToDocument(component)
			}
			v = vector
		default:
			v = x
		}
		values = append(values, map[string]interface{}{
			"n": FloatToDocument(item.Weight),
			"v": v,
		})
	}
	return map[string]interface{}{
		"entries": FloatToDocument(bag.entries),
		"values":  values,
		"range":   bag.shape.tag(),
	}
}

func decodeBagValue(v interface{}, shape bagShape, path string) (interface{}, error) {
	switch shape.kind {
	case 'N':
		return toFloat(v, path)
	case 'S':
		return toString(v, path)
	case 'V':
		array, err := toArray(v, path)
		if err != nil {
			return nil, err
		}
		if len(array) != shape.dim {
			return nil, docErr(path, "expected %d components, got %d", shape.dim, len(array))
		}
		vector := make([]float64, len(array))
		for i, component := range array {
			if vector[i], err = toFloat(component, indexPath(path, i)); err != nil {
				return nil, err
			}
		}
		return vector, nil
	default:
		return nil, docErr(path, "value in a bag without range")
	}
}

func decodeBag(fragment interface{}, path string) (Container, error) {
	obj, err := toObject(fragment, path, "entries", "values", "range")
	if err != nil {
		return nil, err
	}
	entries, err := readEntries(obj, path)
	if err != nil {
		return nil, err
	}
	shape, err := parseBagShape(obj["range"], joinPath(path, "range"))
	if err != nil {
		return nil, err
	}
	valuesPath := joinPath(path, "values")
	items, err := toArray(obj["values"], valuesPath)
	if err != nil {
		return nil, err
	}
	values := make([]BagValue, len(items))
	for i, item := range items {
		itemPath := indexPath(valuesPath, i)
		nv, err := toObject(item, itemPath, "n", "v")
		if err != nil {
			return nil, err
		}
		if values[i].Weight, err = toFloat(nv["n"], joinPath(itemPath, "n")); err != nil {
			return nil, err
		}
		if values[i].Value, err = decodeBagValue(nv["v"], shape, joinPath(itemPath, "v")); err != nil {
			return nil, err
		}
	}
	bag, err := RestoreBag(entries, values)
	if err != nil {
		return nil, wrapDocErr(path, err)
	}
	// a restored bag keeps its declared range even when it has no values
	bag.shape = shape
	return bag, nil
}

func init() {
	Register("Bag", decodeBag)
}
