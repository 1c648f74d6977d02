package core

import "math"

// Limit passes fills to a wrapped container until its entries would exceed
// the limit. From then on the instance, and everything combined from it, is
// saturated and drops every fill.
type Limit struct {
	limit     float64
	saturated bool
	value     Container
}

func NewLimit(value Container, limit float64) (*Limit, error) {
	return RestoreLimit(limit, false, value)
}

func RestoreLimit(limit float64, saturated bool, value Container) (*Limit, error) {
	if !(limit > 0) || math.IsInf(limit, 1) {
		return nil, invalidConfig("Limit", "limit must be positive and finite, got %v", limit)
	}
	if value == nil {
		return nil, invalidConfig("Limit", "no wrapped container")
	}
	return &Limit{limit: limit, saturated: saturated, value: value}, nil
}

func (limit *Limit) Name() string { return "Limit" }
func (limit *Limit) Entries() float64 { return limit.value.Entries() }
func (limit *Limit) Limit() float64 { return limit.limit }
func (limit *Limit) Saturated() bool { return limit.saturated }
func (limit *Limit) Value() Container { return limit.value }

func (limit *Limit) Zero() Container {
	return &Limit{limit: limit.limit, value: limit.value.Zero()}
}

func (limit *Limit) Copy() Container {
	return &Limit{limit: limit.limit, saturated: limit.saturated, value: limit.value.Copy()}
}

func (limit *Limit) Fill(datum interface{}, weight float64) error {
	return fillChecked(limit, datum, weight)
}

func (limit *Limit) check(datum interface{}, weight float64) error {
	if !(weight > 0) || limit.saturated {
		return nil
	}
	return limit.value.check(datum, weight)
}

// fill compares the limit with what the wrapped container actually absorbs,
// which can be less than weight when it carries its own selection. Near the
// limit the fill goes to a copy first.
func (limit *Limit) fill(datum interface{}, weight float64) {
	if !(weight > 0) || limit.saturated {
		return
	}
	if limit.value.Entries()+weight <= limit.limit {
		limit.value.fill(datum, weight)
		return
	}
	trial := limit.value.Copy()
	trial.fill(datum, weight)
	if trial.Entries() > limit.limit {
		limit.saturated = true
		return
	}
	limit.value = trial
}

func (limit *Limit) Combine(other Container) (Container, error) {
	that, ok := other.(*Limit)
	if !ok {
		return nil, mismatch("Limit", "cannot combine with %s", other.Name())
	}
	if limit.limit != that.limit {
		return nil, mismatch("Limit", "limits differ (%v vs %v)", limit.limit, that.limit)
	}
	value, err := limit.value.Combine(that.value)
	if err != nil {
		return nil, err
	}
	return &Limit{
		limit:     limit.limit,
		saturated: limit.saturated || that.saturated || value.Entries() > limit.limit,
		value:     value,
	}, nil
}

func (limit *Limit) Fragment() interface{} {
	return map[string]interface{}{
		"entries":   FloatToDocument(limit.Entries()),
		"limit":     FloatToDocument(limit.limit),
		"type":      limit.value.Name(),
		"data":      limit.value.Fragment(),
		"saturated": limit.saturated,
	}
}

func decodeLimit(fragment interface{}, path string) (Container, error) {
	obj, err := toObject(fragment, path, "entries", "limit", "type", "data", "saturated")
	if err != nil {
		return nil, err
	}
	entries, err := readEntries(obj, path)
	if err != nil {
		return nil, err
	}
	limitValue, err := toFloat(obj["limit"], joinPath(path, "limit"))
	if err != nil {
		return nil, err
	}
	saturated, err := toBool(obj["saturated"], joinPath(path, "saturated"))
	if err != nil {
		return nil, err
	}
	contentType, err := readType(obj, "type", path)
	if err != nil {
		return nil, err
	}
	value, err := decodeFragment(contentType, obj["data"], joinPath(path, "data"))
	if err != nil {
		return nil, err
	}
	if entries != value.Entries() {
		return nil, docErr(joinPath(path, "entries"), "entries %v disagree with wrapped %v", entries, value.Entries())
	}
	limit, err := RestoreLimit(limitValue, saturated, value)
	if err != nil {
		return nil, wrapDocErr(path, err)
	}
	return limit, nil
}

func init() {
	Register("Limit", decodeLimit)
}
