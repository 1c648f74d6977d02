package core

import (
	"math"
	"sort"
)

// AdaptivelyBin clusters a quantity online into at most num bins. Every new
// value opens a bin at its own center; whenever there are more than num
// bins the adjacent pair with the lowest merge score is merged, leftmost
// first on ties. The score is
//
//	tailDetail*dx/(last center - first center) + (1-tailDetail)*(n1+n2)/entries
//
// so the default tailDetail of 1 merges the closest pair. Combining two
// instances merges their clusters the same way, which is approximate: the
// result can depend on the order of combination.
type AdaptivelyBin struct {
	rule
	num         int
	tailDetail  float64
	entries     float64
	value       Container
	contentType string
	bins        []CenteredBin
	min         float64
	max         float64
	nanflow     Container
}

// NewAdaptivelyBin creates bins from value (Count when nil).
func NewAdaptivelyBin(num int, quantity QuantityFunc, value Container, opts ...Option) (*AdaptivelyBin, error) {
	o := newOptions(opts)
	if err := checkAdaptive(num, o.tailDetail); err != nil {
		return nil, err
	}
	value = instantiate(value)
	return &AdaptivelyBin{
		rule:        rule{quantity: quantity, selection: o.selection},
		num:         num,
		tailDetail:  o.tailDetail,
		value:       value,
		contentType: value.Name(),
		min:         math.Inf(1),
		max:         math.Inf(-1),
		nanflow:     instantiate(o.nanflow),
	}, nil
}

func checkAdaptive(num int, tailDetail float64) error {
	if num < 1 {
		return invalidConfig("AdaptivelyBin", "num must be positive, got %d", num)
	}
	if !(tailDetail >= 0 && tailDetail <= 1) {
		return invalidConfig("AdaptivelyBin", "tailDetail must be in [0, 1], got %v", tailDetail)
	}
	return nil
}

func RestoreAdaptivelyBin(num int, tailDetail, entries float64, contentType string, bins []CenteredBin, min, max float64, nanflow Container) (*AdaptivelyBin, error) {
	if err := checkAdaptive(num, tailDetail); err != nil {
		return nil, err
	}
	if err := checkEntries("AdaptivelyBin", entries); err != nil {
		return nil, err
	}
	if len(bins) > num {
		return nil, invalidConfig("AdaptivelyBin", "%d bins exceed num %d", len(bins), num)
	}
	if err := checkCenters("AdaptivelyBin", bins, contentType, true); err != nil {
		return nil, err
	}
	return &AdaptivelyBin{
		num:         num,
		tailDetail:  tailDetail,
		entries:     entries,
		contentType: contentType,
		bins:        append([]CenteredBin(nil), bins...),
		min:         min,
		max:         max,
		nanflow:     nanflow,
	}, nil
}

func (adaptive *AdaptivelyBin) Name() string { return "AdaptivelyBin" }
func (adaptive *AdaptivelyBin) Entries() float64 { return adaptive.entries }
func (adaptive *AdaptivelyBin) Num() int { return adaptive.num }
func (adaptive *AdaptivelyBin) TailDetail() float64 { return adaptive.tailDetail }
func (adaptive *AdaptivelyBin) ContentType() string { return adaptive.contentType }
func (adaptive *AdaptivelyBin) Min() float64 { return adaptive.min }
func (adaptive *AdaptivelyBin) Max() float64 { return adaptive.max }
func (adaptive *AdaptivelyBin) Nanflow() Container { return adaptive.nanflow }

// Bins lists the clusters by ascending center.
func (adaptive *AdaptivelyBin) Bins() []CenteredBin {
	return append([]CenteredBin(nil), adaptive.bins...)
}

func (adaptive *AdaptivelyBin) find(center float64) (int, bool) {
	i := sort.Search(len(adaptive.bins), func(i int) bool {
		return adaptive.bins[i].Center >= center
	})
	return i, i < len(adaptive.bins) && adaptive.bins[i].Center == center
}

// score rates merging bins i and i+1; lower merges first.
func (adaptive *AdaptivelyBin) score(i int) float64 {
	left, right := adaptive.bins[i], adaptive.bins[i+1]
	span := adaptive.bins[len(adaptive.bins)-1].Center - adaptive.bins[0].Center
	score := adaptive.tailDetail * relativeGap(right.Center-left.Center, span)
	if adaptive.entries > 0 {
		score += (1 - adaptive.tailDetail) * (left.Value.Entries() + right.Value.Entries()) / adaptive.entries
	}
	return score
}

// relativeGap is dx/span in [0, 1]. Against an infinite span a finite gap
// counts 0 and an infinite one 1.
func relativeGap(dx, span float64) float64 {
	switch {
	case math.IsInf(dx, 1):
		return 1
	case math.IsInf(span, 1):
		return 0
	case span > 0:
		return dx / span
	default:
		return 0
	}
}

// mergeDown merges adjacent bins until at most num remain.
func (adaptive *AdaptivelyBin) mergeDown() error {
	for len(adaptive.bins) > adaptive.num {
		best := 0
		bestScore := adaptive.score(0)
		for i := 1; i < len(adaptive.bins)-1; i++ {
			if s := adaptive.score(i); s < bestScore {
				best, bestScore = i, s
			}
		}
		left, right := adaptive.bins[best], adaptive.bins[best+1]
		merged, err := left.Value.Combine(right.Value)
		if err != nil {
			return err
		}
		adaptive.bins[best] = CenteredBin{
			Center: mergedCenter(left, right),
			Value:  merged,
		}
		adaptive.bins = append(adaptive.bins[:best+1], adaptive.bins[best+2:]...)
	}
	return nil
}

// mergedCenter is the entries-weighted mean of the two centers, their
// midpoint when both are empty. An infinite center absorbs a finite one;
// of two opposite infinities the heavier bin wins, the left one on ties.
func mergedCenter(left, right CenteredBin) float64 {
	nl, nr := left.Value.Entries(), right.Value.Entries()
	leftInf, rightInf := math.IsInf(left.Center, 0), math.IsInf(right.Center, 0)
	switch {
	case leftInf && rightInf:
		if nr > nl {
			return right.Center
		}
		return left.Center
	case leftInf:
		return left.Center
	case rightInf:
		return right.Center
	case nl+nr == 0:
		return (left.Center + right.Center) / 2
	default:
		return (left.Center*nl + right.Center*nr) / (nl + nr)
	}
}

func (adaptive *AdaptivelyBin) Zero() Container {
	return &AdaptivelyBin{
		rule:        adaptive.rule,
		num:         adaptive.num,
		tailDetail:  adaptive.tailDetail,
		value:       adaptive.value,
		contentType: adaptive.contentType,
		min:         math.Inf(1),
		max:         math.Inf(-1),
		nanflow:     adaptive.nanflow.Zero(),
	}
}

func (adaptive *AdaptivelyBin) Copy() Container {
	out := *adaptive
	out.bins = make([]CenteredBin, len(adaptive.bins))
	for i, bin := range adaptive.bins {
		out.bins[i] = CenteredBin{Center: bin.Center, Value: bin.Value.Copy()}
	}
	out.nanflow = adaptive.nanflow.Copy()
	return &out
}

func (adaptive *AdaptivelyBin) Fill(datum interface{}, weight float64) error {
	return fillChecked(adaptive, datum, weight)
}

func (adaptive *AdaptivelyBin) check(datum interface{}, weight float64) error {
	if !adaptive.bound() {
		return noFillRule("AdaptivelyBin")
	}
	w := adaptive.weigh(datum, weight)
	if w == 0 {
		return nil
	}
	q := adaptive.quantity(datum)
	if math.IsNaN(q) {
		return adaptive.nanflow.check(datum, w)
	}
	if i, ok := adaptive.find(q); ok {
		return adaptive.bins[i].Value.check(datum, w)
	}
	if adaptive.value == nil {
		return noFillRule("AdaptivelyBin")
	}
	return adaptive.value.check(datum, w)
}

func (adaptive *AdaptivelyBin) fill(datum interface{}, weight float64) {
	w := adaptive.weigh(datum, weight)
	if w == 0 {
		return
	}
	q := adaptive.quantity(datum)
	adaptive.entries += w
	if math.IsNaN(q) {
		adaptive.nanflow.fill(datum, w)
		return
	}
	adaptive.min = math.Min(adaptive.min, q)
	adaptive.max = math.Max(adaptive.max, q)

	i, ok := adaptive.find(q)
	if !ok {
		adaptive.bins = append(adaptive.bins, CenteredBin{})
		copy(adaptive.bins[i+1:], adaptive.bins[i:])
		adaptive.bins[i] = CenteredBin{Center: q, Value: adaptive.value.Zero()}
	}
	adaptive.bins[i].Value.fill(datum, w)
	if err := adaptive.mergeDown(); err != nil {
		// bins share one template, so they always combine
		panic(err)
	}
}

func (adaptive *AdaptivelyBin) Combine(other Container) (Container, error) {
	that, ok := other.(*AdaptivelyBin)
	if !ok {
		return nil, mismatch("AdaptivelyBin", "cannot combine with %s", other.Name())
	}
	if adaptive.num != that.num || adaptive.tailDetail != that.tailDetail {
		return nil, mismatch("AdaptivelyBin", "num or tailDetail differ (%d, %v vs %d, %v)",
			adaptive.num, adaptive.tailDetail, that.num, that.tailDetail)
	}
	if adaptive.contentType != that.contentType {
		return nil, mismatch("AdaptivelyBin", "content types differ (%s vs %s)", adaptive.contentType, that.contentType)
	}
	nanflow, err := adaptive.nanflow.Combine(that.nanflow)
	if err != nil {
		return nil, err
	}
	out := adaptive.Copy().(*AdaptivelyBin)
	out.entries += that.entries
	out.min = math.Min(adaptive.min, that.min)
	out.max = math.Max(adaptive.max, that.max)
	out.nanflow = nanflow
	for _, bin := range that.bins {
		i, found := out.find(bin.Center)
		if found {
			merged, err := out.bins[i].Value.Combine(bin.Value)
			if err != nil {
				return nil, err
			}
			out.bins[i].Value = merged
			continue
		}
		value, err := absorb(adaptive.value, bin.Value)
		if err != nil {
			return nil, err
		}
		out.bins = append(out.bins, CenteredBin{})
		copy(out.bins[i+1:], out.bins[i:])
		out.bins[i] = CenteredBin{Center: bin.Center, Value: value}
	}
	if err := out.mergeDown(); err != nil {
		return nil, err
	}
	return out, nil
}

func (adaptive *AdaptivelyBin) Fragment() interface{} {
	return map[string]interface{}{
		"entries":      FloatToDocument(adaptive.entries),
		"num":          float64(adaptive.num),
		"bins:type":    adaptive.contentType,
		"bins":         encodeCentered(adaptive.bins),
		"min":          FloatToDocument(adaptive.min),
		"max":          FloatToDocument(adaptive.max),
		"nanflow:type": adaptive.nanflow.Name(),
		"nanflow":      adaptive.nanflow.Fragment(),
		"tailDetail":   FloatToDocument(adaptive.tailDetail),
	}
}

func decodeAdaptivelyBin(fragment interface{}, path string) (Container, error) {
	obj, err := toObject(fragment, path, "entries", "num", "bins:type", "bins", "min", "max",
		"nanflow:type", "nanflow", "tailDetail")
	if err != nil {
		return nil, err
	}
	entries, err := readEntries(obj, path)
	if err != nil {
		return nil, err
	}
	num, err := toFloat(obj["num"], joinPath(path, "num"))
	if err != nil {
		return nil, err
	}
	if num != math.Trunc(num) || num < 1 || num > math.MaxInt32 {
		return nil, docErr(joinPath(path, "num"), "expected a positive integer, got %v", num)
	}
	tailDetail, err := toFloat(obj["tailDetail"], joinPath(path, "tailDetail"))
	if err != nil {
		return nil, err
	}
	contentType, bins, err := decodeCentered(obj, path)
	if err != nil {
		return nil, err
	}
	min, max, err := decodeRange(obj, path)
	if err != nil {
		return nil, err
	}
	nanflow, err := decodeTyped(obj, "nanflow", path)
	if err != nil {
		return nil, err
	}
	adaptive, err := RestoreAdaptivelyBin(int(num), tailDetail, entries, contentType, bins, min, max, nanflow)
	if err != nil {
		return nil, wrapDocErr(path, err)
	}
	return adaptive, nil
}

func init() {
	Register("AdaptivelyBin", decodeAdaptivelyBin)
}
