package core

import (
	"math"
	"sort"
)

// Partition fills exactly one sub-container: the one with the greatest
// threshold at or below the quantity. A quantity below every threshold is
// dropped, which only happens for instances restored without a -Inf cut.
type Partition struct {
	thresholded
}

// NewPartition sorts thresholds and prepends -Inf when missing. Bins are
// zero copies of value (Count when nil).
func NewPartition(thresholds []float64, quantity QuantityFunc, value Container, opts ...Option) (*Partition, error) {
	th, err := newThresholded("Partition", thresholds, quantity, value, opts)
	if err != nil {
		return nil, err
	}
	return &Partition{th}, nil
}

func RestorePartition(entries float64, bins []ThresholdBin, nanflow Container) (*Partition, error) {
	if err := checkEntries("Partition", entries); err != nil {
		return nil, err
	}
	if err := checkThresholds("Partition", bins); err != nil {
		return nil, err
	}
	return &Partition{restoreThresholded(entries, bins, nanflow)}, nil
}

func (partition *Partition) Name() string { return "Partition" }
func (partition *Partition) Zero() Container { return &Partition{partition.zero()} }
func (partition *Partition) Copy() Container { return &Partition{partition.copy()} }
func (partition *Partition) Fragment() interface{} { return partition.fragment() }

// route returns the receiving sub-container, nil when q is dropped.
func (partition *Partition) route(q float64) Container {
	if math.IsNaN(q) {
		return partition.nanflow
	}
	i := sort.Search(len(partition.thresholds), func(i int) bool {
		return partition.thresholds[i] > q
	}) - 1
	if i < 0 {
		return nil
	}
	return partition.values[i]
}

func (partition *Partition) Fill(datum interface{}, weight float64) error {
	return fillChecked(partition, datum, weight)
}

func (partition *Partition) check(datum interface{}, weight float64) error {
	if !partition.bound() {
		return noFillRule("Partition")
	}
	w := partition.weigh(datum, weight)
	if w == 0 {
		return nil
	}
	if target := partition.route(partition.quantity(datum)); target != nil {
		return target.check(datum, w)
	}
	return nil
}

func (partition *Partition) fill(datum interface{}, weight float64) {
	w := partition.weigh(datum, weight)
	if w == 0 {
		return
	}
	if target := partition.route(partition.quantity(datum)); target != nil {
		target.fill(datum, w)
		partition.entries += w
	}
}

func (partition *Partition) Combine(other Container) (Container, error) {
	that, ok := other.(*Partition)
	if !ok {
		return nil, mismatch("Partition", "cannot combine with %s", other.Name())
	}
	th, err := partition.combine("Partition", &that.thresholded)
	if err != nil {
		return nil, err
	}
	return &Partition{th}, nil
}

func init() {
	Register("Partition", func(fragment interface{}, path string) (Container, error) {
		th, err := decodeThresholded("Partition", fragment, path)
		if err != nil {
			return nil, err
		}
		return &Partition{th}, nil
	})
}
