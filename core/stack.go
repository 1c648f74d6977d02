package core

import "math"

// Stack fills every sub-container whose threshold is at or below the
// quantity, so the counts are cumulative from the top threshold down.
type Stack struct {
	thresholded
}

// NewStack sorts thresholds and prepends -Inf when missing. Bins are zero
// copies of value (Count when nil).
func NewStack(thresholds []float64, quantity QuantityFunc, value Container, opts ...Option) (*Stack, error) {
	th, err := newThresholded("Stack", thresholds, quantity, value, opts)
	if err != nil {
		return nil, err
	}
	return &Stack{th}, nil
}

func RestoreStack(entries float64, bins []ThresholdBin, nanflow Container) (*Stack, error) {
	if err := checkEntries("Stack", entries); err != nil {
		return nil, err
	}
	if err := checkThresholds("Stack", bins); err != nil {
		return nil, err
	}
	return &Stack{restoreThresholded(entries, bins, nanflow)}, nil
}

func (stack *Stack) Name() string { return "Stack" }
func (stack *Stack) Zero() Container { return &Stack{stack.zero()} }
func (stack *Stack) Copy() Container { return &Stack{stack.copy()} }
func (stack *Stack) Fragment() interface{} { return stack.fragment() }

func (stack *Stack) Fill(datum interface{}, weight float64) error {
	return fillChecked(stack, datum, weight)
}

func (stack *Stack) check(datum interface{}, weight float64) error {
	if !stack.bound() {
		return noFillRule("Stack")
	}
	w := stack.weigh(datum, weight)
	if w == 0 {
		return nil
	}
	q := stack.quantity(datum)
	if math.IsNaN(q) {
		return stack.nanflow.check(datum, w)
	}
	for i, threshold := range stack.thresholds {
		if q >= threshold {
			if err := stack.values[i].check(datum, w); err != nil {
				return err
			}
		}
	}
	return nil
}

func (stack *Stack) fill(datum interface{}, weight float64) {
	w := stack.weigh(datum, weight)
	if w == 0 {
		return
	}
	q := stack.quantity(datum)
	if math.IsNaN(q) {
		stack.nanflow.fill(datum, w)
	} else {
		for i, threshold := range stack.thresholds {
			if q >= threshold {
				stack.values[i].fill(datum, w)
			}
		}
	}
	stack.entries += w
}

func (stack *Stack) Combine(other Container) (Container, error) {
	that, ok := other.(*Stack)
	if !ok {
		return nil, mismatch("Stack", "cannot combine with %s", other.Name())
	}
	th, err := stack.combine("Stack", &that.thresholded)
	if err != nil {
		return nil, err
	}
	return &Stack{th}, nil
}

func init() {
	Register("Stack", func(fragment interface{}, path string) (Container, error) {
		th, err := decodeThresholded("Stack", fragment, path)
		if err != nil {
			return nil, err
		}
		return &Stack{th}, nil
	})
}
