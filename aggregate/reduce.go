package aggregate

import (
	"errors"

	"histodb/core"
	"histodb/tree"
)

var ErrNoPartials = errors.New("no partials to reduce")

// Reduce combines partials pairwise, always merging the two with the fewest
// entries. The inputs are not modified.
func Reduce(partials []core.Container) (core.Container, error) {
	if len(partials) == 0 {
		return nil, ErrNoPartials
	}
	if len(partials) == 1 {
		return partials[0].Copy(), nil
	}

	pending := make([]core.Container, len(partials), 2*len(partials)-1)
	copy(pending, partials)

	heap := tree.NewMinHeap(len(partials))
	for i, partial := range partials {
		heap.PushItem(int64(i), partial.Entries())
	}

	for heap.Len() > 1 {
		left := heap.PopItem()
		right := heap.PopItem()
		merged, err := pending[left.Value].Combine(pending[right.Value])
		if err != nil {
			return nil, err
		}
		pending[left.Value], pending[right.Value] = nil, nil
		pending = append(pending, merged)
		heap.PushItem(int64(len(pending)-1), merged.Entries())
	}
	return pending[heap.PopItem().Value], nil
}
