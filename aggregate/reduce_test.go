package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"histodb/core"
)

func counts(t *testing.T, entries ...float64) []core.Container {
	partials := make([]core.Container, len(entries))
	for i, e := range entries {
		count, err := core.RestoreCount(e)
		require.NoError(t, err)
		partials[i] = count
	}
	return partials
}

func TestReduce(t *testing.T) {
	partials := counts(t, 5, 1, 3, 0, 8)

	result, err := Reduce(partials)
	require.NoError(t, err)
	assert.Equal(t, 17.0, result.Entries())

	for i, want := range []float64{5, 1, 3, 0, 8} {
		assert.Equal(t, want, partials[i].Entries())
	}
}

func TestReduceSingle(t *testing.T) {
	partials := counts(t, 2)

	result, err := Reduce(partials)
	require.NoError(t, err)
	assert.Equal(t, 2.0, result.Entries())
	assert.NotSame(t, partials[0], result)
}

func TestReduceErrors(t *testing.T) {
	_, err := Reduce(nil)
	assert.ErrorIs(t, err, ErrNoPartials)

	mixed := append(counts(t, 1), core.NewSum(core.Identity))
	_, err = Reduce(mixed)
	assert.ErrorIs(t, err, core.ErrConfigMismatch)
}
