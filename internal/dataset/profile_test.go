package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile(t *testing.T) {
	ds, err := New(
		NewNumeric("a", []float64{1, 2, 0, 4}, []int{2}),
		NewCategorical("b", []string{"x", "", "", "y"}, []int{1, 2}),
		NewNumeric("c", []float64{1, 2, 3, 4}, nil),
	)
	require.NoError(t, err)

	descs, err := Profile(ds)
	require.NoError(t, err)
	require.Len(t, descs, 3)

	assert.Equal(t, "a", descs[0].Name)
	assert.Equal(t, Numeric, descs[0].Kind)
	assert.Equal(t, 1, descs[0].MissingCount)
	assert.InDelta(t, 0.25, descs[0].MissingFraction, 1e-12)

	assert.Equal(t, "b", descs[1].Name)
	assert.Equal(t, 2, descs[1].MissingCount)
	assert.InDelta(t, 0.5, descs[1].MissingFraction, 1e-12)

	assert.Equal(t, 0, descs[2].MissingCount)
	assert.Zero(t, descs[2].MissingFraction)
}

func TestProfileEmptyDataset(t *testing.T) {
	ds, err := New(NewNumeric("a", nil, nil))
	require.NoError(t, err)

	_, err = Profile(ds)
	assert.ErrorIs(t, err, ErrNoRows)
}
