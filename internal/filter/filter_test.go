package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openmkt/simex/internal/filter"
)

const tol = 1e-4

func TestAveraged(t *testing.T) {
	a := filter.NewAveraged(10, 0, 90)
	assert.InDelta(t, 0.0, a.Value(), tol)
	assert.InDelta(t, 0.5, a.Sample(1, 91), tol)
	assert.InDelta(t, 1.0, a.Sample(2, 94), tol)
	assert.InDelta(t, 2.0, a.Sample(3, 100), tol)

	a = filter.NewAveraged(10, 5, 1)
	assert.InDelta(t, 5.0, a.Value(), tol)
	assert.InDelta(t, 4.5, a.Sample(4, 2), tol)
	assert.InDelta(t, 4.5, a.Value(), tol)
	assert.InDelta(t, 5.0, a.Sample(6, 3), tol)
	assert.InDelta(t, 5.0, a.Sample(5, 4), tol)
	assert.InDelta(t, 5.0, a.Sample(5, 10), tol)
	assert.Equal(t, 5, a.Len())
	// Timestamps 3..12 remain within the window; 1 and 2 drop off.
	assert.InDelta(t, 5.25, a.Sample(5, 12), tol)
	assert.Equal(t, 4, a.Len())
	assert.InDelta(t, 5.0, a.Sample(5, 13), tol)
	assert.InDelta(t, 5.0, a.Sample(5, 14), tol)
}

func TestWeightedLinear(t *testing.T) {
	w := filter.NewWeightedLinear(10, 0, 90)
	assert.InDelta(t, 0.0, w.Value(), tol)
	// The 0 has held for 1 unit; the new 1 has no hold time yet.
	assert.InDelta(t, 0.0, w.Sample(1, 91), tol)
	assert.Equal(t, 2, w.Len())
	assert.InDelta(t, 0.75, w.Sample(2, 94), tol)
	assert.Equal(t, 3, w.Len())
	assert.InDelta(t, 1.5, w.Sample(3, 100), tol)

	w = filter.NewWeightedLinear(10, 5, 1)
	assert.InDelta(t, 5.0, w.Value(), tol)
	assert.InDelta(t, 5.0, w.Sample(4, 2), tol)
	assert.InDelta(t, 4.5, w.Sample(6, 3), tol)
	assert.InDelta(t, 5.0, w.Sample(5, 4), tol)
	assert.InDelta(t, 5.0, w.Sample(5, 10), tol)
	// The 4 leaves the window but its tail still weighs in.
	assert.InDelta(t, 5.0, w.Sample(5, 12), tol)
	assert.InDelta(t, 5.1, w.Sample(5, 13), tol)
	assert.InDelta(t, 5.0, w.Sample(5, 14), tol)
}

func TestWeighted(t *testing.T) {
	w := filter.NewWeighted(10, 0, 90)
	assert.InDelta(t, 0.0, w.Value(), tol)
	assert.Equal(t, 1, w.Len())
	assert.InDelta(t, 10.0, w.Interval(), tol)
	// Interpolated: the 0->1 segment averages 0.5 over its 1 unit.
	assert.InDelta(t, 0.5, w.Sample(1, 91), tol)
	assert.Equal(t, 2, w.Len())
	assert.InDelta(t, 1.25, w.Sample(2, 94), tol)
	assert.Equal(t, 3, w.Len())
	assert.InDelta(t, 2.0, w.Sample(3, 100), tol)

	w = filter.NewWeighted(10, 5, 1)
	assert.InDelta(t, 5.0, w.Value(), tol)
	assert.InDelta(t, 4.5, w.Sample(4, 2), tol)
	assert.InDelta(t, 4.75, w.Sample(6, 3), tol)
	assert.InDelta(t, 5.0, w.Sample(5, 4), tol)
	assert.InDelta(t, 5.0, w.Hold(10), tol)
	assert.InDelta(t, 5.05, w.Hold(12), tol)
	assert.InDelta(t, 5.05, w.Hold(13), tol)
	assert.InDelta(t, 5.0, w.Hold(14), tol)
	assert.InDelta(t, 5.0, w.Value(), tol)
}

func TestWeightedSimultaneousSamples(t *testing.T) {
	// A pair of samples at the same instant makes a step: the zero-width
	// segment contributes nothing, reproducing sample-and-hold behavior.
	w := filter.NewWeighted(10, 0, 90)
	assert.InDelta(t, 0.0, w.Sample(0, 91), tol)
	assert.InDelta(t, 0.0, w.Sample(1, 91), tol)
	assert.Equal(t, 3, w.Len())
	assert.InDelta(t, 0.75, w.Sample(1, 94), tol)
	assert.InDelta(t, 0.75, w.Sample(2, 94), tol)
	assert.Equal(t, 5, w.Len())
	assert.InDelta(t, 1.5, w.Sample(2, 100), tol)
	assert.InDelta(t, 1.5, w.Sample(3, 100), tol)
}
