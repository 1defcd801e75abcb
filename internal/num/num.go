// Package num holds small numeric helpers shared by the controller, the
// filters and the trading agents: interval clamping, range mapping and
// approximate comparison.
package num

import "math"

// Span is a closed interval. A NaN endpoint disables that bound, since any
// comparison against NaN is false.
type Span struct {
	Min, Max float64
}

// Unbounded returns a span that never clamps.
func Unbounded() Span {
	return Span{Min: math.NaN(), Max: math.NaN()}
}

// Clamp limits v to the span.
func (s Span) Clamp(v float64) float64 {
	if v < s.Min {
		return s.Min
	}
	if v > s.Max {
		return s.Max
	}
	return v
}

// Near reports whether a and b agree to within four decimal places,
// relative to the larger magnitude.
func Near(a, b float64) bool {
	return NearTol(a, b, 1.0e-4)
}

// NearTol reports whether the difference between a and b is within the
// factor tol of the larger of their magnitudes.
func NearTol(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(math.Abs(a), math.Abs(b))
}

// Scale maps v from the domain to the range, linearly and without clipping.
// Both spans may be reverse-ordered; neither may be empty.
func Scale(v float64, dom, rng Span) float64 {
	return rng.Min + (v-dom.Min)*(rng.Max-rng.Min)/(dom.Max-dom.Min)
}

// ScaleClamped maps v like Scale, then clips the result into the range
// (reordered if it runs high to low).
func ScaleClamped(v float64, dom, rng Span) float64 {
	lo, hi := rng.Min, rng.Max
	if lo > hi {
		lo, hi = hi, lo
	}
	return Span{Min: lo, Max: hi}.Clamp(Scale(v, dom, rng))
}

// ScalePow maps v from the domain to the range through a power curve: the
// position within the domain is raised to exponent before mapping, so
// exponents above 1 weight the low end of the range.
func ScalePow(v float64, dom, rng Span, exponent float64) float64 {
	pos := (v - dom.Min) / (dom.Max - dom.Min)
	return rng.Min + math.Pow(pos, exponent)*(rng.Max-rng.Min)
}

// Magnitude returns the approximate order of magnitude of v in the given
// base, shifting up about a quarter of the way past each multiple.
// Non-positive values have no magnitude and yield NaN.
func Magnitude(v, base float64) float64 {
	if v <= 0 {
		return math.NaN()
	}
	return math.Pow(base, math.Round(math.Log(v)/math.Log(base))-1)
}
