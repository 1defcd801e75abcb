// Package filter provides windowed smoothing filters over timestamped
// samples. All three filters share the same shape: feed Sample(value, now),
// read back the smoothed value, and samples older than the window fall away.
//
// Averaged treats every retained sample equally. WeightedLinear weights each
// sample by how long it was the current value (sample and hold). Weighted
// additionally interpolates between consecutive samples, weighting each
// segment by its midpoint (trapezoidal).
package filter

import "math"

type sample struct {
	value float64
	time  float64
}

// Averaged is a simple average of the samples within the window.
type Averaged struct {
	interval float64
	history  []sample
	value    float64
}

// NewAveraged creates the filter with one initial sample at now.
func NewAveraged(interval, value, now float64) *Averaged {
	return &Averaged{
		interval: interval,
		history:  []sample{{value: value, time: now}},
		value:    value,
	}
}

// Sample adds a value at now and returns the updated average. Samples at or
// before the start of the window are dropped.
func (a *Averaged) Sample(value, now float64) float64 {
	a.history = append(a.history, sample{value: value, time: now})
	cutoff := now - a.interval
	for len(a.history) > 1 && a.history[0].time <= cutoff {
		a.history = a.history[1:]
	}
	var sum float64
	for _, s := range a.history {
		sum += s.value
	}
	a.value = sum / float64(len(a.history))
	return a.value
}

// Value returns the current average without adding a sample.
func (a *Averaged) Value() float64 {
	return a.value
}

// Len returns the number of retained samples.
func (a *Averaged) Len() int {
	return len(a.history)
}

// WeightedLinear averages samples weighted by the time each one was current:
// a sample holds its value until the next sample arrives. The newest sample
// carries no weight yet.
type WeightedLinear struct {
	interval float64
	history  []sample
	value    float64
}

// NewWeightedLinear creates the filter with one initial sample at now.
func NewWeightedLinear(interval, value, now float64) *WeightedLinear {
	return &WeightedLinear{
		interval: interval,
		history:  []sample{{value: value, time: now}},
		value:    value,
	}
}

// Sample adds a value at now and returns the updated average.
func (w *WeightedLinear) Sample(value, now float64) float64 {
	w.history = append(w.history, sample{value: value, time: now})
	cutoff := now - w.interval

	// A sample is only dead once its hold period ends inside the window's
	// past; a sample straddling the cutoff still contributes its tail.
	for len(w.history) > 1 && w.history[1].time <= cutoff {
		w.history = w.history[1:]
	}

	var sum, total float64
	for i := 0; i+1 < len(w.history); i++ {
		width := math.Min(w.history[i+1].time, now) - math.Max(w.history[i].time, cutoff)
		if width > 0 {
			sum += w.history[i].value * width
			total += width
		}
	}
	if total > 0 {
		w.value = sum / total
	} else {
		w.value = value
	}
	return w.value
}

// Value returns the current average without adding a sample.
func (w *WeightedLinear) Value() float64 {
	return w.value
}

// Len returns the number of retained samples.
func (w *WeightedLinear) Len() int {
	return len(w.history)
}

// Weighted averages linearly interpolated segments between consecutive
// samples, each weighted by its duration within the window.
type Weighted struct {
	interval float64
	history  []sample
	value    float64
}

// NewWeighted creates the filter with one initial sample at now.
func NewWeighted(interval, value, now float64) *Weighted {
	return &Weighted{
		interval: interval,
		history:  []sample{{value: value, time: now}},
		value:    value,
	}
}

// Sample adds a value at now and returns the updated average.
func (w *Weighted) Sample(value, now float64) float64 {
	w.history = append(w.history, sample{value: value, time: now})
	cutoff := now - w.interval

	for len(w.history) > 1 && w.history[1].time <= cutoff {
		w.history = w.history[1:]
	}

	var sum, total float64
	for i := 0; i+1 < len(w.history); i++ {
		width := math.Min(w.history[i+1].time, now) - math.Max(w.history[i].time, cutoff)
		if width > 0 {
			mid := (w.history[i].value + w.history[i+1].value) / 2
			sum += mid * width
			total += width
		}
	}
	if total > 0 {
		w.value = sum / total
	} else {
		w.value = value
	}
	return w.value
}

// Hold re-samples the most recent value at now, extending it in time
// without recording a change.
func (w *Weighted) Hold(now float64) float64 {
	return w.Sample(w.history[len(w.history)-1].value, now)
}

// Value returns the current average without adding a sample.
func (w *Weighted) Value() float64 {
	return w.value
}

// Len returns the number of retained samples.
func (w *Weighted) Len() int {
	return len(w.history)
}

// Interval returns the filter's window length.
func (w *Weighted) Interval() float64 {
	return w.interval
}
