package sim

import (
	"math"
	"math/rand"

	"github.com/openmkt/simex/internal/num"
	"github.com/openmkt/simex/internal/pid"
)

// Linear interpolates along the span: t=0 gives the start, t=duration the
// end.
func Linear(t, duration float64, span num.Span) float64 {
	return span.Min + (span.Max-span.Min)*t/duration
}

// Exponential follows a square-law path along the span, rising slowly at
// first and steeply toward the end.
func Exponential(t, duration float64, span num.Span) float64 {
	root := math.Sqrt(span.Max - span.Min)
	v := Linear(t, duration, num.Span{Min: 0, Max: root})
	return span.Min + v*v
}

// Normalize maps value into [0,1] relative to target.
func Normalize(value, target float64) float64 {
	return num.Scale(value, num.Span{Min: 0, Max: target}, num.Span{Min: 0, Max: 1})
}

// Denormalize maps a [0,1] value back to the target's scale.
func Denormalize(value, target float64) float64 {
	return num.Scale(value, num.Span{Min: 0, Max: 1}, num.Span{Min: 0, Max: target})
}

// Trend is a reference price that wanders randomly but is steered back
// toward a moving target by a PID controller: shocks kick the velocity,
// the controller trims the acceleration. Simulated traders quote off it.
type Trend struct {
	// Target is the price the trend is steered toward at time t.
	Target func(t float64) float64

	// EventChance is the probability per step of a random price shock;
	// EventScale sizes the shock relative to the current price.
	EventChance float64
	EventScale  float64

	price    float64
	velocity float64
	accel    float64
	now      float64

	control *pid.Controller
	rng     *rand.Rand
}

// NewTrend starts a trend on its target at time now.
func NewTrend(target func(t float64) float64, now float64, rng *rand.Rand) *Trend {
	return &Trend{
		Target:      target,
		EventChance: 0.02,
		EventScale:  0.1,
		price:       target(now),
		now:         now,
		control:     pid.NewControllerSteady(0.01, 0.000001, 20.0, 1.0, 1.0, 0.0, now),
		rng:         rng,
	}
}

// Step advances the trend by dt and returns the new price. The price is
// normalized against the current target so the controller sees the same
// scale regardless of price level.
func (tr *Trend) Step(dt float64) float64 {
	tr.now += dt
	tr.velocity += tr.accel * dt
	tr.price += tr.velocity * dt

	goal := tr.Target(tr.now)
	process := Normalize(tr.price, goal)
	thrust := tr.control.Loop(1.0, process, tr.now)
	tr.accel += Denormalize(thrust, goal) * dt

	if tr.rng != nil && tr.rng.Float64() < tr.EventChance {
		tr.velocity += tr.rng.NormFloat64() * tr.price * tr.EventScale
	}
	return tr.price
}

// Price returns the current trend price.
func (tr *Trend) Price() float64 {
	return tr.price
}

// Now returns the trend's current time.
func (tr *Trend) Now() float64 {
	return tr.now
}
