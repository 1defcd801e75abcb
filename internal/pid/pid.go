// Package pid implements a PID loop controller with integral anti-windup
// and output limiting. The simulation's price trend uses one to steer a
// random walk back toward its target.
package pid

import "github.com/openmkt/simex/internal/num"

// Controller is a position-form PID controller. P, I and D hold the last
// computed proportional error, error integral and error derivative; they are
// exported for monitoring and tuning.
//
// Time is caller-supplied, like everywhere else in this codebase, so the
// controller is deterministic and trivially testable.
type Controller struct {
	Kp, Ki, Kd float64

	// Li clamps the error integral (anti-windup); Lout clamps the output.
	// Both default to unbounded.
	Li   num.Span
	Lout num.Span

	P, I, D float64

	now float64
}

// NewController creates a controller at rest: zero error, zero integral,
// as if the process had been sitting on the setpoint.
func NewController(kp, ki, kd, now float64) *Controller {
	return &Controller{
		Kp:   kp,
		Ki:   ki,
		Kd:   kd,
		Li:   num.Unbounded(),
		Lout: num.Unbounded(),
		now:  now,
	}
}

// NewControllerSteady creates a controller already in steady state: the
// proportional term reflects the current setpoint and process value, and the
// integral is back-computed so that the first output is continuous with the
// given current output. Swapping a controller into a live loop this way
// avoids an output bump.
func NewControllerSteady(kp, ki, kd, setpoint, process, output, now float64) *Controller {
	c := NewController(kp, ki, kd, now)
	c.P = setpoint - process
	if ki != 0 {
		c.I = (output - kp*c.P) / ki
	}
	return c
}

// Loop advances the controller to now and returns the new output. The
// integral and derivative only advance when time has elapsed; with dt <= 0
// the output is recomputed from the updated error against stale I and D.
func (c *Controller) Loop(setpoint, process, now float64) float64 {
	dt := now - c.now
	err := setpoint - process

	if dt > 0 {
		c.I = c.Li.Clamp(c.I + err*dt)
		c.D = (err - c.P) / dt
		c.P = err
		c.now = now
	}

	return c.Lout.Clamp(err*c.Kp + c.I*c.Ki + c.D*c.Kd)
}

// Now returns the controller's last advance time.
func (c *Controller) Now() float64 {
	return c.now
}
