// Package pidctl implements the discrete-time altitude PID law used by the
// Controller: proportional-integral-derivative control with integral
// anti-windup and gravity feedforward, saturated to an actuator limit.
package pidctl

import "math"

// MaxThrust is the actuator saturation limit, in Newtons.
const MaxThrust = 1000.0

// Config holds the tunable gains and target altitude for a Controller.
type Config struct {
	Kp            float64
	Ki            float64
	Kd            float64
	Setpoint      float64
	IntegralLimit float64
	Mass          float64
	Gravity       float64
}

// Controller is a discrete-time PID altitude controller with integral
// anti-windup and gravity feedforward. It is not safe for concurrent use;
// the Controller client calls it from a single tick loop.
type Controller struct {
	cfg Config

	errorSum  float64
	prevError float64
	hasPrev   bool
}

// New returns a Controller ready to run with a cleared error history.
func New(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

// Reset clears the accumulated integral and derivative history back to
// their zero values.
func (c *Controller) Reset() {
	c.errorSum = 0
	c.prevError = 0
	c.hasPrev = false
}

// Update computes the commanded thrust for one tick given the most recently
// measured altitude and the tick period dt. On the first call, the
// derivative term is forced to zero by seeding prevError with the current
// error.
func (c *Controller) Update(measuredAltitude, dt float64) float64 {
	e := c.cfg.Setpoint - measuredAltitude
	if !c.hasPrev {
		c.prevError = e
		c.hasPrev = true
	}

	p := c.cfg.Kp * e

	c.errorSum += e * dt
	c.errorSum = clamp(c.errorSum, -c.cfg.IntegralLimit, c.cfg.IntegralLimit)
	i := c.cfg.Ki * c.errorSum

	var d float64
	if dt > 0 {
		d = c.cfg.Kd * (e - c.prevError) / dt
	}
	c.prevError = e

	output := p + i + d
	feedforward := c.cfg.Mass * c.cfg.Gravity
	return clamp(output+feedforward, 0, MaxThrust)
}

// ErrorSum returns the current integral accumulator, exposed for tests that
// assert the anti-windup invariant.
func (c *Controller) ErrorSum() float64 {
	return c.errorSum
}

// Setpoint returns the configured target altitude, exposed so callers can
// log the error term alongside the commanded thrust.
func (c *Controller) Setpoint() float64 {
	return c.cfg.Setpoint
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
