// Package physics implements the Plant's 1-DOF point-mass model: a body
// moving along the vertical axis under a commanded thrust and constant
// gravity, integrated with forward Euler. Sensor sampling adds Gaussian
// noise to a snapshot of the state without touching the true state itself.
package physics

import "math/rand"

// Noise standard deviations applied to sampled readings.
const (
	PositionNoiseSigma     = 5e-3
	VelocityNoiseSigma     = 5e-3
	AccelerationNoiseSigma = 1e-2
)

// State is the Plant's exclusively-owned physical state: a point mass
// constrained to the vertical axis. It is mutated only by Step.
type State struct {
	Mass     float64
	Gravity  float64
	Position float64
	Velocity float64

	acceleration float64
}

// New returns a State seeded with the given mass, gravity, and initial
// conditions, with zero initial acceleration.
func New(mass, gravity, initialPosition, initialVelocity float64) *State {
	return &State{
		Mass:     mass,
		Gravity:  gravity,
		Position: initialPosition,
		Velocity: initialVelocity,
	}
}

// Step advances the state by one tick of duration dt under thrustZ Newtons
// of commanded vertical force:
//
//	acceleration = (thrust - mass*gravity) / mass
//	velocity += acceleration * dt
//	position += velocity * dt
//
// Integration is forward Euler and deterministic given a fixed dt.
func (s *State) Step(thrustZ, dt float64) {
	s.acceleration = (thrustZ - s.Mass*s.Gravity) / s.Mass
	s.Velocity += s.acceleration * dt
	s.Position += s.Velocity * dt
}

// Acceleration returns the acceleration computed by the most recent Step.
func (s *State) Acceleration() float64 {
	return s.acceleration
}

// Reading is a sensor snapshot: the true state plus additive noise. It is
// never fed back into the integrator.
type Reading struct {
	Position     float64
	Velocity     float64
	Acceleration float64
}

// Sample returns a noisy snapshot of s using rng for the additive Gaussian
// draws. The underlying state is unchanged.
func (s *State) Sample(rng *rand.Rand) Reading {
	return Reading{
		Position:     s.Position + rng.NormFloat64()*PositionNoiseSigma,
		Velocity:     s.Velocity + rng.NormFloat64()*VelocityNoiseSigma,
		Acceleration: s.acceleration + rng.NormFloat64()*AccelerationNoiseSigma,
	}
}
