package physics_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Akira-11-20/hilsim/internal/physics"
)

func TestState_Step_Hover(t *testing.T) {
	// Thrust exactly cancels gravity, so the body stays at its initial
	// position across many ticks.
	s := physics.New(1, 9.81, 0, 0)
	const dt = 0.01
	for i := 0; i < 100; i++ {
		s.Step(s.Mass*s.Gravity, dt)
	}
	require.InDelta(t, 0.0, s.Position, 1e-9)
	require.InDelta(t, 0.0, s.Velocity, 1e-9)
	require.InDelta(t, 0.0, s.Acceleration(), 1e-9)
}

func TestState_Step_FreeFall(t *testing.T) {
	s := physics.New(1, 9.81, 0, 0)
	s.Step(0, 1.0)
	require.InDelta(t, -9.81, s.Acceleration(), 1e-9)
	require.InDelta(t, -9.81, s.Velocity, 1e-9)
	require.InDelta(t, -9.81, s.Position, 1e-9)
}

func TestState_Sample_NoiseDoesNotFeedBack(t *testing.T) {
	s := physics.New(1, 9.81, 10, 2)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 50; i++ {
		s.Sample(rng)
	}

	require.Equal(t, 10.0, s.Position)
	require.Equal(t, 2.0, s.Velocity)
}

func TestState_Sample_WithinNoiseBand(t *testing.T) {
	s := physics.New(1, 9.81, 10, 2)
	s.Step(9.81, 0.01)
	rng := rand.New(rand.NewSource(42))

	// 10 sigma is astronomically unlikely to be exceeded by chance; this
	// bounds the noise without making the test flaky.
	const sigmaBand = 10
	for i := 0; i < 1000; i++ {
		r := s.Sample(rng)
		require.InDelta(t, s.Position, r.Position, sigmaBand*physics.PositionNoiseSigma)
		require.InDelta(t, s.Velocity, r.Velocity, sigmaBand*physics.VelocityNoiseSigma)
		require.InDelta(t, s.Acceleration(), r.Acceleration, sigmaBand*physics.AccelerationNoiseSigma)
	}
}
