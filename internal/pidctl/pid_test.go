package pidctl_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Akira-11-20/hilsim/internal/pidctl"
)

func TestController_OnTarget(t *testing.T) {
	c := pidctl.New(pidctl.Config{
		Kp: 10, Ki: 0, Kd: 0, Setpoint: 10, IntegralLimit: 30,
		Mass: 1, Gravity: 9.81,
	})
	thrust := c.Update(10.0, 0.01)
	require.InDelta(t, 9.81, thrust, 1e-9)
}

func TestController_Rising(t *testing.T) {
	c := pidctl.New(pidctl.Config{
		Kp: 10, Ki: 0, Kd: 0, Setpoint: 10, IntegralLimit: 30,
		Mass: 1, Gravity: 9.81,
	})
	thrust := c.Update(0.0, 0.01)
	require.InDelta(t, 109.81, thrust, 1e-9)
}

func TestController_FirstTickHasZeroDerivative(t *testing.T) {
	c := pidctl.New(pidctl.Config{Kp: 0, Ki: 0, Kd: 5, Setpoint: 10, IntegralLimit: 30})
	// e = 10 on the first call; prevError seeds to e, so d = kd*(e-e)/dt = 0.
	thrust := c.Update(0.0, 0.01)
	require.InDelta(t, 0.0, thrust, 1e-9)
}

func TestController_IntegralAntiWindup(t *testing.T) {
	c := pidctl.New(pidctl.Config{
		Kp: 0, Ki: 1, Kd: 0, Setpoint: 1000, IntegralLimit: 5,
	})
	for i := 0; i < 10_000; i++ {
		c.Update(0.0, 0.1)
		require.LessOrEqual(t, c.ErrorSum(), 5.0)
		require.GreaterOrEqual(t, c.ErrorSum(), -5.0)
	}
}

func TestController_ThrustIsSaturated(t *testing.T) {
	c := pidctl.New(pidctl.Config{
		Kp: 1000, Ki: 0, Kd: 0, Setpoint: 1_000_000, IntegralLimit: 30,
		Mass: 1, Gravity: 9.81,
	})
	thrust := c.Update(0, 0.01)
	require.Equal(t, pidctl.MaxThrust, thrust)

	c2 := pidctl.New(pidctl.Config{
		Kp: 1000, Ki: 0, Kd: 0, Setpoint: -1_000_000, IntegralLimit: 30,
	})
	thrust2 := c2.Update(0, 0.01)
	require.Equal(t, 0.0, thrust2)
}

func TestController_ZeroErrorZeroState(t *testing.T) {
	c := pidctl.New(pidctl.Config{Kp: 5, Ki: 2, Kd: 1, Setpoint: 0})
	thrust := c.Update(0, 0.01)
	require.InDelta(t, 0.0, thrust, 1e-9)
}

func TestController_Reset(t *testing.T) {
	c := pidctl.New(pidctl.Config{Kp: 1, Ki: 1, Kd: 1, Setpoint: 10, IntegralLimit: 30})
	c.Update(0, 0.1)
	require.NotZero(t, c.ErrorSum())

	c.Reset()
	require.Zero(t, c.ErrorSum())

	// After reset, derivative is forced to zero again on the next call: e=5,
	// p=5, i=ki*e*dt=0.5, d=0.
	thrust := c.Update(5, 0.1)
	require.InDelta(t, 5.5, thrust, 1e-9)
}
