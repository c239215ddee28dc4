// Package controller implements the Controller client: a fixed-rate
// send/receive loop that drives the PID law, measures round-trip time
// against every returned packet, and persists per-tick telemetry.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/Akira-11-20/hilsim/internal/clockdriver"
	"github.com/Akira-11-20/hilsim/internal/metrics"
	"github.com/Akira-11-20/hilsim/internal/pidctl"
	"github.com/Akira-11-20/hilsim/internal/telemetry"
	"github.com/Akira-11-20/hilsim/internal/wire"
)

// Config holds the parameters the Client needs from internal/config,
// decoupled from the config package itself so tests can construct one
// directly.
type Config struct {
	PlantAddr string
	Timeout   time.Duration
	StepDT    float64
	RateHz    float64
	MaxSteps  int
}

// Summary aggregates end-of-run counts for the exit-time log line and for
// tests, supplementing the per-tick CSV with a one-line result.
type Summary struct {
	Ticks          int
	Timeouts       int
	DeadlineMisses int
	MeanRTT        time.Duration
	MaxRTT         time.Duration
}

// pendingRequest is the single-slot in-flight request register: created at
// send, consumed by the matching response or by the tick's timeout, never
// outlives one tick.
type pendingRequest struct {
	seq      uint32
	sendPerf time.Time
}

// Client holds a connected UDP socket to the Plant and runs the fixed-count
// tick loop. It is not safe for concurrent use.
type Client struct {
	log    *slog.Logger
	conn   *net.UDPConn
	cfg    Config
	pid    *pidctl.Controller
	logger *telemetry.ControllerLogger
	ticker *clockdriver.Ticker

	seq              uint32
	lastAltitude     float64
	lastVelocity     float64
	lastAcceleration float64
}

// NewClient dials a connected UDP socket to cfg.PlantAddr and returns a
// Client ready to Run.
func NewClient(log *slog.Logger, cfg Config, pid *pidctl.Controller, logger *telemetry.ControllerLogger) (*Client, error) {
	addr, err := net.ResolveUDPAddr("udp", cfg.PlantAddr)
	if err != nil {
		return nil, fmt.Errorf("controller: resolve plant address: %w", err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("controller: dial plant: %w", err)
	}
	return &Client{
		log:    log,
		conn:   conn,
		cfg:    cfg,
		pid:    pid,
		logger: logger,
		ticker: clockdriver.New(time.Duration(float64(time.Second) / cfg.RateHz)),
	}, nil
}

// Close closes the underlying UDP socket.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Run executes cfg.MaxSteps ticks of the send/receive/deadline loop and
// returns a Summary of the run. Run returns early (with whatever partial
// Summary has accumulated) if ctx is cancelled between ticks.
func (c *Client) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	var rttSum time.Duration

	for step := 0; step < c.cfg.MaxSteps; step++ {
		select {
		case <-ctx.Done():
			return summary, nil
		default:
		}

		tickStart := time.Now()
		c.seq++
		altitudeError := c.pid.Setpoint() - c.lastAltitude
		thrust := c.pid.Update(c.lastAltitude, c.cfg.StepDT)

		req := wire.RequestPacket{
			Seq:       c.seq,
			Timestamp: float64(tickStart.UnixNano()) / 1e9,
			Fz:        float32(thrust),
		}
		pending := pendingRequest{seq: c.seq, sendPerf: tickStart}

		row := telemetry.ControllerRow{
			Seq:           c.seq,
			SimTime:       float64(step) * c.cfg.StepDT,
			SendWall:      tickStart,
			Fz:            thrust,
			AltitudeError: altitudeError,
			Setpoint:      c.pid.Setpoint(),
		}

		summary.Ticks++
		metrics.ControllerTicks.Inc()

		if err := c.conn.SetWriteDeadline(tickStart.Add(c.cfg.Timeout)); err != nil {
			c.log.Warn("controller: set write deadline failed, tick lost", "seq", pending.seq, "error", err)
			c.recordTimeout(&row, summary)
			c.finishTick(ctx, tickStart, summary)
			continue
		}
		if _, err := c.conn.Write(req.Pack()); err != nil {
			c.log.Warn("controller: send failed, tick lost", "seq", pending.seq, "error", err)
			c.recordTimeout(&row, summary)
			c.finishTick(ctx, tickStart, summary)
			continue
		}

		resp, ok := c.recv(tickStart, pending)
		if !ok {
			c.recordTimeout(&row, summary)
			c.finishTick(ctx, tickStart, summary)
			continue
		}

		recvWall := time.Now()
		rtt := recvWall.Sub(pending.sendPerf)
		rttSum += rtt
		if rtt > summary.MaxRTT {
			summary.MaxRTT = rtt
		}
		metrics.ControllerRTT.Observe(rtt.Seconds())

		c.lastAltitude = float64(resp.PosZ)
		c.lastVelocity = float64(resp.VelZ)
		c.lastAcceleration = float64(resp.AccZ)

		row.RecvWall = recvWall
		row.RTTMs = float64(rtt) / float64(time.Millisecond)
		row.Altitude = c.lastAltitude
		row.Velocity = c.lastVelocity
		row.Acceleration = c.lastAcceleration
		if err := c.logger.WriteRow(row); err != nil {
			c.log.Warn("controller: telemetry write failed", "error", err)
		}

		c.finishTick(ctx, tickStart, summary)
	}

	if summary.Ticks-summary.Timeouts > 0 {
		summary.MeanRTT = rttSum / time.Duration(summary.Ticks-summary.Timeouts)
	}
	return summary, nil
}

// recv blocks until a matching response arrives or the tick's timeout
// budget elapses. A response whose seq does not match the pending request
// is an out-of-band reply: it is observed but does not satisfy this tick,
// so recv keeps waiting until the deadline.
func (c *Client) recv(tickStart time.Time, pending pendingRequest) (*wire.ResponsePacket, bool) {
	deadline := tickStart.Add(c.cfg.Timeout)
	buf := make([]byte, 1024)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, false
		}
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return nil, false
		}
		n, err := c.conn.Read(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return nil, false
			}
			c.log.Warn("controller: receive error", "error", err)
			return nil, false
		}
		resp, err := wire.UnpackResponse(buf[:n])
		if err != nil {
			c.log.Warn("controller: discarding invalid packet, treating tick as timeout", "error", err)
			return nil, false
		}
		if resp.Seq != pending.seq {
			c.log.Debug("controller: stale reply ignored", "got_seq", resp.Seq, "want_seq", pending.seq)
			continue
		}
		return resp, true
	}
}

func (c *Client) recordTimeout(row *telemetry.ControllerRow, summary *Summary) {
	summary.Timeouts++
	metrics.ControllerTimeouts.Inc()
	row.Altitude = c.lastAltitude
	row.Velocity = c.lastVelocity
	row.Acceleration = c.lastAcceleration
	row.Timeout = true
	if err := c.logger.WriteRow(*row); err != nil {
		c.log.Warn("controller: telemetry write failed", "error", err)
	}
}

func (c *Client) finishTick(ctx context.Context, tickStart time.Time, summary *Summary) {
	deadline := c.ticker.NextDeadline(tickStart)
	overrun, missed := c.ticker.SleepUntil(ctx, deadline)
	if missed {
		summary.DeadlineMisses++
		metrics.ControllerDeadlineMisses.Inc()
		c.log.Warn("controller: deadline miss", "overrun", overrun)
	}
}
