// Package plant implements the Plant server: it receives Controller
// requests over UDP, advances a physics model one step per request, and
// replies with a sensor-noisy state measurement.
package plant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/Akira-11-20/hilsim/internal/impairment"
	"github.com/Akira-11-20/hilsim/internal/metrics"
	"github.com/Akira-11-20/hilsim/internal/physics"
	"github.com/Akira-11-20/hilsim/internal/telemetry"
	"github.com/Akira-11-20/hilsim/internal/wire"
)

// maxDatagramSize bounds the receive buffer; datagrams beyond this are
// unexpected and may be truncated.
const maxDatagramSize = 1024

// Server binds a UDP socket and runs the single-threaded receive-update-
// reply loop. It has no notion of session: it accepts requests from any
// peer and replies to the request's source address.
//
// Server is not safe for concurrent use of Run; Close may be called from
// any goroutine to unblock a running Run.
type Server struct {
	log        *slog.Logger
	conn       *net.UDPConn
	dt         float64
	state      *physics.State
	logger     *telemetry.PlantLogger
	impairment *impairment.Layer
	rng        *rand.Rand

	once sync.Once
}

// NewServer binds addr and returns a Server ready to Run. state is the
// Plant-owned physics model, logger the CSV sink for per-request rows, and
// impairment the optional delay-injection layer (may be a Layer with
// Enabled() == false to run without impairment).
func NewServer(log *slog.Logger, addr string, dt float64, state *physics.State, logger *telemetry.PlantLogger, layer *impairment.Layer, rngSeed int64) (*Server, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("plant: resolve bind address: %w", err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("plant: bind UDP socket: %w", err)
	}
	return &Server{
		log:        log,
		conn:       conn,
		dt:         dt,
		state:      state,
		logger:     logger,
		impairment: layer,
		rng:        rand.New(rand.NewSource(rngSeed)),
	}, nil
}

// LocalAddr returns the address the server is bound to.
func (s *Server) LocalAddr() *net.UDPAddr {
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Run executes the receive loop until ctx is cancelled or the socket is
// closed, and then returns nil. Any other receive error, a bad packet or a
// send failure is logged and the loop continues.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("plant server listening", "address", s.conn.LocalAddr())

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	buf := make([]byte, maxDatagramSize)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if isClosedErr(err) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			s.log.Warn("plant: receive error, continuing", "error", err)
			continue
		}
		metrics.PlantRequests.Inc()

		recvWall := time.Now()

		req, err := wire.UnpackRequest(buf[:n])
		if err != nil {
			s.log.Warn("plant: discarding invalid packet", "address", addr, "length", n, "error", err)
			metrics.PlantInvalidPackets.Inc()
			continue
		}

		s.state.Step(float64(req.Fz), s.dt)
		reading := s.state.Sample(s.rng)

		if s.impairment != nil && s.impairment.Enabled() {
			s.impairment.Sleep(ctx, s.rng)
		}

		sendWall := time.Now()
		resp := wire.ResponsePacket{
			Seq:       req.Seq,
			Timestamp: float64(sendWall.UnixNano()) / 1e9,
			PosZ:      float32(reading.Position),
			VelZ:      float32(reading.Velocity),
			AccZ:      float32(reading.Acceleration),
		}
		out := resp.Pack()

		if _, err := s.conn.WriteToUDP(out, addr); err != nil {
			if isClosedErr(err) {
				return nil
			}
			s.log.Warn("plant: send error, dropping reply", "address", addr, "error", err)
			continue
		}

		if err := s.logger.WriteRow(telemetry.PlantRow{
			Seq:          req.Seq,
			RecvWall:     recvWall,
			SendWall:     sendWall,
			RTTMs:        float64(sendWall.Sub(recvWall)) / float64(time.Millisecond),
			Fz:           float64(req.Fz),
			Altitude:     reading.Position,
			Velocity:     reading.Velocity,
			Acceleration: reading.Acceleration,
			ClientAddr:   addr.String(),
			PacketSize:   n,
		}); err != nil {
			s.log.Warn("plant: telemetry write failed", "error", err)
		}
	}
}

// Close closes the underlying UDP socket, unblocking any in-flight
// ReadFromUDP call. It is idempotent.
func (s *Server) Close() error {
	var err error
	s.once.Do(func() {
		err = s.conn.Close()
	})
	return err
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed) || strings.Contains(err.Error(), "use of closed network connection")
}
