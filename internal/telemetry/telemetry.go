// Package telemetry writes the per-tick CSV logs produced by both the
// Controller and the Plant: one row per tick, flushed immediately so a
// killed run still yields a parseable partial log.
package telemetry

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ControllerLogFilename is the fixed filename the Controller writes.
const ControllerLogFilename = "numeric_log.csv"

// PlantLogFilename is the fixed filename the Plant writes.
const PlantLogFilename = "plant_log.csv"

var controllerHeader = []string{
	"seq", "sim_time", "send_wall", "recv_wall", "rtt_ms",
	"fx", "fy", "fz",
	"altitude", "velocity", "acceleration",
	"altitude_error", "setpoint", "timeout",
}

var plantHeader = []string{
	"seq", "recv_wall", "send_wall", "rtt_ms",
	"fx", "fy", "fz",
	"altitude", "velocity", "acceleration",
	"client_addr", "packet_size",
}

// ControllerRow is one Controller-side telemetry tick.
type ControllerRow struct {
	Seq           uint32
	SimTime       float64
	SendWall      time.Time
	RecvWall      time.Time
	RTTMs         float64
	Fx, Fy, Fz    float64
	Altitude      float64
	Velocity      float64
	Acceleration  float64
	AltitudeError float64
	Setpoint      float64
	Timeout       bool
}

// PlantRow is one Plant-side telemetry tick.
type PlantRow struct {
	Seq          uint32
	RecvWall     time.Time
	SendWall     time.Time
	RTTMs        float64
	Fx, Fy, Fz   float64
	Altitude     float64
	Velocity     float64
	Acceleration float64
	ClientAddr   string
	PacketSize   int
}

// ControllerLogger owns the Controller's CSV file handle.
type ControllerLogger struct {
	file *os.File
	w    *csv.Writer
}

// NewControllerLogger creates (or truncates) path, writes the fixed header,
// and returns a logger ready for WriteRow calls.
func NewControllerLogger(path string) (*ControllerLogger, error) {
	f, w, err := openCSV(path, controllerHeader)
	if err != nil {
		return nil, err
	}
	return &ControllerLogger{file: f, w: w}, nil
}

// WriteRow appends one row and flushes immediately.
func (l *ControllerLogger) WriteRow(r ControllerRow) error {
	record := []string{
		strconv.FormatUint(uint64(r.Seq), 10),
		formatFloat(r.SimTime),
		formatWall(r.SendWall),
		formatWall(r.RecvWall),
		formatFloat(r.RTTMs),
		formatFloat(r.Fx), formatFloat(r.Fy), formatFloat(r.Fz),
		formatFloat(r.Altitude),
		formatFloat(r.Velocity),
		formatFloat(r.Acceleration),
		formatFloat(r.AltitudeError),
		formatFloat(r.Setpoint),
		strconv.FormatBool(r.Timeout),
	}
	if err := l.w.Write(record); err != nil {
		return fmt.Errorf("telemetry: write controller row: %w", err)
	}
	l.w.Flush()
	return l.w.Error()
}

// Close flushes and closes the underlying file.
func (l *ControllerLogger) Close() error {
	l.w.Flush()
	return l.file.Close()
}

// PlantLogger owns the Plant's CSV file handle.
type PlantLogger struct {
	file *os.File
	w    *csv.Writer
}

// NewPlantLogger creates (or truncates) path, writes the fixed header, and
// returns a logger ready for WriteRow calls.
func NewPlantLogger(path string) (*PlantLogger, error) {
	f, w, err := openCSV(path, plantHeader)
	if err != nil {
		return nil, err
	}
	return &PlantLogger{file: f, w: w}, nil
}

// WriteRow appends one row and flushes immediately.
func (l *PlantLogger) WriteRow(r PlantRow) error {
	record := []string{
		strconv.FormatUint(uint64(r.Seq), 10),
		formatWall(r.RecvWall),
		formatWall(r.SendWall),
		formatFloat(r.RTTMs),
		formatFloat(r.Fx), formatFloat(r.Fy), formatFloat(r.Fz),
		formatFloat(r.Altitude),
		formatFloat(r.Velocity),
		formatFloat(r.Acceleration),
		r.ClientAddr,
		strconv.Itoa(r.PacketSize),
	}
	if err := l.w.Write(record); err != nil {
		return fmt.Errorf("telemetry: write plant row: %w", err)
	}
	l.w.Flush()
	return l.w.Error()
}

// Close flushes and closes the underlying file.
func (l *PlantLogger) Close() error {
	l.w.Flush()
	return l.file.Close()
}

func openCSV(path string, header []string) (*os.File, *csv.Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("telemetry: create log directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: create log file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("telemetry: write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("telemetry: flush header: %w", err)
	}
	return f, w, nil
}

// RunDir returns the directory a run's telemetry files should be written
// to. If dateDir is non-empty it is used verbatim under base; otherwise a
// directory is generated as <base>/<YYYY-MM-DD>/<HHMMSS>_<description>/,
// using now as the run's start time; the _<description> suffix is omitted
// when description is empty.
func RunDir(base, dateDir, description string, now time.Time) string {
	if dateDir != "" {
		return filepath.Join(base, dateDir)
	}
	day := now.Format("2006-01-02")
	leaf := now.Format("150405")
	if description != "" {
		leaf = leaf + "_" + description
	}
	return filepath.Join(base, day, leaf)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatWall(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.FormatFloat(float64(t.UnixNano())/1e9, 'f', 6, 64)
}
