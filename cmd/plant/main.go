// Command plant runs the HILS Plant process: it binds a UDP socket,
// advances a point-mass physics model one step per received request, and
// replies with a sensor-noisy state measurement.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Akira-11-20/hilsim/internal/config"
	"github.com/Akira-11-20/hilsim/internal/impairment"
	"github.com/Akira-11-20/hilsim/internal/physics"
	"github.com/Akira-11-20/hilsim/internal/plant"
	"github.com/Akira-11-20/hilsim/internal/telemetry"
)

var (
	verbose       = flag.Bool("verbose", false, "Enable debug logging.")
	metricsEnable = flag.Bool("metrics-enable", false, "Enable Prometheus metrics endpoint.")
	metricsAddr   = flag.String("metrics-addr", "", "Address to serve /metrics on; overrides METRICS_ADDR when set.")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadPlantConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "plant: configuration error: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	if *metricsEnable {
		cfg.MetricsEnable = true
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	log := newLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.MetricsEnable {
		go serveMetrics(log, cfg.MetricsAddr)
	}

	runDir := telemetry.RunDir(cfg.LogBaseDir, cfg.LogDateDir, cfg.LogDescription, time.Now())
	logPath := runDir + string(os.PathSeparator) + telemetry.PlantLogFilename
	plantLogger, err := telemetry.NewPlantLogger(logPath)
	if err != nil {
		log.Error("failed to open telemetry log", "error", err)
		os.Exit(1)
	}
	defer plantLogger.Close()

	layer := impairment.New(cfg.Impairment)

	state := physics.New(cfg.Mass, cfg.Gravity, cfg.InitialPosition, cfg.InitialVelocity)

	bindAddr := net.JoinHostPort(cfg.BindHost, fmt.Sprintf("%d", cfg.BindPort))
	srv, err := plant.NewServer(log, bindAddr, cfg.StepDT, state, plantLogger, layer, rngSeed(cfg.RNGSeed))
	if err != nil {
		log.Error("failed to start plant server", "error", err)
		os.Exit(1)
	}
	defer srv.Close()

	log.Info("plant starting", "bind", bindAddr, "dt", cfg.StepDT, "impairment", cfg.Impairment.Enabled)

	if err := srv.Run(ctx); err != nil {
		log.Error("plant server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("plant stopped")
}

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	if level == "debug" {
		lvl = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	}))
}

func serveMetrics(log *slog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info("metrics server listening", "address", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics server failed", "error", err)
	}
}

func rngSeed(configured int64) int64 {
	if configured != 0 {
		return configured
	}
	return time.Now().UnixNano()
}
