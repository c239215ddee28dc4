// Command controller runs the HILS Controller process: a fixed-rate PID
// altitude controller that drives the Plant over UDP, measures round-trip
// time against every returned packet, and persists per-tick telemetry.
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
	"github.com/Akira-11-20/hilsim/internal/controller"
	"github.com/Akira-11-20/hilsim/internal/pidctl"
	"github.com/Akira-11-20/hilsim/internal/telemetry"
)

var (
	verbose       = flag.Bool("verbose", false, "Enable debug logging.")
	metricsEnable = flag.Bool("metrics-enable", false, "Enable Prometheus metrics endpoint.")
	metricsAddr   = flag.String("metrics-addr", "", "Address to serve /metrics on; overrides METRICS_ADDR when set.")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadControllerConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "controller: configuration error: %v\n", err)
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
	logPath := runDir + string(os.PathSeparator) + telemetry.ControllerLogFilename
	ctrlLogger, err := telemetry.NewControllerLogger(logPath)
	if err != nil {
		log.Error("failed to open telemetry log", "error", err)
		os.Exit(1)
	}
	defer ctrlLogger.Close()

	pid := pidctl.New(pidctl.Config{
		Kp:            cfg.Kp,
		Ki:            cfg.Ki,
		Kd:            cfg.Kd,
		Setpoint:      cfg.Setpoint,
		IntegralLimit: cfg.IntegralLimit,
		Mass:          cfg.Mass,
		Gravity:       cfg.Gravity,
	})

	plantAddr := net.JoinHostPort(cfg.PlantHost, fmt.Sprintf("%d", cfg.PlantPort))
	client, err := controller.NewClient(log, controller.Config{
		PlantAddr: plantAddr,
		Timeout:   time.Duration(cfg.EffectiveTimeout() * float64(time.Second)),
		StepDT:    cfg.StepDT,
		RateHz:    cfg.RateHz,
		MaxSteps:  cfg.MaxSteps,
	}, pid, ctrlLogger)
	if err != nil {
		log.Error("failed to start controller client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	log.Info("controller starting", "plant", plantAddr, "rateHz", cfg.RateHz, "maxSteps", cfg.MaxSteps)

	summary, err := client.Run(ctx)
	if err != nil {
		log.Error("controller exited with error", "error", err)
		os.Exit(1)
	}

	log.Info("controller finished",
		"ticks", summary.Ticks,
		"timeouts", summary.Timeouts,
		"deadlineMisses", summary.DeadlineMisses,
		"meanRTT", summary.MeanRTT,
		"maxRTT", summary.MaxRTT,
	)
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
