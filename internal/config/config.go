// Package config loads the static parameters for the Controller and Plant
// binaries: built-in defaults, overridden by environment variables.
// Configuration errors are fatal at startup.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Akira-11-20/hilsim/internal/impairment"
)

// ControllerConfig holds every tunable parameter for cmd/controller.
type ControllerConfig struct {
	PlantHost string
	PlantPort int

	TimeoutS      float64
	TimeoutCeilS  float64
	StepDT        float64
	RateHz        float64
	MaxSteps      int

	Kp            float64
	Ki            float64
	Kd            float64
	Setpoint      float64
	IntegralLimit float64
	Mass          float64
	Gravity       float64

	LogBaseDir     string
	LogDateDir     string
	LogDescription string

	LogLevel      string
	MetricsEnable bool
	MetricsAddr   string
	RNGSeed       int64
}

// DefaultControllerConfig returns the built-in defaults for the Controller,
// before any environment override is applied.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		PlantHost: "127.0.0.1",
		PlantPort: 5005,

		TimeoutS:     1.0,
		TimeoutCeilS: 1.0,
		StepDT:       0.01,
		RateHz:       100,
		MaxSteps:     1000,

		Kp:            10,
		Ki:            0.5,
		Kd:            2,
		Setpoint:      10,
		IntegralLimit: 30,
		Mass:          1,
		Gravity:       9.81,

		LogBaseDir: "logs",

		LogLevel:    "info",
		MetricsAddr: ":9100",
	}
}

// LoadControllerConfig returns the Controller configuration with
// environment overrides applied and validated.
func LoadControllerConfig() (ControllerConfig, error) {
	cfg := DefaultControllerConfig()

	cfg.PlantHost = envString("PLANT_HOST", cfg.PlantHost)
	var err error
	if cfg.PlantPort, err = envInt("PLANT_PORT", cfg.PlantPort); err != nil {
		return cfg, err
	}
	if cfg.TimeoutS, err = envFloat("TIMEOUT_S", cfg.TimeoutS); err != nil {
		return cfg, err
	}
	if cfg.StepDT, err = envFloat("STEP_DT", cfg.StepDT); err != nil {
		return cfg, err
	}
	if cfg.RateHz, err = envFloat("RATE_HZ", cfg.RateHz); err != nil {
		return cfg, err
	}
	if cfg.MaxSteps, err = envInt("MAX_STEPS", cfg.MaxSteps); err != nil {
		return cfg, err
	}
	if cfg.Kp, err = envFloat("kp", cfg.Kp); err != nil {
		return cfg, err
	}
	if cfg.Ki, err = envFloat("ki", cfg.Ki); err != nil {
		return cfg, err
	}
	if cfg.Kd, err = envFloat("kd", cfg.Kd); err != nil {
		return cfg, err
	}
	if cfg.Setpoint, err = envFloat("setpoint", cfg.Setpoint); err != nil {
		return cfg, err
	}
	if cfg.IntegralLimit, err = envFloat("INTEGRAL_LIMIT", cfg.IntegralLimit); err != nil {
		return cfg, err
	}
	if cfg.Mass, err = envFloat("mass", cfg.Mass); err != nil {
		return cfg, err
	}
	if cfg.Gravity, err = envFloat("gravity", cfg.Gravity); err != nil {
		return cfg, err
	}
	cfg.LogBaseDir = envString("LOG_BASE_DIR", cfg.LogBaseDir)
	cfg.LogDateDir = envString("LOG_DATE_DIR", cfg.LogDateDir)
	cfg.LogDescription = envString("LOG_DESCRIPTION", cfg.LogDescription)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	if cfg.MetricsEnable, err = envBool("METRICS_ENABLE", cfg.MetricsEnable); err != nil {
		return cfg, err
	}
	cfg.MetricsAddr = envString("METRICS_ADDR", cfg.MetricsAddr)
	if cfg.RNGSeed, err = envInt64("RNG_SEED", cfg.RNGSeed); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the Controller configuration is usable. Configuration
// errors abort startup rather than being tolerated at runtime.
func (c ControllerConfig) Validate() error {
	if c.PlantHost == "" {
		return fmt.Errorf("config: PLANT_HOST must not be empty")
	}
	if c.PlantPort <= 0 || c.PlantPort > 65535 {
		return fmt.Errorf("config: PLANT_PORT out of range: %d", c.PlantPort)
	}
	if c.TimeoutS <= 0 {
		return fmt.Errorf("config: TIMEOUT_S must be positive")
	}
	if c.StepDT <= 0 {
		return fmt.Errorf("config: STEP_DT must be positive")
	}
	if c.RateHz <= 0 {
		return fmt.Errorf("config: RATE_HZ must be positive")
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("config: MAX_STEPS must be positive")
	}
	if c.IntegralLimit < 0 {
		return fmt.Errorf("config: INTEGRAL_LIMIT must not be negative")
	}
	if c.Mass <= 0 {
		return fmt.Errorf("config: mass must be positive")
	}
	return nil
}

// EffectiveTimeout returns the per-tick receive timeout, capped by the
// configured ceiling (default 1s).
func (c ControllerConfig) EffectiveTimeout() float64 {
	if c.TimeoutS > c.TimeoutCeilS {
		return c.TimeoutCeilS
	}
	return c.TimeoutS
}

// PlantConfig holds every tunable parameter for cmd/plant.
type PlantConfig struct {
	BindHost string
	BindPort int

	StepDT float64

	Mass            float64
	Gravity         float64
	InitialPosition float64
	InitialVelocity float64

	Impairment impairment.Config

	LogBaseDir     string
	LogDateDir     string
	LogDescription string

	LogLevel      string
	MetricsEnable bool
	MetricsAddr   string
	RNGSeed       int64
}

// DefaultPlantConfig returns the built-in defaults for the Plant, before
// any environment override is applied.
func DefaultPlantConfig() PlantConfig {
	return PlantConfig{
		BindHost: "0.0.0.0",
		BindPort: 5005,

		StepDT: 0.01,

		Mass:    1,
		Gravity: 9.81,

		LogBaseDir: "logs",

		LogLevel:    "info",
		MetricsAddr: ":9101",
	}
}

// LoadPlantConfig returns the Plant configuration with environment
// overrides applied and validated.
func LoadPlantConfig() (PlantConfig, error) {
	cfg := DefaultPlantConfig()

	cfg.BindHost = envString("PLANT_HOST", cfg.BindHost)
	var err error
	if cfg.BindPort, err = envInt("PLANT_PORT", cfg.BindPort); err != nil {
		return cfg, err
	}
	if cfg.StepDT, err = envFloat("STEP_DT", cfg.StepDT); err != nil {
		return cfg, err
	}
	if cfg.Mass, err = envFloat("mass", cfg.Mass); err != nil {
		return cfg, err
	}
	if cfg.Gravity, err = envFloat("gravity", cfg.Gravity); err != nil {
		return cfg, err
	}
	if cfg.InitialPosition, err = envFloat("initial_position", cfg.InitialPosition); err != nil {
		return cfg, err
	}
	if cfg.InitialVelocity, err = envFloat("initial_velocity", cfg.InitialVelocity); err != nil {
		return cfg, err
	}
	if cfg.Impairment.Enabled, err = envBool("enable_delay", cfg.Impairment.Enabled); err != nil {
		return cfg, err
	}
	if cfg.Impairment.BaseDelayMs, err = envFloat("base_delay_ms", cfg.Impairment.BaseDelayMs); err != nil {
		return cfg, err
	}
	if cfg.Impairment.NetworkDelayMs, err = envFloat("network_delay_ms", cfg.Impairment.NetworkDelayMs); err != nil {
		return cfg, err
	}
	if cfg.Impairment.JitterMs, err = envFloat("jitter_ms", cfg.Impairment.JitterMs); err != nil {
		return cfg, err
	}
	if cfg.Impairment.JitterKind, err = envJitterKind("jitter_kind", cfg.Impairment.JitterKind); err != nil {
		return cfg, err
	}
	cfg.LogBaseDir = envString("LOG_BASE_DIR", cfg.LogBaseDir)
	cfg.LogDateDir = envString("LOG_DATE_DIR", cfg.LogDateDir)
	cfg.LogDescription = envString("LOG_DESCRIPTION", cfg.LogDescription)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	if cfg.MetricsEnable, err = envBool("METRICS_ENABLE", cfg.MetricsEnable); err != nil {
		return cfg, err
	}
	cfg.MetricsAddr = envString("METRICS_ADDR", cfg.MetricsAddr)
	if cfg.RNGSeed, err = envInt64("RNG_SEED", cfg.RNGSeed); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the Plant configuration is usable.
func (c PlantConfig) Validate() error {
	if c.BindHost == "" {
		return fmt.Errorf("config: PLANT_HOST must not be empty")
	}
	if c.BindPort <= 0 || c.BindPort > 65535 {
		return fmt.Errorf("config: PLANT_PORT out of range: %d", c.BindPort)
	}
	if c.StepDT <= 0 {
		return fmt.Errorf("config: STEP_DT must be positive")
	}
	if c.Mass <= 0 {
		return fmt.Errorf("config: mass must be positive")
	}
	if c.Impairment.JitterMs < 0 {
		return fmt.Errorf("config: jitter_ms must not be negative")
	}
	return nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func envInt64(key string, fallback int64) (int64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func envJitterKind(key string, fallback impairment.JitterKind) (impairment.JitterKind, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	k, err := impairment.ParseJitterKind(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return k, nil
}
