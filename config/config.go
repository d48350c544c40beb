// Package config provides configuration for the supervisor.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the supervisor configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Event/task history store
	DatabaseURL string

	// Allocation
	ResourceThreshold float64

	// Heartbeat monitor
	MonitorInterval  time.Duration
	HeartbeatTimeout time.Duration
	LoadDecayStep    float64

	// Leader election
	LivenessWindow   time.Duration
	ElectionInterval time.Duration

	// Queue reconciler
	ReconcileInterval time.Duration
	ExpiryHorizon     time.Duration

	// Offload policy (rego source; empty means built-in default)
	OffloadPolicyPath string

	// System metrics sampling
	MetricsSampleInterval time.Duration

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:              getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:           getEnv("DATABASE_URL", "file:supervisor?mode=memory&cache=shared"),
		ResourceThreshold:     getEnvFloat("RESOURCE_THRESHOLD", 0.7),
		MonitorInterval:       time.Duration(getEnvInt("MONITOR_INTERVAL_MS", 10000)) * time.Millisecond,
		HeartbeatTimeout:      time.Duration(getEnvInt("HEARTBEAT_TIMEOUT_MS", 30000)) * time.Millisecond,
		LoadDecayStep:         getEnvFloat("LOAD_DECAY_STEP", 0.01),
		LivenessWindow:        time.Duration(getEnvInt("LIVENESS_WINDOW_MS", 10000)) * time.Millisecond,
		ElectionInterval:      time.Duration(getEnvInt("ELECTION_INTERVAL_MS", 10000)) * time.Millisecond,
		ReconcileInterval:     time.Duration(getEnvInt("RECONCILE_INTERVAL_MS", 1000)) * time.Millisecond,
		ExpiryHorizon:         time.Duration(getEnvInt("EXPIRY_HORIZON_MS", 300000)) * time.Millisecond,
		OffloadPolicyPath:     getEnv("OFFLOAD_POLICY_PATH", ""),
		MetricsSampleInterval: time.Duration(getEnvInt("METRICS_SAMPLE_INTERVAL_MS", 5000)) * time.Millisecond,
		LogLevel:              getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}
