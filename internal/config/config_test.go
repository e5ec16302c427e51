package config

import (
	"log/slog"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "LOG_LEVEL", "HTTP_ADDR",
		"BROKER_HOST", "BROKER_PORT", "TOPIC", "MQTT_CLIENT_ID",
		"STATION_ID", "FAULT_RATE", "INTERVAL", "CLOCK_SKEW_TOLERANCE",
		"DB_DRIVER", "DB_DSN", "SQLITE_PATH",
		"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}

	if got.AppEnv != "dev" {
		t.Errorf("AppEnv = %q, want %q", got.AppEnv, "dev")
	}
	if got.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", got.LogLevel, slog.LevelInfo)
	}
	if got.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", got.HTTPAddr, ":8080")
	}
	if got.BrokerHost != "localhost" {
		t.Errorf("BrokerHost = %q, want %q", got.BrokerHost, "localhost")
	}
	if got.BrokerPort != 1883 {
		t.Errorf("BrokerPort = %d, want %d", got.BrokerPort, 1883)
	}
	if got.Topic != "weather" {
		t.Errorf("Topic = %q, want %q", got.Topic, "weather")
	}
	if got.StationID != "WS-XX" {
		t.Errorf("StationID = %q, want %q", got.StationID, "WS-XX")
	}
	if got.Interval != 5*time.Second {
		t.Errorf("Interval = %v, want %v", got.Interval, 5*time.Second)
	}
	if got.ClockSkewTolerance != 30*time.Second {
		t.Errorf("ClockSkewTolerance = %v, want %v", got.ClockSkewTolerance, 30*time.Second)
	}
}

func TestLoadFromEnv_DerivedThresholds(t *testing.T) {
	clearEnv(t)
	t.Setenv("INTERVAL", "10")

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}

	if got.StaleAfter() != 20*time.Second {
		t.Errorf("StaleAfter() = %v, want %v", got.StaleAfter(), 20*time.Second)
	}
	if got.OfflineAfter() != 60*time.Second {
		t.Errorf("OfflineAfter() = %v, want %v", got.OfflineAfter(), 60*time.Second)
	}
}

func TestLoadFromEnv_Interval_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		interval string
	}{
		{name: "not a number", interval: "fast"},
		{name: "zero", interval: "0"},
		{name: "negative", interval: "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("INTERVAL", tt.interval)

			_, err := LoadFromEnv()
			if err == nil {
				t.Fatalf("LoadFromEnv() error = nil, want non-nil")
			}
		})
	}
}

func TestLoadFromEnv_BrokerPort(t *testing.T) {
	t.Run("trims whitespace", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BROKER_PORT", "  8883  ")

		got, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv() error = %v, want nil", err)
		}
		if got.BrokerPort != 8883 {
			t.Errorf("BrokerPort = %d, want %d", got.BrokerPort, 8883)
		}
	})

	t.Run("rejects non-numeric", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BROKER_PORT", "mqtt")

		_, err := LoadFromEnv()
		if err == nil {
			t.Fatalf("LoadFromEnv() error = nil, want non-nil")
		}
	})
}

func TestLoadFromEnv_ClockSkewTolerance_Invalid(t *testing.T) {
	tests := []struct {
		name string
		skew string
	}{
		{name: "not a duration", skew: "thirty"},
		{name: "negative", skew: "-5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("CLOCK_SKEW_TOLERANCE", tt.skew)

			_, err := LoadFromEnv()
			if err == nil {
				t.Fatalf("LoadFromEnv() error = nil, want non-nil")
			}
		})
	}
}

func TestLoadFromEnv_AppEnv_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "staging")

	_, err := LoadFromEnv()
	if err == nil {
		t.Fatalf("LoadFromEnv() error = nil, want non-nil")
	}
}
