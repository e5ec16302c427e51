package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	BrokerHost   string
	BrokerPort   int
	Topic        string
	MQTTClientID string

	// StationID is only used by the station binary as the publisher identity.
	StationID string

	// FaultRate is the probability (0..1) that the station binary publishes
	// a deliberately broken reading, for exercising the health engine.
	FaultRate float64

	// Interval is the expected station send interval. Staleness thresholds
	// are derived from it, see StaleAfter and OfflineAfter.
	Interval           time.Duration
	ClockSkewTolerance time.Duration

	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration
}

// StaleAfter is the silence duration after which a station degrades to STALE.
func (c Config) StaleAfter() time.Duration {
	return 2 * c.Interval
}

// OfflineAfter is the silence duration after which a station degrades to OFFLINE.
func (c Config) OfflineAfter() time.Duration {
	return 6 * c.Interval
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	brokerHost := strings.TrimSpace(os.Getenv("BROKER_HOST"))
	if brokerHost == "" {
		brokerHost = "localhost"
	}

	brokerPortStr := strings.TrimSpace(os.Getenv("BROKER_PORT"))
	if brokerPortStr == "" {
		brokerPortStr = "1883"
	}
	brokerPort, err := strconv.Atoi(brokerPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid BROKER_PORT %q: %w", brokerPortStr, err)
	}

	topic := strings.TrimSpace(os.Getenv("TOPIC"))
	if topic == "" {
		topic = "weather"
	}

	mqttClientID := strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID"))
	if mqttClientID == "" {
		mqttClientID = "weather-dashboard"
	}

	stationID := strings.TrimSpace(os.Getenv("STATION_ID"))
	if stationID == "" {
		stationID = "WS-XX"
	}

	intervalStr := strings.TrimSpace(os.Getenv("INTERVAL"))
	if intervalStr == "" {
		intervalStr = "5"
	}
	intervalSec, err := strconv.Atoi(intervalStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid INTERVAL %q: %w", intervalStr, err)
	}
	if intervalSec <= 0 {
		return Config{}, fmt.Errorf("INTERVAL must be positive, got %d", intervalSec)
	}

	faultRateStr := strings.TrimSpace(os.Getenv("FAULT_RATE"))
	if faultRateStr == "" {
		faultRateStr = "0"
	}
	faultRate, err := strconv.ParseFloat(faultRateStr, 64)
	if err != nil {
		return Config{}, fmt.Errorf("invalid FAULT_RATE %q: %w", faultRateStr, err)
	}
	if faultRate < 0 || faultRate > 1 {
		return Config{}, fmt.Errorf("FAULT_RATE must be within [0, 1], got %v", faultRate)
	}

	skewStr := strings.TrimSpace(os.Getenv("CLOCK_SKEW_TOLERANCE"))
	if skewStr == "" {
		skewStr = "30s"
	}
	skew, err := time.ParseDuration(skewStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid CLOCK_SKEW_TOLERANCE %q: %w", skewStr, err)
	}
	if skew < 0 {
		return Config{}, fmt.Errorf("CLOCK_SKEW_TOLERANCE must not be negative, got %v", skew)
	}

	sqliteDriver := strings.TrimSpace(os.Getenv("DB_DRIVER"))
	if sqliteDriver == "" {
		sqliteDriver = "sqlite3"
	}
	sqliteDSN := strings.TrimSpace(os.Getenv("DB_DSN"))
	sqlitePath := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	if sqlitePath == "" {
		sqlitePath = "dev/sqlite/app.db"
	}

	maxOpenConnsStr := strings.TrimSpace(os.Getenv("DB_MAX_OPEN_CONNS"))
	if maxOpenConnsStr == "" {
		maxOpenConnsStr = "1"
	}
	maxOpenConns, err := strconv.Atoi(maxOpenConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_OPEN_CONNS %q: %w", maxOpenConnsStr, err)
	}

	maxIdleConnsStr := strings.TrimSpace(os.Getenv("DB_MAX_IDLE_CONNS"))
	if maxIdleConnsStr == "" {
		maxIdleConnsStr = "1"
	}
	maxIdleConns, err := strconv.Atoi(maxIdleConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_IDLE_CONNS %q: %w", maxIdleConnsStr, err)
	}

	connMaxLifetimeStr := strings.TrimSpace(os.Getenv("DB_CONN_MAX_LIFETIME"))
	if connMaxLifetimeStr == "" {
		connMaxLifetimeStr = "0s"
	}
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	return Config{
		AppEnv:                appEnv,
		LogLevel:              level,
		HTTPAddr:              httpAddr,
		BrokerHost:            brokerHost,
		BrokerPort:            brokerPort,
		Topic:                 topic,
		MQTTClientID:          mqttClientID,
		StationID:             stationID,
		FaultRate:             faultRate,
		Interval:              time.Duration(intervalSec) * time.Second,
		ClockSkewTolerance:    skew,
		SQLiteDriver:          sqliteDriver,
		SQLiteDSN:             sqliteDSN,
		SQLitePath:            sqlitePath,
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,
	}, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
