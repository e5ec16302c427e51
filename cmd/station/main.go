package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LordofCoding06/M321-Distributed-Systems/internal/config"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/logging"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/mqtt"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/station"
)

// Default version is "dev" if not set with -ldflags "-X main.version=..."
var version = "dev"
var appName = "weather-station"

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	slog.Info("starting",
		"app", appName,
		"version", version,
		"station_id", cfg.StationID,
		"interval", cfg.Interval.String(),
		"fault_rate", cfg.FaultRate,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}

	slog.Info("shutting down")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	publisher := mqtt.NewPublisher(cfg, logger)
	defer publisher.Disconnect()

	if err := publisher.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	sim := station.New(cfg.StationID, cfg.FaultRate, time.Now().UnixNano())

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	// Send one reading immediately so the server sees the station right away.
	send(sim, publisher, logger)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			send(sim, publisher, logger)
		}
	}
}

func send(sim *station.Simulator, publisher *mqtt.Publisher, logger *slog.Logger) {
	msg := sim.Next(time.Now())

	var err error
	switch {
	case msg.Reading != nil:
		err = publisher.PublishReading(*msg.Reading)
	case msg.Fault == "drop":
		logger.Info("injecting fault", "kind", msg.Fault)
		return
	default:
		logger.Info("injecting fault", "kind", msg.Fault)
		err = publisher.PublishRaw(sim.StationID(), msg.Raw)
	}
	if err != nil {
		logger.Warn("publish failed", "error", err)
	}
}
