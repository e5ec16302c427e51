package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/LordofCoding06/M321-Distributed-Systems/internal/config"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/db"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/db/migrate"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/httpapi"
	weather "github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/views"
	"github.com/LordofCoding06/M321-Distributed-Systems/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"brokerHost", cfg.BrokerHost,
		"brokerPort", cfg.BrokerPort,
		"topic", cfg.Topic,
		"interval", cfg.Interval,
		"staleAfter", cfg.StaleAfter(),
		"offlineAfter", cfg.OfflineAfter(),
		"sqlitePath", cfg.SQLitePath,
	)

	dbConn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(dbConn); err != nil {
		return err
	}

	if err := views.LoadTemplates(); err != nil {
		return err
	}

	// Set the MQTT handler before Connect so the OnConnectHandler can
	// subscribe immediately. The broker may send queued messages right after
	// CONNACK; we must be subscribed before that to receive them.
	subscriber := mqtt.NewSubscriber(cfg, slog.Default())
	mux := httpapi.NewMux(dbConn)
	feature := weather.RegisterFeature(mux, dbConn, subscriber, cfg, slog.Default())
	defer feature.Close()

	// Use a short timeout for the initial MQTT connect so startup is not
	// blocked when the broker is down (e.g. E2E).
	connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
	err = subscriber.Connect(connectCtx)
	connectCancel()
	if err != nil {
		slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		// Continue so the HTTP server and /healthz still work; paho keeps
		// retrying the broker in the background.
	}

	// Periodic tick: silence alone must degrade stations, so the evaluation
	// runs independently of message arrival.
	tickerCtx, tickerCancel := context.WithCancel(ctx)
	tickerDone := make(chan struct{})
	go func() {
		defer close(tickerDone)
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-tickerCtx.Done():
				return
			case <-ticker.C:
				feature.Tracker.Evaluate(time.Now().UTC())
			}
		}
	}()
	// The goroutine must be joined before feature.Close() closes the
	// transition sink, otherwise a final Evaluate could emit into it.
	stopTicker := func() {
		tickerCancel()
		<-tickerDone
	}
	defer stopTicker()

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("stopping ticker")
	stopTicker()

	slog.Info("mqtt disconnecting")
	subscriber.Disconnect()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
