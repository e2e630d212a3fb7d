package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"irrigation-monitor/backend/internal/config"
	"irrigation-monitor/backend/internal/relay"
	apicommon "irrigation-monitor/backend/internal/shared/api"
	"irrigation-monitor/backend/pkg/apidoc"
	"irrigation-monitor/backend/pkg/livefeed"
	"irrigation-monitor/backend/pkg/mqtt"
	"irrigation-monitor/backend/pkg/utils"
	"irrigation-monitor/web"

	"github.com/go-chi/chi/v5"
)

func main() {
	sigCtx, sigCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer sigCancel()

	cfg, err := config.NewRelay()
	if err != nil {
		fatalIfErr(slog.Default(), fmt.Errorf("failed to create config: %w", err))
	}

	defer utils.LogOnError(slog.Default(), cfg.Close, "failed to close config")

	logOptions := slog.HandlerOptions{
		Level:       cfg.LogLevel,
		ReplaceAttr: utils.SlogReplacer,
	}
	logger := slog.New(slog.NewJSONHandler(cfg.LogOutput, &logOptions)).
		With(slog.String("version", utils.GetVersionShort()), slog.String("app", "altitude-relay"))
	logger.Info("starting altitude relay", slog.String("build", utils.GetBuildVersion()))

	pages, err := web.NewPages()
	fatalIfErr(logger, err)

	r := relay.New(logger, cfg.Topic, pages)

	hub := livefeed.NewHub(logger, livefeed.HubOptions{Welcome: r.Welcome})
	r.SetFeed(hub)

	mb, err := mqtt.NewMQTTBuilder(logger, apidoc.NoopCollector{}, mqtt.MQTTClientOptions{
		BrokerURL: cfg.MQTTBroker,
		ClientID:  cfg.MQTTClientID,
		Username:  cfg.MQTTUsername,
		Password:  cfg.MQTTPassword,
	})
	fatalIfErr(logger, err)

	r.RegisterSubscribe(mb)

	mux := chi.NewRouter()
	mw := apicommon.NewMiddlewareHandler(logger)
	mux.Use(mw.RequestIDMiddleware, mw.LoggerMiddleware, mw.RecoveryMiddleware)

	r.RegisterPages(mux)
	mux.Handle("/ws", hub)

	static, err := web.StaticApp()
	fatalIfErr(logger, err)
	static.Register(mux, logger)

	go func() {
		if err := mb.Connect(); err != nil {
			logger.Error("Failed to connect to MQTT broker", utils.ErrAttr(err))
			sigCancel()
		}
	}()

	httpServer := apicommon.NewHTTPServer(logger, fmt.Sprintf(":%d", cfg.Port), mux)
	httpServer.StartOnBackground(sigCancel)

	<-sigCtx.Done()
	logger.Info("received signal, shutting down...")

	if err := httpServer.ShutdownWithDefaultTimeout(); err != nil {
		logger.Error("http server shutdown failed", utils.ErrAttr(err))
	}

	mb.Disconnect()
	hub.Close()

	logger.Info("relay exited gracefully")
}

func fatalIfErr(l *slog.Logger, err error) {
	if err == nil {
		return
	}

	l.Error("error", utils.ErrAttr(err))
	os.Exit(1)
}
