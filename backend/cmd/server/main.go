package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"irrigation-monitor/backend/internal/api"
	"irrigation-monitor/backend/internal/config"
	"irrigation-monitor/backend/internal/irrigation"
	"irrigation-monitor/backend/internal/metrics"
	mqttapi "irrigation-monitor/backend/internal/mqtt"
	"irrigation-monitor/backend/internal/services"
	apicommon "irrigation-monitor/backend/internal/shared/api"
	"irrigation-monitor/backend/internal/store"
	"irrigation-monitor/backend/internal/weather"
	"irrigation-monitor/backend/pkg/apidoc"
	"irrigation-monitor/backend/pkg/dialect"
	"irrigation-monitor/backend/pkg/livefeed"
	"irrigation-monitor/backend/pkg/migrator"
	"irrigation-monitor/backend/pkg/mqtt"
	"irrigation-monitor/backend/pkg/router"
	"irrigation-monitor/backend/pkg/utils"
	"irrigation-monitor/web"

	mqttbroker "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
)

const (
	openAPIJSONPath = "openapi.json"
	openAPIYAMLPath = "openapi.yaml"
	schemaPath      = "schema.sql"
)

func main() {
	sigCtx, sigCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer sigCancel()

	cfg, err := config.New()
	if err != nil {
		fatalIfErr(slog.Default(), fmt.Errorf("failed to create config: %w", err))
	}

	defer utils.LogOnError(slog.Default(), cfg.Close, "failed to close config")

	logger := getLogger(cfg.LogLevel, cfg.LogOutput, cfg.Generate)
	logger.Info("starting irrigation monitor", slog.String("build", utils.GetBuildVersion()))

	collector := apidoc.NewOpenAPICollector(logger, apidoc.APIInfo{
		Title:       "Irrigation Monitor API",
		Version:     utils.GetVersionShort(),
		Description: "Sensor ingestion, history and pump control for the irrigation monitor",
		Servers: []apidoc.ServerInfo{
			{URL: fmt.Sprintf("http://localhost:%d", cfg.Port), Description: "Local server"},
		},
	})

	// Set when the broker connection drops and fail-fast is on.
	var brokerLost atomic.Bool

	rb, err := router.NewRouteBuilder(logger, collector)
	fatalIfErr(logger, err)

	mb, err := mqtt.NewMQTTBuilder(logger, collector, mqtt.MQTTClientOptions{
		BrokerURL: cfg.MQTTBroker,
		ClientID:  cfg.MQTTClientID,
		Username:  cfg.MQTTUsername,
		Password:  cfg.MQTTPassword,
		OnConnectionLost: func(err error) {
			if !cfg.MQTTFailFast {
				return
			}

			logger.Error("mqtt connection lost, shutting down for restart", utils.ErrAttr(err))
			brokerLost.Store(true)
			sigCancel()
		},
	})
	fatalIfErr(logger, err)

	// The document is generated without touching the database.
	var (
		st   *store.Store
		repo irrigation.Repository = store.NewMemoryRepository()
		db   services.Pinger
	)

	if !cfg.Generate {
		st, err = store.Open(sigCtx, logger, cfg.StoreOptions())
		fatalIfErr(logger, err)

		repo, db = st, st

		if cfg.SeedDemoData {
			n, err := store.Seed(sigCtx, repo, time.Now(), store.DemoReadings, store.DemoInterval)
			fatalIfErr(logger, err)
			logger.Info("demo readings seeded", slog.Int("count", n))
		}
	}

	var rainfall irrigation.RainfallSource

	if cfg.WeatherEnabled() {
		wc, err := weather.New(logger, weather.Options{
			BaseURL: cfg.WeatherAPIURL,
			APIKey:  cfg.WeatherAPIKey,
			Query:   cfg.WeatherQuery,
			Timeout: cfg.WeatherTimeout,
		})
		fatalIfErr(logger, err)

		rainfall = wc
	} else {
		logger.Info("weather lookup disabled, rainfall is taken from the device only")
	}

	m := metrics.New()

	pump := irrigation.NewPumpTracker()
	pump.OnChange(func(s irrigation.PumpState) {
		m.PumpOn(s == irrigation.PumpOn)
	})

	hub := livefeed.NewHub(logger, livefeed.HubOptions{})

	svc := services.NewServices(logger, services.Options{
		Repository:      repo,
		Database:        db,
		Broker:          mb.Client(),
		Commands:        mqttapi.NewCommandPublisher(mb.Client()),
		Pump:            pump,
		PumpMode:        cfg.PumpMode,
		CommandTopic:    cfg.MQTTCommandTopic,
		PulseDuration:   cfg.PulseDuration,
		QueueSize:       cfg.IngestQueueSize,
		Rainfall:        rainfall,
		RainfallTimeout: cfg.WeatherTimeout,
		Feed:            hub,
		Metrics:         m,
	})

	pages, err := web.NewPages()
	fatalIfErr(logger, err)

	apiHandler := api.NewAPIHandler(logger, svc, pages)
	mqttHandler := mqttapi.NewMQTTHandler(logger, svc, cfg.MQTTSensorTopic, cfg.MQTTCommandTopic)

	registerHTTPHandlers(logger, rb, apiHandler, collector, hub, m)
	registerMQTTHandlers(logger, mb, mqttHandler)

	if cfg.Generate {
		fatalIfErr(logger, collector.Validate(sigCtx))
		fatalIfErr(logger, collector.WriteFiles(openAPIJSONPath, openAPIYAMLPath))
		logger.Info("API documentation written", slog.String("json", openAPIJSONPath), slog.String("yaml", openAPIYAMLPath))

		// Dumping needs the sqlite3 CLI. Without it only the API documents are written.
		if err := dumpSchema(logger, schemaPath); err != nil {
			logger.Warn("database schema not written", utils.ErrAttr(err))
		}

		return
	}

	// MQTT Broker
	var mqttBroker *mqttbroker.Server

	if cfg.MQTTEmbedBroker {
		mqttAddr := fmt.Sprintf(":%d", cfg.MQTTBrokerPort)
		mqttBroker, err = getMQTTServer(logger, mqttAddr)
		fatalIfErr(logger, err)

		go func() {
			logger.Info("MQTT broker listening", slog.String("address", mqttAddr))

			if err := mqttBroker.Serve(); err != nil {
				logger.Error("MQTT broker failed", utils.ErrAttr(err))
				sigCancel()
			}
		}()
	}

	go func() {
		if err := mb.Connect(); err != nil {
			logger.Error("Failed to connect to MQTT broker", utils.ErrAttr(err))
			sigCancel()
		}
	}()

	var wg sync.WaitGroup

	wg.Go(func() {
		svc.Irrigation.RunConsumer(sigCtx)
	})

	httpServer := apicommon.NewHTTPServer(logger, fmt.Sprintf(":%d", cfg.Port), rb.Router())
	httpServer.StartOnBackground(sigCancel)

	// Wait for signal (either OS or some failure)
	<-sigCtx.Done()
	logger.Info("received signal, shutting down...")

	if err := httpServer.ShutdownWithDefaultTimeout(); err != nil {
		logger.Error("http server shutdown failed", utils.ErrAttr(err))
	}

	logger.Info("disconnecting from MQTT broker...")
	mb.Disconnect()

	wg.Wait()
	hub.Close()

	if mqttBroker != nil {
		logger.Info("mqtt broker shutting down...")

		if err := mqttBroker.Close(); err != nil {
			logger.Error("mqtt broker shutdown failed", utils.ErrAttr(err))
		}
	}

	utils.LogOnError(logger, st.Close, "failed to close store")

	if brokerLost.Load() {
		logger.Error("exiting after losing the MQTT broker")
		os.Exit(1)
	}

	logger.Info("server exited gracefully")
}

func getMQTTServer(l *slog.Logger, addr string) (*mqttbroker.Server, error) {
	server := mqttbroker.New(&mqttbroker.Options{
		Logger: l.With(slog.String("component", "mqtt-broker")),
	})
	tcp := listeners.NewTCP(listeners.Config{ID: "tcp", Address: addr})

	err := server.AddListener(tcp)
	if err != nil {
		return nil, err
	}

	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, err
	}

	return server, nil
}

// dumpSchema applies the SQLite migrations to a scratch database and writes the resulting schema.
func dumpSchema(l *slog.Logger, path string) error {
	dir, err := os.MkdirTemp("", "irrigation-schema-*")
	if err != nil {
		return err
	}

	defer utils.LogOnError(l, func() error { return os.RemoveAll(dir) }, "failed to remove scratch database")

	mig, err := migrator.New(l, dialect.SQLite, filepath.Join(dir, "schema.db"))
	if err != nil {
		return err
	}

	if err := mig.Migrate(); err != nil {
		return err
	}

	if err := mig.DumpSchema(path); err != nil {
		return err
	}

	l.Info("database schema written", slog.String("path", path))

	return nil
}

// registerHTTPHandlers registers all HTTP handlers.
func registerHTTPHandlers(l *slog.Logger, rb *router.RouteBuilder, h *api.Handler, docs *apidoc.OpenAPICollector, hub *livefeed.Hub, m *metrics.Metrics) {
	l.Info("Registering HTTP handlers...")

	mw := apicommon.NewMiddlewareHandler(l)
	rb.Use(mw.RequestIDMiddleware, mw.LoggerMiddleware, mw.RecoveryMiddleware)

	h.RegisterRoutes(rb, docs)
	h.RegisterPages(rb.Router())

	static, err := web.StaticApp()
	fatalIfErr(l, err)
	static.Register(rb.Router(), l)

	rb.Router().Handle("/metrics", m.Handler())
	rb.Router().Handle("/ws/readings", hub)

	l.Info("HTTP handlers registered successfully")
}

// registerMQTTHandlers registers all MQTT handlers.
func registerMQTTHandlers(l *slog.Logger, mb *mqtt.MQTTBuilder, h *mqttapi.Handler) {
	l.Info("Registering MQTT handlers...")
	h.RegisterSensorReadingSubscribe(mb)
	h.RegisterPumpCommandPublish(mb)
	l.Info("MQTT handlers registered successfully")
}

func getLogger(level slog.Leveler, output io.Writer, text bool) *slog.Logger {
	logOptions := slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: utils.SlogReplacer,
	}

	var logHandler slog.Handler = slog.NewJSONHandler(output, &logOptions)
	if text {
		logHandler = slog.NewTextHandler(output, &logOptions)
	}

	return slog.New(logHandler).With(slog.String("version", utils.GetVersionShort()))
}

func fatalIfErr(l *slog.Logger, err error) {
	if err == nil {
		return
	}

	l.Error("error", utils.ErrAttr(err))
	os.Exit(1)
}
