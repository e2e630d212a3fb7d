package services

import (
	"log/slog"
	"time"

	"irrigation-monitor/backend/internal/irrigation"
	"irrigation-monitor/backend/internal/metrics"
)

// Options wires the services to their collaborators. Only Repository and Commands are required.
type Options struct {
	Repository irrigation.Repository
	// Database is pinged by the health check. Nil means always healthy.
	Database Pinger
	// Broker reports the MQTT connection for the health check. Nil means not connected.
	Broker   ConnectionChecker
	Commands irrigation.CommandPublisher

	Pump          *irrigation.PumpTracker
	PumpMode      irrigation.PumpMode
	CommandTopic  string
	PulseDuration time.Duration
	QueueSize     int

	Rainfall        irrigation.RainfallSource
	RainfallTimeout time.Duration
	Feed            ReadingBroadcaster
	Metrics         *metrics.Metrics
	Now             func() time.Time
}

// Services holds all service instances.
type Services struct {
	l          *slog.Logger
	Core       *CoreService
	Irrigation *IrrigationService
}

// NewServices creates the services from opts.
func NewServices(l *slog.Logger, opts Options) *Services {
	if opts.Pump == nil {
		opts.Pump = irrigation.NewPumpTracker()
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Services{
		l:          l.With(slog.String("module", "services")),
		Core:       NewCoreService(l, opts.Database, opts.Broker),
		Irrigation: NewIrrigationService(l, opts),
	}
}
