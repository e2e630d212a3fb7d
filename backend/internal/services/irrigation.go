package services

import (
	"context"
	"log/slog"
	"time"

	"irrigation-monitor/backend/internal/irrigation"
)

// IrrigationService bundles the irrigation pipeline: ingestion, queries and pump commands.
type IrrigationService struct {
	l          *slog.Logger
	now        func() time.Time
	pump       *irrigation.PumpTracker
	query      *irrigation.Query
	ingestor   *irrigation.Ingestor
	dispatcher *irrigation.Dispatcher
	consumer   *irrigation.Consumer
}

func NewIrrigationService(l *slog.Logger, opts Options) *IrrigationService {
	var sink irrigation.ReadingSink
	if opts.Feed != nil {
		sink = &feedSink{feed: opts.Feed}
	}

	ingestor := irrigation.NewIngestor(l, opts.Repository, opts.Pump, irrigation.IngestorOptions{
		Rainfall:        opts.Rainfall,
		RainfallTimeout: opts.RainfallTimeout,
		Sink:            sink,
		Metrics:         opts.Metrics,
		Now:             opts.Now,
	})

	return &IrrigationService{
		l:        l.With(slog.String("service", "irrigation")),
		now:      opts.Now,
		pump:     opts.Pump,
		query:    irrigation.NewQuery(opts.Repository),
		ingestor: ingestor,
		dispatcher: irrigation.NewDispatcher(l, opts.Pump, opts.Commands, irrigation.DispatcherOptions{
			Mode:          opts.PumpMode,
			Topic:         opts.CommandTopic,
			PulseDuration: opts.PulseDuration,
			Metrics:       opts.Metrics,
		}),
		consumer: irrigation.NewConsumer(l, ingestor, opts.QueueSize, opts.Metrics),
	}
}

// Ingest stores a reading received over HTTP.
func (s *IrrigationService) Ingest(ctx context.Context, body []byte) (irrigation.Reading, error) {
	return s.ingestor.IngestRaw(ctx, body, irrigation.TransportHTTP)
}

// Enqueue hands a broker message to the consumer. It never blocks.
func (s *IrrigationService) Enqueue(payload []byte) bool {
	return s.consumer.Enqueue(payload)
}

// RunConsumer drains broker messages until ctx is done.
func (s *IrrigationService) RunConsumer(ctx context.Context) {
	s.consumer.Run(ctx)
}

func (s *IrrigationService) Latest(ctx context.Context) (irrigation.LatestReading, error) {
	return s.query.Latest(ctx)
}

func (s *IrrigationService) ChartSeries(ctx context.Context, limit int) (irrigation.ChartSeries, error) {
	return s.query.ChartSeries(ctx, limit)
}

func (s *IrrigationService) History(ctx context.Context, page, pageSize int) (irrigation.HistoryPage, error) {
	return s.query.History(ctx, page, pageSize)
}

// DeviceStatus evaluates freshness against the current time.
func (s *IrrigationService) DeviceStatus(ctx context.Context) (irrigation.DeviceReport, error) {
	return s.query.DeviceStatus(ctx, s.now())
}

func (s *IrrigationService) PumpState() irrigation.PumpState {
	return s.pump.Get()
}

func (s *IrrigationService) PumpMode() irrigation.PumpMode {
	return s.dispatcher.Mode()
}

func (s *IrrigationService) ManualIrrigate(ctx context.Context) (irrigation.CommandResult, error) {
	return s.dispatcher.ManualIrrigate(ctx)
}
