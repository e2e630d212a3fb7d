package irrigation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"irrigation-monitor/backend/internal/metrics"
	"irrigation-monitor/backend/pkg/utils"
)

// DefaultRainfallTimeout bounds a single weather lookup.
const DefaultRainfallTimeout = 5 * time.Second

// Transport identifies where a sensor message came from.
type Transport string

const (
	TransportHTTP Transport = "http"
	TransportMQTT Transport = "mqtt"
)

// Repository is the append-only, time-ordered reading store.
type Repository interface {
	// Append stores r and returns it with its assigned ID.
	Append(ctx context.Context, r Reading) (Reading, error)
	// Latest returns the reading with the greatest timestamp. ok is false when the store is empty.
	Latest(ctx context.Context) (r Reading, ok bool, err error)
	// Recent returns up to n readings, newest first.
	Recent(ctx context.Context, n int) ([]Reading, error)
	// Page returns the 1-based page of readings ordered newest first.
	Page(ctx context.Context, page, size int) ([]Reading, error)
	// Count returns the number of stored readings.
	Count(ctx context.Context) (int, error)
}

// RainfallSource looks up current precipitation in millimetres.
type RainfallSource interface {
	Rainfall(ctx context.Context) (float64, error)
}

// ReadingSink is notified after a reading has been stored.
type ReadingSink interface {
	PublishReading(r Reading)
}

// IngestorOptions holds the optional collaborators of an Ingestor.
type IngestorOptions struct {
	Rainfall        RainfallSource
	RainfallTimeout time.Duration
	Sink            ReadingSink
	Metrics         *metrics.Metrics
	Now             func() time.Time
}

// Ingestor validates sensor messages and turns them into stored readings.
type Ingestor struct {
	l       *slog.Logger
	repo    Repository
	pump    *PumpTracker
	weather RainfallSource
	timeout time.Duration
	sink    ReadingSink
	m       *metrics.Metrics
	now     func() time.Time
}

// NewIngestor creates an Ingestor writing to repo and reporting pump telemetry to pump.
func NewIngestor(l *slog.Logger, repo Repository, pump *PumpTracker, opts IngestorOptions) *Ingestor {
	if opts.RainfallTimeout <= 0 || opts.RainfallTimeout > DefaultRainfallTimeout {
		opts.RainfallTimeout = DefaultRainfallTimeout
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Ingestor{
		l:       l.With(slog.String("component", "ingestor")),
		repo:    repo,
		pump:    pump,
		weather: opts.Rainfall,
		timeout: opts.RainfallTimeout,
		sink:    opts.Sink,
		m:       opts.Metrics,
		now:     opts.Now,
	}
}

// IngestRaw parses data and ingests it. Used by the broker consumer.
func (i *Ingestor) IngestRaw(ctx context.Context, data []byte, transport Transport) (Reading, error) {
	p, err := ParsePayload(data)
	if err != nil {
		i.dropped(err)

		return Reading{}, err
	}

	return i.Ingest(ctx, p, transport)
}

// Ingest stores exactly one reading for a valid payload. Nothing is written when validation
// fails. Device pump status is applied only after the reading is stored.
func (i *Ingestor) Ingest(ctx context.Context, p SensorPayload, transport Transport) (Reading, error) {
	if err := p.Validate(); err != nil {
		i.dropped(err)

		return Reading{}, err
	}

	r := Reading{
		CapturedAt:   i.now().UTC(),
		SoilMoisture: *p.SoilMoisture,
		Humidity:     *p.Humidity,
		Temperature:  *p.Temperature,
		Rainfall:     p.Rainfall,
	}

	if r.Rainfall == nil && i.weather != nil {
		r.Rainfall = utils.Ptr(i.lookupRainfall(ctx))
	}

	stored, err := i.repo.Append(ctx, r)
	if err != nil {
		i.m.MessageDropped(metrics.DropStore)

		return Reading{}, storeErr("append", err)
	}

	i.m.ReadingStored(string(transport))

	if p.PumpStatus != nil {
		i.applyPumpStatus(*p.PumpStatus)
	}

	if i.sink != nil {
		i.sink.PublishReading(stored)
	}

	i.l.Debug("reading stored",
		slog.Int64("id", stored.ID),
		slog.String("transport", string(transport)),
		slog.Float64("soil_moisture", stored.SoilMoisture),
		slog.Float64("humidity", stored.Humidity),
		slog.Float64("temperature", stored.Temperature),
	)

	return stored, nil
}

// lookupRainfall never fails: any error degrades to 0.0.
func (i *Ingestor) lookupRainfall(ctx context.Context) float64 {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	mm, err := i.weather.Rainfall(ctx)
	if err != nil {
		i.l.Warn("rainfall lookup failed, using 0", utils.ErrAttr(err))
		i.m.WeatherLookup(false)

		return 0
	}

	i.m.WeatherLookup(true)

	return mm
}

func (i *Ingestor) applyPumpStatus(raw string) {
	state, err := ParsePumpState(raw)
	if err != nil {
		i.l.Warn("ignoring device pump status", slog.String("value", raw), utils.ErrAttr(err))

		return
	}

	if err := i.pump.Set(state); err != nil {
		i.l.Warn("failed to apply device pump status", utils.ErrAttr(err))
	}
}

func (i *Ingestor) dropped(err error) {
	switch {
	case errors.Is(err, ErrMalformedInput):
		i.m.MessageDropped(metrics.DropMalformed)
	case errors.Is(err, ErrIncompleteData):
		i.m.MessageDropped(metrics.DropIncomplete)
	}
}
