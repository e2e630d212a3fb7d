package irrigation_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"irrigation-monitor/backend/internal/irrigation"
	"irrigation-monitor/backend/internal/metrics"
)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type fakeRainfall struct {
	mm    float64
	err   error
	delay time.Duration
	calls int
	mu    sync.Mutex
}

func (f *fakeRainfall) Rainfall(ctx context.Context) (float64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	return f.mm, f.err
}

func (f *fakeRainfall) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

type publishedCommand struct {
	Topic   string
	Command string
}

type fakePublisher struct {
	mu   sync.Mutex
	err  error
	sent []publishedCommand
}

func (f *fakePublisher) PublishCommand(_ context.Context, topic, command string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.sent = append(f.sent, publishedCommand{Topic: topic, Command: command})

	return nil
}

func (f *fakePublisher) Sent() []publishedCommand {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]publishedCommand(nil), f.sent...)
}

var errDiskFull = errors.New("disk full")

// brokenRepository fails every call.
type brokenRepository struct{}

func (brokenRepository) Append(context.Context, irrigation.Reading) (irrigation.Reading, error) {
	return irrigation.Reading{}, errDiskFull
}

func (brokenRepository) Latest(context.Context) (irrigation.Reading, bool, error) {
	return irrigation.Reading{}, false, errDiskFull
}

func (brokenRepository) Recent(context.Context, int) ([]irrigation.Reading, error) {
	return nil, errDiskFull
}

func (brokenRepository) Page(context.Context, int, int) ([]irrigation.Reading, error) {
	return nil, errDiskFull
}

func (brokenRepository) Count(context.Context) (int, error) {
	return 0, errDiskFull
}

type recordingSink struct {
	mu       sync.Mutex
	readings []irrigation.Reading
}

func (s *recordingSink) PublishReading(r irrigation.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readings = append(s.readings, r)
}

func (s *recordingSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.readings)
}

// scrape returns the Prometheus text exposition of m.
func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	return rec.Body.String()
}
