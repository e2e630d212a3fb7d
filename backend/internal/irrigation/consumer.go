package irrigation

import (
	"context"
	"log/slog"

	"irrigation-monitor/backend/internal/metrics"
	"irrigation-monitor/backend/pkg/utils"
)

// DefaultQueueSize bounds the number of broker messages waiting to be ingested.
const DefaultQueueSize = 100

// Consumer decouples the broker callback from ingestion through a bounded queue.
type Consumer struct {
	l        *slog.Logger
	ingestor *Ingestor
	queue    chan []byte
	m        *metrics.Metrics
}

func NewConsumer(l *slog.Logger, ingestor *Ingestor, size int, m *metrics.Metrics) *Consumer {
	if size <= 0 {
		size = DefaultQueueSize
	}

	return &Consumer{
		l:        l.With(slog.String("component", "consumer")),
		ingestor: ingestor,
		queue:    make(chan []byte, size),
		m:        m,
	}
}

// Enqueue never blocks. It copies payload and reports false when the queue is full.
func (c *Consumer) Enqueue(payload []byte) bool {
	msg := make([]byte, len(payload))
	copy(msg, payload)

	select {
	case c.queue <- msg:
		c.m.QueueDepth(len(c.queue))

		return true
	default:
		c.m.MessageDropped(metrics.DropQueueFull)
		c.l.Warn("ingest queue full, dropping message", slog.Int("capacity", cap(c.queue)))

		return false
	}
}

// Len returns the number of queued messages.
func (c *Consumer) Len() int {
	return len(c.queue)
}

// Run ingests queued messages until ctx is cancelled. The message in progress is finished
// first; anything still queued is discarded.
func (c *Consumer) Run(ctx context.Context) {
	c.l.Info("consumer started", slog.Int("capacity", cap(c.queue)))
	defer c.l.Info("consumer stopped", slog.Int("discarded", len(c.queue)))

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.queue:
			c.m.QueueDepth(len(c.queue))

			// Ingestion outlives a shutdown signal so the reading in hand is not lost.
			if _, err := c.ingestor.IngestRaw(context.WithoutCancel(ctx), msg, TransportMQTT); err != nil {
				c.l.Warn("discarding sensor message", utils.ErrAttr(err))
			}
		}
	}
}
