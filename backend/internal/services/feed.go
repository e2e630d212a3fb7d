package services

import (
	"irrigation-monitor/backend/internal/api/types"
	"irrigation-monitor/backend/internal/irrigation"
)

// ReadingEvent is the live feed event name for a newly stored reading.
const ReadingEvent = "reading"

// ReadingBroadcaster pushes named events to live clients.
type ReadingBroadcaster interface {
	Broadcast(name string, data any)
}

type feedSink struct {
	feed ReadingBroadcaster
}

func (s *feedSink) PublishReading(r irrigation.Reading) {
	s.feed.Broadcast(ReadingEvent, types.NewSensorData(r))
}
