package services

import (
	"context"
	"log/slog"

	"irrigation-monitor/backend/pkg/utils"
)

// Pinger is anything whose backing connection can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectionChecker reports a live broker connection.
type ConnectionChecker interface {
	IsConnected() bool
}

type CoreService struct {
	l      *slog.Logger
	db     Pinger
	broker ConnectionChecker
}

func NewCoreService(l *slog.Logger, db Pinger, broker ConnectionChecker) *CoreService {
	return &CoreService{
		l:      l.With(slog.String("service", "core")),
		db:     db,
		broker: broker,
	}
}

type HealthStatus struct {
	Database bool
	MQTT     bool
}

func (s *CoreService) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Database: true,
		MQTT:     true,
	}

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			s.l.Error("database unreachable", utils.ErrAttr(err))
			status.Database = false
		}
	}

	if s.broker == nil || !s.broker.IsConnected() {
		s.l.Error("mqtt broker unreachable")
		status.MQTT = false
	}

	return status
}
