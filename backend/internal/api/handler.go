package api

import (
	"log/slog"

	"irrigation-monitor/backend/internal/services"
	"irrigation-monitor/web"
)

const (
	CoreGroup       = "Core"
	ReadingsGroup   = "Readings"
	IngestionGroup  = "Ingestion"
	PumpGroup       = "Pump"
	ChartLimitParam = "limit"
)

// Handler serves the JSON API and the HTML pages.
type Handler struct {
	l     *slog.Logger
	svc   *services.Services
	pages *web.Pages
}

// NewAPIHandler creates the handler. pages may be nil when only the JSON API is served.
func NewAPIHandler(l *slog.Logger, svc *services.Services, pages *web.Pages) *Handler {
	return &Handler{
		l:     l.With(slog.String("component", "api-handler")),
		svc:   svc,
		pages: pages,
	}
}
