package api

import (
	"irrigation-monitor/backend/pkg/apidoc"
	"irrigation-monitor/backend/pkg/router"
)

// RegisterRoutes registers every documented HTTP route. When docs is set the generated
// OpenAPI document is served under /api as well.
func (h *Handler) RegisterRoutes(rb *router.RouteBuilder, docs *apidoc.OpenAPICollector) {
	rb.Route("/api", func(rb *router.RouteBuilder) {
		h.RegisterPing("/ping", rb)
		h.RegisterHealth("/health", rb)
		h.RegisterLatestStatus("/latest-status", rb)
		h.RegisterChartData("/chart-data", rb)
		h.RegisterHistory("/history", rb)
		h.RegisterDeviceStatus("/device-status", rb)

		if docs != nil {
			rb.Router().Get("/openapi.json", docs.Handler(false))
			rb.Router().Get("/openapi.yaml", docs.Handler(true))
		}
	})

	h.RegisterIngestReading("/data", rb)
	h.RegisterIrrigate("/irrigate", rb)
}
