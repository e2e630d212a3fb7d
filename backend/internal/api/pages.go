package api

import (
	"net/http"

	apitypes "irrigation-monitor/backend/internal/api/types"
	"irrigation-monitor/backend/internal/irrigation"
	apicommon "irrigation-monitor/backend/internal/shared/api"
	"irrigation-monitor/web"

	"github.com/go-chi/chi/v5"
)

// HomePage is the dashboard view model.
type HomePage struct {
	Title     string
	Latest    apitypes.SensorData
	PumpState irrigation.PumpState
	PumpMode  irrigation.PumpMode
}

// HistoryPage is the chart view model. The data itself is fetched by the browser.
type HistoryPage struct {
	Title string
	Limit int
}

// StatusPage is the device status and paginated table view model.
type StatusPage struct {
	Title    string
	Status   irrigation.DeviceStatus
	LastSeen string
	History  apitypes.HistoryResponse
}

func (h *Handler) HomePage(w http.ResponseWriter, r *http.Request) error {
	latest, err := h.svc.Irrigation.Latest(r.Context())
	if err != nil {
		return err
	}

	return h.pages.Render(w, http.StatusOK, web.PageHome, HomePage{
		Title:     "Dashboard",
		Latest:    apitypes.NewLatestSensorData(latest),
		PumpState: h.svc.Irrigation.PumpState(),
		PumpMode:  h.svc.Irrigation.PumpMode(),
	})
}

func (h *Handler) HistoryPage(w http.ResponseWriter, _ *http.Request) error {
	return h.pages.Render(w, http.StatusOK, web.PageHistory, HistoryPage{
		Title: "History",
		Limit: irrigation.DefaultChartLimit,
	})
}

func (h *Handler) StatusPage(w http.ResponseWriter, r *http.Request) error {
	report, err := h.svc.Irrigation.DeviceStatus(r.Context())
	if err != nil {
		return err
	}

	page, err := h.history(r)
	if err != nil {
		return err
	}

	data := StatusPage{
		Title:   "Status",
		Status:  report.Status,
		History: apitypes.NewHistoryResponse(page),
	}

	if report.LastSeen != nil {
		data.LastSeen = apitypes.FormatTimestamp(*report.LastSeen)
	}

	return h.pages.Render(w, http.StatusOK, web.PageStatus, data)
}

// RegisterPages mounts the HTML pages. They are not part of the API document.
func (h *Handler) RegisterPages(r chi.Router) {
	r.Get("/", apicommon.ErrorHandler(h.HomePage))
	r.Get("/history", apicommon.ErrorHandler(h.HistoryPage))
	r.Get("/status", apicommon.ErrorHandler(h.StatusPage))
}
