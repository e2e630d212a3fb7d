package api

import (
	"net/http"
	"strconv"

	apitypes "irrigation-monitor/backend/internal/api/types"
	"irrigation-monitor/backend/internal/irrigation"
	apicommon "irrigation-monitor/backend/internal/shared/api"
	"irrigation-monitor/backend/internal/shared/types"
	"irrigation-monitor/backend/pkg/router"
	"irrigation-monitor/backend/pkg/utils"
)

var exampleReading = apitypes.SensorData{
	ID:           42,
	Timestamp:    "2025-01-02 03:04:05",
	SoilMoisture: 50,
	Humidity:     60,
	Temperature:  28,
	Rainfall:     utils.Ptr(0.0),
}

func (h *Handler) LatestStatus(w http.ResponseWriter, r *http.Request) error {
	latest, err := h.svc.Irrigation.Latest(r.Context())
	if err != nil {
		return err
	}

	apicommon.RespondJSON(w, r, http.StatusOK, apitypes.LatestStatusResponse{
		SensorData: apitypes.NewLatestSensorData(latest),
		PumpStatus: apitypes.PumpStatus{State: h.svc.Irrigation.PumpState()},
	})

	return nil
}

func (h *Handler) RegisterLatestStatus(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, router.RouteSpec{
		OperationID: "getLatestStatus",
		Summary:     "Get the latest reading and pump state",
		Description: "Returns the newest stored reading, or a zero placeholder with timestamp N/A when nothing was stored yet, together with the tracked pump state",
		Group:       ReadingsGroup,
		Handler:     apicommon.ErrorHandler(h.LatestStatus),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {
				Description: "Latest status",
				Type:        apitypes.LatestStatusResponse{},
				Examples: map[string]any{
					"Reading": apitypes.LatestStatusResponse{
						SensorData: exampleReading,
						PumpStatus: apitypes.PumpStatus{State: irrigation.PumpOff},
					},
					"Empty Store": apitypes.LatestStatusResponse{
						SensorData: apitypes.NewLatestSensorData(irrigation.LatestReading{}),
						PumpStatus: apitypes.PumpStatus{State: irrigation.PumpOff},
					},
				},
			},
		}),
	})
}

func (h *Handler) ChartData(w http.ResponseWriter, r *http.Request) error {
	limit := irrigation.DefaultChartLimit

	if raw := r.URL.Query().Get(ChartLimitParam); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return apicommon.NewValidationError(map[string]string{ChartLimitParam: "must be a positive integer"})
		}

		limit = min(n, irrigation.DefaultChartLimit)
	}

	series, err := h.svc.Irrigation.ChartSeries(r.Context(), limit)
	if err != nil {
		return err
	}

	apicommon.RespondJSON(w, r, http.StatusOK, apitypes.NewChartDataResponse(series))

	return nil
}

func (h *Handler) RegisterChartData(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, router.RouteSpec{
		OperationID: "getChartData",
		Summary:     "Get chart series",
		Description: "Returns up to 50 of the newest readings as parallel arrays, oldest first",
		Group:       ReadingsGroup,
		Parameters: map[string]router.ParameterSpec{
			ChartLimitParam: {
				In:          router.ParameterInQuery,
				Description: "Number of readings, at most 50",
				Type:        new(int),
			},
		},
		Handler: apicommon.ErrorHandler(h.ChartData),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {
				Description: "Chart series",
				Type:        apitypes.ChartDataResponse{},
				Examples: map[string]any{
					"Two Readings": apitypes.ChartDataResponse{
						Labels:       []string{"08:00:00", "08:05:00"},
						SoilMoisture: []float64{48.5, 47.9},
						Humidity:     []float64{61, 60.2},
						Temperature:  []float64{27.4, 27.9},
						Rainfall:     []*float64{utils.Ptr(0.0), nil},
					},
				},
			},
			400: {
				Description: "Invalid limit",
				Type:        types.ErrorResponse{},
			},
		}),
	})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) error {
	page, err := h.history(r)
	if err != nil {
		return err
	}

	apicommon.RespondJSON(w, r, http.StatusOK, apitypes.NewHistoryResponse(page))

	return nil
}

// history reads ?page=. Anything unparseable is treated as page 1.
func (h *Handler) history(r *http.Request) (irrigation.HistoryPage, error) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		page = 1
	}

	return h.svc.Irrigation.History(r.Context(), page, irrigation.DefaultPageSize)
}

func (h *Handler) RegisterHistory(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, router.RouteSpec{
		OperationID: "getHistory",
		Summary:     "Get a page of readings",
		Description: "Returns 15 readings per page, newest first. Pages are 1-based; out-of-range pages are empty",
		Group:       ReadingsGroup,
		Parameters: map[string]router.ParameterSpec{
			"page": {
				In:          router.ParameterInQuery,
				Description: "1-based page number, defaults to 1",
				Type:        new(int),
			},
		},
		Handler: apicommon.ErrorHandler(h.History),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {
				Description: "History page",
				Type:        apitypes.HistoryResponse{},
				Examples: map[string]any{
					"First Page": apitypes.HistoryResponse{
						Items: []apitypes.SensorData{exampleReading}, Page: 1, PageSize: 15, Total: 1, Pages: 1,
					},
				},
			},
		}),
	})
}

func (h *Handler) DeviceStatus(w http.ResponseWriter, r *http.Request) error {
	report, err := h.svc.Irrigation.DeviceStatus(r.Context())
	if err != nil {
		return err
	}

	apicommon.RespondJSON(w, r, http.StatusOK, apitypes.NewDeviceStatusResponse(report))

	return nil
}

func (h *Handler) RegisterDeviceStatus(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, router.RouteSpec{
		OperationID: "getDeviceStatus",
		Summary:     "Get device freshness",
		Description: "Online when the latest reading is at most 300 seconds old, Offline when older, Unknown when nothing was received",
		Group:       ReadingsGroup,
		Handler:     apicommon.ErrorHandler(h.DeviceStatus),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {
				Description: "Device status",
				Type:        apitypes.DeviceStatusResponse{},
				Examples: map[string]any{
					"Online":  apitypes.DeviceStatusResponse{Status: irrigation.DeviceOnline, LastSeen: utils.Ptr("2025-01-02 03:04:05")},
					"Unknown": apitypes.DeviceStatusResponse{Status: irrigation.DeviceUnknown},
				},
			},
		}),
	})
}
