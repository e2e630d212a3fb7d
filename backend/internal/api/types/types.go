package types

import (
	"time"

	"irrigation-monitor/backend/internal/irrigation"
	"irrigation-monitor/backend/pkg/utils"
)

// TimestampLayout is how reading timestamps are rendered (UTC).
const TimestampLayout = "2006-01-02 15:04:05"

// NotAvailable replaces the timestamp when no reading exists yet.
const NotAvailable = "N/A"

// SensorData is one reading as rendered by the API and the live feed.
type SensorData struct {
	// Store assigned identifier, 0 for the placeholder
	ID int64 `json:"id"`
	// Capture time in UTC ("2006-01-02 15:04:05") or "N/A"
	Timestamp string `json:"timestamp"`
	// Soil moisture in percent
	SoilMoisture float64 `json:"soil_moisture"`
	// Relative air humidity in percent
	Humidity float64 `json:"humidity"`
	// Air temperature in degrees Celsius
	Temperature float64 `json:"temperature"`
	// Rainfall in mm, null when unknown
	Rainfall *float64 `json:"rainfall"`
}

// NewSensorData renders a stored reading.
func NewSensorData(r irrigation.Reading) SensorData {
	return SensorData{
		ID:           r.ID,
		Timestamp:    FormatTimestamp(r.CapturedAt),
		SoilMoisture: r.SoilMoisture,
		Humidity:     r.Humidity,
		Temperature:  r.Temperature,
		Rainfall:     r.Rainfall,
	}
}

// NewLatestSensorData renders the latest reading or the zero placeholder.
func NewLatestSensorData(l irrigation.LatestReading) SensorData {
	if !l.Found {
		return SensorData{Timestamp: NotAvailable, Rainfall: utils.Ptr(0.0)}
	}

	return NewSensorData(l.Reading)
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// PumpStatus is the server's belief about the pump.
type PumpStatus struct {
	// ON or OFF
	State irrigation.PumpState `json:"state"`
}

// LatestStatusResponse is the response to the latest status request.
type LatestStatusResponse struct {
	// Latest reading or placeholder
	SensorData SensorData `json:"sensor_data"`
	// Tracked pump state
	PumpStatus PumpStatus `json:"pump_status"`
}

// ChartDataResponse holds parallel arrays, oldest first.
type ChartDataResponse struct {
	// Capture times as HH:MM:SS
	Labels       []string   `json:"labels"`
	SoilMoisture []float64  `json:"soil_moisture"`
	Humidity     []float64  `json:"humidity"`
	Temperature  []float64  `json:"temperature"`
	Rainfall     []*float64 `json:"rainfall"`
}

func NewChartDataResponse(s irrigation.ChartSeries) ChartDataResponse {
	return ChartDataResponse{
		Labels:       s.Labels,
		SoilMoisture: s.SoilMoisture,
		Humidity:     s.Humidity,
		Temperature:  s.Temperature,
		Rainfall:     s.Rainfall,
	}
}

// HistoryResponse is one page of readings, newest first.
type HistoryResponse struct {
	Items []SensorData `json:"items"`
	// 1-based page number
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	// Total number of stored readings
	Total int `json:"total"`
	// Number of pages
	Pages   int  `json:"pages"`
	HasPrev bool `json:"has_prev"`
	HasNext bool `json:"has_next"`
}

func NewHistoryResponse(p irrigation.HistoryPage) HistoryResponse {
	items := make([]SensorData, 0, len(p.Items))
	for _, r := range p.Items {
		items = append(items, NewSensorData(r))
	}

	return HistoryResponse{
		Items:    items,
		Page:     p.Page,
		PageSize: p.PageSize,
		Total:    p.Total,
		Pages:    p.Pages,
		HasPrev:  p.HasPrev(),
		HasNext:  p.HasNext(),
	}
}

// DeviceStatusResponse reports device freshness.
type DeviceStatusResponse struct {
	// Online, Offline or Unknown
	Status irrigation.DeviceStatus `json:"status"`
	// Time of the latest reading, null when nothing was received
	LastSeen *string `json:"last_seen"`
}

func NewDeviceStatusResponse(d irrigation.DeviceReport) DeviceStatusResponse {
	resp := DeviceStatusResponse{Status: d.Status}
	if d.LastSeen != nil {
		resp.LastSeen = utils.Ptr(FormatTimestamp(*d.LastSeen))
	}

	return resp
}

// IngestResponse is returned when a reading was stored.
type IngestResponse struct {
	// Human-readable message
	Message string `json:"message"`
	// The stored reading
	Reading SensorData `json:"reading"`
}

// IrrigateResponse is the outcome of a manual irrigation request.
type IrrigateResponse struct {
	// Human-readable message
	Message string `json:"message"`
	// Pump state after the command
	State irrigation.PumpState `json:"state"`
}
