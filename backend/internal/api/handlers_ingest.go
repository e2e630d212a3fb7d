package api

import (
	"errors"
	"net/http"

	apitypes "irrigation-monitor/backend/internal/api/types"
	"irrigation-monitor/backend/internal/irrigation"
	apicommon "irrigation-monitor/backend/internal/shared/api"
	"irrigation-monitor/backend/internal/shared/types"
	"irrigation-monitor/backend/pkg/router"
	"irrigation-monitor/backend/pkg/utils"
)

// IngestReading stores a reading posted by a device over HTTP.
func (h *Handler) IngestReading(w http.ResponseWriter, r *http.Request) error {
	body, err := apicommon.ReadBody(r)
	if err != nil {
		return err
	}

	reading, err := h.svc.Irrigation.Ingest(r.Context(), body)
	if err != nil {
		return ingestError(err)
	}

	apicommon.RespondJSON(w, r, http.StatusCreated, apitypes.IngestResponse{
		Message: "Data received successfully",
		Reading: apitypes.NewSensorData(reading),
	})

	return nil
}

// ingestError maps ingestion failures to client errors. Store failures stay internal.
func ingestError(err error) error {
	var incomplete *irrigation.IncompleteDataError
	if errors.As(err, &incomplete) {
		resp := apicommon.NewError(http.StatusBadRequest, "Missing required field: "+incomplete.Field)
		for _, f := range incomplete.Missing() {
			resp.AddError(f, "required")
		}

		return resp
	}

	if errors.Is(err, irrigation.ErrMalformedInput) {
		return apicommon.NewError(http.StatusBadRequest, "Request body must be a JSON object")
	}

	return err
}

func (h *Handler) RegisterIngestReading(path string, rb *router.RouteBuilder) {
	rb.MustPost(path, router.RouteSpec{
		OperationID: "ingestReading",
		Summary:     "Submit a sensor reading",
		Description: "Stores one reading. The server stamps the capture time. Rainfall is looked up from the weather service when omitted. pompa_status, when present, updates the tracked pump state",
		Group:       IngestionGroup,
		Handler:     apicommon.ErrorHandler(h.IngestReading),
		RequestType: &router.RequestBodySpec{
			Description: "Sensor payload. kelembapan_tanah, kelembapan_udara and suhu_udara are accepted as aliases",
			Type:        irrigation.SensorPayload{},
			Examples: map[string]any{
				"Reading": irrigation.SensorPayload{
					SoilMoisture: utils.Ptr(50.0),
					Humidity:     utils.Ptr(60.0),
					Temperature:  utils.Ptr(28.0),
				},
				"With Pump Status": irrigation.SensorPayload{
					SoilMoisture: utils.Ptr(31.5),
					Humidity:     utils.Ptr(72.0),
					Temperature:  utils.Ptr(26.4),
					Rainfall:     utils.Ptr(1.2),
					PumpStatus:   utils.Ptr("ON"),
				},
			},
		},
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			201: {
				Description: "Reading stored",
				Type:        apitypes.IngestResponse{},
				Examples: map[string]any{
					"Stored": apitypes.IngestResponse{Message: "Data received successfully", Reading: exampleReading},
				},
			},
			400: {
				Description: "Malformed or incomplete payload",
				Type:        types.ErrorResponse{},
				Examples: map[string]any{
					"Missing Field": types.ErrorResponse{
						RequestID: "00000000-0000-0000-0000-000000000000",
						Message:   "Missing required field: humidity",
						Errors:    map[string]string{"humidity": "required"},
					},
					"Malformed": types.ErrorResponse{
						RequestID: "00000000-0000-0000-0000-000000000000",
						Message:   "Request body must be a JSON object",
					},
				},
			},
		}),
	})
}
