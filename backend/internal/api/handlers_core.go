package api

import (
	"net/http"

	apicommon "irrigation-monitor/backend/internal/shared/api"
	"irrigation-monitor/backend/internal/shared/types"
	"irrigation-monitor/backend/pkg/router"
)

func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) error {
	apicommon.RespondJSON(w, r, http.StatusOK, types.PingResponse{
		Message: "Pong", Status: types.PingStatusOK,
	})

	return nil
}

func (h *Handler) RegisterPing(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, router.RouteSpec{
		OperationID: "ping",
		Summary:     "Ping the server",
		Description: "Check if the server is alive",
		Group:       CoreGroup,
		RequestType: nil,
		Handler:     apicommon.ErrorHandler(h.Ping),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {
				Description: "Successful ping response",
				Type:        types.PingResponse{},
				Examples: map[string]any{
					"Success": types.PingResponse{Message: "Pong", Status: types.PingStatusOK},
				},
			},
		}),
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) error {
	status := h.svc.Core.Health(r.Context())
	resp := types.HealthResponse{
		Database: status.Database,
		MQTT:     status.MQTT,
	}

	code := http.StatusOK
	if !status.Database || !status.MQTT {
		code = http.StatusServiceUnavailable
	}

	apicommon.RespondJSON(w, r, code, resp)

	return nil
}

func (h *Handler) RegisterHealth(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, router.RouteSpec{
		OperationID: "health",
		Summary:     "Check server health",
		Description: "Check that the reading store and the MQTT broker are reachable",
		Group:       CoreGroup,
		RequestType: nil,
		Handler:     apicommon.ErrorHandler(h.Health),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {
				Description: "Successful health response",
				Type:        types.HealthResponse{},
				Examples: map[string]any{
					"Success": types.HealthResponse{Database: true, MQTT: true},
				},
			},
			503: {
				Description: "Server unavailable",
				Type:        types.HealthResponse{},
				Examples: map[string]any{
					"Database Unavailable": types.HealthResponse{Database: false, MQTT: true},
					"MQTT Unavailable":     types.HealthResponse{Database: true, MQTT: false},
					"Both Unavailable":     types.HealthResponse{Database: false, MQTT: false},
				},
			},
		}),
	})
}
