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

// Irrigate triggers the pump according to the configured pump mode.
func (h *Handler) Irrigate(w http.ResponseWriter, r *http.Request) error {
	res, err := h.svc.Irrigation.ManualIrrigate(r.Context())
	if err != nil {
		if errors.Is(err, irrigation.ErrTransportFailure) {
			apicommon.GetLoggerFromContext(r.Context()).Warn("pump command not delivered", utils.ErrAttr(err))
			return apicommon.NewError(http.StatusServiceUnavailable, "Pump controller unreachable, try again later")
		}

		return err
	}

	apicommon.RespondJSON(w, r, http.StatusOK, apitypes.IrrigateResponse{
		Message: res.Message,
		State:   res.State,
	})

	return nil
}

func (h *Handler) RegisterIrrigate(path string, rb *router.RouteBuilder) {
	rb.MustPost(path, router.RouteSpec{
		OperationID: "irrigate",
		Summary:     "Water the plants",
		Description: "In toggle mode flips the pump and sends the new state. In pulse mode sends MANUAL and the device runs the pump for a fixed time. The reported state is optimistic",
		Group:       PumpGroup,
		Handler:     apicommon.ErrorHandler(h.Irrigate),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {
				Description: "Command sent",
				Type:        apitypes.IrrigateResponse{},
				Examples: map[string]any{
					"Pulse":  apitypes.IrrigateResponse{Message: "Watering plants (2 seconds)...", State: irrigation.PumpOn},
					"Toggle": apitypes.IrrigateResponse{Message: "Pump turned OFF.", State: irrigation.PumpOff},
				},
			},
			503: {
				Description: "Command could not be handed to the broker",
				Type:        types.ErrorResponse{},
				Examples: map[string]any{
					"Broker Down": types.ErrorResponse{
						RequestID: "00000000-0000-0000-0000-000000000000",
						Message:   "Pump controller unreachable, try again later",
					},
				},
			},
		}),
	})
}
