package api

import (
	"context"
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/nodepower/internal/api/models"
)

func (s *Server) registerLEDRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-leds",
		Method:      http.MethodGet,
		Path:        "/api/leds",
		Summary:     "List indicators",
		Tags:        []string{"leds"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.LEDListResponse, error) {
		return &models.LEDListResponse{
			Body: models.LEDListData{Available: s.options.Power.LEDs().Available()},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-led",
		Method:      http.MethodPut,
		Path:        "/api/leds/{name}",
		Summary:     "Switch an indicator",
		Description: "Write 1 or 0 to the indicator's brightness attribute.",
		Tags:        []string{"leds"},
		Errors:      []int{401, 404, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.LEDSetRequest) (*models.LEDResponse, error) {
		if !slices.Contains(s.options.Power.LEDs().Available(), input.Name) {
			return nil, huma.Error404NotFound("unknown led " + input.Name)
		}
		if err := s.withHardware(ctx, func(ctx context.Context) error {
			return s.options.Power.SetLED(ctx, input.Name, input.Body.On)
		}); err != nil {
			return nil, s.powerError(err)
		}
		return &models.LEDResponse{Body: models.LEDData{Name: input.Name, On: input.Body.On}}, nil
	})
}
