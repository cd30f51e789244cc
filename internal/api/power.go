package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/nodepower/internal/api/models"
	"github.com/smazurov/nodepower/internal/led"
	"github.com/smazurov/nodepower/internal/power"
)

func (s *Server) registerPowerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "set-power",
		Method:      http.MethodPost,
		Path:        "/api/power",
		Summary:     "Set node power",
		Description: "Power the nodes selected by mask on or off according to state. Nodes are changed one at a time, lowest first; on failure, nodes before the failing one keep their new state.",
		Tags:        []string{"power"},
		Errors:      []int{401, 422, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.PowerRequest) (*models.PowerResponse, error) {
		state, mask := uint8(input.Body.State), uint8(input.Body.Mask)
		if err := s.withHardware(ctx, func(ctx context.Context) error {
			return s.options.Power.SetPowerNode(ctx, state, mask)
		}); err != nil {
			return nil, s.powerError(err)
		}
		return &models.PowerResponse{Body: powerData(state, mask)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-node-power",
		Method:      http.MethodPost,
		Path:        "/api/nodes/{node}/power",
		Summary:     "Set one node's power",
		Tags:        []string{"power"},
		Errors:      []int{401, 422, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.NodePowerRequest) (*models.PowerResponse, error) {
		bit := power.NodeID(input.Node).Bitfield()
		state := uint8(0)
		if input.Body.On {
			state = bit
		}
		if err := s.withHardware(ctx, func(ctx context.Context) error {
			return s.options.Power.SetPowerNode(ctx, state, bit)
		}); err != nil {
			return nil, s.powerError(err)
		}
		return &models.PowerResponse{Body: powerData(state, bit)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "reset-node",
		Method:      http.MethodPost,
		Path:        "/api/nodes/{node}/reset",
		Summary:     "Reset a node",
		Description: "Power the node off, wait one second, and power it on again.",
		Tags:        []string{"power"},
		Errors:      []int{401, 422, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.NodeResetRequest) (*models.NodeResetResponse, error) {
		if err := s.withHardware(ctx, func(ctx context.Context) error {
			return s.options.Power.ResetNode(ctx, power.NodeID(input.Node))
		}); err != nil {
			return nil, s.powerError(err)
		}
		return &models.NodeResetResponse{Body: models.NodeResetData{Node: input.Node, Action: "reset"}}, nil
	})
}

// withHardware runs fn under the hardware lock. A client going away does
// not interrupt a sequence halfway.
func (s *Server) withHardware(ctx context.Context, fn func(context.Context) error) error {
	s.hw.Lock()
	defer s.hw.Unlock()
	return fn(context.WithoutCancel(ctx))
}

func powerData(state, mask uint8) models.PowerData {
	nodes := make([]models.NodeState, 0, power.NodeCount)
	for index, on := range power.Bits(state, mask&power.AllNodes) {
		nodes = append(nodes, models.NodeState{Node: int(power.NodeAt(index)), On: on})
	}
	return models.PowerData{State: int(state), Mask: int(mask), Nodes: nodes}
}

// powerError maps controller failures to HTTP errors.
func (s *Server) powerError(err error) error {
	if errors.Is(err, led.ErrUnknownLED) {
		return huma.Error404NotFound(err.Error())
	}

	var pe *power.Error
	if !errors.As(err, &pe) {
		s.logger.Error("Unexpected power failure", "error", err)
		return huma.Error500InternalServerError("power operation failed", err)
	}

	switch pe.Code {
	case power.ErrInvalidNode:
		return huma.Error422UnprocessableEntity(pe.Message, err)
	default:
		return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", pe.Code, pe.Target), err)
	}
}
