package http

import (
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/service"
)

// Handler holds dependencies for the sizing HTTP handlers.
type Handler struct {
	svc *service.SizingService
}

// NewHandler creates a sizing handler.
func NewHandler(svc *service.SizingService) *Handler {
	return &Handler{svc: svc}
}

// SizeNetworkRequest is the body of POST /networks/size. The network is
// submitted inline as the YAML scenario document.
type SizeNetworkRequest struct {
	NetworkYAML string                 `json:"network_yaml" binding:"required"`
	Async       bool                   `json:"async,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// SizeNetworkResponse echoes the run plus, for synchronous requests, the
// terminal sizing state.
type SizeNetworkResponse struct {
	Run     *domain.SizingRun     `json:"run"`
	State   string                `json:"state,omitempty"`
	Score   float64               `json:"score,omitempty"`
	Summary *domain.SizingSummary `json:"summary,omitempty"`
}
